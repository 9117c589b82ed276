package api

import (
	"context"
	"fmt"
	"net/http"

	"narrative-engine/internal/models"
	"narrative-engine/internal/state"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// StageLoader — чтение сцен для просмотра без игры.
type StageLoader interface {
	LoadStage(ctx context.Context, key string) (models.StageOrStub, error)
}

// Handler обслуживает /api/v1.
type Handler struct {
	stages   StageLoader
	newGame  state.GameFactory
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

func NewHandler(stages StageLoader, newGame state.GameFactory, logger *zap.Logger) *Handler {
	return &Handler{
		stages:  stages,
		newGame: newGame,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		logger: logger.Named("APIHandler"),
	}
}

func (h *Handler) RegisterRoutes(g *gin.RouterGroup) {
	g.GET("/stages/:key", h.getStage)
	g.POST("/commands", h.executeCommand)
	g.GET("/grammars", h.listGrammars)
	g.GET("/grammars/:name", h.getGrammar)
	g.GET("/play", h.play)
}

type stageResponse struct {
	Stage *models.Stage     `json:"stage,omitempty"`
	Stub  *models.SceneStub `json:"stub,omitempty"`
}

func (h *Handler) getStage(c *gin.Context) {
	loaded, err := h.stages.LoadStage(c.Request.Context(), c.Param("key"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, stageResponse{Stage: loaded.Stage, Stub: loaded.Stub})
}

type commandRequest struct {
	SceneKey string `json:"scene_key" binding:"required"`
	Input    string `json:"input" binding:"required"`
}

type turnResponse struct {
	Turn   state.Turn `json:"turn"`
	Events []string   `json:"events"`
}

func newTurnResponse(turn state.Turn) turnResponse {
	events := make([]string, 0, len(turn.Execution.Events))
	for _, e := range turn.Execution.Events {
		events = append(events, models.DescribeEvent(e))
	}
	return turnResponse{Turn: turn, Events: events}
}

// executeCommand играет один ход в указанной сцене в отдельной сессии.
func (h *Handler) executeCommand(c *gin.Context) {
	var req commandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, fmt.Errorf("%w: %v", models.ErrInvalidInput, err))
		return
	}

	ctx := c.Request.Context()
	game := h.newGame()
	if _, err := game.Enter(ctx, req.SceneKey); err != nil {
		handleError(c, err)
		return
	}
	turn, err := game.Play(ctx, req.Input)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTurnResponse(turn))
}

func (h *Handler) listGrammars(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"grammars": models.GrammarNames()})
}

func (h *Handler) getGrammar(c *gin.Context) {
	name := c.Param("name")
	g, ok := models.Grammar(name)
	if !ok {
		handleError(c, fmt.Errorf("grammar %q: %w", name, models.ErrNotFound))
		return
	}
	c.String(http.StatusOK, g)
}

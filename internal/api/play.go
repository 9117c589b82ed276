package api

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"time"

	"narrative-engine/internal/models"
	"narrative-engine/internal/state"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// playMessage — сообщение сервера в WebSocket-сессии.
type playMessage struct {
	Type   string        `json:"type"` // stage | turn | error
	Stage  *models.Stage `json:"stage,omitempty"`
	Turn   *state.Turn   `json:"turn,omitempty"`
	Events []string      `json:"events,omitempty"`
	Error  string        `json:"error,omitempty"`
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(allowed, "*") || slices.Contains(allowed, origin)
	}
}

// wsConn сериализует запись: ответы на ходы и пинги идут из разных горутин.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsConn) send(msg playMessage) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return w.conn.WriteJSON(msg)
}

func (w *wsConn) ping() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// play открывает игровую сессию: одна Game на соединение, каждый текстовый
// кадр — ввод игрока. Стартовая сцена берётся из ?scene= или корневая.
func (h *Handler) play(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("Failed to upgrade connection", zap.Error(err))
		return
	}
	ws := &wsConn{conn: conn}
	playConnections.Inc()
	log := h.logger.With(zap.String("request_id", c.GetString(requestIDKey)), zap.String("player", c.GetString(playerIDKey)))
	log.Info("Play session opened")

	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		_ = conn.Close()
		playConnections.Dec()
		log.Info("Play session closed")
	}()

	game := h.newGame()
	var stage models.Stage
	if key := c.Query("scene"); key != "" {
		stage, err = game.Enter(ctx, key)
	} else {
		stage, err = game.EnsureRootStage(ctx)
	}
	if err != nil {
		log.Error("Failed to enter starting scene", zap.Error(err))
		_ = ws.send(playMessage{Type: "error", Error: err.Error()})
		return
	}
	if err := ws.send(playMessage{Type: "stage", Stage: &stage}); err != nil {
		return
	}

	go h.keepAlive(ctx, ws, log)

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("WebSocket read error", zap.Error(err))
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}

		turn, err := game.Play(ctx, string(data))
		if err != nil {
			playTurns.WithLabelValues("error").Inc()
			status, message := statusOf(err)
			if status >= http.StatusInternalServerError {
				log.Error("Turn failed", zap.Error(err))
			}
			if sendErr := ws.send(playMessage{Type: "error", Error: message}); sendErr != nil {
				return
			}
			continue
		}
		playTurns.WithLabelValues("ok").Inc()

		resp := newTurnResponse(turn)
		if err := ws.send(playMessage{Type: "turn", Turn: &resp.Turn, Events: resp.Events}); err != nil {
			log.Warn("Failed to send turn", zap.Error(err))
			return
		}
	}
}

func (h *Handler) keepAlive(ctx context.Context, ws *wsConn, log *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := ws.ping(); err != nil {
				log.Debug("Ping failed", zap.Error(err))
				return
			}
		}
	}
}

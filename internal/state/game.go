// Package state ведёт игровую сессию: текущую сцену и применение событий
// исполненных команд.
package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"narrative-engine/internal/commands"
	"narrative-engine/internal/models"

	"go.uber.org/zap"
)

// RootFantasticalness — степень фантастичности стартовой сцены.
const RootFantasticalness = "mundane"

// World — хранилище мира, которое нужно игре.
type World interface {
	// LoadStage возвращает сцену или заглушку. Отсутствие — ErrStageNotFound.
	LoadStage(ctx context.Context, key string) (models.StageOrStub, error)
	// LoadEntity ищет человека или предмет в сцене. Отсутствие — ErrEntityNotFound.
	LoadEntity(ctx context.Context, sceneKey, entityKey string) (models.Entity, error)
	StoreContent(ctx context.Context, content *models.ContentContainer) error
}

// SceneCreator генерирует новые сцены.
type SceneCreator interface {
	CreateSceneWithKey(ctx context.Context, sceneType, fantasticalness, key string) (*models.ContentContainer, error)
	CreateSceneFromStub(ctx context.Context, stub models.SceneStub, connected models.Scene) (*models.ContentContainer, error)
}

// TurnExecutor исполняет ввод игрока в сцене.
type TurnExecutor interface {
	Execute(ctx context.Context, stage models.Stage, input string) (commands.Result, error)
}

// Turn — итог одного хода.
type Turn struct {
	Input      string                  `json:"input"`
	Lines      []string                `json:"lines"`
	Builtin    commands.Builtin        `json:"builtin,omitempty"`
	Execution  models.CommandExecution `json:"execution"`
	Unresolved string                  `json:"unresolved,omitempty"`
	Stage      models.Stage            `json:"stage"`
}

// Game — сессия одного игрока. Методы безопасны для конкурентного вызова,
// но ходы исполняются строго по одному.
type Game struct {
	world       World
	creator     SceneCreator
	executor    TurnExecutor
	startPrompt string
	logger      *zap.Logger

	mu      sync.Mutex
	current models.Stage
	journal []models.CommandEvent
}

// GameFactory создаёт новую сессию, например на каждое соединение.
type GameFactory func() *Game

func NewGame(world World, creator SceneCreator, executor TurnExecutor, startPrompt string, logger *zap.Logger) *Game {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Game{
		world:       world,
		creator:     creator,
		executor:    executor,
		startPrompt: startPrompt,
		logger:      logger.Named("Game"),
	}
}

// Current возвращает текущую сцену.
func (g *Game) Current() models.Stage {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current
}

// Journal — события, применённые за сессию.
func (g *Game) Journal() []models.CommandEvent {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]models.CommandEvent(nil), g.journal...)
}

// EnsureRootStage загружает стартовую сцену, а если её нет, генерирует её
// из стартового промпта и сохраняет.
func (g *Game) EnsureRootStage(ctx context.Context) (models.Stage, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	loaded, err := g.world.LoadStage(ctx, models.RootSceneKey)
	switch {
	case err == nil && loaded.IsStub():
		return models.Stage{}, models.ErrRootIsStub
	case err == nil:
		g.current = *loaded.Stage
		return g.current, nil
	case !errors.Is(err, models.ErrStageNotFound):
		return models.Stage{}, fmt.Errorf("load root scene: %w", err)
	}

	g.logger.Info("Root scene not found, generating", zap.String("prompt", g.startPrompt))
	content, err := g.creator.CreateSceneWithKey(ctx, g.startPrompt, RootFantasticalness, models.RootSceneKey)
	if err != nil {
		return models.Stage{}, fmt.Errorf("create root scene: %w", err)
	}
	stage, err := g.storeAndLoad(ctx, content)
	if err != nil {
		return models.Stage{}, err
	}
	g.current = stage
	return stage, nil
}

// Enter делает текущей уже сгенерированную сцену.
func (g *Game) Enter(ctx context.Context, key string) (models.Stage, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	loaded, err := g.world.LoadStage(ctx, key)
	if err != nil {
		return models.Stage{}, err
	}
	if loaded.IsStub() {
		return models.Stage{}, fmt.Errorf("%w: %s is not generated yet", models.ErrStageNotFound, key)
	}
	g.current = *loaded.Stage
	return g.current, nil
}

// Play исполняет ввод игрока в текущей сцене и применяет события.
func (g *Game) Play(ctx context.Context, input string) (Turn, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return Turn{}, models.ErrEmptyCommand
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	result, err := g.executor.Execute(ctx, g.current, input)
	if err != nil {
		return Turn{}, err
	}

	turn := Turn{Input: input, Builtin: result.Builtin, Execution: result.Execution}
	if result.Unresolved.Len() > 0 {
		turn.Unresolved = result.Unresolved.Diagnostic()
	}

	if result.IsBuiltin() {
		turn.Lines = g.builtin(result.Builtin)
	} else {
		lines, err := g.apply(ctx, result.Execution)
		if err != nil {
			return Turn{}, err
		}
		turn.Lines = lines
	}
	turn.Stage = g.current
	return turn, nil
}

func (g *Game) builtin(b commands.Builtin) []string {
	switch b {
	case commands.LookAtScene:
		return []string{g.current.Display()}
	default:
		return nil
	}
}

// Apply применяет исполнение к игре и возвращает строки для игрока.
func (g *Game) Apply(ctx context.Context, execution models.CommandExecution) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.apply(ctx, execution)
}

func (g *Game) apply(ctx context.Context, execution models.CommandExecution) ([]string, error) {
	if !execution.Valid {
		reason := "for some reason..."
		if execution.Reason != nil {
			reason = *execution.Reason
		}
		return []string{"You can't do that: " + reason}, nil
	}

	var lines []string
	if execution.Narration != "" {
		lines = append(lines, execution.Narration)
	}
	for _, event := range execution.Events {
		line, err := g.update(ctx, event)
		if err != nil {
			return nil, fmt.Errorf("apply %s: %w", models.DescribeEvent(event), err)
		}
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

// update применяет одно событие. Возвращает строку для игрока, если она есть.
func (g *Game) update(ctx context.Context, event models.CommandEvent) (string, error) {
	g.journal = append(g.journal, event)
	g.logger.Debug("Handling event", zap.String("event", models.DescribeEvent(event)))

	switch e := event.(type) {
	case models.ChangeScene:
		return "", g.changeScene(ctx, e.SceneKey)
	case models.Narration:
		return e.Text, nil
	case models.LookAtEntity:
		return g.lookAt(ctx, e.EntityKey)
	case models.Unrecognized:
		return e.Narration, nil
	default:
		return "", nil
	}
}

// changeScene переходит в сцену, генерируя её из заглушки при первом визите.
// Неизвестный ключ оставляет игрока на месте.
func (g *Game) changeScene(ctx context.Context, key string) error {
	loaded, err := g.world.LoadStage(ctx, key)
	if errors.Is(err, models.ErrStageNotFound) {
		g.logger.Warn("Scene to change to does not exist", zap.String("key", key))
		return nil
	}
	if err != nil {
		return err
	}

	if !loaded.IsStub() {
		g.current = *loaded.Stage
		return nil
	}

	content, err := g.creator.CreateSceneFromStub(ctx, *loaded.Stub, g.current.Scene)
	if err != nil {
		return fmt.Errorf("create scene from stub %s: %w", key, err)
	}
	stage, err := g.storeAndLoad(ctx, content)
	if err != nil {
		return err
	}
	g.current = stage
	return nil
}

func (g *Game) lookAt(ctx context.Context, entityKey string) (string, error) {
	entity, err := g.world.LoadEntity(ctx, g.current.Key, entityKey)
	if errors.Is(err, models.ErrEntityNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	switch {
	case entity.Person != nil:
		return entity.Person.Description, nil
	case entity.Item != nil:
		return entity.Item.Description, nil
	default:
		return "", nil
	}
}

func (g *Game) storeAndLoad(ctx context.Context, content *models.ContentContainer) (models.Stage, error) {
	if err := g.world.StoreContent(ctx, content); err != nil {
		return models.Stage{}, fmt.Errorf("store scene: %w", err)
	}
	key := content.Owner.ContentKey()
	loaded, err := g.world.LoadStage(ctx, key)
	if err != nil {
		return models.Stage{}, fmt.Errorf("reload scene %s: %w", key, err)
	}
	if loaded.IsStub() {
		return models.Stage{}, fmt.Errorf("reload scene %s: stored scene is still a stub", key)
	}
	return *loaded.Stage, nil
}

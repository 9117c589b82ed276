package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"narrative-engine/internal/models"

	"go.uber.org/zap"
)

// ErrExecutionFailed — ни одно событие исполнения не удалось сконвертировать
// или починить. Текст ошибки перечисляет каждое событие.
var ErrExecutionFailed = errors.New("command execution failed")

// CommandLogic разбирает и исполняет команды через модель.
type CommandLogic interface {
	// Execute разбирает ввод и исполняет первую команду. Возвращает
	// разобранные команды для кэша.
	Execute(ctx context.Context, stage models.Stage, input string) (models.Commands, models.RawCommandExecution, error)
	ExecuteParsed(ctx context.Context, stage models.Stage, cmds models.Commands) (models.RawCommandExecution, error)
}

// CommandCache хранит разбор ввода по паре (ввод, сцена). Промах — nil без
// ошибки.
type CommandCache interface {
	Load(ctx context.Context, raw, sceneKey string) (*models.CachedCommand, error)
	Store(ctx context.Context, raw, sceneKey string, cmds models.Commands) error
}

// Result — итог исполнения ввода игрока: встроенная команда либо проверенное
// исполнение. Unresolved хранит события, которые не удалось починить.
type Result struct {
	Builtin    Builtin                        `json:"builtin,omitempty"`
	Execution  models.CommandExecution        `json:"execution"`
	Unresolved models.EventConversionFailures `json:"-"`
}

// IsBuiltin сообщает, что ввод обработан без модели.
func (r Result) IsBuiltin() bool { return r.Builtin != NoBuiltin }

type Executor struct {
	logic   CommandLogic
	checker WorldChecker
	cache   CommandCache
	logger  *zap.Logger
}

func NewExecutor(logic CommandLogic, checker WorldChecker, cache CommandCache, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		logic:   logic,
		checker: checker,
		cache:   cache,
		logger:  logger.Named("CommandExecutor"),
	}
}

// Execute исполняет ввод игрока в сцене. Ввод приводится к нижнему
// регистру, так что "Look" и "look" делят одну запись кэша.
func (e *Executor) Execute(ctx context.Context, stage models.Stage, input string) (Result, error) {
	input = strings.ToLower(strings.TrimSpace(input))
	if builtin, ok := CheckBuiltin(stage, input); ok {
		commandSources.WithLabelValues("builtin").Inc()
		return Result{Builtin: builtin, Execution: models.EmptyExecution()}, nil
	}

	raw, err := e.rawExecution(ctx, stage, input)
	if err != nil {
		return Result{}, err
	}

	converted := ConvertRawExecution(ctx, raw, e.checker)
	switch r := converted.(type) {
	case models.ConversionSuccess:
		return Result{Execution: r.Execution}, nil
	case models.ConversionPartialSuccess:
		return e.repair(ctx, stage, raw, r.Execution.Events, r.Failures)
	case models.ConversionFailure:
		return e.repair(ctx, stage, raw, nil, r.Failures)
	default:
		return Result{}, fmt.Errorf("unexpected conversion result %T", converted)
	}
}

// rawExecution берёт команды из таблицы сокращений или кэша, а при промахе
// разбирает ввод моделью и кладёт разбор в кэш.
func (e *Executor) rawExecution(ctx context.Context, stage models.Stage, input string) (models.RawCommandExecution, error) {
	if cmds, ok := Translate(input); ok {
		commandSources.WithLabelValues("translation").Inc()
		return e.logic.ExecuteParsed(ctx, stage, cmds)
	}

	cached, err := e.cache.Load(ctx, input, stage.Key)
	if err != nil {
		e.logger.Warn("Failed to load cached command", zap.String("input", input), zap.Error(err))
	}
	if cached != nil {
		commandSources.WithLabelValues("cache").Inc()
		return e.logic.ExecuteParsed(ctx, stage, cached.Commands)
	}

	commandSources.WithLabelValues("model").Inc()
	cmds, raw, err := e.logic.Execute(ctx, stage, input)
	if err != nil {
		return models.RawCommandExecution{}, err
	}
	if err := e.cache.Store(ctx, input, stage.Key, cmds); err != nil {
		e.logger.Warn("Failed to cache command", zap.String("input", input), zap.Error(err))
	}
	return raw, nil
}

func (e *Executor) repair(
	ctx context.Context,
	stage models.Stage,
	raw models.RawCommandExecution,
	events []models.CommandEvent,
	failures models.EventConversionFailures,
) (Result, error) {
	fixed, unfixed := NewCoherence(e.checker, stage, e.logger).Repair(ctx, failures.CoherenceFailures)
	events = append(events, fixed...)
	failures.CoherenceFailures = unfixed

	if len(events) == 0 {
		e.logger.Warn("Command execution failed", zap.String("stage", stage.Key), zap.String("diagnostic", failures.Diagnostic()))
		return Result{}, fmt.Errorf("%w: %s", ErrExecutionFailed, failures.Diagnostic())
	}
	if failures.Len() > 0 {
		e.logger.Info("Executed with unresolved events", zap.String("stage", stage.Key), zap.String("diagnostic", failures.Diagnostic()))
	}
	return Result{
		Execution:  models.CommandExecution{Valid: true, Narration: raw.Narration, Events: events},
		Unresolved: failures,
	}, nil
}

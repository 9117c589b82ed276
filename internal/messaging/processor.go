package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"narrative-engine/internal/commands"
	"narrative-engine/internal/models"
	"narrative-engine/internal/state"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrMalformedTask — тело сообщения не разбирается, повтор бесполезен.
var ErrMalformedTask = errors.New("malformed command task")

// ResultPublisher отправляет результат задачи.
type ResultPublisher interface {
	PublishResult(ctx context.Context, result CommandResult) error
}

// TaskProcessor исполняет задачи из очереди: входит в сцену, играет ход и
// публикует результат. Ошибки хода уходят клиенту в результате, а не в DLQ.
type TaskProcessor struct {
	newGame   state.GameFactory
	publisher ResultPublisher
	timeout   time.Duration
	logger    *zap.Logger
}

func NewTaskProcessor(newGame state.GameFactory, publisher ResultPublisher, timeout time.Duration, logger *zap.Logger) *TaskProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskProcessor{
		newGame:   newGame,
		publisher: publisher,
		timeout:   timeout,
		logger:    logger.Named("TaskProcessor"),
	}
}

// Process обрабатывает одно сообщение. Ошибка означает, что сообщение надо
// отклонить: его нельзя разобрать или результат не удалось отправить.
func (p *TaskProcessor) Process(ctx context.Context, body []byte) error {
	tasksReceived.Inc()
	start := time.Now()
	defer observeTask(start)

	var task CommandTask
	if err := json.Unmarshal(body, &task); err != nil {
		tasksFailed.WithLabelValues("deserialization").Inc()
		p.logger.Error("Failed to unmarshal command task", zap.Error(err), zap.Int("body_size", len(body)))
		return fmt.Errorf("%w: %v", ErrMalformedTask, err)
	}
	if task.TaskID == "" {
		task.TaskID = uuid.NewString()
	}
	log := p.logger.With(zap.String("task_id", task.TaskID), zap.String("scene", task.SceneKey))
	log.Info("Processing command task")

	result := p.run(ctx, task, log)

	if err := p.publisher.PublishResult(ctx, result); err != nil {
		tasksFailed.WithLabelValues("publish").Inc()
		log.Error("Failed to publish command result", zap.Error(err))
		return fmt.Errorf("publish result %s: %w", task.TaskID, err)
	}
	log.Info("Command task finished", zap.String("status", string(result.Status)), zap.Duration("took", time.Since(start)))
	return nil
}

func (p *TaskProcessor) run(ctx context.Context, task CommandTask, log *zap.Logger) CommandResult {
	if task.SceneKey == "" {
		return p.failed(task, "validation", fmt.Errorf("%w: scene_key is required", models.ErrInvalidInput), log)
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	game := p.newGame()
	if _, err := game.Enter(ctx, task.SceneKey); err != nil {
		return p.failed(task, failureReason(err), err, log)
	}
	turn, err := game.Play(ctx, task.Input)
	if err != nil {
		return p.failed(task, failureReason(err), err, log)
	}

	tasksSucceeded.Inc()
	return CommandResult{
		TaskID:     task.TaskID,
		Status:     StatusSuccess,
		SceneKey:   turn.Stage.Key,
		Valid:      turn.Execution.Valid,
		Lines:      turn.Lines,
		Unresolved: turn.Unresolved,
	}
}

func (p *TaskProcessor) failed(task CommandTask, reason string, err error, log *zap.Logger) CommandResult {
	tasksFailed.WithLabelValues(reason).Inc()
	log.Warn("Command task failed", zap.String("reason", reason), zap.Error(err))
	return CommandResult{
		TaskID:       task.TaskID,
		Status:       StatusError,
		SceneKey:     task.SceneKey,
		ErrorDetails: err.Error(),
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, models.ErrStageNotFound):
		return "stage_not_found"
	case errors.Is(err, models.ErrEmptyCommand):
		return "empty_command"
	case errors.Is(err, commands.ErrExecutionFailed):
		return "execution_failed"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "internal"
	}
}

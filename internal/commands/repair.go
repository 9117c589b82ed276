package commands

import (
	"context"
	"errors"
	"strings"

	"narrative-engine/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	errEntityKeyNotUUID = errors.New("entity key is not a UUID")
	errEntityKeyIsScene = errors.New("scene key and entity key are the same")
	errUnknownSceneRef  = errors.New("scene reference matches no exit of the current scene")
)

const (
	repairResultFixed   = "fixed"
	repairResultUnfixed = "unfixed"
)

// Coherence чинит события, не прошедшие проверку по миру, в контексте
// текущей сцены.
type Coherence struct {
	checker WorldChecker
	stage   models.Stage
	logger  *zap.Logger
}

func NewCoherence(checker WorldChecker, stage models.Stage, logger *zap.Logger) *Coherence {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coherence{checker: checker, stage: stage, logger: logger.Named("CommandCoherence")}
}

// Repair пытается починить каждое событие и проверяет его заново.
// Возвращает починенные события и то, что починить не удалось.
func (c *Coherence) Repair(ctx context.Context, failures []models.EventCoherenceFailure) ([]models.CommandEvent, []models.EventCoherenceFailure) {
	var (
		fixed   []models.CommandEvent
		unfixed []models.EventCoherenceFailure
	)
	for _, failure := range failures {
		event, err := c.fixEvent(failure)
		if err != nil {
			repairOutcomes.WithLabelValues(repairResultUnfixed).Inc()
			unfixed = append(unfixed, models.EventCoherenceFailure{
				Kind:    models.OtherError,
				Event:   failure.Event,
				Message: err.Error(),
			})
			continue
		}

		if recheck := validateCoherence(ctx, event, c.checker); recheck != nil {
			repairOutcomes.WithLabelValues(repairResultUnfixed).Inc()
			unfixed = append(unfixed, *recheck)
			continue
		}

		repairOutcomes.WithLabelValues(repairResultFixed).Inc()
		c.logger.Debug("Repaired incoherent event",
			zap.String("before", models.DescribeEvent(failure.Event)),
			zap.String("after", models.DescribeEvent(event)),
		)
		fixed = append(fixed, event)
	}
	return fixed, unfixed
}

func (c *Coherence) fixEvent(failure models.EventCoherenceFailure) (models.CommandEvent, error) {
	if failure.Kind != models.TargetDoesNotExist {
		return failure.Event, nil
	}

	switch e := failure.Event.(type) {
	case models.LookAtEntity:
		return c.fixLookAtEntity(e)
	case models.ChangeScene:
		return c.fixChangeScene(e)
	default:
		return failure.Event, nil
	}
}

// fixLookAtEntity нормализует ключ сущности. Ключ, который и после этого
// не UUID или совпадает с ключом сцены, починить нельзя.
func (c *Coherence) fixLookAtEntity(e models.LookAtEntity) (models.CommandEvent, error) {
	e.EntityKey = NormalizeKey(e.EntityKey)
	if _, err := uuid.Parse(e.EntityKey); err != nil {
		return nil, errEntityKeyNotUUID
	}
	if e.EntityKey == c.stage.Key {
		return nil, errEntityKeyIsScene
	}

	e.SceneKey = NormalizeKey(e.SceneKey)
	if e.SceneKey == "" {
		e.SceneKey = c.stage.Key
	}
	return e, nil
}

// fixChangeScene принимает нормализованный ключ либо имя или направление
// одного из выходов текущей сцены.
func (c *Coherence) fixChangeScene(e models.ChangeScene) (models.CommandEvent, error) {
	ref := NormalizeKey(e.SceneKey)
	for _, exit := range c.stage.Scene.Exits {
		if exit.SceneKey == ref {
			return models.ChangeScene{SceneKey: ref}, nil
		}
	}
	for _, exit := range c.stage.Scene.Exits {
		if strings.EqualFold(exit.Name, e.SceneKey) || strings.EqualFold(exit.Direction, e.SceneKey) {
			return models.ChangeScene{SceneKey: exit.SceneKey}, nil
		}
	}
	if ref != e.SceneKey {
		return models.ChangeScene{SceneKey: ref}, nil
	}
	return nil, errUnknownSceneRef
}

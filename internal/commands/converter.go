// Package commands превращает сырые исполнения команд от модели в
// типизированные события и проверяет их по состоянию мира.
package commands

import (
	"context"
	"strconv"
	"strings"

	"narrative-engine/internal/models"

	"github.com/google/uuid"
)

var keyPrefixes = []string{
	models.ScenesCollection + "/",
	models.PeopleCollection + "/",
	models.ItemsCollection + "/",
}

// WorldChecker отвечает, существуют ли в мире сцены и сущности.
type WorldChecker interface {
	EntityExists(ctx context.Context, sceneKey, entityKey string) (bool, error)
	StageExists(ctx context.Context, sceneKey string) (bool, error)
}

// StripPrefixes убирает один ведущий префикс коллекции (scenes/, people/,
// items/), который модель копирует из идентификаторов.
func StripPrefixes(value string) string {
	for _, prefix := range keyPrefixes {
		if rest, ok := strings.CutPrefix(value, prefix); ok {
			return rest
		}
	}
	return value
}

// NormalizeKey приводит UUID к каноническому виду с дефисами, даже если
// модель расставила дефисы неправильно. Строки, которые не разбираются как
// UUID, возвращаются как есть.
func NormalizeKey(key string) string {
	parsed, err := uuid.Parse(strings.ReplaceAll(key, "-", ""))
	if err != nil {
		return key
	}
	return parsed.String()
}

// NewCommandEvent конвертирует одно сырое событие.
func NewCommandEvent(raw models.RawCommandEvent) (models.CommandEvent, error) {
	switch strings.ToLower(raw.EventName) {
	case models.EventNarration:
		return models.Narration{Text: raw.Parameter}, nil
	case models.EventLookAtEntity:
		return models.LookAtEntity{
			EntityKey: StripPrefixes(raw.Parameter),
			SceneKey:  StripPrefixes(raw.AppliesTo),
		}, nil
	case models.EventChangeScene:
		return models.ChangeScene{SceneKey: StripPrefixes(raw.Parameter)}, nil
	case models.EventStand:
		return models.Stand{Target: StripPrefixes(raw.AppliesTo)}, nil
	case models.EventSit:
		return models.Sit{Target: StripPrefixes(raw.AppliesTo)}, nil
	case models.EventProne:
		return models.Prone{Target: StripPrefixes(raw.AppliesTo)}, nil
	case models.EventCrouch:
		return models.Crouch{Target: StripPrefixes(raw.AppliesTo)}, nil
	case models.EventTakeDamage:
		amount, err := strconv.ParseUint(strings.TrimSpace(raw.Parameter), 10, 32)
		if err != nil {
			return nil, models.EventConversionError{Kind: models.InvalidParameter, Raw: raw}
		}
		return models.TakeDamage{Target: StripPrefixes(raw.AppliesTo), Amount: uint32(amount)}, nil
	case models.EventUnrecognized:
		return models.Unrecognized{Name: raw.EventName, Narration: raw.Parameter}, nil
	default:
		return nil, models.EventConversionError{Kind: models.UnrecognizedEvent, Raw: raw}
	}
}

// validateCoherence проверяет ссылки события на мир. Ошибка хранилища не
// прерывает конвертацию, а становится OtherError.
func validateCoherence(ctx context.Context, event models.CommandEvent, checker WorldChecker) *models.EventCoherenceFailure {
	var (
		exists bool
		err    error
	)
	switch e := event.(type) {
	case models.LookAtEntity:
		exists, err = checker.EntityExists(ctx, e.SceneKey, e.EntityKey)
	case models.ChangeScene:
		exists, err = checker.StageExists(ctx, e.SceneKey)
	default:
		return nil
	}

	if err != nil {
		return &models.EventCoherenceFailure{Kind: models.OtherError, Event: event, Message: err.Error()}
	}
	if !exists {
		return &models.EventCoherenceFailure{Kind: models.TargetDoesNotExist, Event: event}
	}
	return nil
}

// ConvertRawExecution конвертирует и проверяет все события исполнения.
// Ни одна ошибка не теряется: каждая попадает в Failures результата.
func ConvertRawExecution(ctx context.Context, raw models.RawCommandExecution, checker WorldChecker) models.ExecutionConversionResult {
	if !raw.Valid {
		conversionOutcomes.WithLabelValues(outcomeInvalid).Inc()
		return models.ConversionSuccess{Execution: models.InvalidExecution(raw)}
	}

	var (
		events   []models.CommandEvent
		failures models.EventConversionFailures
	)
	for _, rawEvent := range raw.Events {
		event, err := NewCommandEvent(rawEvent)
		if err != nil {
			convErr, _ := err.(models.EventConversionError)
			failures.ConversionFailures = append(failures.ConversionFailures, convErr)
			eventFailures.WithLabelValues(convErr.Kind.String()).Inc()
			continue
		}
		if failure := validateCoherence(ctx, event, checker); failure != nil {
			failures.CoherenceFailures = append(failures.CoherenceFailures, *failure)
			eventFailures.WithLabelValues(failure.Kind.String()).Inc()
			continue
		}
		events = append(events, event)
	}

	execution := models.CommandExecution{Valid: true, Narration: raw.Narration, Events: events}
	switch {
	case failures.Len() == 0:
		conversionOutcomes.WithLabelValues(outcomeSuccess).Inc()
		return models.ConversionSuccess{Execution: execution}
	case len(events) > 0:
		conversionOutcomes.WithLabelValues(outcomePartial).Inc()
		return models.ConversionPartialSuccess{Execution: execution, Failures: failures}
	default:
		conversionOutcomes.WithLabelValues(outcomeFailure).Inc()
		return models.ConversionFailure{Failures: failures}
	}
}

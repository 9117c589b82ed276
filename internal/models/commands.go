package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Commands — разобранный моделью ввод игрока.
type Commands struct {
	Commands []Command `json:"commands"`
	Count    int       `json:"count"`
}

// Command — одна команда: глагол, цель, место и чем действовать.
type Command struct {
	Verb     string `json:"verb"`
	Target   string `json:"target"`
	Location string `json:"location"`
	Using    string `json:"using"`
}

// VerbsResponse — глаголы, которые модель нашла во вводе.
type VerbsResponse struct {
	Verbs []string `json:"verbs"`
}

// CachedCommand — сохранённый разбор ввода, позволяющий не обращаться к модели
// повторно для той же фразы в той же сцене.
type CachedCommand struct {
	Raw      string   `json:"raw"`
	SceneKey string   `json:"scene_key"`
	Commands Commands `json:"commands"`
}

// RawCommandExecution — результат исполнения команды в том виде, как его
// вернула модель.
type RawCommandExecution struct {
	Valid     bool              `json:"valid"`
	Reason    *string           `json:"reason"`
	Narration string            `json:"narration"`
	Events    []RawCommandEvent `json:"events"`
}

// EmptyRawExecution — валидное исполнение без событий.
func EmptyRawExecution() RawCommandExecution {
	return RawCommandExecution{Valid: true, Events: []RawCommandEvent{}}
}

// RawCommandEvent — нетипизированное событие.
type RawCommandEvent struct {
	EventName string `json:"eventName"`
	AppliesTo string `json:"appliesTo"`
	Parameter string `json:"parameter"`
}

// UnmarshalJSON принимает имя события и в camelCase, и в snake_case.
func (e *RawCommandEvent) UnmarshalJSON(data []byte) error {
	var wire struct {
		EventName      *string `json:"eventName"`
		EventNameSnake *string `json:"event_name"`
		AppliesTo      *string `json:"appliesTo"`
		AppliesToSnake *string `json:"applies_to"`
		Parameter      string  `json:"parameter"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	*e = RawCommandEvent{Parameter: wire.Parameter}
	switch {
	case wire.EventName != nil:
		e.EventName = *wire.EventName
	case wire.EventNameSnake != nil:
		e.EventName = *wire.EventNameSnake
	}
	switch {
	case wire.AppliesTo != nil:
		e.AppliesTo = *wire.AppliesTo
	case wire.AppliesToSnake != nil:
		e.AppliesTo = *wire.AppliesToSnake
	}
	return nil
}

// Имена событий, которые понимает конвертер.
const (
	EventChangeScene  = "change_scene"
	EventTakeDamage   = "take_damage"
	EventNarration    = "narration"
	EventStand        = "stand"
	EventSit          = "sit"
	EventProne        = "prone"
	EventCrouch       = "crouch"
	EventLookAtEntity = "look_at_entity"
	EventUnrecognized = "unrecognized"
)

// KnownEventNames — все распознаваемые имена событий.
var KnownEventNames = []string{
	EventChangeScene, EventTakeDamage, EventNarration,
	EventStand, EventSit, EventProne, EventCrouch,
	EventLookAtEntity, EventUnrecognized,
}

// CommandEvent — типизированное событие. Набор реализаций закрыт.
type CommandEvent interface {
	EventName() string
	isCommandEvent()
}

type ChangeScene struct {
	SceneKey string `json:"scene_key"`
}

type TakeDamage struct {
	Target string `json:"target"`
	Amount uint32 `json:"amount"`
}

type Narration struct {
	Text string `json:"text"`
}

type Stand struct {
	Target string `json:"target"`
}

type Sit struct {
	Target string `json:"target"`
}

type Prone struct {
	Target string `json:"target"`
}

type Crouch struct {
	Target string `json:"target"`
}

type LookAtEntity struct {
	EntityKey string `json:"entity_key"`
	SceneKey  string `json:"scene_key"`
}

type Unrecognized struct {
	Name      string `json:"event_name"`
	Narration string `json:"narration"`
}

func (ChangeScene) EventName() string  { return EventChangeScene }
func (TakeDamage) EventName() string   { return EventTakeDamage }
func (Narration) EventName() string    { return EventNarration }
func (Stand) EventName() string        { return EventStand }
func (Sit) EventName() string          { return EventSit }
func (Prone) EventName() string        { return EventProne }
func (Crouch) EventName() string       { return EventCrouch }
func (LookAtEntity) EventName() string { return EventLookAtEntity }
func (Unrecognized) EventName() string { return EventUnrecognized }

func (ChangeScene) isCommandEvent()  {}
func (TakeDamage) isCommandEvent()   {}
func (Narration) isCommandEvent()    {}
func (Stand) isCommandEvent()        {}
func (Sit) isCommandEvent()          {}
func (Prone) isCommandEvent()        {}
func (Crouch) isCommandEvent()       {}
func (LookAtEntity) isCommandEvent() {}
func (Unrecognized) isCommandEvent() {}

// DescribeEvent — короткое описание события для диагностики.
func DescribeEvent(ev CommandEvent) string {
	switch e := ev.(type) {
	case ChangeScene:
		return fmt.Sprintf("change_scene(%s)", e.SceneKey)
	case TakeDamage:
		return fmt.Sprintf("take_damage(%s, %d)", e.Target, e.Amount)
	case LookAtEntity:
		return fmt.Sprintf("look_at_entity(%s in %s)", e.EntityKey, e.SceneKey)
	case Stand:
		return "stand(" + e.Target + ")"
	case Sit:
		return "sit(" + e.Target + ")"
	case Prone:
		return "prone(" + e.Target + ")"
	case Crouch:
		return "crouch(" + e.Target + ")"
	case Unrecognized:
		return "unrecognized(" + e.Name + ")"
	default:
		return ev.EventName()
	}
}

// CommandExecution — проверенный результат исполнения команды.
type CommandExecution struct {
	Valid     bool           `json:"valid"`
	Reason    *string        `json:"reason,omitempty"`
	Narration string         `json:"narration"`
	Events    []CommandEvent `json:"-"`
}

// EmptyExecution — валидное исполнение без событий.
func EmptyExecution() CommandExecution {
	return CommandExecution{Valid: true}
}

// InvalidExecution строит исполнение, которое модель объявила невалидным.
// Пустая причина заменяется на дефолтную.
func InvalidExecution(raw RawCommandExecution) CommandExecution {
	reason := "invalid for unknown reason"
	if raw.Reason != nil && strings.TrimSpace(*raw.Reason) != "" {
		reason = *raw.Reason
	}
	return CommandExecution{Valid: false, Reason: &reason, Narration: raw.Narration}
}

type eventEnvelope struct {
	Type  string       `json:"type"`
	Event CommandEvent `json:"event"`
}

// MarshalJSON сериализует события в виде {"type": ..., "event": {...}}.
func (c CommandExecution) MarshalJSON() ([]byte, error) {
	type plain CommandExecution
	envelopes := make([]eventEnvelope, 0, len(c.Events))
	for _, ev := range c.Events {
		envelopes = append(envelopes, eventEnvelope{Type: ev.EventName(), Event: ev})
	}
	return json.Marshal(struct {
		plain
		Events []eventEnvelope `json:"events"`
	}{plain: plain(c), Events: envelopes})
}

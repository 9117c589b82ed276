package models

import (
	"fmt"
	"strings"
)

// ConversionErrorKind — причина, по которой сырое событие не удалось
// превратить в типизированное.
type ConversionErrorKind int

const (
	InvalidParameter ConversionErrorKind = iota
	UnrecognizedEvent
)

func (k ConversionErrorKind) String() string {
	switch k {
	case InvalidParameter:
		return "invalid_parameter"
	case UnrecognizedEvent:
		return "unrecognized_event"
	default:
		return fmt.Sprintf("ConversionErrorKind(%d)", int(k))
	}
}

// EventConversionError — ошибка конвертации одного события.
type EventConversionError struct {
	Kind ConversionErrorKind
	Raw  RawCommandEvent
}

func (e EventConversionError) Error() string {
	switch e.Kind {
	case InvalidParameter:
		return fmt.Sprintf("invalid parameter %q for event %q", e.Raw.Parameter, e.Raw.EventName)
	default:
		return fmt.Sprintf("unrecognized event %q", e.Raw.EventName)
	}
}

// CoherenceFailureKind — вид нарушения связности события.
type CoherenceFailureKind int

const (
	TargetDoesNotExist CoherenceFailureKind = iota
	OtherError
)

func (k CoherenceFailureKind) String() string {
	switch k {
	case TargetDoesNotExist:
		return "target_does_not_exist"
	case OtherError:
		return "other_error"
	default:
		return fmt.Sprintf("CoherenceFailureKind(%d)", int(k))
	}
}

// EventCoherenceFailure — событие сконвертировано, но ссылается на то,
// чего нет в мире, или проверку не удалось выполнить.
type EventCoherenceFailure struct {
	Kind    CoherenceFailureKind
	Event   CommandEvent
	Message string
}

func (f EventCoherenceFailure) Error() string {
	if f.Kind == OtherError {
		return fmt.Sprintf("uncategorized coherence failure for %s: %s", DescribeEvent(f.Event), f.Message)
	}
	return fmt.Sprintf("target of %s does not exist", DescribeEvent(f.Event))
}

// EventConversionFailures — все ошибки одного исполнения.
type EventConversionFailures struct {
	ConversionFailures []EventConversionError
	CoherenceFailures  []EventCoherenceFailure
}

// Len — общее число ошибок.
func (f EventConversionFailures) Len() int {
	return len(f.ConversionFailures) + len(f.CoherenceFailures)
}

// Diagnostic перечисляет каждое неразрешённое событие.
func (f EventConversionFailures) Diagnostic() string {
	lines := make([]string, 0, f.Len())
	for _, e := range f.ConversionFailures {
		lines = append(lines, e.Error())
	}
	for _, e := range f.CoherenceFailures {
		lines = append(lines, e.Error())
	}
	return strings.Join(lines, "; ")
}

// ExecutionConversionResult — итог конвертации: Success, PartialSuccess или
// Failure. Набор реализаций закрыт.
type ExecutionConversionResult interface {
	isConversionResult()
}

// ConversionSuccess — все события сконвертированы и прошли проверку.
type ConversionSuccess struct {
	Execution CommandExecution
}

// ConversionPartialSuccess — часть событий прошла, часть нет.
type ConversionPartialSuccess struct {
	Execution CommandExecution
	Failures  EventConversionFailures
}

// ConversionFailure — ни одно событие не прошло.
type ConversionFailure struct {
	Failures EventConversionFailures
}

func (ConversionSuccess) isConversionResult()        {}
func (ConversionPartialSuccess) isConversionResult() {}
func (ConversionFailure) isConversionResult()        {}

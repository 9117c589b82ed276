// Package llm — транспорт до бэкенда генерации текста. Все реализации
// отдают ответ потоком токенов.
package llm

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrGenerationFailed — бэкенд не смог выполнить запрос.
	ErrGenerationFailed = errors.New("llm generation failed")
	// ErrStreamInterrupted — поток оборвался после того, как токены уже пошли.
	// Такой запрос не переподключается: часть ответа уже потреблена.
	ErrStreamInterrupted = errors.New("llm stream interrupted")
	// ErrUnknownBackend — в конфигурации указан неизвестный бэкенд.
	ErrUnknownBackend = errors.New("unknown llm backend")
)

// Маркеры начала и конца последовательности в транскрипте.
const (
	BeginMarker = "<s>"
	EndMarker   = "</s>"
)

// Creativity — уровень креативности, отображается в температуру семплинга.
type Creativity int

const (
	Predictable Creativity = iota
	Normal
	Creative
)

// Temperature возвращает температуру для уровня.
func (c Creativity) Temperature() float64 {
	switch c {
	case Predictable:
		return 0.5
	case Creative:
		return 1.0
	default:
		return 0.7
	}
}

func (c Creativity) String() string {
	switch c {
	case Predictable:
		return "predictable"
	case Creative:
		return "creative"
	default:
		return "normal"
	}
}

// Sampling — фиксированные параметры семплинга.
type Sampling struct {
	RepPen               float64
	RepPenRange          int
	TopP                 float64
	TopA                 float64
	SamplerOrder         []int
	StopSequences        []string
	UseDefaultBadWordIDs bool
}

// DefaultSampling — параметры, с которыми идут все запросы.
func DefaultSampling() Sampling {
	return Sampling{
		RepPen:        1.1,
		RepPenRange:   320,
		TopP:          0.92,
		TopA:          0,
		SamplerOrder:  []int{6, 0, 1, 3, 4, 2, 5},
		StopSequences: []string{BeginMarker, EndMarker},
	}
}

// GenerationRequest — один запрос к бэкенду.
type GenerationRequest struct {
	SessionKey string
	Prompt     string
	// Grammar пустая, если вывод не ограничен.
	Grammar string
	// RetainGrammarState выставляется только для продолжений: бэкенд
	// продолжает разбор грамматики с того места, где остановился.
	RetainGrammarState bool
	MaxLength          int
	Creativity         Creativity
	Sampling           Sampling
}

// TokenHandler получает очередной фрагмент ответа. Ошибка прерывает поток.
type TokenHandler func(token string) error

// Transport — потоковый доступ к бэкенду генерации.
type Transport interface {
	// Stream отправляет запрос и вызывает onToken для каждого фрагмента до
	// нормального конца потока.
	Stream(ctx context.Context, req GenerationRequest, onToken TokenHandler) error
	// Backend — имя бэкенда для логов и метрик.
	Backend() string
}

// Collect собирает поток целиком.
func Collect(ctx context.Context, t Transport, req GenerationRequest) (string, error) {
	var b strings.Builder
	err := t.Stream(ctx, req, func(token string) error {
		b.WriteString(token)
		return nil
	})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}

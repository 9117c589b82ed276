// Package convo ведёт многошаговый диалог с бэкендом генерации: копит
// транскрипт, собирает потоковый ответ и дозапрашивает продолжение, если
// JSON оборвался на полуслове.
package convo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"narrative-engine/internal/llm"
	"narrative-engine/internal/models"

	"go.uber.org/zap"
)

var (
	// ErrSessionBusy — в сессии уже выполняется запрос.
	ErrSessionBusy = errors.New("conversation session is busy")
	// ErrMalformedResponse — ответ не является корректным JSON ожидаемого вида.
	ErrMalformedResponse = errors.New("malformed model response")
	// ErrContinuationLimit — ответ не собрался за отведённое число продолжений.
	ErrContinuationLimit = errors.New("continuation limit exceeded")
	// ErrResponseTooLarge — ответ превысил допустимый размер.
	ErrResponseTooLarge = errors.New("model response too large")
	// ErrNoProgress — продолжение не добавило ни одного символа.
	ErrNoProgress = errors.New("continuation made no progress")
)

// illegalCharacters ломают разбор JSON; модель не должна их печатать, но
// полагаться на это нельзя.
var illegalCharacters = []string{`\`}

// Limits ограничивает цикл продолжений.
type Limits struct {
	MaxContinuations int
	MaxResponseBytes int
}

// DefaultLimits — 8 продолжений и 64 KiB на один ответ.
func DefaultLimits() Limits {
	return Limits{MaxContinuations: 8, MaxResponseBytes: 64 * 1024}
}

// Session владеет одним транскриптом. Параллельный Execute в той же сессии
// возвращает ErrSessionBusy.
type Session struct {
	name      string
	key       string
	transport llm.Transport
	limits    Limits
	logger    *zap.Logger

	busy atomic.Bool

	mu         sync.RWMutex
	transcript string
}

// NewSession создаёт пустую сессию со своим ключом.
func NewSession(name string, transport llm.Transport, limits Limits, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	key := models.NewKey()
	return &Session{
		name:      name,
		key:       key,
		transport: transport,
		limits:    limits,
		logger:    logger.Named("Session").With(zap.String("session", name), zap.String("session_key", key)),
	}
}

// Key — стабильный ключ сессии, по которому бэкенд связывает запросы.
func (s *Session) Key() string { return s.key }

// Name — назначение сессии.
func (s *Session) Name() string { return s.name }

// Transcript возвращает накопленный транскрипт.
func (s *Session) Transcript() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.transcript
}

// IsEmpty сообщает, что в сессии ещё не было запросов.
func (s *Session) IsEmpty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.transcript == ""
}

// Reset очищает транскрипт. Ключ сессии сохраняется.
func (s *Session) Reset() {
	s.mu.Lock()
	s.transcript = ""
	s.mu.Unlock()
}

func (s *Session) appendTranscript(text string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript += text
	return s.transcript
}

// Execute дописывает промпт в транскрипт, получает ответ и декодирует его
// в out. Оборванный JSON дозапрашивается продолжениями с сохранением
// состояния грамматики на стороне бэкенда.
func (s *Session) Execute(ctx context.Context, prompt Prompt, out any) error {
	if !s.busy.CompareAndSwap(false, true) {
		return ErrSessionBusy
	}
	defer s.busy.Store(false)

	if s.IsEmpty() {
		s.appendTranscript(llm.BeginMarker)
	}
	transcript := s.appendTranscript(prompt.Text)

	req := llm.GenerationRequest{
		SessionKey: s.key,
		Prompt:     transcript,
		Grammar:    prompt.Grammar,
		MaxLength:  prompt.maxTokens(),
		Creativity: prompt.Creativity,
		Sampling:   llm.DefaultSampling(),
	}

	first, err := llm.Collect(ctx, s.transport, req)
	if err != nil {
		return fmt.Errorf("session %s: %w", s.name, err)
	}
	first = sanitize(first)
	s.appendTranscript(first)

	var response strings.Builder
	response.WriteString(first)

	continuations := 0
	for {
		raw, err := decodeStrict(response.String())
		if err == nil {
			if err := json.Unmarshal(raw, out); err != nil {
				s.logger.Warn("Response does not match the expected shape", zap.Error(err))
				return fmt.Errorf("session %s: %w: %v", s.name, ErrMalformedResponse, err)
			}
			break
		}
		if !errors.Is(err, errIncomplete) {
			s.logger.Warn("Fatal parse error in model response",
				zap.String("response", truncateForLog(response.String())),
				zap.Error(err),
			)
			return fmt.Errorf("session %s: %w: %v", s.name, ErrMalformedResponse, err)
		}

		if continuations >= s.limits.MaxContinuations {
			return fmt.Errorf("session %s: %w (%d rounds)", s.name, ErrContinuationLimit, continuations)
		}
		if response.Len() >= s.limits.MaxResponseBytes {
			return fmt.Errorf("session %s: %w (%d bytes)", s.name, ErrResponseTooLarge, response.Len())
		}

		continuations++
		s.logger.Debug("Response is incomplete, requesting continuation", zap.Int("round", continuations))

		req.Prompt = s.Transcript()
		req.RetainGrammarState = true
		more, err := llm.Collect(ctx, s.transport, req)
		if err != nil {
			return fmt.Errorf("session %s: continuation %d: %w", s.name, continuations, err)
		}
		more = sanitize(more)
		if more == "" {
			return fmt.Errorf("session %s: %w", s.name, ErrNoProgress)
		}
		s.appendTranscript(more)
		response.WriteString(more)
	}

	convoContinuations.WithLabelValues(s.name).Observe(float64(continuations))

	s.mu.Lock()
	if !strings.HasSuffix(strings.TrimSpace(s.transcript), llm.EndMarker) {
		s.transcript += llm.EndMarker
	}
	s.mu.Unlock()

	return nil
}

var errIncomplete = errors.New("incomplete json")

// decodeStrict проверяет, что текст — ровно одно JSON-значение, за которым
// может идти только пробельный хвост. Оборванный документ даёт errIncomplete.
func decodeStrict(text string) (json.RawMessage, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, errIncomplete
		}
		return nil, err
	}
	if rest := strings.TrimSpace(text[dec.InputOffset():]); rest != "" {
		return nil, fmt.Errorf("unexpected trailing data %q", truncateForLog(rest))
	}
	return raw, nil
}

func sanitize(text string) string {
	for _, c := range illegalCharacters {
		text = strings.ReplaceAll(text, c, "")
	}
	return text
}

func truncateForLog(s string) string {
	const max = 256
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

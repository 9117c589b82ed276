package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const koboldStreamPath = "/extra/generate/stream"

// ReconnectPolicy — экспоненциальная задержка между попытками подключения.
type ReconnectPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultReconnectPolicy: 1s, 2s, 4s... не больше минуты.
func DefaultReconnectPolicy() ReconnectPolicy {
	return ReconnectPolicy{MaxAttempts: 5, BaseDelay: time.Second, MaxDelay: time.Minute}
}

// Delay возвращает задержку перед попыткой attempt (с нуля).
func (p ReconnectPolicy) Delay(attempt int) time.Duration {
	delay := p.BaseDelay
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

type koboldRequest struct {
	GenKey               string   `json:"genkey"`
	Prompt               string   `json:"prompt"`
	Grammar              string   `json:"grammar,omitempty"`
	GrammarRetainState   bool     `json:"grammar_retain_state"`
	MaxLength            int      `json:"max_length"`
	RepPen               float64  `json:"rep_pen"`
	RepPenRange          int      `json:"rep_pen_range"`
	Temperature          float64  `json:"temperature"`
	TopA                 float64  `json:"top_a"`
	TopP                 float64  `json:"top_p"`
	SamplerOrder         []int    `json:"sampler_order"`
	StopSequence         []string `json:"stop_sequence"`
	UseDefaultBadWordIDs bool     `json:"use_default_badwordsids"`
}

type koboldToken struct {
	Token string `json:"token"`
}

// statusError — ответ бэкенда с кодом ошибки.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("kobold responded with status %d: %s", e.code, e.body)
}

// handlerError оборачивает ошибку обработчика токенов, чтобы её не путать
// с ошибками сети.
type handlerError struct{ err error }

func (e *handlerError) Error() string { return e.err.Error() }
func (e *handlerError) Unwrap() error { return e.err }

// KoboldClient стримит ответы KoboldCpp через SSE.
type KoboldClient struct {
	httpClient *http.Client
	baseURL    string
	policy     ReconnectPolicy
	logger     *zap.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewKoboldClient создаёт клиента. baseURL указывает на корень API
// (например, http://localhost:5001/api).
func NewKoboldClient(baseURL string, timeout time.Duration, policy ReconnectPolicy, logger *zap.Logger) *KoboldClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KoboldClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		policy:     policy,
		logger:     logger.Named("KoboldClient"),
		sleep:      sleepContext,
	}
}

func (c *KoboldClient) Backend() string { return "kobold" }

// Stream отправляет запрос и читает SSE-события до конца потока.
// Переподключение выполняется только до первого токена.
func (c *KoboldClient) Stream(ctx context.Context, req GenerationRequest, onToken TokenHandler) error {
	payload, err := json.Marshal(c.buildRequest(req))
	if err != nil {
		return fmt.Errorf("%w: marshal request: %v", ErrGenerationFailed, err)
	}

	started := time.Now()
	var completion strings.Builder
	collect := func(token string) error {
		completion.WriteString(token)
		return onToken(token)
	}

	err = c.streamWithReconnect(ctx, payload, collect, &completion)
	observeRequest(c.Backend(), req, completion.String(), started, err)
	return err
}

func (c *KoboldClient) streamWithReconnect(ctx context.Context, payload []byte, onToken TokenHandler, completion *strings.Builder) error {
	for attempt := 0; ; attempt++ {
		err := c.streamOnce(ctx, payload, onToken)
		if err == nil {
			return nil
		}

		var hErr *handlerError
		if errors.As(err, &hErr) {
			return hErr.err
		}
		if completion.Len() > 0 {
			c.logger.Error("Stream cut after tokens were received", zap.Int("received_bytes", completion.Len()), zap.Error(err))
			return fmt.Errorf("%w: %v", ErrStreamInterrupted, err)
		}
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %v", ErrGenerationFailed, ctx.Err())
		}
		if !isRetryable(err) || attempt >= c.policy.MaxAttempts {
			c.logger.Error("Generation request failed", zap.Int("attempt", attempt+1), zap.Error(err))
			return fmt.Errorf("%w: %v", ErrGenerationFailed, err)
		}

		delay := c.policy.Delay(attempt)
		c.logger.Warn("Generation backend unavailable, reconnecting",
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		llmReconnectsTotal.WithLabelValues(c.Backend()).Inc()
		if err := c.sleep(ctx, delay); err != nil {
			return fmt.Errorf("%w: %v", ErrGenerationFailed, err)
		}
	}
}

func (c *KoboldClient) streamOnce(ctx context.Context, payload []byte, onToken TokenHandler) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+koboldStreamPath, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(body))}
	}

	return readSSE(resp.Body, func(data string) error {
		var tok koboldToken
		if err := json.Unmarshal([]byte(data), &tok); err != nil {
			c.logger.Warn("Skipping malformed stream event", zap.String("data", data), zap.Error(err))
			return nil
		}
		if tok.Token == "" {
			return nil
		}
		if err := onToken(tok.Token); err != nil {
			return &handlerError{err: err}
		}
		return nil
	})
}

// readSSE вызывает onData для каждой строки "data:". Комментарии и прочие
// поля события пропускаются. Поток заканчивается на EOF.
func readSSE(r io.Reader, onData func(data string) error) error {
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if len(line) > 0 {
			line = strings.TrimRight(line, "\r\n")
			if data, ok := strings.CutPrefix(line, "data:"); ok {
				if hErr := onData(strings.TrimPrefix(data, " ")); hErr != nil {
					return hErr
				}
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (c *KoboldClient) buildRequest(req GenerationRequest) koboldRequest {
	s := req.Sampling
	if s.SamplerOrder == nil {
		s = DefaultSampling()
	}
	return koboldRequest{
		GenKey:               req.SessionKey,
		Prompt:               req.Prompt,
		Grammar:              req.Grammar,
		GrammarRetainState:   req.RetainGrammarState,
		MaxLength:            req.MaxLength,
		RepPen:               s.RepPen,
		RepPenRange:          s.RepPenRange,
		Temperature:          req.Creativity.Temperature(),
		TopA:                 s.TopA,
		TopP:                 s.TopP,
		SamplerOrder:         s.SamplerOrder,
		StopSequence:         s.StopSequences,
		UseDefaultBadWordIDs: s.UseDefaultBadWordIDs,
	}
}

func isRetryable(err error) bool {
	var sErr *statusError
	if errors.As(err, &sErr) {
		return sErr.code >= 500
	}
	return !errors.Is(err, context.Canceled)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

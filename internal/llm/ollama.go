package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"go.uber.org/zap"
)

// OllamaClient стримит ответы через нативный generate API в raw-режиме:
// транскрипт передаётся как есть, без шаблона чата модели.
type OllamaClient struct {
	client *api.Client
	model  string
	logger *zap.Logger
}

// NewOllamaClient создаёт клиента. Суффикс /v1 в baseURL отбрасывается.
func NewOllamaClient(baseURL, model string, timeout time.Duration, logger *zap.Logger) (*OllamaClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ollamaBaseURL := strings.TrimSuffix(baseURL, "/v1")
	ollamaBaseURL = strings.TrimSuffix(ollamaBaseURL, "/")

	parsedURL, err := url.Parse(ollamaBaseURL)
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга Ollama Base URL '%s': %w", ollamaBaseURL, err)
	}

	return &OllamaClient{
		client: api.NewClient(parsedURL, &http.Client{Timeout: timeout}),
		model:  model,
		logger: logger.Named("OllamaClient"),
	}, nil
}

func (c *OllamaClient) Backend() string { return "ollama" }

func (c *OllamaClient) Stream(ctx context.Context, req GenerationRequest, onToken TokenHandler) error {
	s := req.Sampling
	if s.SamplerOrder == nil {
		s = DefaultSampling()
	}

	stream := true
	genReq := &api.GenerateRequest{
		Model:  c.model,
		Prompt: req.Prompt,
		Raw:    true,
		Stream: &stream,
		Options: map[string]interface{}{
			"temperature":    req.Creativity.Temperature(),
			"top_p":          s.TopP,
			"repeat_penalty": s.RepPen,
			"repeat_last_n":  s.RepPenRange,
			"num_predict":    req.MaxLength,
			"stop":           s.StopSequences,
		},
	}
	// Ollama не понимает GBNF, но умеет ограничивать вывод валидным JSON.
	if req.Grammar != "" {
		genReq.Format = json.RawMessage(`"json"`)
	}

	started := time.Now()
	var completion strings.Builder
	var promptTokens, completionTokens int

	err := c.client.Generate(ctx, genReq, func(resp api.GenerateResponse) error {
		if resp.Response != "" {
			completion.WriteString(resp.Response)
			if err := onToken(resp.Response); err != nil {
				return err
			}
		}
		if resp.Done {
			promptTokens = resp.PromptEvalCount
			completionTokens = resp.EvalCount
			c.logger.Debug("Ollama stream finished",
				zap.String("reason", resp.DoneReason),
				zap.Int("prompt_tokens", promptTokens),
				zap.Int("completion_tokens", completionTokens),
			)
		}
		return nil
	})
	if err != nil {
		c.logger.Error("Ollama stream failed", zap.String("model", c.model), zap.Error(err))
		if completion.Len() > 0 {
			err = fmt.Errorf("%w: %v", ErrStreamInterrupted, err)
		} else {
			err = fmt.Errorf("%w: %v", ErrGenerationFailed, err)
		}
	}

	observeRequest(c.Backend(), req, completion.String(), started, err)
	return err
}

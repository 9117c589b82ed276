package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	openaigo "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIClient стримит completions из OpenAI-совместимого API. Транскрипт
// уходит как обычный prompt; грамматики такие API не принимают, поэтому
// форма ответа держится только на инструкциях в промпте.
type OpenAIClient struct {
	client *openaigo.Client
	model  string
	logger *zap.Logger
}

// NewOpenAIClient создаёт клиента с заданным базовым URL и ключом.
func NewOpenAIClient(baseURL, apiKey, model string, timeout time.Duration, logger *zap.Logger) *OpenAIClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	openaiConfig := openaigo.DefaultConfig(apiKey)
	openaiConfig.BaseURL = baseURL
	openaiConfig.HTTPClient = &http.Client{Timeout: timeout}

	return &OpenAIClient{
		client: openaigo.NewClientWithConfig(openaiConfig),
		model:  model,
		logger: logger.Named("OpenAIClient"),
	}
}

func (c *OpenAIClient) Backend() string { return "openai" }

func (c *OpenAIClient) Stream(ctx context.Context, req GenerationRequest, onToken TokenHandler) error {
	s := req.Sampling
	if s.SamplerOrder == nil {
		s = DefaultSampling()
	}

	if req.Grammar != "" {
		c.logger.Debug("Grammar is not supported by this backend, sending prompt only",
			zap.String("session", req.SessionKey))
	}

	request := openaigo.CompletionRequest{
		Model:       c.model,
		Prompt:      req.Prompt,
		MaxTokens:   req.MaxLength,
		Temperature: float32(req.Creativity.Temperature()),
		TopP:        float32(s.TopP),
		Stop:        s.StopSequences,
		Stream:      true,
		User:        req.SessionKey,
	}

	started := time.Now()
	var completion strings.Builder
	err := c.stream(ctx, request, func(token string) error {
		completion.WriteString(token)
		return onToken(token)
	})
	observeRequest(c.Backend(), req, completion.String(), started, err)
	return err
}

func (c *OpenAIClient) stream(ctx context.Context, request openaigo.CompletionRequest, onToken TokenHandler) error {
	stream, err := c.client.CreateCompletionStream(ctx, request)
	if err != nil {
		c.logger.Error("Failed to open completion stream", zap.String("model", c.model), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	defer stream.Close()

	received := false
	for {
		response, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if received {
				return fmt.Errorf("%w: %v", ErrStreamInterrupted, err)
			}
			return fmt.Errorf("%w: %v", ErrGenerationFailed, err)
		}
		if len(response.Choices) == 0 {
			continue
		}
		chunk := response.Choices[0].Text
		if chunk == "" {
			continue
		}
		received = true
		if err := onToken(chunk); err != nil {
			return err
		}
	}
}

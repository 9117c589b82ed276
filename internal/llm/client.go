package llm

import (
	"fmt"
	"strings"

	"narrative-engine/internal/config"

	"go.uber.org/zap"
)

// NewTransport создаёт транспорт в зависимости от конфигурации.
func NewTransport(cfg *config.Config, logger *zap.Logger) (Transport, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch strings.ToLower(cfg.LLMBackend) {
	case "kobold":
		policy := ReconnectPolicy{
			MaxAttempts: cfg.LLMReconnectAttempts,
			BaseDelay:   cfg.LLMReconnectBaseDelay,
			MaxDelay:    cfg.LLMReconnectMaxDelay,
		}
		logger.Info("Using generation backend", zap.String("backend", "kobold"), zap.String("base_url", cfg.LLMBaseURL))
		return NewKoboldClient(cfg.LLMBaseURL, cfg.LLMTimeout, policy, logger), nil
	case "openai":
		logger.Info("Using generation backend", zap.String("backend", "openai"),
			zap.String("base_url", cfg.LLMBaseURL), zap.String("model", cfg.LLMModel))
		return NewOpenAIClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMTimeout, logger), nil
	case "ollama":
		logger.Info("Using generation backend", zap.String("backend", "ollama"),
			zap.String("base_url", cfg.LLMBaseURL), zap.String("model", cfg.LLMModel))
		client, err := NewOllamaClient(cfg.LLMBaseURL, cfg.LLMModel, cfg.LLMTimeout, logger)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("%w: '%s'", ErrUnknownBackend, cfg.LLMBackend)
	}
}

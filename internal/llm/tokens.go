package llm

import (
	"sync"
	"sync/atomic"

	"github.com/pkoukk/tiktoken-go"
	"go.uber.org/zap"
)

const tokenEncoding = "cl100k_base"

var (
	encoder       atomic.Pointer[tiktoken.Tiktoken]
	warmTokenizer sync.Once
)

// WarmTokenizer загружает словарь токенизатора в фоне. До окончания загрузки
// (или при ошибке) оценка идёт по длине текста.
func WarmTokenizer(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	warmTokenizer.Do(func() {
		go func() {
			tke, err := tiktoken.GetEncoding(tokenEncoding)
			if err != nil {
				logger.Warn("Tokenizer unavailable, falling back to length-based estimates", zap.Error(err))
				return
			}
			encoder.Store(tke)
			logger.Info("Tokenizer loaded", zap.String("encoding", tokenEncoding))
		}()
	})
}

// EstimateTokens — примерное число токенов в тексте.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	if tke := encoder.Load(); tke != nil {
		return len(tke.Encode(text, nil, nil))
	}
	n := len(text) / 4
	if n == 0 {
		n = 1
	}
	return n
}

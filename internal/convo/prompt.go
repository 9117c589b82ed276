package convo

import (
	"narrative-engine/internal/llm"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DefaultMaxTokens — бюджет ответа, если промпт не задаёт свой.
const DefaultMaxTokens = 150

// Prompt — очередная реплика в сессии.
type Prompt struct {
	Text       string
	Grammar    string
	MaxTokens  int
	Creativity llm.Creativity
}

// NewPrompt — промпт без грамматики с параметрами по умолчанию.
func NewPrompt(text string) Prompt {
	return Prompt{Text: text, MaxTokens: DefaultMaxTokens, Creativity: llm.Normal}
}

// WithGrammar — промпт, ограниченный грамматикой.
func WithGrammar(text, grammar string) Prompt {
	return Prompt{Text: text, Grammar: grammar, MaxTokens: DefaultMaxTokens, Creativity: llm.Normal}
}

// Sized задаёт бюджет токенов.
func (p Prompt) Sized(tokens int) Prompt {
	p.MaxTokens = tokens
	return p
}

// Creative переключает промпт на креативный семплинг.
func (p Prompt) Creative() Prompt {
	p.Creativity = llm.Creative
	return p
}

func (p Prompt) maxTokens() int {
	if p.MaxTokens <= 0 {
		return DefaultMaxTokens
	}
	return p.MaxTokens
}

var convoContinuations = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "narrative_engine_convo_continuation_rounds",
		Help:    "Continuation rounds needed to assemble a complete response.",
		Buckets: []float64{0, 1, 2, 3, 4, 6, 8, 12},
	},
	[]string{"session"},
)

package llm

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	llmRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "narrative_engine_llm_requests_total",
			Help: "Total number of generation requests sent to the LLM backend.",
		},
		[]string{"backend", "status"},
	)
	llmRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "narrative_engine_llm_request_duration_seconds",
			Help:    "Histogram of LLM stream durations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend"},
	)
	llmPromptTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "narrative_engine_llm_prompt_tokens",
			Help:    "Estimated prompt token counts.",
			Buckets: prometheus.LinearBuckets(250, 250, 20),
		},
		[]string{"backend"},
	)
	llmCompletionTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "narrative_engine_llm_completion_tokens",
			Help:    "Estimated completion token counts.",
			Buckets: prometheus.LinearBuckets(50, 50, 20),
		},
		[]string{"backend"},
	)
	llmReconnectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "narrative_engine_llm_reconnects_total",
			Help: "Reconnect attempts made before the first token arrived.",
		},
		[]string{"backend"},
	)
)

func observeRequest(backend string, req GenerationRequest, completion string, started time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	llmRequestsTotal.With(prometheus.Labels{"backend": backend, "status": status}).Inc()
	llmRequestDuration.With(prometheus.Labels{"backend": backend}).Observe(time.Since(started).Seconds())
	if err == nil {
		llmPromptTokens.With(prometheus.Labels{"backend": backend}).Observe(float64(EstimateTokens(req.Prompt)))
		llmCompletionTokens.With(prometheus.Labels{"backend": backend}).Observe(float64(EstimateTokens(completion)))
	}
}

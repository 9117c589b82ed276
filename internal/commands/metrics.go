package commands

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeSuccess = "success"
	outcomePartial = "partial_success"
	outcomeFailure = "failure"
	outcomeInvalid = "invalid"
)

var (
	conversionOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "narrative_engine_event_conversions_total",
			Help: "Raw command executions converted, by outcome.",
		},
		[]string{"outcome"},
	)
	eventFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "narrative_engine_event_failures_total",
			Help: "Events that failed conversion or coherence checks, by kind.",
		},
		[]string{"kind"},
	)
	repairOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "narrative_engine_event_repairs_total",
			Help: "Coherence repair attempts, by result.",
		},
		[]string{"result"},
	)
	commandSources = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "narrative_engine_command_sources_total",
			Help: "Where executed commands came from: builtin, translation, cache or model.",
		},
		[]string{"source"},
	)
)

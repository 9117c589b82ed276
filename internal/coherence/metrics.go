package coherence

import (
	"narrative-engine/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	failuresFound = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "narrative_engine_coherence_failures_total",
			Help: "Structural scene defects found by kind.",
		},
		[]string{"kind"},
	)
	fixesApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "narrative_engine_coherence_fixes_total",
			Help: "Scene fixes applied by kind.",
		},
		[]string{"kind"},
	)
)

func recordFailures(failures []models.CoherenceFailure) {
	for _, f := range failures {
		switch f.(type) {
		case models.InvalidExitName:
			failuresFound.WithLabelValues(failureInvalid).Inc()
		case models.DuplicateExits:
			failuresFound.WithLabelValues(failureDuplicate).Inc()
		}
	}
}

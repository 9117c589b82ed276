package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var sceneGenerationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "narrative_engine_scene_generation_duration_seconds",
		Help:    "Time spent generating a scene with its content.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	},
	[]string{"kind"},
)

func observeScene(kind string, start time.Time) {
	sceneGenerationDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

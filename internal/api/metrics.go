package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	playConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "narrative_engine_play_connections",
		Help: "Number of open play WebSocket connections.",
	})
	playTurns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "narrative_engine_play_turns_total",
		Help: "Total number of turns played over WebSocket, partitioned by outcome.",
	}, []string{"outcome"})
)

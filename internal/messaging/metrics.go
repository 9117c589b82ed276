package messaging

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tasksReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "narrative_engine_worker_tasks_received_total",
		Help: "Total number of command tasks received by the worker.",
	})
	tasksFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "narrative_engine_worker_tasks_failed_total",
		Help: "Total number of command tasks failed, partitioned by failure reason.",
	}, []string{"reason"})
	tasksSucceeded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "narrative_engine_worker_tasks_succeeded_total",
		Help: "Total number of command tasks successfully processed.",
	})
	taskDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "narrative_engine_worker_task_duration_seconds",
		Help:    "Duration of command task processing.",
		Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	})
)

func observeTask(start time.Time) {
	taskDuration.Observe(time.Since(start).Seconds())
}

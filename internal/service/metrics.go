package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	publishAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "velvetqueue_publish_attempts_total",
			Help: "Publish attempts by outcome (published, skipped, failed_<kind>).",
		},
		[]string{"outcome"},
	)

	publishDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "velvetqueue_publish_duration_seconds",
			Help:    "Wall time of publish attempts that reached the platform, settle wait included.",
			Buckets: []float64{1, 5, 15, 30, 60, 90, 120, 180},
		},
	)

	schedulerTicksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "velvetqueue_scheduler_ticks_total",
			Help: "Scheduler ticks by result.",
		},
		[]string{"result"},
	)

	schedulerDuePosts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "velvetqueue_scheduler_due_posts",
			Help: "Due posts found by the last scheduler tick.",
		},
	)
)

// ObserveSchedulerTick records one scheduler tick and the number of due posts it saw.
func ObserveSchedulerTick(result string, due int) {
	schedulerTicksTotal.WithLabelValues(result).Inc()
	if due >= 0 {
		schedulerDuePosts.Set(float64(due))
	}
}

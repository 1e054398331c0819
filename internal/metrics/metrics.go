// Package metrics exposes Prometheus counters/gauges/histograms for the
// job lifecycle, grounded directly on the akash3tsm7 example's
// promauto-registered var block (internal/metrics/metrics.go) — the
// only example repo in the pack that imports
// github.com/prometheus/client_golang.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobsSubmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jobengine_jobs_submitted_total",
		Help: "Total number of jobs accepted via the HTTP submission API.",
	})

	JobsCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jobengine_jobs_completed_total",
		Help: "Total number of jobs that reached COMPLETED.",
	})

	JobsFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jobengine_jobs_failed_total",
		Help: "Total number of jobs that reached FAILED (DLQ).",
	})

	JobsRetriedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jobengine_jobs_retried_total",
		Help: "Total number of RUNNING->RETRIED transitions observed.",
	})

	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "jobengine_queue_depth",
		Help: "Current depth of the Ready Transport.",
	})

	DLQSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "jobengine_dlq_size",
		Help: "Current number of dead-lettered jobs.",
	})

	JobDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jobengine_job_duration_seconds",
			Help:    "Wall-clock duration from started_at to finished_at, by job_type.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 15),
		},
		[]string{"job_type"},
	)
)

package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cleansed_jobs_total",
		Help: "Cleaning jobs finished, by terminal status.",
	}, []string{"status"})

	jobDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cleansed_job_duration_seconds",
		Help:    "Wall time of a full pipeline run.",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	})

	rowsRemoved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cleansed_rows_removed_total",
		Help: "Rows removed from tables, by stage.",
	}, []string{"stage"})

	stageFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cleansed_stage_failures_total",
		Help: "Fatal stage failures, by stage.",
	}, []string{"stage"})
)

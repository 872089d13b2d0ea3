// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	// outcome is "success" or the error kind
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forecast_predictions_total",
			Help: "Total number of waste predictions by outcome",
		},
		[]string{"outcome"},
	)

	PredictionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "forecast_prediction_duration_seconds",
			Help:    "Duration of a full validate/encode/aggregate/predict pass",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		},
	)

	DishesPredicted = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "forecast_dishes_predicted",
			Help:    "Number of dishes in each successful prediction",
			Buckets: prometheus.LinearBuckets(1, 2, 10),
		},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forecast_cache_hits_total",
			Help: "Prediction cache lookups by result",
		},
		[]string{"result"},
	)

	AlertsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waste_alerts_sent_total",
			Help: "Waste alert notifications by channel and status",
		},
		[]string{"channel", "status"},
	)
)

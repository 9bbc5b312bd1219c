// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SearchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricefinder_search_requests_total",
			Help: "Search requests by outcome (cached, pending, queued, disabled)",
		},
		[]string{"outcome"},
	)

	PipelineCandidatesDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricefinder_pipeline_candidates_dropped_total",
			Help: "Candidates removed by each relevance stage",
		},
		[]string{"stage", "intent"},
	)

	PipelineDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pricefinder_pipeline_duration_seconds",
			Help:    "Time spent filtering and ranking one submission",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5},
		},
		[]string{"intent"},
	)

	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricefinder_worker_jobs_completed_total",
			Help: "Jobs completed per task type",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricefinder_worker_jobs_failed_total",
			Help: "Jobs failed per task type and error code",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "pricefinder_worker_job_duration_seconds",
			Help: "Duration of task execution in seconds",
		},
		[]string{"task_type"},
	)

	RelayJobsDispatched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pricefinder_relay_jobs_dispatched_total",
			Help: "Jobs sent to the scraping worker",
		},
	)

	RelayQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pricefinder_relay_queue_length",
			Help: "Queries waiting for the scraping worker",
		},
	)

	RelayWorkerConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pricefinder_relay_worker_connected",
			Help: "1 while a scraping worker is connected",
		},
	)

	ExternalAPICalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricefinder_external_api_calls_total",
			Help: "Outbound API calls by api and result",
		},
		[]string{"api", "result"},
	)
)

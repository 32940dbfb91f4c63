package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blogflow_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "blogflow_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	BusinessErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blogflow_business_errors_total",
			Help: "Business errors returned to callers, by kind",
		},
		[]string{"kind"},
	)

	DatabaseOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blogflow_database_operations_total",
			Help: "Total database operations",
		},
		[]string{"operation", "entity"},
	)

	DatabaseOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "blogflow_database_operation_duration_seconds",
			Help:    "Database operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "entity"},
	)

	FollowOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blogflow_follow_operations_total",
			Help: "Follow and unfollow attempts by outcome",
		},
		[]string{"operation", "outcome"},
	)

	ArticleViewsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "blogflow_article_views_total",
			Help: "Article detail reads",
		},
	)

	WorkerPoolQueueSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "blogflow_worker_pool_queue_size",
			Help: "Jobs waiting in the worker pool queue",
		},
	)

	WorkerPoolJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blogflow_worker_pool_jobs_total",
			Help: "Worker pool jobs by outcome",
		},
		[]string{"outcome"},
	)
)

func RecordHttpRequest(method, endpoint, status string, duration time.Duration) {
	HttpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	HttpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

func RecordBusinessError(kind string) {
	BusinessErrorsTotal.WithLabelValues(kind).Inc()
}

func RecordDatabaseOperation(operation, entity string, duration time.Duration) {
	DatabaseOperationsTotal.WithLabelValues(operation, entity).Inc()
	DatabaseOperationDuration.WithLabelValues(operation, entity).Observe(duration.Seconds())
}

func RecordFollowOperation(operation, outcome string) {
	FollowOperationsTotal.WithLabelValues(operation, outcome).Inc()
}

func RecordArticleView() {
	ArticleViewsTotal.Inc()
}

func RecordWorkerJob(outcome string) {
	WorkerPoolJobsTotal.WithLabelValues(outcome).Inc()
}

func UpdateWorkerPoolQueue(queueSize int) {
	WorkerPoolQueueSize.Set(float64(queueSize))
}

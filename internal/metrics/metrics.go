// Package metrics содержит метрики Prometheus сервиса
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hrdata"

var (
	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency broken down by method, route and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	importRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "import",
		Name:      "records_total",
		Help:      "Total number of import records broken down by result.",
	}, []string{"result"})

	importJobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "import",
		Name:      "jobs_total",
		Help:      "Total number of finished import attempts broken down by status.",
	}, []string{"status"})

	importJobsRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "import",
		Name:      "jobs_running",
		Help:      "Number of import jobs currently being processed.",
	})

	notificationsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "notify",
		Name:      "dropped_total",
		Help:      "Total number of notifications dropped because the queue was full.",
	}, []string{"kind"})

	cacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "requests_total",
		Help:      "Total number of cache lookups broken down by cache and hit/miss.",
	}, []string{"cache", "result"})
)

// RecordHTTPRequest учитывает длительность запроса
func RecordHTTPRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

func RecordImportRecord(failed bool) {
	result := "imported"
	if failed {
		result = "failed"
	}
	importRecords.WithLabelValues(result).Inc()
}

func RecordImportJob(status string) {
	importJobs.WithLabelValues(status).Inc()
}

// TrackImportJob увеличивает счётчик выполняемых задач и возвращает функцию для уменьшения
func TrackImportJob() func() {
	importJobsRunning.Inc()
	return importJobsRunning.Dec
}

func RecordNotificationDropped(kind string) {
	notificationsDropped.WithLabelValues(kind).Inc()
}

func RecordCacheRequest(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheRequests.WithLabelValues(cache, result).Inc()
}

// Handler отдаёт метрики в формате Prometheus
func Handler() http.Handler {
	return promhttp.Handler()
}

// Package metrics provides Prometheus metrics for the dirscope server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dirscope_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dirscope_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Indexing metrics
	indexRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dirscope_index_runs_total",
			Help: "Total number of index traversals",
		},
		[]string{"status"},
	)

	indexDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dirscope_index_duration_seconds",
			Help:    "Time to index a tree",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		},
	)

	indexEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dirscope_index_entries",
			Help: "Entries found by the most recent index run",
		},
		[]string{"type"},
	)

	skippedEntriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dirscope_skipped_entries_total",
			Help: "Entries skipped because they could not be read",
		},
		[]string{"component"},
	)

	// Explorer metrics
	navigationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dirscope_navigations_total",
			Help: "Explorer navigation operations",
		},
		[]string{"op", "status"},
	)

	sessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dirscope_sessions_active",
			Help: "Number of open explorer sessions",
		},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns Gin middleware recording request count and latency.
// Requests are labelled by route pattern, not raw path.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		RecordHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}

// RecordHTTPRequest records an HTTP request metric.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordIndex records one index run. Counts are ignored when success is false.
func RecordIndex(duration time.Duration, success bool, dirs, files, links, unknown, skipped int) {
	status := "success"
	if !success {
		status = "error"
	}
	indexRunsTotal.WithLabelValues(status).Inc()
	indexDuration.Observe(duration.Seconds())
	if !success {
		return
	}
	indexEntries.WithLabelValues("directory").Set(float64(dirs))
	indexEntries.WithLabelValues("file").Set(float64(files))
	indexEntries.WithLabelValues("link").Set(float64(links))
	indexEntries.WithLabelValues("unknown").Set(float64(unknown))
	RecordSkipped("indexer", skipped)
}

// RecordSkipped adds n skipped entries for component.
func RecordSkipped(component string, n int) {
	if n > 0 {
		skippedEntriesTotal.WithLabelValues(component).Add(float64(n))
	}
}

// RecordNavigation records an explorer navigation.
func RecordNavigation(op string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	navigationsTotal.WithLabelValues(op, status).Inc()
}

// SessionOpened increments the active session gauge.
func SessionOpened() {
	sessionsActive.Inc()
}

// SessionClosed decrements the active session gauge.
func SessionClosed() {
	sessionsActive.Dec()
}

// Package metrics holds the process Prometheus collectors.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "weave",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "weave",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "weave",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Hot key cache lookups by result.",
		},
		[]string{"result"},
	)
	cacheInvalidations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "weave",
			Subsystem: "cache",
			Name:      "invalidations_total",
			Help:      "Hot key cache entries removed.",
		},
	)
	cacheErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "weave",
			Subsystem: "cache",
			Name:      "errors_total",
			Help:      "Cache backend failures by operation.",
		},
		[]string{"op"},
	)
)

// RegisterMetrics registers the collectors with the default registry. It is
// safe to call more than once.
func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, cacheLookups, cacheInvalidations, cacheErrors)
	})
}

func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, route, statusLabel).Inc()
	httpDuration.WithLabelValues(method, route, statusLabel).Observe(duration.Seconds())
}

func RecordCacheHit() {
	RegisterMetrics()
	cacheLookups.WithLabelValues("hit").Inc()
}

func RecordCacheMiss() {
	RegisterMetrics()
	cacheLookups.WithLabelValues("miss").Inc()
}

func RecordCacheInvalidation() {
	RegisterMetrics()
	cacheInvalidations.Inc()
}

func RecordCacheError(op string) {
	RegisterMetrics()
	cacheErrors.WithLabelValues(op).Inc()
}

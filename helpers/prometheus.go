package helpers

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	requestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Tracks the number of HTTP requests.",
	})

	requestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Tracks the latencies for HTTP requests.",
		Buckets: prometheus.DefBuckets,
	})

	cacheRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_requests_total",
		Help: "Cache lookups by key family and result.",
	}, []string{"family", "result"})

	cacheInvalidations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_invalidations_total",
		Help: "Cache deletions issued after mutations.",
	}, []string{"result"})

	pipelinePublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "image_pipeline_published_total",
		Help: "Image messages handed to the broker.",
	}, []string{"result"})

	pipelineMessages = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "image_pipeline_messages_total",
		Help: "Image messages handled by the worker.",
	}, []string{"result"})

	pipelinePending = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "image_pipeline_pending_messages",
		Help: "Messages waiting in the image stream.",
	})
)

// GetRegistery returns a registry holding every collector of the service
func GetRegistery() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		requestsTotal,
		requestDuration,
		cacheRequests,
		cacheInvalidations,
		pipelinePublished,
		pipelineMessages,
		pipelinePending,
	)

	return registry
}

func IncrementRequests() {
	requestsTotal.Inc()
}

func ObserveRequestDuration(time float64) {
	requestDuration.Observe(time)
}

// ObserveCache counts a lookup on a key family
func ObserveCache(family string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheRequests.WithLabelValues(family, result).Inc()
}

// ObserveInvalidation counts one deleted key, or a failed deletion
func ObserveInvalidation(err error) {
	if err != nil {
		cacheInvalidations.WithLabelValues("failed").Inc()
		return
	}
	cacheInvalidations.WithLabelValues("deleted").Inc()
}

// ObservePublish counts a message handed, or not, to the broker
func ObservePublish(err error) {
	if err != nil {
		pipelinePublished.WithLabelValues("failed").Inc()
		return
	}
	pipelinePublished.WithLabelValues("published").Inc()
}

// ObserveMessage counts a worker outcome: processed, skipped or failed
func ObserveMessage(result string) {
	pipelineMessages.WithLabelValues(result).Inc()
}

// SetPendingMessages records the number of undelivered messages
func SetPendingMessages(n uint64) {
	pipelinePending.Set(float64(n))
}

// Instrument counts requests and their duration, except /metrics
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		IncrementRequests()

		next.ServeHTTP(w, r)

		ObserveRequestDuration(time.Since(start).Seconds())
	})
}

package api

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the Prometheus metrics for the responder service.
type Collector struct {
	registry                 *prometheus.Registry
	requestsTotal            *prometheus.CounterVec
	requestDuration          *prometheus.HistogramVec
	rateLimitRejectionsTotal prometheus.Counter
}

// NewCollector creates and registers all Prometheus metrics on a
// dedicated registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hellosvc_http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hellosvc_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds by path.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path"},
		),
		rateLimitRejectionsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "hellosvc_ratelimit_rejections_total",
				Help: "Total number of requests rejected by rate limiting.",
			},
		),
	}

	c.registry.MustRegister(
		c.requestsTotal,
		c.requestDuration,
		c.rateLimitRejectionsTotal,
	)

	return c
}

// ObserveRequest records one completed HTTP request.
func (c *Collector) ObserveRequest(method, path string, status int, seconds float64) {
	c.requestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	c.requestDuration.WithLabelValues(path).Observe(seconds)
}

// IncRateLimitRejections increments the rate limit rejection counter.
func (c *Collector) IncRateLimitRejections() {
	c.rateLimitRejectionsTotal.Inc()
}

// Handler returns an http.Handler that serves the collected metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

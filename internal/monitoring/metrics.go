package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Event log metrics
	EventsAppended    *prometheus.CounterVec
	EventAppendErrors prometheus.Counter
	LogQueryDuration  prometheus.Histogram
	LogQueryBatchSize prometheus.Histogram

	// Enrichment metrics
	EnrichmentFailures *prometheus.CounterVec
	AccountResolutions *prometheus.CounterVec

	// Pricing admin metrics
	PricingOps *prometheus.CounterVec

	// Resolver circuit breaker state
	ResolverBreakerState *prometheus.GaugeVec
}

var metrics *Metrics

// Init initializes all Prometheus metrics
func Init() *Metrics {
	if metrics != nil {
		return metrics
	}

	metrics = &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
		),

		EventsAppended: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "request_log_events_appended_total",
				Help: "Total number of request lifecycle events appended to the log",
			},
			[]string{"phase"},
		),
		EventAppendErrors: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "request_log_append_errors_total",
				Help: "Total number of failed request log appends",
			},
		),
		LogQueryDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "request_log_query_duration_seconds",
				Help:    "Request log query duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
		),
		LogQueryBatchSize: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "request_log_query_batch_size",
				Help:    "Number of events returned per request log query",
				Buckets: []float64{0, 10, 50, 100, 200, 500, 1000, 2000},
			},
		),

		EnrichmentFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "log_enrichment_failures_total",
				Help: "Total number of per-event enrichment failures",
			},
			[]string{"kind"},
		),
		AccountResolutions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "account_resolutions_total",
				Help: "Total number of account resolution attempts by outcome",
			},
			[]string{"outcome"},
		),

		PricingOps: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "account_pricing_ops_total",
				Help: "Total number of pricing override admin operations",
			},
			[]string{"op"},
		),

		ResolverBreakerState: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "account_lookup_breaker_state",
				Help: "Account lookup circuit breaker state (0=closed, 1=open, 0.5=half-open)",
			},
			[]string{"backend"},
		),
	}

	return metrics
}

// Get returns the global metrics instance
func Get() *Metrics {
	if metrics == nil {
		return Init()
	}
	return metrics
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// GinHandler returns a Gin-compatible handler for Prometheus metrics
func GinHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// MetricsMiddleware is a Gin middleware for collecting HTTP metrics
func MetricsMiddleware() gin.HandlerFunc {
	m := Get()
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		method := c.Request.Method

		m.HTTPRequestsInFlight.Inc()
		defer m.HTTPRequestsInFlight.Dec()

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		duration := time.Since(start).Seconds()

		m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
		m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}

// RecordEventAppended records a successfully appended lifecycle event
func RecordEventAppended(phase string) {
	Get().EventsAppended.WithLabelValues(phase).Inc()
}

// RecordEventAppendError records a failed log append
func RecordEventAppendError() {
	Get().EventAppendErrors.Inc()
}

// ObserveLogQuery records a log query's duration and batch size
func ObserveLogQuery(duration time.Duration, batchSize int) {
	m := Get()
	m.LogQueryDuration.Observe(duration.Seconds())
	m.LogQueryBatchSize.Observe(float64(batchSize))
}

// RecordEnrichmentFailure records a swallowed per-event enrichment failure
func RecordEnrichmentFailure(kind string) {
	Get().EnrichmentFailures.WithLabelValues(kind).Inc()
}

// RecordAccountResolution records an account resolution outcome
func RecordAccountResolution(outcome string) {
	Get().AccountResolutions.WithLabelValues(outcome).Inc()
}

// RecordPricingOp records a pricing override admin operation
func RecordPricingOp(op string) {
	Get().PricingOps.WithLabelValues(op).Inc()
}

// SetResolverBreakerState sets an account lookup breaker's state gauge
func SetResolverBreakerState(backend string, state float64) {
	Get().ResolverBreakerState.WithLabelValues(backend).Set(state)
}

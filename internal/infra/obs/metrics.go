package obs

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rentpricing/internal/app/policies"
	"rentpricing/internal/domain/pricing"
)

// Metrics owns the service collectors. A dedicated registry keeps tests independent.
type Metrics struct {
	Registry *prometheus.Registry

	calculations *prometheus.CounterVec
	calcDuration *prometheus.HistogramVec
	calcFailures prometheus.Counter
	rulesSkipped *prometheus.CounterVec
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	httpInFlight prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		calculations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rentpricing_calculations_total",
			Help: "Price calculations by source",
		}, []string{"source"}),
		calcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rentpricing_calculation_duration_seconds",
			Help:    "Price calculation latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}),
		calcFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rentpricing_calculation_failures_total",
			Help: "Price calculations aborted by an error",
		}),
		rulesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rentpricing_rules_skipped_total",
			Help: "Malformed pricing rules left out of a calculation",
		}, []string{"reason"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Number of HTTP requests currently being served",
		}),
	}
	m.Registry.MustRegister(
		m.calculations, m.calcDuration, m.calcFailures, m.rulesSkipped,
		m.httpRequests, m.httpDuration, m.httpInFlight,
	)
	return m
}

func (m *Metrics) CalculationDone(source pricing.Source, took time.Duration) {
	m.calculations.WithLabelValues(string(source)).Inc()
	m.calcDuration.WithLabelValues(string(source)).Observe(took.Seconds())
}

func (m *Metrics) CalculationFailed() {
	m.calcFailures.Inc()
}

func (m *Metrics) RuleSkipped(reason pricing.SkipReason) {
	m.rulesSkipped.WithLabelValues(string(reason)).Inc()
}

// HTTP records request counts and latency labelled by the matched route template.
func (m *Metrics) HTTP() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.httpInFlight.Inc()
		defer m.httpInFlight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		labels := prometheus.Labels{
			"method": c.Request.Method,
			"route":  route,
			"status": strconv.Itoa(c.Writer.Status()),
		}
		m.httpRequests.With(labels).Inc()
		m.httpDuration.With(labels).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
}

var _ policies.PricingObserver = (*Metrics)(nil)

package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service counters. The registerer is injectable so tests
// can use a private registry.
type Metrics struct {
	MessagesProcessed  prometheus.Counter
	ToolCalls          *prometheus.CounterVec
	PaymentEvents      *prometheus.CounterVec
	CertificatesIssued prometheus.Counter

	httpDuration *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		MessagesProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "polisbot_messages_processed_total",
			Help: "Inbound chat messages fully processed.",
		}),
		ToolCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "polisbot_tool_calls_total",
			Help: "Model tool invocations by tool name and outcome.",
		}, []string{"tool", "outcome"}),
		PaymentEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "polisbot_payment_events_total",
			Help: "Payment webhook deliveries by outcome.",
		}, []string{"outcome"}),
		CertificatesIssued: factory.NewCounter(prometheus.CounterOpts{
			Name: "polisbot_certificates_issued_total",
			Help: "Policy certificates generated and delivered.",
		}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "polisbot_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

// GinMiddleware records request latency per route.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpDuration.WithLabelValues(
			c.Request.Method,
			route,
			strconv.Itoa(c.Writer.Status()),
		).Observe(time.Since(start).Seconds())
	}
}

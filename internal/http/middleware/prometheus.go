package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMiddleware holds the prometheus metrics for the HTTP surface.
type PrometheusMiddleware struct {
	requestCount    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewPrometheusMiddleware creates a new PrometheusMiddleware registered on
// the given registry.
func NewPrometheusMiddleware(reg prometheus.Registerer) (*PrometheusMiddleware, error) {
	m := &PrometheusMiddleware{
		requestCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests processed.",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}

	if err := reg.Register(m.requestCount); err != nil {
		return nil, err
	}
	if err := reg.Register(m.requestDuration); err != nil {
		return nil, err
	}

	return m, nil
}

// Handler returns the fiber middleware handler.
func (m *PrometheusMiddleware) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Exclude /metrics from being counted
		if c.Path() == "/metrics" {
			return c.Next()
		}

		start := time.Now()

		// Process the request
		err := c.Next()

		// Get path pattern (e.g., /media/:category/:filename instead of the
		// concrete asset path, to keep label cardinality bounded)
		path := c.Route().Path
		if path == "" {
			path = c.Path() // Fallback to raw path if route not found (e.g. 404)
		}

		status := c.Response().StatusCode()
		if err != nil {
			if fiberErr, ok := err.(*fiber.Error); ok {
				status = fiberErr.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		m.requestCount.WithLabelValues(
			c.Method(),
			path,
			strconv.Itoa(status),
		).Inc()
		m.requestDuration.WithLabelValues(c.Method(), path).
			Observe(time.Since(start).Seconds())

		return err
	}
}

package apiclient

import (
	"errors"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks backend calls.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the client collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coinvest_api_requests_total",
			Help: "Backend API requests by outcome.",
		}, []string{"method", "path", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "coinvest_api_request_duration_seconds",
			Help:    "Backend API request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
	reg.MustRegister(m.requests, m.duration)
	return m
}

func (m *Metrics) observe(method, path string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	label := routeLabel(path)
	outcome := "ok"
	if err != nil {
		outcome = "error"
		var apiErr *Error
		if errors.As(err, &apiErr) {
			outcome = string(apiErr.Kind)
		}
	}
	m.requests.WithLabelValues(method, label, outcome).Inc()
	m.duration.WithLabelValues(method, label).Observe(elapsed.Seconds())
}

// routeLabel strips the query and replaces id segments so label
// cardinality stays bounded.
func routeLabel(path string) string {
	path, _, _ = strings.Cut(path, "?")
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if p != "" && strings.IndexFunc(p, func(r rune) bool { return r < '0' || r > '9' }) == -1 {
			parts[i] = ":id"
		}
	}
	return strings.Join(parts, "/")
}

package api

import (
	"fmt"
	"io"
	"time"

	"github.com/VictoriaMetrics/metrics"
)

// serverMetrics collects the request metrics of one REST server
type serverMetrics struct {
	set *metrics.Set
}

// newServerMetrics creates the metric set. sessions is polled for the active session gauge.
func newServerMetrics(sessions func() int) *serverMetrics {
	set := metrics.NewSet()
	set.NewGauge("dshop_api_sessions", func() float64 {
		return float64(sessions())
	})
	return &serverMetrics{set: set}
}

// observe records a finished request of a route
func (m *serverMetrics) observe(route string, status int, start time.Time) {
	m.set.GetOrCreateCounter(fmt.Sprintf(`dshop_api_requests_total{route=%q,status="%d"}`, route, status)).Inc()
	m.set.GetOrCreateHistogram(fmt.Sprintf(`dshop_api_request_duration_seconds{route=%q}`, route)).UpdateDuration(start)
}

// write writes all metrics of the server and of the process in Prometheus text format
func (m *serverMetrics) write(w io.Writer) {
	m.set.WritePrometheus(w)
	metrics.WriteProcessMetrics(w)
}

package client

import (
	"fmt"
	"io"
	"time"

	"github.com/VictoriaMetrics/metrics"
)

// clientMetrics collects per-client operation counters and latency
// histograms. Each client owns its own set so multiple clients in one
// process never mix their series.
type clientMetrics struct {
	set *metrics.Set
}

func newClientMetrics() *clientMetrics {
	return &clientMetrics{set: metrics.NewSet()}
}

// observe records the duration of one operation
func (m *clientMetrics) observe(op string, start time.Time) {
	name := fmt.Sprintf(`kvdb_client_request_duration_seconds{op=%q}`, op)
	m.set.GetOrCreateHistogram(name).UpdateDuration(start)
}

// count records the outcome of one operation
func (m *clientMetrics) count(op string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	name := fmt.Sprintf(`kvdb_client_requests_total{op=%q,status=%q}`, op, status)
	m.set.GetOrCreateCounter(name).Inc()
}

func (m *clientMetrics) subscriptionOpened() {
	m.set.GetOrCreateCounter(`kvdb_client_subscriptions_opened_total`).Inc()
}

func (m *clientMetrics) subscriptionClosed() {
	m.set.GetOrCreateCounter(`kvdb_client_subscriptions_closed_total`).Inc()
}

func (m *clientMetrics) subscriptionEvent() {
	m.set.GetOrCreateCounter(`kvdb_client_subscription_events_total`).Inc()
}

// WriteMetrics writes the client's metrics in Prometheus text format
func (c *KVDBClient) WriteMetrics(w io.Writer) {
	c.metrics.set.WritePrometheus(w)
}

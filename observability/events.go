package observability

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type eventMetrics struct {
	transfers *prometheus.CounterVec
}

var (
	eventMetricsOnce sync.Once
	eventRegistry    *eventMetrics
)

// Events returns the metrics registry tracking structured chain events.
func Events() *eventMetrics {
	eventMetricsOnce.Do(func() {
		eventRegistry = &eventMetrics{
			transfers: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "digichain",
				Subsystem: "events",
				Name:      "transfers_total",
				Help:      "Count of token transfers segmented by token symbol.",
			}, []string{"symbol"}),
		}
		prometheus.MustRegister(eventRegistry.transfers)
	})
	return eventRegistry
}

// RecordTransfer increments the transfer counter for the supplied token
// symbol (spec §3 Token.symbol), on both local Transfer and
// CrosschainTransfer success.
func (m *eventMetrics) RecordTransfer(symbol string) {
	if m == nil {
		return
	}
	normalized := strings.TrimSpace(strings.ToUpper(symbol))
	if normalized == "" {
		normalized = "UNKNOWN"
	}
	m.transfers.WithLabelValues(normalized).Inc()
}

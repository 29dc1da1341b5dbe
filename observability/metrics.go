package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// ChainMetrics tracks block-producer-level gauges and counters: chain
// height, per-block item counts, mempool depth, and RPC request volume
// by method.
type ChainMetrics struct {
	blockHeight    prometheus.Gauge
	blockTxCount   prometheus.Histogram
	blockPropCount prometheus.Histogram
	rpcRequests    *prometheus.CounterVec
}

var (
	chainMetricsOnce sync.Once
	chainRegistry    *ChainMetrics
)

// Metrics returns the process-wide chain metrics registry, registering it
// with the default prometheus registerer on first use.
func Metrics() *ChainMetrics {
	chainMetricsOnce.Do(func() {
		chainRegistry = &ChainMetrics{
			blockHeight: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "digichain",
				Subsystem: "chain",
				Name:      "block_height",
				Help:      "Index of the most recently sealed block.",
			}),
			blockTxCount: prometheus.NewHistogram(prometheus.HistogramOpts{
				Namespace: "digichain",
				Subsystem: "chain",
				Name:      "block_transactions",
				Help:      "Number of transactions sealed per block.",
				Buckets:   prometheus.LinearBuckets(0, 2, 10),
			}),
			blockPropCount: prometheus.NewHistogram(prometheus.HistogramOpts{
				Namespace: "digichain",
				Subsystem: "chain",
				Name:      "block_proposals",
				Help:      "Number of proposals sealed per block.",
				Buckets:   prometheus.LinearBuckets(0, 2, 10),
			}),
			rpcRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "digichain",
				Subsystem: "rpc",
				Name:      "requests_total",
				Help:      "Count of JSON-RPC requests by method and outcome.",
			}, []string{"method", "outcome"}),
		}
		prometheus.MustRegister(
			chainRegistry.blockHeight,
			chainRegistry.blockTxCount,
			chainRegistry.blockPropCount,
			chainRegistry.rpcRequests,
		)
	})
	return chainRegistry
}

// ObserveBlock records one sealed block's shape (spec §4.9 step 8).
func (m *ChainMetrics) ObserveBlock(height uint64, txCount, proposalCount int) {
	if m == nil {
		return
	}
	m.blockHeight.Set(float64(height))
	m.blockTxCount.Observe(float64(txCount))
	m.blockPropCount.Observe(float64(proposalCount))
}

// ObserveRPC records one JSON-RPC request outcome (spec §6.1).
func (m *ChainMetrics) ObserveRPC(method, outcome string) {
	if m == nil {
		return
	}
	m.rpcRequests.WithLabelValues(method, outcome).Inc()
}

package queuedwriter

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus counters describing queued writer flush behaviour, shared
// across every QueuedWriter instance in the process.
var (
	flushesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rpcframe_queuedwriter_flushes_total",
		Help: "Total number of accumulation-buffer flushes to the underlying stream.",
	})
	flushErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rpcframe_queuedwriter_flush_errors_total",
		Help: "Total number of flush failures surfaced to a caller.",
	})
	flushBatchSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rpcframe_queuedwriter_flush_batch_size",
		Help:    "Number of producer buffers coalesced into a single flush.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})
	flushBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rpcframe_queuedwriter_flush_bytes",
		Help:    "Size in bytes of a single flush to the underlying stream.",
		Buckets: prometheus.ExponentialBuckets(64, 4, 12),
	})
)

func observeFlush(bytes, batched int, err error) {
	flushesTotal.Inc()
	flushBatchSize.Observe(float64(batched))
	flushBytes.Observe(float64(bytes))
	if err != nil {
		flushErrorsTotal.Inc()
	}
}

// Package metrics exposes the dispatch core's health as Prometheus
// collectors: queue depth, active-set size, decode latency, and per-frame
// counters. These are process-wide singletons registered once at startup
// and scraped over the same listening socket as the WebSocket/HTTP
// front-end, at /metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// ActiveConnections tracks the registry's live handle count.
	ActiveConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "sherpa",
		Name:      "active_connections",
		Help:      "Number of open WebSocket connections.",
	})

	// ReadyQueueDepth tracks the dispatcher's ready-queue length.
	ReadyQueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "sherpa",
		Name:      "ready_queue_depth",
		Help:      "Number of (handle, stream) pairs awaiting a decode step.",
	})

	// ActiveSetSize tracks the dispatcher's active-set cardinality.
	ActiveSetSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "sherpa",
		Name:      "active_set_size",
		Help:      "Number of streams currently queued or decoding.",
	})

	// DecodeDuration tracks the wall-clock cost of one decode step.
	DecodeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "sherpa",
		Name:      "decode_duration_seconds",
		Help:      "Duration of a single Recognizer.DecodeStream call.",
		Buckets:   prometheus.DefBuckets,
	})

	// FramesReceived counts accepted binary audio frames.
	FramesReceived = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sherpa",
		Name:      "frames_received_total",
		Help:      "Binary audio frames accepted from clients.",
	})

	// FramesDropped counts rejected malformed binary frames.
	FramesDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sherpa",
		Name:      "frames_dropped_total",
		Help:      "Binary audio frames dropped for malformed payload length.",
	})
)

// Registry is the process-wide Prometheus registry the HTTP front-end
// exposes at /metrics.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(
		ActiveConnections,
		ReadyQueueDepth,
		ActiveSetSize,
		DecodeDuration,
		FramesReceived,
		FramesDropped,
	)
}

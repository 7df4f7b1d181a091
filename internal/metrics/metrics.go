// =============================================================================
// 文件: internal/metrics/metrics.go
// 描述: Prometheus instrumentation for the fragment sender
// =============================================================================
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SenderMetrics is the fragment sender's Prometheus surface, registered
// against a caller-supplied registry so multiple senders (or tests) in
// one process never collide on the default global registry.
type SenderMetrics struct {
	FragmentsSent   prometheus.Counter
	Retransmits     prometheus.Counter
	AcksReceived    prometheus.Counter
	FramesSent      prometheus.Counter
	FramesCancelled prometheus.Counter
	QueueFullErrors prometheus.Counter
	Flushes         prometheus.Counter
}

// NewSenderMetrics builds and registers the sender's metrics against
// registry.
func NewSenderMetrics(registry *prometheus.Registry) *SenderMetrics {
	m := &SenderMetrics{
		FragmentsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "framesend",
			Name:      "fragments_sent_total",
			Help:      "Total fragment datagrams handed to the network manager",
		}),
		Retransmits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "framesend",
			Name:      "fragment_retransmits_total",
			Help:      "Total fragment datagrams resent because they were not yet acknowledged",
		}),
		AcksReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "framesend",
			Name:      "acks_received_total",
			Help:      "Total ack datagrams processed by the ack loop",
		}),
		FramesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "framesend",
			Name:      "frames_sent_total",
			Help:      "Total frames fully acknowledged (FRAME_SENT)",
		}),
		FramesCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "framesend",
			Name:      "frames_cancelled_total",
			Help:      "Total frames dropped before being fully acknowledged (FRAME_CANCEL)",
		}),
		QueueFullErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "framesend",
			Name:      "queue_full_errors_total",
			Help:      "Total SendNewFrame calls rejected because the frame queue was at capacity",
		}),
		Flushes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "framesend",
			Name:      "flushes_total",
			Help:      "Total flush-enqueue calls that preempted queued or in-flight frames",
		}),
	}

	registry.MustRegister(
		m.FragmentsSent,
		m.Retransmits,
		m.AcksReceived,
		m.FramesSent,
		m.FramesCancelled,
		m.QueueFullErrors,
		m.Flushes,
	)

	return m
}

// RecordCompletion updates the two frame-completion counters.
func (m *SenderMetrics) RecordCompletion(isSent bool) {
	if isSent {
		m.FramesSent.Inc()
	} else {
		m.FramesCancelled.Inc()
	}
}

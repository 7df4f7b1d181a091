// =============================================================================
// 文件: internal/metrics/gauges.go
// 描述: pull-based Prometheus collector over live sender state
// =============================================================================
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/relayforge/framesend/internal/sender"
)

// StatsSource is anything that can report a point-in-time sender.Stats
// snapshot. *sender.Sender satisfies this; tests can supply a fake.
type StatsSource interface {
	Stats() sender.Stats
}

// SenderCollector is a prometheus.Collector that scrapes StatsSource on
// every collection instead of requiring the caller to push gauge
// updates on a timer.
type SenderCollector struct {
	source StatsSource

	queueDepthDesc          *prometheus.Desc
	currentFrameNumberDesc  *prometheus.Desc
	currentNbFragmentsDesc  *prometheus.Desc
	transmissionsIssuedDesc *prometheus.Desc
	estimatedEfficiencyDesc *prometheus.Desc
}

// NewSenderCollector builds a collector pulling from source. Register
// it against a *prometheus.Registry with RegisterCollector.
func NewSenderCollector(source StatsSource) *SenderCollector {
	const namespace = "framesend"

	return &SenderCollector{
		source: source,

		queueDepthDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "queue_depth"),
			"Current number of frames waiting in the frame queue",
			nil, nil,
		),
		currentFrameNumberDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "current_frame_number"),
			"Frame number of the frame currently being transmitted",
			nil, nil,
		),
		currentNbFragmentsDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "current_frame_fragments"),
			"Number of fragments in the frame currently being transmitted",
			nil, nil,
		),
		transmissionsIssuedDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "current_frame_transmissions_issued"),
			"Transmissions issued so far for the current frame",
			nil, nil,
		),
		estimatedEfficiencyDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "estimated_efficiency"),
			"Distinct fragments per frame over total transmissions issued, averaged over the efficiency window",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *SenderCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.queueDepthDesc
	ch <- c.currentFrameNumberDesc
	ch <- c.currentNbFragmentsDesc
	ch <- c.transmissionsIssuedDesc
	ch <- c.estimatedEfficiencyDesc
}

// Collect implements prometheus.Collector.
func (c *SenderCollector) Collect(ch chan<- prometheus.Metric) {
	stats := c.source.Stats()

	ch <- prometheus.MustNewConstMetric(c.queueDepthDesc, prometheus.GaugeValue, float64(stats.QueueDepth))
	ch <- prometheus.MustNewConstMetric(c.currentFrameNumberDesc, prometheus.GaugeValue, float64(stats.CurrentFrameNumber))
	ch <- prometheus.MustNewConstMetric(c.currentNbFragmentsDesc, prometheus.GaugeValue, float64(stats.CurrentNbFragments))
	ch <- prometheus.MustNewConstMetric(c.transmissionsIssuedDesc, prometheus.GaugeValue, float64(stats.TransmissionsIssued))
	ch <- prometheus.MustNewConstMetric(c.estimatedEfficiencyDesc, prometheus.GaugeValue, stats.EstimatedEfficiency)
}

package metrics

import (
	"github.com/bluefusion/bluefusion-go/autoconnect"
	"github.com/bluefusion/bluefusion-go/inspector"
)

// InspectorSink adapts a Collector into an inspector.Sink, observing every
// completed InspectionResult.
type InspectorSink struct {
	collector *Collector
}

// NewInspectorSink wraps c for use with inspector.Inspector.AddSink.
func NewInspectorSink(c *Collector) InspectorSink {
	return InspectorSink{collector: c}
}

// Observe implements inspector.Sink.
func (s InspectorSink) Observe(r *inspector.Result) {
	s.collector.PacketsInspected.Inc()
	protocol := r.DetectedProtocol
	if protocol == "" {
		protocol = "none"
	}
	s.collector.ProtocolCounts.WithLabelValues(protocol).Inc()
	for flag, set := range r.SecurityFlags {
		if set {
			s.collector.SecurityFlags.WithLabelValues(flag).Inc()
		}
	}
	s.collector.WarningsTotal.Add(float64(len(r.Warnings)))
}

var _ inspector.Sink = InspectorSink{}

// ConnectionSubscriber adapts a Collector into an autoconnect.Subscriber,
// observing every ConnectionEvent a Manager publishes.
func ConnectionSubscriber(c *Collector) autoconnect.Subscriber {
	return func(evt autoconnect.Event) {
		c.ConnectionEvents.WithLabelValues(evt.Address, evt.Type.String()).Inc()
		if evt.Type == autoconnect.EventConnectionAttempt {
			c.ConnectionAttempts.WithLabelValues(evt.Address).Inc()
		}
	}
}

// ObserveManagerStatus refreshes the stability-score and retry-count
// gauges from a snapshot of every managed connection. Call this
// periodically, or from a subscriber reacting to stability_report events.
func ObserveManagerStatus(c *Collector, statuses map[string]autoconnect.ManagedConnectionView) {
	for addr, view := range statuses {
		c.StabilityScore.WithLabelValues(addr).Set(view.Metrics.StabilityScore)
		c.RetryCount.WithLabelValues(addr).Set(float64(view.RetryCount))
	}
}

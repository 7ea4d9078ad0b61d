// Package metrics exposes Prometheus collectors over the inspector and
// auto-connect manager's internal counters. No HTTP server or handler is
// provided here — registering the collectors against a registerer and
// serving /metrics is an external layer's responsibility.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "bluefusion"
)

// Label names shared across the inspector and connection metric vectors.
const (
	labelProtocol = "protocol"
	labelFlag     = "flag"
	labelAddress  = "address"
	labelEvent    = "event"
)

// Collector holds every Prometheus metric BlueFusion exposes for the
// packet inspection and auto-connect subsystems.
type Collector struct {
	PacketsInspected  prometheus.Counter
	ProtocolCounts    *prometheus.CounterVec
	SecurityFlags     *prometheus.CounterVec
	WarningsTotal     prometheus.Counter
	HistorySize       prometheus.Gauge

	ConnectionAttempts  *prometheus.CounterVec
	ConnectionEvents    *prometheus.CounterVec
	StabilityScore      *prometheus.GaugeVec
	RetryCount          *prometheus.GaugeVec
}

// NewCollector builds a Collector and registers every metric against reg.
// If reg is nil, prometheus.DefaultRegisterer is used.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := newMetrics()
	reg.MustRegister(
		c.PacketsInspected,
		c.ProtocolCounts,
		c.SecurityFlags,
		c.WarningsTotal,
		c.HistorySize,
		c.ConnectionAttempts,
		c.ConnectionEvents,
		c.StabilityScore,
		c.RetryCount,
	)
	return c
}

func newMetrics() *Collector {
	return &Collector{
		PacketsInspected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "inspector",
			Name:      "packets_inspected_total",
			Help:      "Total packets run through the inspection pipeline.",
		}),
		ProtocolCounts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "inspector",
			Name:      "protocol_detections_total",
			Help:      "Total packets by detected protocol.",
		}, []string{labelProtocol}),
		SecurityFlags: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "inspector",
			Name:      "security_flags_total",
			Help:      "Total packets raising each security flag.",
		}, []string{labelFlag}),
		WarningsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "inspector",
			Name:      "warnings_total",
			Help:      "Total warnings raised across all inspected packets.",
		}),
		HistorySize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "inspector",
			Name:      "history_size",
			Help:      "Current number of entries held in the bounded packet history.",
		}),
		ConnectionAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "autoconnect",
			Name:      "connection_attempts_total",
			Help:      "Total connection attempts per managed address.",
		}, []string{labelAddress}),
		ConnectionEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "autoconnect",
			Name:      "connection_events_total",
			Help:      "Total ConnectionEvents emitted, by event type.",
		}, []string{labelAddress, labelEvent}),
		StabilityScore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "autoconnect",
			Name:      "stability_score",
			Help:      "Current stability score (successful / total attempts) per managed address.",
		}, []string{labelAddress}),
		RetryCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "autoconnect",
			Name:      "retry_count",
			Help:      "Current retry count per managed address.",
		}, []string{labelAddress}),
	}
}

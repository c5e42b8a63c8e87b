package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Event outcome labels.
const (
	outcomeOK       = "ok"
	outcomeRejected = "rejected"
	outcomePanic    = "panic"
)

// metrics holds the prometheus collectors for the live server. A nil
// *metrics is valid and records nothing, so a server without a
// configured registry pays only a nil check.
type metrics struct {
	sessionsActive prometheus.Gauge
	sessionsTotal  prometheus.Counter
	attachesTotal  prometheus.Counter

	eventsTotal   *prometheus.CounterVec
	eventDuration prometheus.Histogram

	updatesTotal prometheus.Counter
	updateBytes  prometheus.Counter
	reloadsTotal prometheus.Counter

	protocolErrors *prometheus.CounterVec
}

// newMetrics registers the server collectors with reg. A nil registry
// disables metrics.
func newMetrics(reg prometheus.Registerer) *metrics {
	if reg == nil {
		return nil
	}
	factory := promauto.With(reg)

	return &metrics{
		sessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "loom",
			Subsystem: "server",
			Name:      "sessions_active",
			Help:      "Number of registered page sessions",
		}),

		sessionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "loom",
			Subsystem: "server",
			Name:      "sessions_total",
			Help:      "Total number of page sessions created",
		}),

		attachesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "loom",
			Subsystem: "server",
			Name:      "attaches_total",
			Help:      "Total number of live connections attached to sessions",
		}),

		eventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "loom",
			Subsystem: "server",
			Name:      "events_total",
			Help:      "Total number of client events by outcome",
		}, []string{"outcome"}),

		eventDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "loom",
			Subsystem: "server",
			Name:      "event_duration_seconds",
			Help:      "Event dispatch and re-render duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		updatesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "loom",
			Subsystem: "server",
			Name:      "updates_total",
			Help:      "Total number of update frames sent",
		}),

		updateBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "loom",
			Subsystem: "server",
			Name:      "update_bytes_total",
			Help:      "Total bytes of update frames sent",
		}),

		reloadsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "loom",
			Subsystem: "server",
			Name:      "reloads_total",
			Help:      "Total number of full-reload directives sent",
		}),

		protocolErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "loom",
			Subsystem: "server",
			Name:      "protocol_errors_total",
			Help:      "Total protocol errors by type",
		}, []string{"type"}),
	}
}

func (m *metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.sessionsTotal.Inc()
	m.sessionsActive.Inc()
}

func (m *metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.sessionsActive.Dec()
}

func (m *metrics) Attached() {
	if m == nil {
		return
	}
	m.attachesTotal.Inc()
}

func (m *metrics) Event(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.eventsTotal.WithLabelValues(outcome).Inc()
	m.eventDuration.Observe(d.Seconds())
}

func (m *metrics) UpdateSent(bytes int) {
	if m == nil {
		return
	}
	m.updatesTotal.Inc()
	m.updateBytes.Add(float64(bytes))
}

func (m *metrics) ReloadSent() {
	if m == nil {
		return
	}
	m.reloadsTotal.Inc()
}

func (m *metrics) ProtocolError(kind string) {
	if m == nil {
		return
	}
	m.protocolErrors.WithLabelValues(kind).Inc()
}

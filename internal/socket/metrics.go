package socket

import "github.com/prometheus/client_golang/prometheus"

// Outcome labels for the events counter.
const (
	outcomeApplied  = "applied"
	outcomeDropped  = "dropped"
	outcomeBuffered = "buffered"
	outcomeEvicted  = "evicted"
)

// unknownEvent labels frames whose event name is not a known Kind.
const unknownEvent = "unknown"

// Metrics counts stream activity. A nil *Metrics records nothing.
type Metrics struct {
	events     *prometheus.CounterVec
	reconnects prometheus.Counter
	connected  prometheus.Gauge
}

// NewMetrics registers the stream collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "queuewatch",
			Subsystem: "socket",
			Name:      "events_total",
			Help:      "Realtime events seen by the client, by event and outcome.",
		}, []string{"event", "outcome"}),
		reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "queuewatch",
			Subsystem: "socket",
			Name:      "reconnects_total",
			Help:      "Connection attempts after the first.",
		}),
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "queuewatch",
			Subsystem: "socket",
			Name:      "connected",
			Help:      "1 while the realtime connection is up.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.events, m.reconnects, m.connected)
	}
	return m
}

func (m *Metrics) event(name, outcome string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(name, outcome).Inc()
}

func (m *Metrics) reconnect() {
	if m == nil {
		return
	}
	m.reconnects.Inc()
}

func (m *Metrics) setConnected(up bool) {
	if m == nil {
		return
	}
	if up {
		m.connected.Set(1)
		return
	}
	m.connected.Set(0)
}

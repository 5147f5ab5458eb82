package main

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is the observer interface the server calls into on every
// registration/disconnect/command/join/part. The default implementation
// collects into a prometheus/client_golang registry; this module does not
// serve that registry over HTTP.
type Metrics interface {
	ClientConnected()
	ClientDisconnected()
	CommandHandled(verb string)
	ChannelJoined()
	ChannelParted()
}

// prometheusMetrics is the default Metrics implementation, registering
// its collectors against a private registry so embedding this module
// into a larger binary never collides with that binary's own default
// registry.
type prometheusMetrics struct {
	registry    *prometheus.Registry
	connections prometheus.Gauge
	commands    *prometheus.CounterVec
	joins       prometheus.Counter
	parts       prometheus.Counter
}

func newPrometheusMetrics() *prometheusMetrics {
	m := &prometheusMetrics{
		registry: prometheus.NewRegistry(),
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "mammon",
			Name:      "clients_connected",
			Help:      "Number of currently connected clients.",
		}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mammon",
			Name:      "commands_total",
			Help:      "Number of protocol commands handled, by verb.",
		}, []string{"verb"}),
		joins: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mammon",
			Name:      "channel_joins_total",
			Help:      "Number of successful channel joins.",
		}),
		parts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mammon",
			Name:      "channel_parts_total",
			Help:      "Number of channel parts.",
		}),
	}

	m.registry.MustRegister(m.connections, m.commands, m.joins, m.parts)

	return m
}

func (m *prometheusMetrics) ClientConnected()    { m.connections.Inc() }
func (m *prometheusMetrics) ClientDisconnected() { m.connections.Dec() }
func (m *prometheusMetrics) CommandHandled(verb string) {
	m.commands.WithLabelValues(verb).Inc()
}
func (m *prometheusMetrics) ChannelJoined() { m.joins.Inc() }
func (m *prometheusMetrics) ChannelParted() { m.parts.Inc() }

// noopMetrics is a Metrics that records nothing. NewServer also accepts a
// nil Metrics, and every call site checks for nil.
type noopMetrics struct{}

func (noopMetrics) ClientConnected()        {}
func (noopMetrics) ClientDisconnected()     {}
func (noopMetrics) CommandHandled(string)   {}
func (noopMetrics) ChannelJoined()          {}
func (noopMetrics) ChannelParted()          {}

// Package metrics holds the Prometheus counters of the bot.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "readlater"

// Metrics owns a private registry so several instances can coexist in tests.
type Metrics struct {
	registry *prometheus.Registry

	Events      *prometheus.CounterVec
	Transitions *prometheus.CounterVec
	StoreErrors *prometheus.CounterVec
	Outbound    *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Inbound events handled, by kind.",
		}, []string{"kind"}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intake_transitions_total",
			Help:      "Dialog state transitions, by target state.",
		}, []string{"state"}),
		StoreErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_errors_total",
			Help:      "Failed store and session operations, by operation.",
		}, []string{"op"}),
		Outbound: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbound_messages_total",
			Help:      "Messages sent to the transport, by result.",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Events,
		m.Transitions,
		m.StoreErrors,
		m.Outbound,
	)
	return m
}

func (m *Metrics) Event(kind string)       { m.Events.WithLabelValues(kind).Inc() }
func (m *Metrics) Transition(state string) { m.Transitions.WithLabelValues(state).Inc() }
func (m *Metrics) StoreError(op string)    { m.StoreErrors.WithLabelValues(op).Inc() }
func (m *Metrics) Sent(result string)      { m.Outbound.WithLabelValues(result).Inc() }

// Registry exposes the registry for additional collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Package metrics exposes Prometheus counters for the poll loop.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the bridge's collectors. It satisfies bridge.Metrics.
type Metrics struct {
	polls   prometheus.Counter
	failed  prometheus.Counter
	emitted prometheus.Counter
}

// New builds the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		polls: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "netatmo_polls_total",
			Help: "Poll ticks started.",
		}),
		failed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "netatmo_poll_errors_total",
			Help: "Poll ticks that ended with an error.",
		}),
		emitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "netatmo_records_emitted_total",
			Help: "Device records delivered to the sinks.",
		}),
	}
	reg.MustRegister(m.polls, m.failed, m.emitted)
	return m
}

func (m *Metrics) PollStarted()   { m.polls.Inc() }
func (m *Metrics) PollFailed()    { m.failed.Inc() }
func (m *Metrics) RecordEmitted() { m.emitted.Inc() }

package privid

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeSuccess  = "success"
	outcomeFailure  = "engine_failure"
	outcomeRejected = "rejected"
)

// stateCollector reports library state at scrape time.
type stateCollector struct {
	initialized *prometheus.Desc
	sessions    *prometheus.Desc
	outstanding *prometheus.Desc
}

func newStateCollector() *stateCollector {
	return &stateCollector{
		initialized: prometheus.NewDesc(
			"privid_library_initialized",
			"1 if the engine is initialized, otherwise 0",
			nil, nil,
		),
		sessions: prometheus.NewDesc(
			"privid_sessions_live",
			"Sessions created and not yet destroyed",
			nil, nil,
		),
		outstanding: prometheus.NewDesc(
			"privid_buffers_outstanding",
			"Result buffers handed out and not yet released",
			nil, nil,
		),
	}
}

func (c *stateCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.initialized
	ch <- c.sessions
	ch <- c.outstanding
}

func (c *stateCollector) Collect(ch chan<- prometheus.Metric) {
	var up float64
	if lib.initialized.Load() {
		up = 1
	}
	ch <- prometheus.MustNewConstMetric(c.initialized, prometheus.GaugeValue, up)
	ch <- prometheus.MustNewConstMetric(c.sessions, prometheus.GaugeValue, float64(lib.liveSessions()))
	ch <- prometheus.MustNewConstMetric(c.outstanding, prometheus.GaugeValue, float64(buffers.outstanding()))
}

type metrics struct {
	ops   *prometheus.CounterVec
	state *stateCollector
	reg   prometheus.Registerer
}

func newMetrics() *metrics {
	return &metrics{
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "privid_operations_total",
			Help: "Operations dispatched, by operation and outcome",
		}, []string{"op", "outcome"}),
		state: newStateCollector(),
	}
}

func (m *metrics) register(reg prometheus.Registerer) error {
	if reg == nil {
		return nil
	}
	if err := reg.Register(m.ops); err != nil {
		return err
	}
	if err := reg.Register(m.state); err != nil {
		reg.Unregister(m.ops)
		return err
	}
	m.reg = reg
	return nil
}

func (m *metrics) unregister() {
	if m.reg == nil {
		return
	}
	m.reg.Unregister(m.ops)
	m.reg.Unregister(m.state)
	m.reg = nil
}

func (m *metrics) observe(op string, status Status, err error) {
	outcome := outcomeSuccess
	switch {
	case err != nil && !errors.Is(err, ErrAllocation):
		outcome = outcomeRejected
	case err != nil || !status.OK():
		outcome = outcomeFailure
	}
	m.ops.WithLabelValues(op, outcome).Inc()
}

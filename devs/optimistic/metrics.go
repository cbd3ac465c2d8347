package optimistic

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/devsim-go/devsim/devs"
)

// Metrics tracks Time Warp engine health: how far global virtual time has
// advanced, how many events have committed past the rollback horizon, how
// many rollbacks have fired, and how much speculative output is currently
// outstanding.
type Metrics struct {
	mu sync.Mutex

	GVT          prometheus.Gauge
	Committed    prometheus.Counter
	Rollbacks    prometheus.Counter
	EarlyOutputs prometheus.Gauge
}

// NewMetrics builds the Prometheus collectors under namespace (e.g. the
// running scenario's name). Call Register to attach them to a registry;
// unregistered metrics still update in memory and can be read back through
// the prometheus testutil helpers.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		GVT: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "optimistic",
			Name:      "gvt",
			Help:      "Current global virtual time.",
		}),
		Committed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "optimistic",
			Name:      "committed_events_total",
			Help:      "Events whose output has fallen behind GVT and can no longer be rolled back.",
		}),
		Rollbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "optimistic",
			Name:      "rollbacks_total",
			Help:      "Rollbacks triggered across all logical processes by late-arriving messages.",
		}),
		EarlyOutputs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "optimistic",
			Name:      "early_outputs",
			Help:      "Speculative outputs produced but not yet committed, summed across all logical processes.",
		}),
	}
}

// Register attaches every collector to reg. Call once, before the first
// ExecUntil.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.GVT, m.Committed, m.Rollbacks, m.EarlyOutputs} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) setGVT(t devs.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.IsInfinity() {
		return
	}
	m.GVT.Set(t.T)
}

func (m *Metrics) observeCommitted(n int) {
	if n > 0 {
		m.Committed.Add(float64(n))
	}
}

func (m *Metrics) observeRollbacks(n int) {
	if n > 0 {
		m.Rollbacks.Add(float64(n))
	}
}

func (m *Metrics) setEarlyOutputs(total int) {
	m.EarlyOutputs.Set(float64(total))
}

package aterm

// metrics.go contains a thin abstraction over Prometheus so that the pool can
// be used with or without metrics.  When the user passes a
// *prometheus.Registry via WithMetrics we create the collectors and register
// them; otherwise a no-op sink is used and the hot path does not pay for
// metric updates.

import "github.com/prometheus/client_golang/prometheus"

type metricsSink interface {
	setLiveTerms(n int)
	observeCollection(reclaimed, live int)
	addSlots(delta int)
}

type noopMetrics struct{}

func (noopMetrics) setLiveTerms(int)         {}
func (noopMetrics) observeCollection(_, _ int) {}
func (noopMetrics) addSlots(int)             {}

type promMetrics struct {
	termsLive   prometheus.Gauge
	gcRuns      prometheus.Counter
	gcReclaimed prometheus.Counter
	slots       prometheus.Gauge
}

func newPromMetrics(reg *prometheus.Registry) *promMetrics {
	pm := &promMetrics{
		termsLive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "aterm",
			Name:      "terms_live",
			Help:      "Number of live nodes across the term arenas.",
		}),
		gcRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aterm",
			Name:      "gc_runs_total",
			Help:      "Number of completed garbage collections.",
		}),
		gcReclaimed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aterm",
			Name:      "gc_reclaimed_total",
			Help:      "Number of term nodes reclaimed by garbage collection.",
		}),
		slots: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "aterm",
			Name:      "protection_slots",
			Help:      "Number of occupied protection slots across all threads.",
		}),
	}
	reg.MustRegister(pm.termsLive, pm.gcRuns, pm.gcReclaimed, pm.slots)
	return pm
}

func (m *promMetrics) setLiveTerms(n int) {
	m.termsLive.Set(float64(n))
}

func (m *promMetrics) observeCollection(reclaimed, live int) {
	m.gcRuns.Inc()
	m.gcReclaimed.Add(float64(reclaimed))
	m.termsLive.Set(float64(live))
}

func (m *promMetrics) addSlots(delta int) {
	m.slots.Add(float64(delta))
}

func newMetricsSink(reg *prometheus.Registry) metricsSink {
	if reg == nil {
		return noopMetrics{}
	}
	return newPromMetrics(reg)
}

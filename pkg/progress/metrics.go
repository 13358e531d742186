package progress

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsExporter mirrors an Estimator's state into Prometheus collectors.
// Collectors are updated from the tick handler; scraping them from another
// goroutine is safe.
type MetricsExporter struct {
	estimator  *Estimator
	stepNumber prometheus.Gauge
	stepTotal  prometheus.Gauge
	ticks      prometheus.Gauge
	tickTotal  prometheus.Gauge
	remaining  prometheus.Gauge
	paused     prometheus.Gauge
	ticksTotal prometheus.Counter
	sub        Subscription
}

// NewMetricsExporter registers the collectors against reg and subscribes
// to the estimator.
func NewMetricsExporter(estimator *Estimator, reg prometheus.Registerer) (*MetricsExporter, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &MetricsExporter{
		estimator: estimator,
		stepNumber: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stepwatch_step_number",
			Help: "Index of the step currently running.",
		}),
		stepTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stepwatch_step_total",
			Help: "Number of steps in the operation.",
		}),
		ticks: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stepwatch_step_ticks",
			Help: "Items completed in the current step.",
		}),
		tickTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stepwatch_step_tick_total",
			Help: "Items expected in the current step.",
		}),
		remaining: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stepwatch_step_remaining_seconds",
			Help: "Estimated seconds left in the current step, -1 when unknown.",
		}),
		paused: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stepwatch_paused",
			Help: "1 while the operation is paused.",
		}),
		ticksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stepwatch_ticks_total",
			Help: "Items completed across all steps.",
		}),
	}

	for _, collector := range []prometheus.Collector{
		m.stepNumber,
		m.stepTotal,
		m.ticks,
		m.tickTotal,
		m.remaining,
		m.paused,
		m.ticksTotal,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register progress collector: %w", err)
		}
	}

	m.sub = estimator.Subscribe(m.onTick)
	m.Refresh()

	return m, nil
}

func (m *MetricsExporter) onTick() {
	m.ticksTotal.Inc()
	m.Refresh()
}

// Refresh copies the estimator's current state into the gauges. Call it
// after BeginStep or Pause/Resume, which do not notify subscribers.
func (m *MetricsExporter) Refresh() {
	s := m.estimator.Snapshot()

	m.stepNumber.Set(float64(s.StepNumber))
	m.stepTotal.Set(float64(s.StepTotal))
	m.ticks.Set(float64(s.TickNumber))
	m.tickTotal.Set(float64(s.TickTotal))

	if s.RemainingKnown() {
		m.remaining.Set(float64(s.Remaining / time.Second))
	} else {
		m.remaining.Set(-1)
	}

	if s.Paused {
		m.paused.Set(1)
	} else {
		m.paused.Set(0)
	}
}

// Close unsubscribes the exporter. Registered collectors keep their last
// values.
func (m *MetricsExporter) Close() {
	m.estimator.Unsubscribe(m.sub)
}

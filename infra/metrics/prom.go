package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/gridflex/gridflex/core/metrics"
)

// PromSink records negotiation and optimization results in Prometheus metrics.
type PromSink struct {
	phases   *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	cycles   prometheus.Counter
	savings  prometheus.Gauge
	carbon   prometheus.Gauge
	warnings prometheus.Counter
}

// NewPromSink registers scheduler metrics on the default Prometheus registerer.
// The Prometheus server should be started separately using cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(_ coremetrics.Config, reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	phases := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "negotiation_phases_total",
		Help: "Total number of negotiation phases executed",
	}, []string{"phase", "live"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "negotiation_phase_latency_seconds",
		Help:    "Time spent exchanging each negotiation phase",
		Buckets: prometheus.DefBuckets,
	}, []string{"phase", "live"})
	cycles := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "optimization_cycles_total",
		Help: "Total number of optimization cycles run",
	})
	savings := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "optimization_cost_savings",
		Help: "Cost savings of the most recent optimization cycle",
	})
	carbon := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "optimization_carbon_savings_kg",
		Help: "Carbon savings in kilograms of the most recent optimization cycle",
	})
	warnings := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "optimization_feasibility_warnings_total",
		Help: "Total number of feasibility warnings emitted",
	})

	if err := reg.Register(phases); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			phases = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(latency); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			latency = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(cycles); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			cycles = are.ExistingCollector.(prometheus.Counter)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(savings); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			savings = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(carbon); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			carbon = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(warnings); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			warnings = are.ExistingCollector.(prometheus.Counter)
		} else {
			return nil, err
		}
	}

	return &PromSink{
		phases:   phases,
		latency:  latency,
		cycles:   cycles,
		savings:  savings,
		carbon:   carbon,
		warnings: warnings,
	}, nil
}

// RecordPhaseResult counts the phase and observes its latency.
func (s *PromSink) RecordPhaseResult(r coremetrics.PhaseResult) error {
	live := strconv.FormatBool(r.Live)
	s.phases.WithLabelValues(r.Phase, live).Inc()
	s.latency.WithLabelValues(r.Phase, live).Observe(r.Latency.Seconds())
	return nil
}

// RecordCycleResult updates the cycle counters and savings gauges.
func (s *PromSink) RecordCycleResult(r coremetrics.CycleResult) error {
	s.cycles.Inc()
	s.savings.Set(r.CostSavings)
	s.carbon.Set(r.CarbonSavingsKg)
	for i := 0; i < r.Warnings; i++ {
		s.warnings.Inc()
	}
	return nil
}

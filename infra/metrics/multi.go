package metrics

import coremetrics "github.com/gridflex/gridflex/core/metrics"

// MultiSink fans records out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordPhaseResult forwards the record to all sinks, returning the first error encountered.
func (m *MultiSink) RecordPhaseResult(r coremetrics.PhaseResult) error {
	for _, s := range m.Sinks {
		if err := s.RecordPhaseResult(r); err != nil {
			return err
		}
	}
	return nil
}

// RecordCycleResult forwards the record to all sinks, returning the first error encountered.
func (m *MultiSink) RecordCycleResult(r coremetrics.CycleResult) error {
	for _, s := range m.Sinks {
		if err := s.RecordCycleResult(r); err != nil {
			return err
		}
	}
	return nil
}

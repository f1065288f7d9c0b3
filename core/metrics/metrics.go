package metrics

import "time"

// PhaseResult records one negotiation phase for observability purposes.
type PhaseResult struct {
	TransactionID string
	Phase         string
	Live          bool
	Latency       time.Duration
	Time          time.Time
}

// CycleResult summarizes one optimization cycle.
type CycleResult struct {
	Workloads       int
	Decisions       int
	Warnings        int
	DegradedPhases  int
	CostSavings     float64
	CarbonSavingsKg float64
	FlexRevenue     float64
	OrderID         string
	Duration        time.Duration
	Time            time.Time
}

// MetricsSink records scheduling and negotiation outcomes.
type MetricsSink interface {
	RecordPhaseResult(PhaseResult) error
	RecordCycleResult(CycleResult) error
}

// NopSink discards all records.
type NopSink struct{}

func (NopSink) RecordPhaseResult(PhaseResult) error { return nil }
func (NopSink) RecordCycleResult(CycleResult) error { return nil }

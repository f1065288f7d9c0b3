package events

// CycleEvent is published when an optimization cycle finishes planning.
type CycleEvent struct {
	Workloads int
	Decisions int
	Warnings  int
}

// WarningEvent is published when a workload has no feasible window.
type WarningEvent struct {
	WorkloadID string
	Reason     string
}

// PhaseEvent is published after each negotiation phase. Live reports
// whether the counterparty answered or the degraded continuation ran.
type PhaseEvent struct {
	TransactionID string
	Phase         string
	State         string
	Live          bool
}

// Package events defines the events emitted on the event bus.
//
// Available event types:
//   - CycleEvent: optimization cycle summary
//   - WarningEvent: workload left unscheduled
//   - PhaseEvent: negotiation phase outcome
package events

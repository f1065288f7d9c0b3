package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Priority ranks a workload's scheduling importance.
type Priority int

const (
	PriorityMedium Priority = iota
	PriorityHigh
	PriorityLow
)

// String returns the lowercase wire name of the priority.
func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityLow:
		return "low"
	default:
		return "medium"
	}
}

// ScoreMultiplier biases the raw optimization score. High priority
// workloads get a discount so cheaper windows win for them first; it is a
// soft bias, not a hard precedence.
func (p Priority) ScoreMultiplier() float64 {
	switch p {
	case PriorityHigh:
		return 0.8
	case PriorityLow:
		return 1.2
	default:
		return 1.0
	}
}

// MarshalJSON encodes the priority as its wire name.
func (p Priority) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON decodes a priority from its wire name.
func (p *Priority) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	switch strings.ToLower(s) {
	case "high":
		*p = PriorityHigh
	case "low":
		*p = PriorityLow
	case "medium", "":
		*p = PriorityMedium
	default:
		return fmt.Errorf("unknown priority: %s", s)
	}
	return nil
}

// Status tracks a workload through its lifecycle.
type Status string

const (
	StatusPending   Status = "pending"
	StatusScheduled Status = "scheduled"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Workload represents a flexible compute job waiting to be scheduled.
type Workload struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	PowerKW       float64   `json:"power_kw"`
	DurationHours float64   `json:"duration_hours"`
	Priority      Priority  `json:"priority"`
	SLADeadline   time.Time `json:"sla_deadline"`
	EarliestStart time.Time `json:"earliest_start"`
	Status        Status    `json:"status"`
}

// Flexible reports whether the workload can still be shifted: the slack
// before its SLA deadline must exceed its duration by at least two hours.
func (w Workload) Flexible(now time.Time) bool {
	if w.Status != StatusPending {
		return false
	}
	hoursUntilDeadline := w.SLADeadline.Sub(now).Hours()
	return hoursUntilDeadline > w.DurationHours+2
}

// EnergyKWh returns the total energy the workload consumes over its full
// duration.
func (w Workload) EnergyKWh() float64 {
	return w.PowerKW * w.DurationHours
}

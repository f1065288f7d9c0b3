package model

import (
	"testing"
	"time"
)

func TestWorkloadFlexible(t *testing.T) {
	now := time.Now()
	w := Workload{
		ID:            "JOB-001",
		PowerKW:       100,
		DurationHours: 4,
		Status:        StatusPending,
		SLADeadline:   now.Add(8 * time.Hour),
	}
	if !w.Flexible(now) {
		t.Fatalf("expected workload with 4h slack to be flexible")
	}
	w.SLADeadline = now.Add(5 * time.Hour)
	if w.Flexible(now) {
		t.Fatalf("expected workload with insufficient slack to be inflexible")
	}
	w.SLADeadline = now.Add(48 * time.Hour)
	w.Status = StatusRunning
	if w.Flexible(now) {
		t.Fatalf("only pending workloads are flexible")
	}
}

func TestPriorityScoreMultiplier(t *testing.T) {
	if got := PriorityHigh.ScoreMultiplier(); got != 0.8 {
		t.Errorf("high multiplier = %v, want 0.8", got)
	}
	if got := PriorityLow.ScoreMultiplier(); got != 1.2 {
		t.Errorf("low multiplier = %v, want 1.2", got)
	}
	if got := PriorityMedium.ScoreMultiplier(); got != 1.0 {
		t.Errorf("medium multiplier = %v, want 1.0", got)
	}
}

func TestWorkloadEnergy(t *testing.T) {
	w := Workload{PowerKW: 150, DurationHours: 4}
	if got := w.EnergyKWh(); got != 600 {
		t.Fatalf("energy = %v, want 600", got)
	}
}

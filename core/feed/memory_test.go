package feed

import (
	"context"
	"testing"
	"time"

	"github.com/gridflex/gridflex/core/model"
)

func TestMemoryCatalogUpdateStatusIdempotent(t *testing.T) {
	ctx := context.Background()
	cat := NewMemoryCatalog([]model.Workload{{ID: "JOB-001", Status: model.StatusPending}})

	if err := cat.UpdateStatus(ctx, "JOB-001", model.StatusScheduled); err != nil {
		t.Fatalf("update: %v", err)
	}
	// Re-applying the same status must be a no-op, not an error.
	if err := cat.UpdateStatus(ctx, "JOB-001", model.StatusScheduled); err != nil {
		t.Fatalf("idempotent update: %v", err)
	}
	ws, err := cat.Workloads(ctx)
	if err != nil {
		t.Fatalf("workloads: %v", err)
	}
	if ws[0].Status != model.StatusScheduled {
		t.Fatalf("status = %s, want scheduled", ws[0].Status)
	}
}

func TestMemoryCatalogUnknownWorkload(t *testing.T) {
	cat := NewMemoryCatalog(nil)
	if err := cat.UpdateStatus(context.Background(), "missing", model.StatusFailed); err == nil {
		t.Fatalf("expected error for unknown workload")
	}
}

func TestStaticFeedForecast(t *testing.T) {
	now := time.Now()
	var signals []model.GridSignal
	for i := 0; i < 24; i++ {
		signals = append(signals, model.GridSignal{Timestamp: now.Add(time.Duration(i) * time.Hour)})
	}
	f := StaticFeed{Signals: signals}

	got, err := f.Forecast(context.Background(), 6)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	if len(got) != 6 {
		t.Fatalf("len = %d, want 6", len(got))
	}
	got, err = f.Forecast(context.Background(), 48)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	if len(got) != 24 {
		t.Fatalf("len = %d, want 24 (capped at available signals)", len(got))
	}
}

package feed

import (
	"context"
	"fmt"
	"sync"

	"github.com/gridflex/gridflex/core/model"
)

// MemoryCatalog is an in-memory Catalog. Status mutation is serialized
// behind a mutex; workloads are never deleted.
type MemoryCatalog struct {
	mu        sync.Mutex
	workloads []model.Workload
}

// NewMemoryCatalog creates a catalog seeded with the given workloads.
func NewMemoryCatalog(workloads []model.Workload) *MemoryCatalog {
	c := &MemoryCatalog{workloads: make([]model.Workload, len(workloads))}
	copy(c.workloads, workloads)
	return c
}

// Workloads returns a snapshot of all workload records.
func (c *MemoryCatalog) Workloads(ctx context.Context) ([]model.Workload, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Workload, len(c.workloads))
	copy(out, c.workloads)
	return out, nil
}

// UpdateStatus sets the status of the workload with the given id.
// Re-applying the current status is a no-op.
func (c *MemoryCatalog) UpdateStatus(ctx context.Context, id string, status model.Status) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.workloads {
		if c.workloads[i].ID != id {
			continue
		}
		if c.workloads[i].Status == status {
			return nil
		}
		c.workloads[i].Status = status
		return nil
	}
	return fmt.Errorf("unknown workload: %s", id)
}

// StaticFeed serves a fixed, pre-ordered signal sequence.
type StaticFeed struct {
	Signals []model.GridSignal
}

// Forecast returns up to hours signals from the head of the sequence.
func (f StaticFeed) Forecast(ctx context.Context, hours int) ([]model.GridSignal, error) {
	if hours <= 0 || hours > len(f.Signals) {
		hours = len(f.Signals)
	}
	out := make([]model.GridSignal, hours)
	copy(out, f.Signals[:hours])
	return out, nil
}

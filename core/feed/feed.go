// Package feed defines the collaborator boundaries the scheduling core
// consumes: a catalog of compute workloads and a time-ordered grid signal
// feed. The core never generates workloads or signals itself.
package feed

import (
	"context"

	"github.com/gridflex/gridflex/core/model"
)

// SignalFeed supplies hourly grid signals for a requested horizon, ordered
// by timestamp.
type SignalFeed interface {
	Forecast(ctx context.Context, hours int) ([]model.GridSignal, error)
}

// Catalog supplies workload records and accepts status updates.
type Catalog interface {
	Workloads(ctx context.Context) ([]model.Workload, error)
	// UpdateStatus sets the status of a workload. Re-applying the current
	// status is a no-op.
	UpdateStatus(ctx context.Context, id string, status model.Status) error
}

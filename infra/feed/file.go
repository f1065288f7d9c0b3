// Package feed provides file-backed implementations of the workload
// catalog and grid signal feed, for operation from exported datasets.
package feed

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	corefeed "github.com/gridflex/gridflex/core/feed"
	"github.com/gridflex/gridflex/core/model"
)

// LoadCatalog reads a JSON array of workloads and returns an in-memory
// catalog over them. Status updates are held in memory only.
func LoadCatalog(path string) (*corefeed.MemoryCatalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workloads: %w", err)
	}
	var ws []model.Workload
	if err := json.Unmarshal(raw, &ws); err != nil {
		return nil, fmt.Errorf("decode workloads: %w", err)
	}
	for i, w := range ws {
		if w.ID == "" {
			return nil, fmt.Errorf("workload %d has no id", i)
		}
		if ws[i].Status == "" {
			ws[i].Status = model.StatusPending
		}
	}
	return corefeed.NewMemoryCatalog(ws), nil
}

// LoadSignals reads a JSON array of grid signals and returns a static
// feed over them, ordered by timestamp.
func LoadSignals(path string) (*corefeed.StaticFeed, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read signals: %w", err)
	}
	var sigs []model.GridSignal
	if err := json.Unmarshal(raw, &sigs); err != nil {
		return nil, fmt.Errorf("decode signals: %w", err)
	}
	if len(sigs) == 0 {
		return nil, fmt.Errorf("signal file %s is empty", path)
	}
	sort.SliceStable(sigs, func(i, j int) bool {
		return sigs[i].Timestamp.Before(sigs[j].Timestamp)
	})
	return &corefeed.StaticFeed{Signals: sigs}, nil
}

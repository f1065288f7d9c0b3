package feed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridflex/gridflex/core/model"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadCatalog(t *testing.T) {
	path := writeFile(t, "workloads.json", `[
		{"id": "JOB-001", "name": "nightly-train", "power_kw": 150, "duration_hours": 4,
		 "sla_deadline": "2024-03-02T08:00:00Z", "priority": "high", "status": "pending"},
		{"id": "JOB-002", "name": "batch-etl", "power_kw": 20, "duration_hours": 1,
		 "sla_deadline": "2024-03-01T12:00:00Z", "priority": "low"}
	]`)

	cat, err := LoadCatalog(path)
	require.NoError(t, err)

	ws, err := cat.Workloads(context.Background())
	require.NoError(t, err)
	require.Len(t, ws, 2)
	assert.Equal(t, model.PriorityHigh, ws[0].Priority)
	assert.Equal(t, model.StatusPending, ws[1].Status, "missing status defaults to pending")
}

func TestLoadCatalogRejectsMissingID(t *testing.T) {
	path := writeFile(t, "workloads.json", `[{"name": "anonymous"}]`)
	_, err := LoadCatalog(path)
	assert.Error(t, err)
}

func TestLoadSignalsSortsByTimestamp(t *testing.T) {
	path := writeFile(t, "signals.json", `[
		{"timestamp": "2024-03-01T02:00:00Z", "price_per_kwh": 0.12, "carbon_intensity_g_per_kwh": 150},
		{"timestamp": "2024-03-01T00:00:00Z", "price_per_kwh": 0.15, "carbon_intensity_g_per_kwh": 200},
		{"timestamp": "2024-03-01T01:00:00Z", "price_per_kwh": 0.13, "carbon_intensity_g_per_kwh": 180}
	]`)

	sf, err := LoadSignals(path)
	require.NoError(t, err)

	sigs, err := sf.Forecast(context.Background(), 24)
	require.NoError(t, err)
	require.Len(t, sigs, 3)
	assert.True(t, sigs[0].Timestamp.Before(sigs[1].Timestamp))
	assert.True(t, sigs[1].Timestamp.Before(sigs[2].Timestamp))
}

func TestLoadSignalsEmptyFile(t *testing.T) {
	path := writeFile(t, "signals.json", `[]`)
	_, err := LoadSignals(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := LoadCatalog(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
	_, err = LoadSignals(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

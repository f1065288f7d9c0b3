package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridflex/gridflex/config"
	"github.com/gridflex/gridflex/core/audit"
	"github.com/gridflex/gridflex/core/events"
	corefeed "github.com/gridflex/gridflex/core/feed"
	"github.com/gridflex/gridflex/core/model"
	"github.com/gridflex/gridflex/core/protocol"
	"github.com/gridflex/gridflex/infra/export"
)

// marketplace answers every negotiation phase with a plausible payload.
func marketplace(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req protocol.Envelope
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		resp := protocol.Envelope{Context: req.Context}
		switch req.Context.Action {
		case protocol.ActionSearch:
			resp.Message.Catalog = &protocol.Catalog{Providers: []protocol.Provider{{
				ID:    "grid-provider-1",
				Items: []protocol.Item{{ID: "energy-window-1", Price: &protocol.Price{Value: "0.15", Currency: "GBP"}}},
			}}}
		case protocol.ActionSelect, protocol.ActionInit:
			order := *req.Message.Order
			resp.Message.Order = &order
		case protocol.ActionConfirm:
			order := *req.Message.Order
			order.ID = "LIVE-ORDER-9"
			order.State = "CONFIRMED"
			resp.Message.Order = &order
		case protocol.ActionStatus, protocol.ActionUpdate:
			resp.Message.Order = &protocol.Order{ID: req.Message.OrderID, State: "IN_PROGRESS"}
		case protocol.ActionRating:
			resp.Message.Ack = &protocol.Ack{Status: "ACK"}
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func testConfig(baseURL, exportPath string) *config.Config {
	cfg := &config.Config{}
	cfg.Protocol.BaseURL = baseURL
	cfg.Ledger.ExportPath = exportPath
	cfg.Feed.WorkloadsPath = "unused"
	cfg.Feed.SignalsPath = "unused"
	cfg.SetDefaults()
	return cfg
}

func testSources(now time.Time) (*corefeed.MemoryCatalog, corefeed.StaticFeed) {
	catalog := corefeed.NewMemoryCatalog([]model.Workload{
		{
			ID: "JOB-001", Name: "nightly-train", PowerKW: 100, DurationHours: 2,
			SLADeadline: now.Add(48 * time.Hour), Status: model.StatusPending,
		},
		{
			ID: "JOB-002", Name: "urgent-report", PowerKW: 10, DurationHours: 1,
			SLADeadline: now.Add(2 * time.Hour), Status: model.StatusPending,
		},
	})
	sigs := make([]model.GridSignal, 24)
	for i := range sigs {
		price := 0.30
		if i >= 2 && i < 6 {
			price = 0.10
		}
		sigs[i] = model.GridSignal{
			Timestamp:       now.Add(time.Duration(i) * time.Hour),
			PricePerKWh:     price,
			CarbonIntensity: 200,
		}
	}
	return catalog, corefeed.StaticFeed{Signals: sigs}
}

func TestRunCycleEndToEnd(t *testing.T) {
	srv := marketplace(t)
	defer srv.Close()

	exportPath := filepath.Join(t.TempDir(), "audit.json")
	catalog, signals := testSources(time.Now())
	svc, err := New(testConfig(srv.URL, exportPath), catalog, signals)
	require.NoError(t, err)
	defer svc.Close()

	report, err := svc.RunCycle(context.Background())
	require.NoError(t, err)

	// JOB-002 has no slack and is not part of the schedule.
	assert.Equal(t, 1, report.Workloads)
	require.Len(t, report.Decisions, 1)
	assert.Equal(t, "JOB-001", report.Decisions[0].WorkloadID)
	assert.Greater(t, report.Savings.CostSavings, 0.0)

	require.NotNil(t, report.Journey)
	assert.Equal(t, protocol.StateRated, report.Journey.State)
	assert.Equal(t, "LIVE-ORDER-9", report.OrderID)

	assert.Equal(t, 1, report.Settlement.JobsCompleted)
	assert.NoError(t, svc.Ledger().Verify())

	// The exported trail is readable and intact.
	entries, err := export.ReadFile(exportPath)
	require.NoError(t, err)
	assert.NoError(t, audit.VerifyEntries(entries))
	assert.Equal(t, svc.Ledger().Len(), len(entries))
}

func TestRunCycleNoFlexibleWorkloads(t *testing.T) {
	srv := marketplace(t)
	defer srv.Close()

	now := time.Now()
	catalog := corefeed.NewMemoryCatalog([]model.Workload{
		{ID: "JOB-001", PowerKW: 10, DurationHours: 1, SLADeadline: now.Add(time.Hour), Status: model.StatusPending},
	})
	_, signals := testSources(now)
	svc, err := New(testConfig(srv.URL, ""), catalog, signals)
	require.NoError(t, err)
	defer svc.Close()

	report, err := svc.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Workloads)
	assert.Nil(t, report.Journey)
	// Gathering is still on the record.
	assert.Equal(t, 2, svc.Ledger().Len())
}

func TestRunCyclePublishesEvents(t *testing.T) {
	srv := marketplace(t)
	defer srv.Close()

	catalog, signals := testSources(time.Now())
	svc, err := New(testConfig(srv.URL, ""), catalog, signals)
	require.NoError(t, err)
	defer svc.Close()

	sub := svc.Bus().Subscribe()
	_, err = svc.RunCycle(context.Background())
	require.NoError(t, err)

	var phases []events.PhaseEvent
	cycles := 0
	drained := false
	for !drained {
		select {
		case e := <-sub:
			switch ev := e.(type) {
			case events.PhaseEvent:
				phases = append(phases, ev)
			case events.CycleEvent:
				cycles++
				assert.Equal(t, 1, ev.Decisions)
			}
		default:
			drained = true
		}
	}

	assert.Equal(t, 1, cycles)
	require.Len(t, phases, 7)
	assert.Equal(t, "search", phases[0].Phase)
	assert.Equal(t, "rating", phases[6].Phase)
	for _, p := range phases {
		assert.True(t, p.Live, "phase %s", p.Phase)
		assert.NotEmpty(t, p.TransactionID)
	}
}

func TestRunCycleDegradedMarketplace(t *testing.T) {
	catalog, signals := testSources(time.Now())
	svc, err := New(testConfig("http://127.0.0.1:1", ""), catalog, signals)
	require.NoError(t, err)
	defer svc.Close()

	report, err := svc.RunCycle(context.Background())
	require.NoError(t, err, "an unreachable marketplace must not fail the cycle")
	require.NotNil(t, report.Journey)
	assert.Equal(t, protocol.StateRated, report.Journey.State)
	assert.Equal(t, protocol.SyntheticOrderID(report.Journey.TransactionID), report.OrderID)
	assert.Equal(t, 1, report.Settlement.JobsCompleted)
}

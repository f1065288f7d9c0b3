package audit

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridflex/gridflex/infra/logger"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	return New(logger.NopLogger{})
}

func TestLedgerVerifyClean(t *testing.T) {
	l := newTestLedger(t)
	for i := 0; i < 5; i++ {
		_, err := l.Log("cycle_started", map[string]any{"n": float64(i)})
		require.NoError(t, err)
	}
	assert.NoError(t, l.Verify())
	assert.Equal(t, 5, l.Len())
}

func TestLedgerVerifyDetectsTampering(t *testing.T) {
	l := newTestLedger(t)
	_, err := l.Log("cycle_started", map[string]any{"n": 1.0})
	require.NoError(t, err)
	_, err = l.Log(EventJobCompleted, map[string]any{"job": "JOB-001"}, WithJob("JOB-001"))
	require.NoError(t, err)

	// Mutate a stored entry behind the ledger's back.
	l.entries[1].Data["job"] = "JOB-999"

	err = l.Verify()
	var ierr *IntegrityError
	require.True(t, errors.As(err, &ierr), "expected IntegrityError, got %v", err)
	assert.Equal(t, 1, ierr.Index)
	assert.Equal(t, EventJobCompleted, ierr.Entry.EventType)
}

func TestSignatureDeterminism(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	job := "JOB-001"
	a := Entry{Timestamp: ts, EventType: "schedule_optimized", JobID: &job, Data: map[string]any{"x": 1.5, "y": "z"}}
	b := Entry{Timestamp: ts, EventType: "schedule_optimized", JobID: &job, Data: map[string]any{"y": "z", "x": 1.5}}

	sigA, err := Sign(a)
	require.NoError(t, err)
	sigB, err := Sign(b)
	require.NoError(t, err)
	assert.Equal(t, sigA, sigB, "identical content must yield identical signatures")

	c := a
	c.EventType = "job_completed"
	sigC, err := Sign(c)
	require.NoError(t, err)
	assert.NotEqual(t, sigA, sigC, "changing event type must change the signature")
}

func TestLedgerQueries(t *testing.T) {
	l := newTestLedger(t)
	_, err := l.Log("negotiation_search", map[string]any{}, WithTransaction("txn-1"))
	require.NoError(t, err)
	_, err = l.Log(EventJobCompleted, map[string]any{}, WithJob("JOB-001"), WithTransaction("txn-1"))
	require.NoError(t, err)
	_, err = l.Log(EventJobCompleted, map[string]any{}, WithJob("JOB-002"))
	require.NoError(t, err)

	assert.Len(t, l.ForTransaction("txn-1"), 2)
	assert.Len(t, l.ForJob("JOB-001"), 1)
	assert.Empty(t, l.ForJob("JOB-404"))
}

func TestLedgerSettlement(t *testing.T) {
	l := newTestLedger(t)
	_, err := l.Log(EventScheduleOptimized, map[string]any{
		"savings": map[string]any{
			"cost_savings":      40.0,
			"carbon_savings_kg": 50.0,
			"flex_revenue":      12.5,
		},
	})
	require.NoError(t, err)
	_, err = l.Log(EventJobCompleted, map[string]any{}, WithJob("JOB-001"))
	require.NoError(t, err)
	_, err = l.Log(EventJobCompleted, map[string]any{}, WithJob("JOB-002"))
	require.NoError(t, err)

	rep := l.Settlement()
	assert.Equal(t, 2, rep.JobsCompleted)
	assert.Equal(t, 40.0, rep.CostSavings)
	assert.Equal(t, 12.5, rep.FlexRevenue)
	assert.Equal(t, 52.5, rep.NetBenefit)
	assert.Equal(t, 50.0, rep.CarbonSavingsKg)
	assert.Equal(t, 2.0, rep.TreeEquivalent)
	assert.Equal(t, 3, rep.Entries)
}

func TestLedgerExportRoundTrip(t *testing.T) {
	l := newTestLedger(t)
	_, err := l.Log("cycle_started", map[string]any{"horizon": 24.0}, WithTransaction("txn-9"))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, l.Export(&buf))

	var exported []Entry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &exported))
	require.Len(t, exported, 1)
	assert.Nil(t, exported[0].JobID)
	require.NotNil(t, exported[0].TransactionID)
	assert.Equal(t, "txn-9", *exported[0].TransactionID)

	// Exported entries verify against their own signatures.
	sig, err := Sign(exported[0])
	require.NoError(t, err)
	assert.Equal(t, exported[0].Signature, sig)
}

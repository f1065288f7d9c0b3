package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/gridflex/gridflex/core/metrics"
)

func TestPromSinkRecordsPhases(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	require.NoError(t, err)

	require.NoError(t, sink.RecordPhaseResult(coremetrics.PhaseResult{
		Phase: "confirm", Live: true, Latency: 30 * time.Millisecond,
	}))
	require.NoError(t, sink.RecordPhaseResult(coremetrics.PhaseResult{
		Phase: "confirm", Live: false, Latency: 5 * time.Millisecond,
	}))

	assert.Equal(t, 1.0, testutil.ToFloat64(sink.phases.WithLabelValues("confirm", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.phases.WithLabelValues("confirm", "false")))
}

func TestPromSinkRecordsCycle(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	require.NoError(t, err)

	require.NoError(t, sink.RecordCycleResult(coremetrics.CycleResult{
		Workloads:       3,
		Decisions:       2,
		Warnings:        1,
		CostSavings:     42.5,
		CarbonSavingsKg: 12.0,
	}))

	assert.Equal(t, 1.0, testutil.ToFloat64(sink.cycles))
	assert.Equal(t, 42.5, testutil.ToFloat64(sink.savings))
	assert.Equal(t, 12.0, testutil.ToFloat64(sink.carbon))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.warnings))
}

func TestPromSinkDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	require.NoError(t, err)
	// Registering twice on the same registry reuses the existing collectors.
	_, err = NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	require.NoError(t, err)
}

func TestMultiSinkFansOut(t *testing.T) {
	reg := prometheus.NewRegistry()
	prom, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	require.NoError(t, err)

	multi := NewMultiSink(coremetrics.NopSink{}, prom)
	require.NoError(t, multi.RecordPhaseResult(coremetrics.PhaseResult{Phase: "search", Live: true}))
	assert.Equal(t, 1.0, testutil.ToFloat64(prom.phases.WithLabelValues("search", "true")))
}

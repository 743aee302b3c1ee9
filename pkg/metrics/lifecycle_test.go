package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestLifecycleMetricsCountsTransitionsAndRejections(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewLifecycleMetrics(reg)

	m.IncTransition("draft", "pending_approval", "organizer")
	m.IncTransition("draft", "pending_approval", "organizer")
	m.IncRejection("guard failed", "VOTING_INCOMPLETE")
	m.IncRejection("unauthorized", "")

	mfs, err := reg.Gather()
	require.NoError(t, err)

	got, err := fetchCounterValue(mfs, "mythra_lifecycle_transitions_total", "to", "pending_approval")
	require.NoError(t, err)
	require.Equal(t, float64(2), got)

	got, err = fetchCounterValue(mfs, "mythra_lifecycle_rejections_total", "reason", "VOTING_INCOMPLETE")
	require.NoError(t, err)
	require.Equal(t, float64(1), got)

	got, err = fetchCounterValue(mfs, "mythra_lifecycle_rejections_total", "reason", "none")
	require.NoError(t, err)
	require.Equal(t, float64(1), got)
}

func TestLifecycleMetricsObservesPayouts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewLifecycleMetrics(reg)

	m.ObservePayout(decimal.RequireFromString("8.4"), nil)
	m.ObservePayout(decimal.RequireFromString("5.6"), errors.New("ledger down"))

	mfs, err := reg.Gather()
	require.NoError(t, err)

	got, err := fetchCounterValue(mfs, "mythra_payouts_transfers_total", "outcome", "transferred")
	require.NoError(t, err)
	require.Equal(t, float64(1), got)

	got, err = fetchCounterValue(mfs, "mythra_payouts_transfers_total", "outcome", "failed")
	require.NoError(t, err)
	require.Equal(t, float64(1), got)

	mf := findMetricFamily(mfs, "mythra_payouts_transfer_sol")
	require.NotNil(t, mf)
	require.InDelta(t, 8.4, mf.GetMetric()[0].GetHistogram().GetSampleSum(), 1e-9)
}

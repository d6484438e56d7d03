package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/fixserve-erp/fixserve-ledger/internal/ledger"
)

type stubChecker struct {
	drifts []ledger.Drift
	err    error
}

func (s stubChecker) Run(context.Context) ([]ledger.Drift, error) {
	return s.drifts, s.err
}

func TestReconcileCommandClean(t *testing.T) {
	cli, err := NewReconcileCLI(stubChecker{})
	require.NoError(t, err)

	stdout := new(bytes.Buffer)
	code := cli.Command(context.Background(), ReconcileOptions{Stdout: stdout, Stderr: new(bytes.Buffer)})
	require.Zero(t, code)
	require.Contains(t, stdout.String(), "0 drift(s)")
}

func TestReconcileCommandDriftExitsNonZero(t *testing.T) {
	cli, err := NewReconcileCLI(stubChecker{drifts: []ledger.Drift{{
		LocationID: 3,
		Name:       "Bank Account",
		Cached:     decimal.NewFromInt(900),
		Computed:   decimal.NewFromInt(1000),
	}}})
	require.NoError(t, err)

	stdout := new(bytes.Buffer)
	code := cli.Command(context.Background(), ReconcileOptions{
		JSONOutput: true,
		Stdout:     stdout,
		Stderr:     new(bytes.Buffer),
	})
	require.Equal(t, 2, code)

	var reports []driftReport
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &reports))
	require.Len(t, reports, 1)
	require.Equal(t, "-100.00", reports[0].Delta)
}

func TestReconcileCommandSweepFailure(t *testing.T) {
	cli, err := NewReconcileCLI(stubChecker{err: errors.New("query failed")})
	require.NoError(t, err)

	stderr := new(bytes.Buffer)
	code := cli.Command(context.Background(), ReconcileOptions{Stdout: new(bytes.Buffer), Stderr: stderr})
	require.Equal(t, 1, code)
	require.Contains(t, stderr.String(), "query failed")
}

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/fixserve-erp/fixserve-ledger/internal/summary"
)

type stubSummaryService struct {
	byMonth map[string]summary.FinancialSummary
	err     error
}

func (s stubSummaryService) CalculateForMonth(_ context.Context, monthYear string) (*summary.FinancialSummary, error) {
	if s.err != nil {
		return nil, s.err
	}
	row, ok := s.byMonth[monthYear]
	if !ok {
		return nil, errors.New("unexpected month")
	}
	return &row, nil
}

func (s stubSummaryService) RecalculateRange(ctx context.Context, from, to string) ([]summary.FinancialSummary, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]summary.FinancialSummary, 0, len(s.byMonth))
	for _, row := range s.byMonth {
		out = append(out, row)
	}
	return out, nil
}

func TestRecalcCommandJSON(t *testing.T) {
	svc := stubSummaryService{byMonth: map[string]summary.FinancialSummary{
		"2025-01": {
			MonthYear:    "2025-01",
			TotalRevenue: decimal.NewFromInt(1000),
			NetProfit:    decimal.NewFromInt(500),
			ProfitMargin: decimal.NewFromInt(50),
			InvoiceCount: 2,
		},
	}}
	cli, err := NewSummaryCLI(svc)
	require.NoError(t, err)

	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	code := cli.RecalcCommand(context.Background(), SummaryRecalcOptions{
		Month:      "2025-01",
		JSONOutput: true,
		Stdout:     stdout,
		Stderr:     stderr,
	})
	require.Zero(t, code)
	require.Empty(t, stderr.String())

	var decoded summary.FinancialSummary
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &decoded))
	require.Equal(t, "2025-01", decoded.MonthYear)
	require.True(t, decoded.NetProfit.Equal(decimal.NewFromInt(500)))
}

func TestRecalcCommandReportsFailure(t *testing.T) {
	cli, err := NewSummaryCLI(stubSummaryService{err: errors.New("db down")})
	require.NoError(t, err)

	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	code := cli.RecalcCommand(context.Background(), SummaryRecalcOptions{
		Month:  "2025-01",
		Stdout: stdout,
		Stderr: stderr,
	})
	require.Equal(t, 1, code)
	require.Contains(t, stderr.String(), "db down")
}

func TestBackfillCommandPlainOutput(t *testing.T) {
	svc := stubSummaryService{byMonth: map[string]summary.FinancialSummary{
		"2025-01": {MonthYear: "2025-01"},
		"2025-02": {MonthYear: "2025-02"},
	}}
	cli, err := NewSummaryCLI(svc)
	require.NoError(t, err)

	stdout := new(bytes.Buffer)
	code := cli.BackfillCommand(context.Background(), SummaryBackfillOptions{
		From:   "2025-01",
		To:     "2025-02",
		Stdout: stdout,
		Stderr: new(bytes.Buffer),
	})
	require.Zero(t, code)
	require.Contains(t, stdout.String(), "recalculated 2 month(s)")
}

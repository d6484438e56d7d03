package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fixserve-erp/fixserve-ledger/internal/summary"
)

// SummaryService exposes the snapshot operations the CLI drives.
type SummaryService interface {
	CalculateForMonth(ctx context.Context, monthYear string) (*summary.FinancialSummary, error)
	RecalculateRange(ctx context.Context, from, to string) ([]summary.FinancialSummary, error)
}

// SummaryCLI offers operational helpers for monthly financial snapshots.
type SummaryCLI struct {
	service SummaryService
}

// NewSummaryCLI constructs a helper bound to the given service.
func NewSummaryCLI(service SummaryService) (*SummaryCLI, error) {
	if service == nil {
		return nil, errors.New("summary cli: service is required")
	}
	return &SummaryCLI{service: service}, nil
}

// SummaryRecalcOptions configures a single-month recalculation.
type SummaryRecalcOptions struct {
	Month      string
	JSONOutput bool
	Stdout     io.Writer
	Stderr     io.Writer
}

// RecalcCommand rebuilds one month's snapshot and prints the result.
func (c *SummaryCLI) RecalcCommand(ctx context.Context, opts SummaryRecalcOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	s, err := c.service.CalculateForMonth(ctx, opts.Month)
	if err != nil {
		fmt.Fprintf(opts.Stderr, "recalculate %s: %v\n", opts.Month, err)
		return 1
	}
	if opts.JSONOutput {
		if err := json.NewEncoder(opts.Stdout).Encode(s); err != nil {
			fmt.Fprintf(opts.Stderr, "encode summary: %v\n", err)
			return 1
		}
		return 0
	}
	printSummary(opts.Stdout, *s)
	return 0
}

// SummaryBackfillOptions configures a range recalculation.
type SummaryBackfillOptions struct {
	From       string
	To         string
	JSONOutput bool
	Stdout     io.Writer
	Stderr     io.Writer
}

// BackfillCommand rebuilds each month in [From, To] in order.
func (c *SummaryCLI) BackfillCommand(ctx context.Context, opts SummaryBackfillOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	summaries, err := c.service.RecalculateRange(ctx, opts.From, opts.To)
	if err != nil {
		fmt.Fprintf(opts.Stderr, "backfill %s..%s: %v\n", opts.From, opts.To, err)
		return 1
	}
	if opts.JSONOutput {
		if err := json.NewEncoder(opts.Stdout).Encode(summaries); err != nil {
			fmt.Fprintf(opts.Stderr, "encode summaries: %v\n", err)
			return 1
		}
		return 0
	}
	for _, s := range summaries {
		printSummary(opts.Stdout, s)
	}
	fmt.Fprintf(opts.Stdout, "recalculated %d month(s)\n", len(summaries))
	return 0
}

func printSummary(w io.Writer, s summary.FinancialSummary) {
	fmt.Fprintf(w, "%s  revenue=%s cost=%s expenses=%s gross=%s net=%s margin=%s%% invoices=%d expenses_count=%d\n",
		s.MonthYear,
		s.TotalRevenue.StringFixed(2),
		s.TotalCost.StringFixed(2),
		s.TotalExpenses.StringFixed(2),
		s.GrossProfit.StringFixed(2),
		s.NetProfit.StringFixed(2),
		s.ProfitMargin.StringFixed(2),
		s.InvoiceCount,
		s.ExpenseCount)
}

package summary

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// RepositoryPort defines data access methods for monthly summaries.
type RepositoryPort interface {
	Get(ctx context.Context, monthYear string) (*FinancialSummary, error)

	// WithSnapshot runs fn against a single consistent snapshot of the
	// invoice/expense source tables, so one recompute never mixes states.
	WithSnapshot(ctx context.Context, fn func(context.Context, SnapshotRepository) error) error
}

// SnapshotRepository exposes the aggregate reads and the upsert available
// within one snapshot transaction. from/to bound a half-open month interval.
type SnapshotRepository interface {
	PaidInvoiceTotals(ctx context.Context, from, to time.Time) (total decimal.Decimal, count int, err error)
	PaidInvoiceCost(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
	ApprovedExpenseTotals(ctx context.Context, from, to time.Time) (total decimal.Decimal, count int, err error)
	Upsert(ctx context.Context, s FinancialSummary) (*FinancialSummary, error)
}

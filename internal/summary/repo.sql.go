package summary

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/fixserve-erp/fixserve-ledger/internal/platform/db"
)

// Repository provides PostgreSQL backed persistence for monthly summaries.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const summaryColumns = `id, month_year, total_revenue, total_cost, total_expenses, gross_profit, net_profit, profit_margin, invoice_count, expense_count, last_calculated`

func scanSummary(row pgx.Row) (*FinancialSummary, error) {
	var s FinancialSummary
	err := row.Scan(&s.ID, &s.MonthYear, &s.TotalRevenue, &s.TotalCost, &s.TotalExpenses, &s.GrossProfit, &s.NetProfit, &s.ProfitMargin, &s.InvoiceCount, &s.ExpenseCount, &s.LastCalculated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSummaryNotFound
		}
		return nil, err
	}
	return &s, nil
}

// Get loads the snapshot row for a month.
func (r *Repository) Get(ctx context.Context, monthYear string) (*FinancialSummary, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+summaryColumns+` FROM financial_summaries WHERE month_year=$1`, monthYear)
	return scanSummary(row)
}

// WithSnapshot wraps fn in a repeatable-read transaction so all source reads
// and the upsert observe one database state.
func (r *Repository) WithSnapshot(ctx context.Context, fn func(context.Context, SnapshotRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &snapshotRepo{tx: tx})
	})
}

type snapshotRepo struct {
	tx pgx.Tx
}

func (s *snapshotRepo) PaidInvoiceTotals(ctx context.Context, from, to time.Time) (decimal.Decimal, int, error) {
	var (
		total decimal.Decimal
		count int
	)
	err := s.tx.QueryRow(ctx, `SELECT COALESCE(SUM(total), 0), COUNT(*) FROM invoices
WHERE invoice_date >= $1 AND invoice_date < $2 AND payment_status='PAID'`, from, to).Scan(&total, &count)
	if err != nil {
		return decimal.Zero, 0, err
	}
	return total, count, nil
}

func (s *snapshotRepo) PaidInvoiceCost(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	var cost decimal.Decimal
	err := s.tx.QueryRow(ctx, `SELECT COALESCE(SUM(ii.cost_price * ii.quantity), 0)
FROM invoice_items ii
JOIN invoices i ON i.id = ii.invoice_id
WHERE i.invoice_date >= $1 AND i.invoice_date < $2 AND i.payment_status='PAID'`, from, to).Scan(&cost)
	if err != nil {
		return decimal.Zero, err
	}
	return cost, nil
}

func (s *snapshotRepo) ApprovedExpenseTotals(ctx context.Context, from, to time.Time) (decimal.Decimal, int, error) {
	var (
		total decimal.Decimal
		count int
	)
	err := s.tx.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0), COUNT(*) FROM expenses
WHERE expense_date >= $1 AND expense_date < $2 AND status IN ('APPROVED','PAID')`, from, to).Scan(&total, &count)
	if err != nil {
		return decimal.Zero, 0, err
	}
	return total, count, nil
}

// Upsert overwrites the month's snapshot row.
func (s *snapshotRepo) Upsert(ctx context.Context, in FinancialSummary) (*FinancialSummary, error) {
	row := s.tx.QueryRow(ctx, `INSERT INTO financial_summaries
(month_year, total_revenue, total_cost, total_expenses, gross_profit, net_profit, profit_margin, invoice_count, expense_count, last_calculated)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (month_year) DO UPDATE SET
	total_revenue=EXCLUDED.total_revenue,
	total_cost=EXCLUDED.total_cost,
	total_expenses=EXCLUDED.total_expenses,
	gross_profit=EXCLUDED.gross_profit,
	net_profit=EXCLUDED.net_profit,
	profit_margin=EXCLUDED.profit_margin,
	invoice_count=EXCLUDED.invoice_count,
	expense_count=EXCLUDED.expense_count,
	last_calculated=EXCLUDED.last_calculated
RETURNING `+summaryColumns,
		in.MonthYear, in.TotalRevenue, in.TotalCost, in.TotalExpenses, in.GrossProfit, in.NetProfit,
		in.ProfitMargin, in.InvoiceCount, in.ExpenseCount, in.LastCalculated)
	return scanSummary(row)
}

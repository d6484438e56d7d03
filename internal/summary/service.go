package summary

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fixserve-erp/fixserve-ledger/internal/shared"
)

var hundred = decimal.NewFromInt(100)

// Service computes and serves monthly profit/loss snapshots. A recompute is
// always a deterministic full overwrite, never an increment.
type Service struct {
	repo  RepositoryPort
	cache *Cache
	clock func() time.Time
}

// NewService wires a Repository with the cache helper.
func NewService(repo RepositoryPort, cache *Cache) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
		clock: func() time.Time { return time.Now().UTC() },
	}
}

// CalculateForMonth recomputes the month's summary from paid invoices and
// approved/paid expenses, upserting the snapshot row keyed by monthYear.
func (s *Service) CalculateForMonth(ctx context.Context, monthYear string) (*FinancialSummary, error) {
	start, end, err := shared.MonthBounds(monthYear)
	if err != nil {
		return nil, err
	}

	var out *FinancialSummary
	err = s.repo.WithSnapshot(ctx, func(ctx context.Context, snap SnapshotRepository) error {
		revenue, invoiceCount, err := snap.PaidInvoiceTotals(ctx, start, end)
		if err != nil {
			return fmt.Errorf("%w: month %s, table invoices: %v", ErrAggregationSource, monthYear, err)
		}
		cost, err := snap.PaidInvoiceCost(ctx, start, end)
		if err != nil {
			return fmt.Errorf("%w: month %s, table invoice_items: %v", ErrAggregationSource, monthYear, err)
		}
		expenses, expenseCount, err := snap.ApprovedExpenseTotals(ctx, start, end)
		if err != nil {
			return fmt.Errorf("%w: month %s, table expenses: %v", ErrAggregationSource, monthYear, err)
		}

		gross := revenue.Sub(cost)
		net := gross.Sub(expenses)
		margin := decimal.Zero
		if revenue.IsPositive() {
			margin = net.Div(revenue).Mul(hundred).Round(2)
		}

		out, err = snap.Upsert(ctx, FinancialSummary{
			MonthYear:      monthYear,
			TotalRevenue:   revenue,
			TotalCost:      cost,
			TotalExpenses:  expenses,
			GrossProfit:    gross,
			NetProfit:      net,
			ProfitMargin:   margin,
			InvoiceCount:   invoiceCount,
			ExpenseCount:   expenseCount,
			LastCalculated: s.clock(),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := s.cache.Bump(ctx); err != nil {
		return nil, fmt.Errorf("summary: invalidate cache for %s: %w", monthYear, err)
	}
	return out, nil
}

// GetCurrentMonth serves the current month's snapshot cache-aside: redis over
// the snapshot row, computing the row when absent. A stale row is not
// refreshed here; callers needing freshness recalculate explicitly. A failed
// aggregation always propagates rather than being masked by old data.
func (s *Service) GetCurrentMonth(ctx context.Context) (*FinancialSummary, error) {
	monthYear := shared.MonthKey(s.clock())

	key, err := s.cache.BuildKey(ctx, "summary", "month", monthYear)
	if err != nil {
		return nil, err
	}
	var out FinancialSummary
	err = s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (interface{}, error) {
		row, err := s.repo.Get(ctx, monthYear)
		if err == nil {
			return row, nil
		}
		if !errors.Is(err, ErrSummaryNotFound) {
			return nil, err
		}
		return s.CalculateForMonth(ctx, monthYear)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetMonth reads an existing snapshot without recomputing.
func (s *Service) GetMonth(ctx context.Context, monthYear string) (*FinancialSummary, error) {
	if _, err := shared.ParseMonth(monthYear); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, monthYear)
}

// RecalculateRange recomputes every month in the inclusive from/to range,
// returning the refreshed snapshots in order.
func (s *Service) RecalculateRange(ctx context.Context, from, to string) ([]FinancialSummary, error) {
	months, err := shared.MonthRange(from, to)
	if err != nil {
		return nil, err
	}
	out := make([]FinancialSummary, 0, len(months))
	for _, month := range months {
		summary, err := s.CalculateForMonth(ctx, month)
		if err != nil {
			return nil, err
		}
		out = append(out, *summary)
	}
	return out, nil
}

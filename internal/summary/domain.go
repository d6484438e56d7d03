package summary

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// FinancialSummary is the denormalized per-month profit/loss snapshot. It is
// fully derived from invoice and expense data and safe to recompute and
// overwrite at any time.
type FinancialSummary struct {
	ID             int64           `json:"id"`
	MonthYear      string          `json:"month_year"`
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
	TotalCost      decimal.Decimal `json:"total_cost"`
	TotalExpenses  decimal.Decimal `json:"total_expenses"`
	GrossProfit    decimal.Decimal `json:"gross_profit"`
	NetProfit      decimal.Decimal `json:"net_profit"`
	ProfitMargin   decimal.Decimal `json:"profit_margin"`
	InvoiceCount   int             `json:"invoice_count"`
	ExpenseCount   int             `json:"expense_count"`
	LastCalculated time.Time       `json:"last_calculated"`
}

var (
	// ErrSummaryNotFound indicates no snapshot exists for the month.
	ErrSummaryNotFound = errors.New("summary: not found")
	// ErrAggregationSource indicates the invoice/expense source reads failed.
	ErrAggregationSource = errors.New("summary: aggregation source unavailable")
)

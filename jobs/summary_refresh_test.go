package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/fixserve-erp/fixserve-ledger/internal/summary"
)

type fakeSummaryService struct {
	months []string
	err    error
}

func (f *fakeSummaryService) CalculateForMonth(_ context.Context, monthYear string) (*summary.FinancialSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.months = append(f.months, monthYear)
	return &summary.FinancialSummary{
		MonthYear: monthYear,
		NetProfit: decimal.NewFromInt(500),
	}, nil
}

func TestSummaryRefreshHandlesExplicitMonth(t *testing.T) {
	svc := &fakeSummaryService{}
	job := NewSummaryRefreshJob(svc, nil, nil)

	task, err := NewSummaryRefreshTask("2025-03")
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, []string{"2025-03"}, svc.months)
}

func TestSummaryRefreshDefaultsToCurrentMonth(t *testing.T) {
	svc := &fakeSummaryService{}
	job := NewSummaryRefreshJob(svc, nil, nil)
	job.clock = func() time.Time {
		return time.Date(2025, 7, 15, 10, 0, 0, 0, time.UTC)
	}

	task, err := NewSummaryRefreshTask("")
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, []string{"2025-07"}, svc.months)
}

func TestSummaryRefreshRejectsBadMonthAtEnqueue(t *testing.T) {
	_, err := NewSummaryRefreshTask("March 2025")
	require.Error(t, err)
}

func TestSummaryRefreshSkipsRetryOnBadPayload(t *testing.T) {
	svc := &fakeSummaryService{}
	job := NewSummaryRefreshJob(svc, nil, nil)

	task := asynq.NewTask(TaskSummaryRefresh, []byte("{not-json"))
	err := job.Handle(context.Background(), task)
	require.ErrorIs(t, err, asynq.SkipRetry)
	require.Empty(t, svc.months)
}

func TestSummaryRefreshPropagatesServiceFailure(t *testing.T) {
	boom := errors.New("source unavailable")
	job := NewSummaryRefreshJob(&fakeSummaryService{err: boom}, nil, nil)

	task, err := NewSummaryRefreshTask("2025-03")
	require.NoError(t, err)

	require.ErrorIs(t, job.Handle(context.Background(), task), boom)
}

package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/fixserve-erp/fixserve-ledger/internal/jobs"
	"github.com/fixserve-erp/fixserve-ledger/internal/shared"
	"github.com/fixserve-erp/fixserve-ledger/internal/summary"
)

// SummaryRefreshPayload configures the scope of the summary refresh job.
// Month accepts a YYYY-MM key or "current".
type SummaryRefreshPayload struct {
	Month string `json:"month"`
}

// SummaryService describes the behaviour required to rebuild monthly snapshots.
type SummaryService interface {
	CalculateForMonth(ctx context.Context, monthYear string) (*summary.FinancialSummary, error)
}

// SummaryRefreshJob coordinates the refresh workflow.
type SummaryRefreshJob struct {
	Service SummaryService
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewSummaryRefreshJob constructs the job handler.
func NewSummaryRefreshJob(service SummaryService, logger *slog.Logger, metrics *jobmetrics.Metrics) *SummaryRefreshJob {
	return &SummaryRefreshJob{
		Service: service,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// NewSummaryRefreshTask creates an Asynq task for refreshing a month's summary.
func NewSummaryRefreshTask(month string) (*asynq.Task, error) {
	if month == "" {
		month = "current"
	}
	if month != "current" {
		if _, err := shared.ParseMonth(month); err != nil {
			return nil, err
		}
	}
	body, err := json.Marshal(SummaryRefreshPayload{Month: month})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSummaryRefresh, body, asynq.Queue(QueueDefault)), nil
}

// Handle executes the summary refresh job.
func (j *SummaryRefreshJob) Handle(ctx context.Context, task *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("summary refresh: dependencies not configured")
	}
	var payload SummaryRefreshPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	month := payload.Month
	if month == "" || month == "current" {
		month = shared.MonthKey(j.clock())
	}

	tracker := j.Metrics.Track(TaskSummaryRefresh)
	s, err := j.Service.CalculateForMonth(ctx, month)
	if err = tracker.End(err); err != nil {
		j.log().Error("refresh summary", slog.String("month", month), slog.Any("error", err))
		return err
	}
	j.log().Info("refreshed summary",
		slog.String("month", month),
		slog.String("net_profit", s.NetProfit.String()),
		slog.Int("invoices", s.InvoiceCount),
		slog.Int("expenses", s.ExpenseCount))
	return nil
}

func (j *SummaryRefreshJob) log() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/fixserve-erp/fixserve-ledger/internal/jobs"
	"github.com/fixserve-erp/fixserve-ledger/internal/ledger"
)

// NewLedgerReconcileTask creates an Asynq task for the balance reconciliation sweep.
func NewLedgerReconcileTask() *asynq.Task {
	return asynq.NewTask(TaskLedgerReconcile, nil, asynq.Queue(QueueDefault))
}

// BalanceChecker recomputes cached balances from the movement log and reports
// any locations where the two disagree.
type BalanceChecker interface {
	Run(ctx context.Context) ([]ledger.Drift, error)
}

// ReconcileJob sweeps every money location and fails loudly when a cached
// balance has drifted from its movement history.
type ReconcileJob struct {
	Checker BalanceChecker
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewReconcileJob constructs the job handler.
func NewReconcileJob(checker BalanceChecker, logger *slog.Logger, metrics *jobmetrics.Metrics) *ReconcileJob {
	return &ReconcileJob{Checker: checker, Logger: logger, Metrics: metrics}
}

// Handle executes the reconciliation sweep.
func (j *ReconcileJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if j == nil || j.Checker == nil {
		return errors.New("ledger reconcile: dependencies not configured")
	}
	tracker := j.Metrics.Track(TaskLedgerReconcile)
	drifts, err := j.Checker.Run(ctx)
	if err == nil && len(drifts) > 0 {
		// A drift is a bug somewhere in the movement recorder. Surface it as a
		// job failure so it shows up in alerts instead of only in logs.
		err = fmt.Errorf("ledger reconcile: %d location(s) out of balance", len(drifts))
	}
	for _, d := range drifts {
		j.Metrics.AddDrifts(d.LocationID, 1)
		j.log().Warn("balance drift",
			slog.Int64("location_id", d.LocationID),
			slog.String("location", d.Name),
			slog.String("cached", d.Cached.String()),
			slog.String("computed", d.Computed.String()),
			slog.String("delta", d.Delta().String()))
	}
	if err = tracker.End(err); err != nil {
		j.log().Error("reconcile ledger", slog.Any("error", err))
		return err
	}
	j.log().Info("ledger reconciled", slog.Int("drifts", len(drifts)))
	return nil
}

func (j *ReconcileJob) log() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

package jobs

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSummaryRefresh recomputes a monthly financial summary.
	TaskSummaryRefresh = "summary:refresh"
	// TaskLedgerReconcile audits cached balances against the movement log.
	TaskLedgerReconcile = "ledger:reconcile"
)

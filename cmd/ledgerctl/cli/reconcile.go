package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fixserve-erp/fixserve-ledger/internal/ledger"
)

// BalanceChecker sweeps cached balances against the movement log.
type BalanceChecker interface {
	Run(ctx context.Context) ([]ledger.Drift, error)
}

// ReconcileCLI runs the balance audit in the foreground.
type ReconcileCLI struct {
	checker BalanceChecker
}

// NewReconcileCLI constructs a helper bound to the given checker.
func NewReconcileCLI(checker BalanceChecker) (*ReconcileCLI, error) {
	if checker == nil {
		return nil, errors.New("reconcile cli: checker is required")
	}
	return &ReconcileCLI{checker: checker}, nil
}

// ReconcileOptions configures the reconcile command.
type ReconcileOptions struct {
	JSONOutput bool
	Stdout     io.Writer
	Stderr     io.Writer
}

type driftReport struct {
	LocationID int64  `json:"location_id"`
	Name       string `json:"name"`
	Cached     string `json:"cached"`
	Computed   string `json:"computed"`
	Delta      string `json:"delta"`
}

// Command runs the sweep. Exit code 0 means every cached balance matched; any
// drift or sweep failure exits non-zero.
func (c *ReconcileCLI) Command(ctx context.Context, opts ReconcileOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	drifts, err := c.checker.Run(ctx)
	if err != nil {
		fmt.Fprintf(opts.Stderr, "reconcile: %v\n", err)
		return 1
	}

	if opts.JSONOutput {
		reports := make([]driftReport, 0, len(drifts))
		for _, d := range drifts {
			reports = append(reports, driftReport{
				LocationID: d.LocationID,
				Name:       d.Name,
				Cached:     d.Cached.StringFixed(2),
				Computed:   d.Computed.StringFixed(2),
				Delta:      d.Delta().StringFixed(2),
			})
		}
		if err := json.NewEncoder(opts.Stdout).Encode(reports); err != nil {
			fmt.Fprintf(opts.Stderr, "encode drifts: %v\n", err)
			return 1
		}
	} else {
		for _, d := range drifts {
			fmt.Fprintf(opts.Stdout, "DRIFT location=%d (%s) cached=%s computed=%s delta=%s\n",
				d.LocationID, d.Name, d.Cached.StringFixed(2), d.Computed.StringFixed(2), d.Delta().StringFixed(2))
		}
		fmt.Fprintf(opts.Stdout, "checked ledger, %d drift(s)\n", len(drifts))
	}

	if len(drifts) > 0 {
		return 2
	}
	return 0
}

package ledger

import (
	"context"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Drift reports a cached balance that disagrees with the movement log.
type Drift struct {
	LocationID int64
	Name       string
	Cached     decimal.Decimal
	Computed   decimal.Decimal
}

// Delta returns cached minus computed.
func (d Drift) Delta() decimal.Decimal {
	return d.Cached.Sub(d.Computed)
}

// Reconciler recomputes every location balance from the full movement log and
// compares it against the cached column, catching drift from any write path
// that bypassed the recorder.
type Reconciler struct {
	repo    RepositoryPort
	logger  *slog.Logger
	workers int
}

// NewReconciler builds a Reconciler. workers bounds the concurrent per-location sums.
func NewReconciler(repo RepositoryPort, logger *slog.Logger, workers int) *Reconciler {
	if workers <= 0 {
		workers = 4
	}
	return &Reconciler{repo: repo, logger: logger, workers: workers}
}

// Run checks all locations, deactivated ones included, and returns any drifts.
func (r *Reconciler) Run(ctx context.Context) ([]Drift, error) {
	locations, err := r.repo.ListLocations(ctx, true)
	if err != nil {
		return nil, err
	}

	var (
		mu     sync.Mutex
		drifts []Drift
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for _, loc := range locations {
		loc := loc
		g.Go(func() error {
			computed, err := r.repo.SumMovements(ctx, loc.ID)
			if err != nil {
				return err
			}
			if computed.Equal(loc.Balance) {
				return nil
			}
			mu.Lock()
			drifts = append(drifts, Drift{LocationID: loc.ID, Name: loc.Name, Cached: loc.Balance, Computed: computed})
			mu.Unlock()
			if r.logger != nil {
				r.logger.Error("balance drift detected",
					slog.Int64("location_id", loc.ID),
					slog.String("location", loc.Name),
					slog.String("cached", loc.Balance.String()),
					slog.String("computed", computed.String()))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return drifts, nil
}

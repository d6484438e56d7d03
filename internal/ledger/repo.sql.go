package ledger

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/fixserve-erp/fixserve-ledger/internal/platform/db"
	"github.com/fixserve-erp/fixserve-ledger/internal/shared"
)

// Repository provides PostgreSQL backed persistence for the ledger.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const locationColumns = `id, name, name_local, location_type, balance, is_active, created_at, updated_at`

const movementColumns = `id, amount, movement_date, movement_type, from_location_id, to_location_id, reference_type, reference_id, description, actor_id, reversal_of, reversed_at, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLocation(row rowScanner) (*MoneyLocation, error) {
	var loc MoneyLocation
	err := row.Scan(&loc.ID, &loc.Name, &loc.NameLocal, &loc.Type, &loc.Balance, &loc.IsActive, &loc.CreatedAt, &loc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLocationNotFound
		}
		return nil, err
	}
	return &loc, nil
}

func scanMovement(row rowScanner) (*MoneyMovement, error) {
	var (
		m     MoneyMovement
		refID uuid.NullUUID
	)
	err := row.Scan(&m.ID, &m.Amount, &m.MovementDate, &m.Type, &m.FromLocationID, &m.ToLocationID, &m.ReferenceType, &refID, &m.Description, &m.ActorID, &m.ReversalOf, &m.ReversedAt, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMovementNotFound
		}
		return nil, err
	}
	m.ReferenceID = refID.UUID
	return &m, nil
}

// GetLocation loads a single location by id.
func (r *Repository) GetLocation(ctx context.Context, id int64) (*MoneyLocation, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+locationColumns+` FROM money_locations WHERE id=$1`, id)
	return scanLocation(row)
}

// FindActiveLocation resolves an active location by name pattern or type.
func (r *Repository) FindActiveLocation(ctx context.Context, sel LocationSelector) (*MoneyLocation, error) {
	switch {
	case sel.NamePattern != "":
		row := r.pool.QueryRow(ctx, `SELECT `+locationColumns+` FROM money_locations
WHERE is_active AND (name ILIKE '%' || $1 || '%' OR name_local ILIKE '%' || $1 || '%')
ORDER BY id LIMIT 1`, sel.NamePattern)
		return scanLocation(row)
	case sel.Type != "":
		row := r.pool.QueryRow(ctx, `SELECT `+locationColumns+` FROM money_locations
WHERE is_active AND location_type=$1 ORDER BY id LIMIT 1`, sel.Type)
		return scanLocation(row)
	default:
		return nil, ErrLocationNotFound
	}
}

// CreateLocation registers a new zero-balance location.
func (r *Repository) CreateLocation(ctx context.Context, input LocationInput) (*MoneyLocation, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO money_locations (name, name_local, location_type)
VALUES ($1, $2, $3) RETURNING `+locationColumns, input.Name, input.NameLocal, input.Type)
	return scanLocation(row)
}

// ListLocations returns locations ordered by id.
func (r *Repository) ListLocations(ctx context.Context, includeInactive bool) ([]MoneyLocation, error) {
	query := `SELECT ` + locationColumns + ` FROM money_locations`
	if !includeInactive {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var locations []MoneyLocation
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		locations = append(locations, *loc)
	}
	return locations, rows.Err()
}

// SetLocationActive toggles the active flag. Locations are never deleted.
func (r *Repository) SetLocationActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE money_locations SET is_active=$2, updated_at=NOW() WHERE id=$1`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrLocationNotFound
	}
	return nil
}

// GetMovement loads a single movement by id.
func (r *Repository) GetMovement(ctx context.Context, id int64) (*MoneyMovement, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+movementColumns+` FROM money_movements WHERE id=$1`, id)
	return scanMovement(row)
}

// FindMovementByReference looks up the applied movement for an external
// reference. A reversed application no longer counts: once a payment has been
// voided the reference is free to be recorded again.
func (r *Repository) FindMovementByReference(ctx context.Context, refType ReferenceType, refID uuid.UUID, movementType MovementType) (*MoneyMovement, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+movementColumns+` FROM money_movements
WHERE reference_type=$1 AND reference_id=$2 AND movement_type=$3 AND reversal_of IS NULL AND reversed_at IS NULL`, refType, refID, movementType)
	return scanMovement(row)
}

// ListMovements returns movements newest first with pagination metadata.
func (r *Repository) ListMovements(ctx context.Context, filter MovementFilter) ([]MoneyMovement, shared.Pagination, error) {
	where := ``
	args := []any{}
	if filter.LocationID != nil {
		where = ` WHERE from_location_id=$1 OR to_location_id=$1`
		args = append(args, *filter.LocationID)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM money_movements`+where, args...).Scan(&total); err != nil {
		return nil, shared.Pagination{}, err
	}
	page := shared.NewPagination(filter.Page, filter.PerPage, total)

	query := `SELECT ` + movementColumns + ` FROM money_movements` + where + ` ORDER BY movement_date DESC, id DESC`
	if filter.LocationID != nil {
		query += ` LIMIT $2 OFFSET $3`
	} else {
		query += ` LIMIT $1 OFFSET $2`
	}
	args = append(args, page.PerPage, page.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	defer rows.Close()
	var movements []MoneyMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, shared.Pagination{}, err
		}
		movements = append(movements, *m)
	}
	return movements, page, rows.Err()
}

// SumMovements recomputes a location's balance from the full movement log.
func (r *Repository) SumMovements(ctx context.Context, locationID int64) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.pool.QueryRow(ctx, `SELECT
COALESCE(SUM(CASE WHEN to_location_id=$1 THEN amount ELSE 0 END), 0)
- COALESCE(SUM(CASE WHEN from_location_id=$1 THEN amount ELSE 0 END), 0)
FROM money_movements WHERE to_location_id=$1 OR from_location_id=$1`, locationID).Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

// WithTx wraps fn in a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

type txRepo struct {
	tx pgx.Tx
}

// LockLocations acquires row locks in ascending id order to keep the lock
// order globally consistent across concurrent transfers.
func (t *txRepo) LockLocations(ctx context.Context, ids ...int64) (map[int64]*MoneyLocation, error) {
	sorted := append([]int64(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	rows, err := t.tx.Query(ctx, `SELECT `+locationColumns+` FROM money_locations WHERE id = ANY($1) ORDER BY id FOR UPDATE`, sorted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	locked := make(map[int64]*MoneyLocation, len(sorted))
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		locked[loc.ID] = loc
	}
	return locked, rows.Err()
}

func (t *txRepo) FindByReference(ctx context.Context, refType ReferenceType, refID uuid.UUID, movementType MovementType) (*MoneyMovement, error) {
	row := t.tx.QueryRow(ctx, `SELECT `+movementColumns+` FROM money_movements
WHERE reference_type=$1 AND reference_id=$2 AND movement_type=$3 AND reversal_of IS NULL AND reversed_at IS NULL`, refType, refID, movementType)
	return scanMovement(row)
}

func (t *txRepo) FindReversal(ctx context.Context, movementID int64) (*MoneyMovement, error) {
	row := t.tx.QueryRow(ctx, `SELECT `+movementColumns+` FROM money_movements WHERE reversal_of=$1`, movementID)
	return scanMovement(row)
}

func (t *txRepo) GetMovement(ctx context.Context, id int64) (*MoneyMovement, error) {
	row := t.tx.QueryRow(ctx, `SELECT `+movementColumns+` FROM money_movements WHERE id=$1`, id)
	return scanMovement(row)
}

// AppendMovement writes one immutable log entry. A unique violation on the
// reference or reversal index maps to ErrDuplicateMovement so a losing
// concurrent writer can resolve the retry as already recorded. The INSERT
// runs under a savepoint: without it a 23505 leaves the surrounding
// transaction aborted (25P02) and the caller could not re-read the winning
// row inside the same transaction.
func (t *txRepo) AppendMovement(ctx context.Context, input MovementInput) (*MoneyMovement, error) {
	sp, err := t.tx.Begin(ctx)
	if err != nil {
		return nil, err
	}
	refID := uuid.NullUUID{UUID: input.ReferenceID, Valid: input.ReferenceID != uuid.Nil}
	row := sp.QueryRow(ctx, `INSERT INTO money_movements
(amount, movement_date, movement_type, from_location_id, to_location_id, reference_type, reference_id, description, actor_id, reversal_of)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING `+movementColumns,
		input.Amount, input.MovementDate, input.Type, input.FromLocationID, input.ToLocationID,
		input.ReferenceType, refID, input.Description, input.ActorID, input.ReversalOf)
	m, err := scanMovement(row)
	if err != nil {
		_ = sp.Rollback(ctx)
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicateMovement
		}
		return nil, err
	}
	if err := sp.Commit(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

// MarkReversed stamps the original movement when its reversal is recorded,
// releasing the reference guard slot so the reference can be applied again.
func (t *txRepo) MarkReversed(ctx context.Context, movementID int64) error {
	tag, err := t.tx.Exec(ctx, `UPDATE money_movements SET reversed_at = NOW() WHERE id=$1 AND reversed_at IS NULL`, movementID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrMovementNotFound
	}
	return nil
}

func (t *txRepo) ApplyBalanceDelta(ctx context.Context, locationID int64, delta decimal.Decimal) error {
	tag, err := t.tx.Exec(ctx, `UPDATE money_locations SET balance = balance + $2, updated_at = NOW() WHERE id=$1`, locationID, delta)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrLocationNotFound
	}
	return nil
}

package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fixserve-erp/fixserve-ledger/internal/shared"
)

// RepositoryPort defines data access methods for the ledger.
type RepositoryPort interface {
	GetLocation(ctx context.Context, id int64) (*MoneyLocation, error)
	FindActiveLocation(ctx context.Context, sel LocationSelector) (*MoneyLocation, error)
	CreateLocation(ctx context.Context, input LocationInput) (*MoneyLocation, error)
	ListLocations(ctx context.Context, includeInactive bool) ([]MoneyLocation, error)
	SetLocationActive(ctx context.Context, id int64, active bool) error

	GetMovement(ctx context.Context, id int64) (*MoneyMovement, error)
	FindMovementByReference(ctx context.Context, refType ReferenceType, refID uuid.UUID, movementType MovementType) (*MoneyMovement, error)
	ListMovements(ctx context.Context, filter MovementFilter) ([]MoneyMovement, shared.Pagination, error)
	SumMovements(ctx context.Context, locationID int64) (decimal.Decimal, error)

	// WithTx runs fn inside a single database transaction; every recorder
	// mutation (guard lookup, log append, balance updates) happens here.
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes the operations available within a recorder transaction.
// The movement log is append-only: there is deliberately no update or delete.
type TxRepository interface {
	// LockLocations loads the rows for the given ids with row-level locks,
	// always acquiring them in ascending id order.
	LockLocations(ctx context.Context, ids ...int64) (map[int64]*MoneyLocation, error)
	FindByReference(ctx context.Context, refType ReferenceType, refID uuid.UUID, movementType MovementType) (*MoneyMovement, error)
	FindReversal(ctx context.Context, movementID int64) (*MoneyMovement, error)
	GetMovement(ctx context.Context, id int64) (*MoneyMovement, error)
	AppendMovement(ctx context.Context, input MovementInput) (*MoneyMovement, error)
	// MarkReversed stamps reversed_at on the original movement, freeing its
	// reference for a later re-application.
	MarkReversed(ctx context.Context, movementID int64) error
	ApplyBalanceDelta(ctx context.Context, locationID int64, delta decimal.Decimal) error
}

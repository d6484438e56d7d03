package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fixserve-erp/fixserve-ledger/internal/shared"
)

// Service is the movement recorder. It owns every balance mutation: each call
// runs the idempotency lookup, the log append and the balance updates inside
// one transaction. The service itself is stateless; all identities arrive as
// explicit parameters.
type Service struct {
	repo RepositoryPort
	cfg  ServiceConfig
}

// ServiceConfig tunes recorder behaviour.
type ServiceConfig struct {
	// DefaultLocationName names the location used when a payment method
	// label is blank. Empty falls back to "Cash Register".
	DefaultLocationName string
}

const fallbackLocationName = "Cash Register"

// NewService builds a Service instance.
func NewService(repo RepositoryPort, cfg ServiceConfig) *Service {
	if cfg.DefaultLocationName == "" {
		cfg.DefaultLocationName = fallbackLocationName
	}
	return &Service{repo: repo, cfg: cfg}
}

// TransferInput describes a manual transfer between locations.
type TransferInput struct {
	FromLocationID *int64
	ToLocationID   int64
	Amount         decimal.Decimal
	Description    string
	ActorID        int64
	Date           time.Time
}

// PaymentInput describes an invoice payment landing at a location.
type PaymentInput struct {
	LocationID  int64
	Amount      decimal.Decimal
	InvoiceID   uuid.UUID
	Description string
	ActorID     int64
	Date        time.Time
}

// ExpenseInput describes an approved expense paid out of a location.
type ExpenseInput struct {
	LocationID  int64
	Amount      decimal.Decimal
	ExpenseID   uuid.UUID
	Description string
	ActorID     int64
	Date        time.Time
}

// ManualInput describes a manual deposit or withdrawal.
type ManualInput struct {
	LocationID  int64
	Amount      decimal.Decimal
	Description string
	ActorID     int64
	Date        time.Time
}

func movementDate(d time.Time) time.Time {
	if d.IsZero() {
		return time.Now().UTC()
	}
	return d
}

// RecordTransfer moves money between locations. The destination must resolve
// to an active location; when a source is given it must differ and is debited
// in the same transaction. Any failure rolls the whole transfer back.
func (s *Service) RecordTransfer(ctx context.Context, input TransferInput) (*MoneyMovement, error) {
	if !input.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if input.ToLocationID == 0 {
		return nil, ErrLocationNotFound
	}
	if input.FromLocationID != nil && *input.FromLocationID == input.ToLocationID {
		return nil, ErrSameLocation
	}

	var movement *MoneyMovement
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		ids := []int64{input.ToLocationID}
		if input.FromLocationID != nil {
			ids = append(ids, *input.FromLocationID)
		}
		locked, err := tx.LockLocations(ctx, ids...)
		if err != nil {
			return err
		}
		for _, id := range ids {
			loc, ok := locked[id]
			if !ok {
				return ErrLocationNotFound
			}
			if !loc.IsActive {
				return ErrLocationInactive
			}
		}

		movement, err = tx.AppendMovement(ctx, MovementInput{
			Amount:         input.Amount,
			MovementDate:   movementDate(input.Date),
			Type:           MovementTransfer,
			FromLocationID: input.FromLocationID,
			ToLocationID:   &input.ToLocationID,
			ReferenceType:  ReferenceManual,
			Description:    input.Description,
			ActorID:        input.ActorID,
		})
		if err != nil {
			return err
		}
		if input.FromLocationID != nil {
			if err := tx.ApplyBalanceDelta(ctx, *input.FromLocationID, input.Amount.Neg()); err != nil {
				return err
			}
		}
		return tx.ApplyBalanceDelta(ctx, input.ToLocationID, input.Amount)
	})
	if err != nil {
		if errors.Is(err, ErrLocationNotFound) || errors.Is(err, ErrLocationInactive) || errors.Is(err, ErrSameLocation) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	return movement, nil
}

// RecordPaymentReceived credits an invoice payment to a location. Retried
// payment-status updates are safe: if the invoice reference was already
// applied the existing movement is returned and nothing changes.
func (s *Service) RecordPaymentReceived(ctx context.Context, input PaymentInput) (*MoneyMovement, error) {
	if !input.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if input.InvoiceID == uuid.Nil {
		return nil, ErrReferenceRequired
	}
	return s.recordReferenced(ctx, referencedMovement{
		locationID:    input.LocationID,
		amount:        input.Amount,
		movementType:  MovementPaymentReceived,
		referenceType: ReferenceInvoice,
		referenceID:   input.InvoiceID,
		description:   input.Description,
		actorID:       input.ActorID,
		date:          input.Date,
		incoming:      true,
	})
}

// RecordExpensePaid debits an approved expense from a location, with the same
// idempotency guard keyed by the expense reference.
func (s *Service) RecordExpensePaid(ctx context.Context, input ExpenseInput) (*MoneyMovement, error) {
	if !input.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if input.ExpenseID == uuid.Nil {
		return nil, ErrReferenceRequired
	}
	return s.recordReferenced(ctx, referencedMovement{
		locationID:    input.LocationID,
		amount:        input.Amount,
		movementType:  MovementExpensePaid,
		referenceType: ReferenceExpense,
		referenceID:   input.ExpenseID,
		description:   input.Description,
		actorID:       input.ActorID,
		date:          input.Date,
		incoming:      false,
	})
}

type referencedMovement struct {
	locationID    int64
	amount        decimal.Decimal
	movementType  MovementType
	referenceType ReferenceType
	referenceID   uuid.UUID
	description   string
	actorID       int64
	date          time.Time
	incoming      bool
}

func (s *Service) recordReferenced(ctx context.Context, rm referencedMovement) (*MoneyMovement, error) {
	var movement *MoneyMovement
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		existing, err := tx.FindByReference(ctx, rm.referenceType, rm.referenceID, rm.movementType)
		if err == nil {
			movement = existing
			return nil
		}
		if !errors.Is(err, ErrMovementNotFound) {
			return err
		}

		locked, err := tx.LockLocations(ctx, rm.locationID)
		if err != nil {
			return err
		}
		loc, ok := locked[rm.locationID]
		if !ok {
			return ErrLocationNotFound
		}
		if !loc.IsActive {
			return ErrLocationInactive
		}

		in := MovementInput{
			Amount:        rm.amount,
			MovementDate:  movementDate(rm.date),
			Type:          rm.movementType,
			ReferenceType: rm.referenceType,
			ReferenceID:   rm.referenceID,
			Description:   rm.description,
			ActorID:       rm.actorID,
		}
		delta := rm.amount
		if rm.incoming {
			in.ToLocationID = &rm.locationID
		} else {
			in.FromLocationID = &rm.locationID
			delta = delta.Neg()
		}
		movement, err = tx.AppendMovement(ctx, in)
		if errors.Is(err, ErrDuplicateMovement) {
			// A concurrent retry won the race; adopt its record untouched.
			movement, err = tx.FindByReference(ctx, rm.referenceType, rm.referenceID, rm.movementType)
			return err
		}
		if err != nil {
			return err
		}
		return tx.ApplyBalanceDelta(ctx, rm.locationID, delta)
	})
	if err != nil {
		return nil, err
	}
	return movement, nil
}

// RecordDeposit credits a manual deposit to a location.
func (s *Service) RecordDeposit(ctx context.Context, input ManualInput) (*MoneyMovement, error) {
	return s.recordManual(ctx, input, MovementDeposit)
}

// RecordWithdrawal debits a manual withdrawal from a location.
func (s *Service) RecordWithdrawal(ctx context.Context, input ManualInput) (*MoneyMovement, error) {
	return s.recordManual(ctx, input, MovementWithdrawal)
}

func (s *Service) recordManual(ctx context.Context, input ManualInput, movementType MovementType) (*MoneyMovement, error) {
	if !input.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	var movement *MoneyMovement
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		locked, err := tx.LockLocations(ctx, input.LocationID)
		if err != nil {
			return err
		}
		loc, ok := locked[input.LocationID]
		if !ok {
			return ErrLocationNotFound
		}
		if !loc.IsActive {
			return ErrLocationInactive
		}

		in := MovementInput{
			Amount:        input.Amount,
			MovementDate:  movementDate(input.Date),
			Type:          movementType,
			ReferenceType: ReferenceManual,
			Description:   input.Description,
			ActorID:       input.ActorID,
		}
		delta := input.Amount
		if movementType == MovementDeposit {
			in.ToLocationID = &input.LocationID
		} else {
			in.FromLocationID = &input.LocationID
			delta = delta.Neg()
		}
		movement, err = tx.AppendMovement(ctx, in)
		if err != nil {
			return err
		}
		return tx.ApplyBalanceDelta(ctx, input.LocationID, delta)
	})
	if err != nil {
		return nil, err
	}
	return movement, nil
}

// Reverse voids a movement's effect by appending an equal-and-opposite
// movement. The original row is never touched; reversing an already-reversed
// movement returns the existing reversal.
func (s *Service) Reverse(ctx context.Context, movementID, actorID int64) (*MoneyMovement, error) {
	var movement *MoneyMovement
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		original, err := tx.GetMovement(ctx, movementID)
		if err != nil {
			return err
		}
		existing, err := tx.FindReversal(ctx, movementID)
		if err == nil {
			movement = existing
			return nil
		}
		if !errors.Is(err, ErrMovementNotFound) {
			return err
		}

		var ids []int64
		if original.FromLocationID != nil {
			ids = append(ids, *original.FromLocationID)
		}
		if original.ToLocationID != nil {
			ids = append(ids, *original.ToLocationID)
		}
		// Reversals apply even to deactivated locations: a correction must
		// always be recordable.
		if _, err := tx.LockLocations(ctx, ids...); err != nil {
			return err
		}

		movement, err = tx.AppendMovement(ctx, MovementInput{
			Amount:         original.Amount,
			MovementDate:   time.Now().UTC(),
			Type:           reversalType(original.Type),
			FromLocationID: original.ToLocationID,
			ToLocationID:   original.FromLocationID,
			ReferenceType:  original.ReferenceType,
			ReferenceID:    original.ReferenceID,
			Description:    fmt.Sprintf("reversal of movement %d", original.ID),
			ActorID:        actorID,
			ReversalOf:     &original.ID,
		})
		if errors.Is(err, ErrDuplicateMovement) {
			movement, err = tx.FindReversal(ctx, movementID)
			return err
		}
		if err != nil {
			return err
		}
		if err := tx.MarkReversed(ctx, original.ID); err != nil {
			return err
		}
		if original.ToLocationID != nil {
			if err := tx.ApplyBalanceDelta(ctx, *original.ToLocationID, original.Amount.Neg()); err != nil {
				return err
			}
		}
		if original.FromLocationID != nil {
			if err := tx.ApplyBalanceDelta(ctx, *original.FromLocationID, original.Amount); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return movement, nil
}

// GetBalance returns the cached balance of a location.
func (s *Service) GetBalance(ctx context.Context, locationID int64) (decimal.Decimal, error) {
	loc, err := s.repo.GetLocation(ctx, locationID)
	if err != nil {
		return decimal.Zero, err
	}
	return loc.Balance, nil
}

// ListLocations returns registered locations.
func (s *Service) ListLocations(ctx context.Context, includeInactive bool) ([]MoneyLocation, error) {
	return s.repo.ListLocations(ctx, includeInactive)
}

// ListMovements returns movements newest first.
func (s *Service) ListMovements(ctx context.Context, filter MovementFilter) ([]MoneyMovement, shared.Pagination, error) {
	return s.repo.ListMovements(ctx, filter)
}

// FindActiveLocation resolves a location by name pattern or type.
func (s *Service) FindActiveLocation(ctx context.Context, sel LocationSelector) (*MoneyLocation, error) {
	return s.repo.FindActiveLocation(ctx, sel)
}

// GetOrCreateDefault maps a payment-method label onto an active location,
// creating a zero-balance one with an inferred type as a fallback. A blank
// label resolves to the configured default location.
func (s *Service) GetOrCreateDefault(ctx context.Context, paymentMethodLabel string) (*MoneyLocation, error) {
	if paymentMethodLabel == "" {
		paymentMethodLabel = s.cfg.DefaultLocationName
	}
	loc, err := s.repo.FindActiveLocation(ctx, LocationSelector{NamePattern: paymentMethodLabel})
	if err == nil {
		return loc, nil
	}
	if !errors.Is(err, ErrLocationNotFound) {
		return nil, err
	}
	loc, err = s.repo.FindActiveLocation(ctx, LocationSelector{Type: InferLocationType(paymentMethodLabel)})
	if err == nil {
		return loc, nil
	}
	if !errors.Is(err, ErrLocationNotFound) {
		return nil, err
	}
	return s.repo.CreateLocation(ctx, LocationInput{
		Name: paymentMethodLabel,
		Type: InferLocationType(paymentMethodLabel),
	})
}

// DeactivateLocation retires a location from new movements.
func (s *Service) DeactivateLocation(ctx context.Context, locationID int64) error {
	return s.repo.SetLocationActive(ctx, locationID, false)
}

package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Events is the explicit surface the invoice/expense lifecycle code calls when
// a status transition has a financial effect. Keeping it an interface makes
// the transactional coupling structural instead of ad hoc calls scattered
// through business-object updates. Ledger errors must fail the triggering
// transition; only an already-applied reference resolves silently.
type Events interface {
	OnInvoicePaid(ctx context.Context, e InvoicePaidEvent) (*MoneyMovement, error)
	OnExpensePaid(ctx context.Context, e ExpensePaidEvent) (*MoneyMovement, error)
	OnInvoiceVoided(ctx context.Context, invoiceID uuid.UUID, actorID int64) (*MoneyMovement, error)
	OnExpenseVoided(ctx context.Context, expenseID uuid.UUID, actorID int64) (*MoneyMovement, error)
}

// InvoicePaidEvent carries the financial facts of an invoice becoming paid.
type InvoicePaidEvent struct {
	InvoiceID     uuid.UUID
	Number        string
	Amount        decimal.Decimal
	PaymentMethod string
	ActorID       int64
	PaidAt        time.Time
}

// ExpensePaidEvent carries the financial facts of an expense becoming paid.
type ExpensePaidEvent struct {
	ExpenseID     uuid.UUID
	Category      string
	Amount        decimal.Decimal
	PaymentMethod string
	ActorID       int64
	PaidAt        time.Time
}

// Hooks adapts the recorder to the Events interface, resolving locations from
// payment-method labels.
type Hooks struct {
	service *Service
}

// NewHooks builds the Events implementation backed by the recorder.
func NewHooks(service *Service) *Hooks {
	return &Hooks{service: service}
}

var _ Events = (*Hooks)(nil)

// OnInvoicePaid records the payment at the location matching the payment
// method, creating a default location when none matches.
func (h *Hooks) OnInvoicePaid(ctx context.Context, e InvoicePaidEvent) (*MoneyMovement, error) {
	loc, err := h.service.GetOrCreateDefault(ctx, e.PaymentMethod)
	if err != nil {
		return nil, fmt.Errorf("resolve location for %q: %w", e.PaymentMethod, err)
	}
	return h.service.RecordPaymentReceived(ctx, PaymentInput{
		LocationID:  loc.ID,
		Amount:      e.Amount,
		InvoiceID:   e.InvoiceID,
		Description: fmt.Sprintf("payment for invoice %s", e.Number),
		ActorID:     e.ActorID,
		Date:        e.PaidAt,
	})
}

// OnExpensePaid records the expense out of the location matching the payment method.
func (h *Hooks) OnExpensePaid(ctx context.Context, e ExpensePaidEvent) (*MoneyMovement, error) {
	loc, err := h.service.GetOrCreateDefault(ctx, e.PaymentMethod)
	if err != nil {
		return nil, fmt.Errorf("resolve location for %q: %w", e.PaymentMethod, err)
	}
	return h.service.RecordExpensePaid(ctx, ExpenseInput{
		LocationID:  loc.ID,
		Amount:      e.Amount,
		ExpenseID:   e.ExpenseID,
		Description: fmt.Sprintf("expense paid (%s)", e.Category),
		ActorID:     e.ActorID,
		Date:        e.PaidAt,
	})
}

// OnInvoiceVoided reverses the invoice's applied payment movement. Voiding an
// invoice that never produced a movement is a no-op.
func (h *Hooks) OnInvoiceVoided(ctx context.Context, invoiceID uuid.UUID, actorID int64) (*MoneyMovement, error) {
	return h.reverseByReference(ctx, ReferenceInvoice, invoiceID, MovementPaymentReceived, actorID)
}

// OnExpenseVoided reverses the expense's applied movement. Voiding an expense
// that never produced a movement is a no-op.
func (h *Hooks) OnExpenseVoided(ctx context.Context, expenseID uuid.UUID, actorID int64) (*MoneyMovement, error) {
	return h.reverseByReference(ctx, ReferenceExpense, expenseID, MovementExpensePaid, actorID)
}

func (h *Hooks) reverseByReference(ctx context.Context, refType ReferenceType, refID uuid.UUID, movementType MovementType, actorID int64) (*MoneyMovement, error) {
	applied, err := h.service.repo.FindMovementByReference(ctx, refType, refID, movementType)
	if err != nil {
		if errors.Is(err, ErrMovementNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return h.service.Reverse(ctx, applied.ID, actorID)
}

package ledger

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LocationType enumerates the kinds of places money can be held.
type LocationType string

const (
	LocationCash          LocationType = "CASH"
	LocationBankAccount   LocationType = "BANK_ACCOUNT"
	LocationDigitalWallet LocationType = "DIGITAL_WALLET"
	LocationOther         LocationType = "OTHER"
)

// MoneyLocation is a money-holding location with a cached balance.
// The balance column is a cache over the movement log; it is mutated only by
// the recorder and audited by the reconciler.
type MoneyLocation struct {
	ID        int64
	Name      string
	NameLocal string
	Type      LocationType
	Balance   decimal.Decimal
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MovementType enumerates balance-affecting event kinds.
type MovementType string

const (
	MovementTransfer        MovementType = "TRANSFER"
	MovementDeposit         MovementType = "DEPOSIT"
	MovementWithdrawal      MovementType = "WITHDRAWAL"
	MovementPaymentReceived MovementType = "PAYMENT_RECEIVED"
	MovementExpensePaid     MovementType = "EXPENSE_PAID"
)

// ReferenceType identifies the external object a movement was triggered by.
type ReferenceType string

const (
	ReferenceInvoice ReferenceType = "INVOICE"
	ReferenceExpense ReferenceType = "EXPENSE"
	ReferenceManual  ReferenceType = "MANUAL"
	ReferenceOther   ReferenceType = "OTHER"
)

// MoneyMovement is an immutable fact in the append-only log. Corrections are
// recorded as new offsetting movements, never as updates or deletes.
// ReversedAt is the one exception: the reversal transaction stamps it on the
// original so the idempotency guard stops counting that application. The
// financial fields themselves are never touched.
type MoneyMovement struct {
	ID             int64
	Amount         decimal.Decimal
	MovementDate   time.Time
	Type           MovementType
	FromLocationID *int64
	ToLocationID   *int64
	ReferenceType  ReferenceType
	ReferenceID    uuid.UUID
	Description    string
	ActorID        int64
	ReversalOf     *int64
	ReversedAt     *time.Time
	CreatedAt      time.Time
}

// MovementInput is the record appended to the movement log.
type MovementInput struct {
	Amount         decimal.Decimal
	MovementDate   time.Time
	Type           MovementType
	FromLocationID *int64
	ToLocationID   *int64
	ReferenceType  ReferenceType
	ReferenceID    uuid.UUID
	Description    string
	ActorID        int64
	ReversalOf     *int64
}

// LocationInput describes a location to register.
type LocationInput struct {
	Name      string
	NameLocal string
	Type      LocationType
}

// LocationSelector resolves a location by name pattern or type.
type LocationSelector struct {
	NamePattern string
	Type        LocationType
}

// MovementFilter narrows and pages movement listings.
type MovementFilter struct {
	LocationID *int64
	Page       int
	PerPage    int
}

// InferLocationType maps an external payment-method label onto a location type.
func InferLocationType(label string) LocationType {
	l := strings.ToLower(label)
	switch {
	case strings.Contains(l, "cash"):
		return LocationCash
	case strings.Contains(l, "wallet"), strings.Contains(l, "instapay"), strings.Contains(l, "vodafone"):
		return LocationDigitalWallet
	case strings.Contains(l, "bank"), strings.Contains(l, "transfer"), strings.Contains(l, "card"), strings.Contains(l, "account"):
		return LocationBankAccount
	default:
		return LocationOther
	}
}

// reversalType maps a movement type onto the type of its offsetting movement.
// The shape invariants hold on both sides: a reversed payment_received is a
// withdrawal (from only), a reversed expense_paid is a deposit (to only).
func reversalType(t MovementType) MovementType {
	switch t {
	case MovementDeposit:
		return MovementWithdrawal
	case MovementWithdrawal:
		return MovementDeposit
	case MovementPaymentReceived:
		return MovementWithdrawal
	case MovementExpensePaid:
		return MovementDeposit
	default:
		return MovementTransfer
	}
}

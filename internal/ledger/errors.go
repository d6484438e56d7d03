package ledger

import "errors"

var (
	// ErrInvalidAmount indicates a zero or negative movement amount.
	ErrInvalidAmount = errors.New("ledger: amount must be positive")
	// ErrLocationNotFound indicates no matching money location.
	ErrLocationNotFound = errors.New("ledger: location not found")
	// ErrLocationInactive indicates the location is deactivated.
	ErrLocationInactive = errors.New("ledger: location inactive")
	// ErrSameLocation indicates a transfer between identical locations.
	ErrSameLocation = errors.New("ledger: source and destination must differ")
	// ErrMovementNotFound indicates a missing movement.
	ErrMovementNotFound = errors.New("ledger: movement not found")
	// ErrTransferFailed indicates a rolled-back transfer transaction.
	ErrTransferFailed = errors.New("ledger: transfer failed")
	// ErrReferenceRequired indicates a missing external reference id.
	ErrReferenceRequired = errors.New("ledger: external reference required")

	// ErrDuplicateMovement signals the storage-level idempotency guard fired.
	// The recorder resolves it to "already recorded" and never surfaces it.
	ErrDuplicateMovement = errors.New("ledger: movement already recorded")
)

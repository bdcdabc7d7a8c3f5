package models

import "errors"

// Sentinel errors shared by the core services. All failures are synchronous;
// the core never retries. Callers branch with errors.Is.
var (
	// ErrNotFound is returned when an unknown id is passed to any lookup.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientFunds is returned when a token pool is short for a
	// stake, unstake, transfer or purchase.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInsufficientPoints is returned when a points balance cannot cover
	// a listing or a sale.
	ErrInsufficientPoints = errors.New("insufficient points")

	// ErrInvalidAmount is returned for zero, negative or out-of-range
	// amounts and quantities.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrAlreadyListed is returned when a plot already has an active listing.
	ErrAlreadyListed = errors.New("already listed")

	// ErrNotListed is returned for market operations against a listing that
	// is not active.
	ErrNotListed = errors.New("listing not active")

	// ErrUnauthorized is returned when the caller is not the owner/seller a
	// market operation requires, or tries to trade with themselves.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUnavailable is returned when a plot or charger is not in the state
	// an operation needs (plot not available/occupied, charger not online).
	ErrUnavailable = errors.New("resource not available")

	// ErrInvalidStateTransition is returned when a terminal verification
	// request or completed session is transitioned again.
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrMissingReviewNotes is returned when a rejection carries no reason.
	ErrMissingReviewNotes = errors.New("review notes required")

	// ErrUnknownKind is returned for an unrecognised resource kind.
	ErrUnknownKind = errors.New("unknown resource kind")
)

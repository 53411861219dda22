package models

import "errors"

// Input validation failures (entity creation / form-level).
var (
	ErrInvalidAmount        = errors.New("amount must be greater than zero")
	ErrFutureGenerationDate = errors.New("generation date cannot be in the future")
	ErrInvalidPrice         = errors.New("price per unit must be greater than zero")
	ErrMissingNotes         = errors.New("auditor notes are required")
)

// Business-rule failures surfaced by the core operations.
var (
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidState      = errors.New("credit is not available for this operation")
	ErrDuplicateListing  = errors.New("an active listing already exists for this credit")
	ErrNotAvailable      = errors.New("credit is not available for purchase")
	ErrNotValidated      = errors.New("credit has not been approved by an auditor")
	ErrNoActiveListing   = errors.New("no active listing found for this credit")
	ErrSelfPurchase      = errors.New("cannot purchase your own credit")
	ErrInsufficientFunds = errors.New("insufficient balance")
)

package contract

import "errors"

var (
	// ErrNotFound is returned when a referenced contract doesn't exist.
	ErrNotFound = errors.New("contract not found")

	// ErrVersionConflict is returned on optimistic-locking collisions.
	ErrVersionConflict = errors.New("version conflict: contract was modified by another operation")

	// ErrInvalidTransition is returned when a requested state transition
	// isn't in the allowed-transition table (§4.8).
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrPermissionDenied is returned when the caller's role may not
	// trigger the requested transition or action.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrValidation is returned for input/shape failures.
	ErrValidation = errors.New("validation error")

	// ErrSameParty is returned when landlord/tenant/guarantor identifiers
	// collide (invariant (a), §3).
	ErrSameParty = errors.New("landlord, tenant, and guarantor must be distinct")
)

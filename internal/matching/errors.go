package matching

import "errors"

var (
	ErrNotFound            = errors.New("matching: not found")
	ErrVersionConflict     = errors.New("matching: version conflict")
	ErrActiveRequestExists = errors.New("matching: an active match request already exists for this tenant/property pair")
	ErrNotEligibleState    = errors.New("matching: request not in an eligible state for this action")
	ErrNotAParty           = errors.New("matching: user is not a party to this match request")
	ErrInvalid             = errors.New("matching: invalid input")
)

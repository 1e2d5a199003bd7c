package objection

import "errors"

var (
	ErrNotFound              = errors.New("objection: not found")
	ErrVersionConflict       = errors.New("objection: version conflict")
	ErrJustificationTooShort = errors.New("objection: justification must be at least 20 characters")
	ErrNotEligibleState      = errors.New("objection: contract not in an objectable state")
	ErrNotAParty             = errors.New("objection: user is not a party to the contract")
	ErrSelfResponse          = errors.New("objection: responder must not be the objector")
	ErrAlreadyResolved       = errors.New("objection: already resolved")
)

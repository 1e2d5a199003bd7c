package invitation

import "errors"

var (
	ErrNotFound          = errors.New("invitation: not found")
	ErrVersionConflict   = errors.New("invitation: version conflict")
	ErrInvalid           = errors.New("invitation: invalid token")
	ErrExpired           = errors.New("invitation: expired")
	ErrAlreadyAccepted   = errors.New("invitation: already accepted")
	ErrEmailMismatch     = errors.New("invitation: tenant email mismatch")
	ErrContractNotEligible = errors.New("invitation: contract not in an invitable state")
	ErrNoResendableInvitation = errors.New("invitation: no sent or opened invitation to resend")
)

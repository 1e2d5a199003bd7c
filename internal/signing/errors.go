package signing

import "errors"

var (
	ErrOutOfOrder        = errors.New("signing: predecessor role has not signed yet")
	ErrAlreadySigned     = errors.New("signing: role already signed")
	ErrNotEligibleState  = errors.New("signing: contract not in ready_to_sign")
	ErrNotAParty         = errors.New("signing: user is not the expected signer for this role")
	ErrGuarantorNotOnContract = errors.New("signing: contract has no guarantor to sign for")
	ErrInsufficientAuth  = errors.New("signing: provided authentication methods do not satisfy the required level")
	ErrNotFullySigned    = errors.New("signing: contract has not reached fully_signed")
	ErrNotPublisher      = errors.New("signing: only the landlord may publish")
	ErrMissingLeaseTerm  = errors.New("signing: contract_terms.lease_duration_months missing or malformed")
)

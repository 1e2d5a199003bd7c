package api

import (
	"errors"

	"github.com/jaxxstorm/landlord/internal/api/apierror"
	"github.com/jaxxstorm/landlord/internal/contract"
	"github.com/jaxxstorm/landlord/internal/invitation"
	"github.com/jaxxstorm/landlord/internal/matching"
	"github.com/jaxxstorm/landlord/internal/notification"
	"github.com/jaxxstorm/landlord/internal/objection"
	"github.com/jaxxstorm/landlord/internal/signing"
)

// mapDomainError translates a domain-service sentinel error into the
// §7 apierror.Kind the transport layer reports it as. Errors the
// mapping doesn't recognize become an external_failure (500), since an
// unrecognized error is, from the caller's perspective, a server fault.
func mapDomainError(err error) *apierror.Error {
	if apiErr, ok := apierror.As(err); ok {
		return apiErr
	}

	switch {
	case errors.Is(err, contract.ErrNotFound),
		errors.Is(err, invitation.ErrNotFound),
		errors.Is(err, objection.ErrNotFound),
		errors.Is(err, matching.ErrNotFound),
		errors.Is(err, notification.ErrNotFound):
		return apierror.NotFound(err.Error())

	case errors.Is(err, contract.ErrPermissionDenied),
		errors.Is(err, objection.ErrNotAParty),
		errors.Is(err, signing.ErrNotAParty),
		errors.Is(err, signing.ErrNotPublisher),
		errors.Is(err, matching.ErrNotAParty):
		return apierror.PermissionDenied(err.Error())

	case errors.Is(err, contract.ErrInvalidTransition):
		return apierror.InvalidStateTransition("", "")

	case errors.Is(err, objection.ErrNotEligibleState),
		errors.Is(err, signing.ErrNotEligibleState),
		errors.Is(err, matching.ErrNotEligibleState):
		return apierror.InvalidStateTransition("", "")

	case errors.Is(err, invitation.ErrInvalid),
		errors.Is(err, invitation.ErrExpired),
		errors.Is(err, invitation.ErrAlreadyAccepted),
		errors.Is(err, invitation.ErrEmailMismatch),
		errors.Is(err, invitation.ErrContractNotEligible),
		errors.Is(err, invitation.ErrNoResendableInvitation):
		return apierror.InvitationInvalid(err.Error())

	case errors.Is(err, signing.ErrOutOfOrder),
		errors.Is(err, signing.ErrAlreadySigned):
		return apierror.OutOfOrder(err.Error())

	case errors.Is(err, signing.ErrInsufficientAuth),
		errors.Is(err, signing.ErrGuarantorNotOnContract),
		errors.Is(err, signing.ErrMissingLeaseTerm),
		errors.Is(err, signing.ErrNotFullySigned):
		return apierror.Validation(err.Error())

	case errors.Is(err, contract.ErrSameParty),
		errors.Is(err, contract.ErrValidation),
		errors.Is(err, objection.ErrJustificationTooShort),
		errors.Is(err, matching.ErrInvalid):
		return apierror.Validation(err.Error())

	case errors.Is(err, objection.ErrSelfResponse),
		errors.Is(err, objection.ErrAlreadyResolved):
		return apierror.Validation(err.Error())

	case errors.Is(err, matching.ErrActiveRequestExists):
		return apierror.AlreadyExists(err.Error())

	case errors.Is(err, notification.ErrBlockedByPolicy),
		errors.Is(err, notification.ErrUnknownChannel),
		errors.Is(err, notification.ErrNoEligibleChannel):
		return apierror.Validation(err.Error())

	case errors.Is(err, notification.ErrRateLimited):
		return apierror.New(apierror.KindRateLimited, err.Error())

	case errors.Is(err, notification.ErrDigestExists):
		return apierror.AlreadyExists(err.Error())

	case errors.Is(err, contract.ErrVersionConflict),
		errors.Is(err, invitation.ErrVersionConflict),
		errors.Is(err, objection.ErrVersionConflict),
		errors.Is(err, matching.ErrVersionConflict),
		errors.Is(err, notification.ErrVersionConflict):
		return apierror.New(apierror.KindOutOfOrder, "the resource was modified concurrently, retry with fresh data")

	default:
		return apierror.ExternalFailure(err.Error())
	}
}

// Package apierror implements §7's error handling design: a stable set
// of error kinds, each mapped to exactly one HTTP status code, carried
// in a uniform JSON body so every handler in internal/api reports
// failures the same way.
package apierror

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

// Kind names a §7 error kind. Handlers branch on domain sentinel errors
// and translate them into one of these, never invent a new kind inline.
type Kind string

const (
	KindValidation            Kind = "validation_error"
	KindNotFound              Kind = "not_found"
	KindPermissionDenied      Kind = "permission_denied"
	KindInvalidStateTransition Kind = "invalid_state_transition"
	KindInvitationInvalid     Kind = "invitation_invalid"
	KindRateLimited           Kind = "rate_limited"
	KindOutOfOrder            Kind = "out_of_order"
	KindAlreadyExists         Kind = "already_exists"
	KindExternalFailure       Kind = "external_failure"

	// kindUnauthenticated is not one of §7's kinds (those all assume an
	// authenticated caller); it covers the 401 case ahead of role-gating.
	kindUnauthenticated Kind = "unauthenticated"
)

var statusByKind = map[Kind]int{
	KindValidation:             http.StatusBadRequest,
	KindNotFound:               http.StatusNotFound,
	KindPermissionDenied:       http.StatusForbidden,
	KindInvalidStateTransition: http.StatusBadRequest,
	KindInvitationInvalid:      http.StatusBadRequest,
	KindRateLimited:            http.StatusTooManyRequests,
	KindOutOfOrder:             http.StatusBadRequest,
	KindAlreadyExists:          http.StatusBadRequest,
	KindExternalFailure:        http.StatusInternalServerError,
	kindUnauthenticated:        http.StatusUnauthorized,
}

// Error is the transport-mapped error every handler in internal/api
// returns. It implements error so it can travel through ordinary Go
// error-handling paths (errors.As) before being written to the wire.
type Error struct {
	Kind    Kind        `json:"code"`
	Message string      `json:"message"`
	Detail  interface{} `json:"detail,omitempty"`
}

func (e *Error) Error() string { return e.Message }

// Status returns the HTTP status code this error's kind maps to.
func (e *Error) Status() int {
	if status, ok := statusByKind[e.Kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func WithDetail(kind Kind, message string, detail interface{}) *Error {
	return &Error{Kind: kind, Message: message, Detail: detail}
}

func Validation(message string) *Error       { return New(KindValidation, message) }
func NotFound(message string) *Error         { return New(KindNotFound, message) }
func PermissionDenied(message string) *Error { return New(KindPermissionDenied, message) }
func InvitationInvalid(message string) *Error { return New(KindInvitationInvalid, message) }
func OutOfOrder(message string) *Error       { return New(KindOutOfOrder, message) }
func AlreadyExists(message string) *Error    { return New(KindAlreadyExists, message) }
func ExternalFailure(message string) *Error  { return New(KindExternalFailure, message) }
func Unauthenticated(message string) *Error  { return New(kindUnauthenticated, message) }

// InvalidStateTransition reports a rejected contract/match/objection
// transition, carrying both the current and requested state per §7.
func InvalidStateTransition(current, requested string) *Error {
	return &Error{
		Kind:    KindInvalidStateTransition,
		Message: "invalid state transition",
		Detail: map[string]string{
			"current_state":   current,
			"requested_state": requested,
		},
	}
}

// RateLimited reports §4.9 throttling, carrying the caller's retry_after.
func RateLimited(retryAfter time.Duration) *Error {
	return &Error{
		Kind:    KindRateLimited,
		Message: "rate limit exceeded",
		Detail: map[string]interface{}{
			"retry_after_seconds": int(retryAfter.Seconds()),
		},
	}
}

// As lets errors.As(err, &apiErr) unwrap a *Error out of a wrapped chain.
func As(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// Write renders err as the standard {code, message, detail?} JSON body
// and sets the matching HTTP status.
func Write(w http.ResponseWriter, err *Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Status())
	json.NewEncoder(w).Encode(err)
}

package notification

import "errors"

var (
	ErrNotFound          = errors.New("notification: not found")
	ErrVersionConflict   = errors.New("notification: version conflict")
	ErrBlockedByPolicy   = errors.New("notification: blocked by preferences, quiet hours, or daily cap")
	ErrRateLimited       = errors.New("notification: rate limit exceeded")
	ErrDigestExists      = errors.New("notification: digest already exists for this period")
	ErrUnknownChannel    = errors.New("notification: unknown channel")
	ErrNoEligibleChannel = errors.New("notification: no preference-allowed channel resolved")
)

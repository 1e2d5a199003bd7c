package channel

import "errors"

var (
	ErrProviderConflict = errors.New("channel: provider already registered")
	ErrProviderNotFound = errors.New("channel: provider not registered")
)

package data

import "errors"

// Shared sentinel errors for data-layer repositories.
var (
	// ErrNilRequest is returned when a write is attempted without a request body.
	ErrNilRequest = errors.New("request is required")
)

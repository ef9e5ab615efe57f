package blog

import "errors"

// Service-level sentinels. Handlers map these to HTTP statuses; anything
// else is a storage failure and surfaces as a 500.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
)

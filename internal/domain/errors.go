package domain

import "errors"

// Error kinds surfaced by the reservation engine. Callers match them with
// errors.Is; the message of the wrapping error carries the detail.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnavailable  = errors.New("no units available")
	ErrInvalidState = errors.New("invalid reservation state")
	ErrInvalidInput = errors.New("invalid input")
)

package errors

import "errors"

var (
	ErrNotFound = errors.New("teaching plan not found")

	ErrInvalidID = errors.New("invalid plan ID format")
)

package errors

import "errors"

var (
	ErrNotFound = errors.New("lab not found")

	ErrInvalidID = errors.New("invalid lab ID format")

	ErrDuplicateName = errors.New("lab name already in use")
)

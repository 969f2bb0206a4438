package apperrors

import "errors"

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrNotFound            = errors.New("not found")
	ErrPersistence         = errors.New("persistence failed")
	ErrCorruptData         = errors.New("corrupt stored data")
	ErrProviderUnavailable = errors.New("analysis provider unavailable")
)

package entity

import "errors"

// Sentinel errors for domain layer operations.
var (
	// ErrNotFound indicates that a requested entity was not found
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidSource indicates that a feed source definition is invalid
	ErrInvalidSource = errors.New("invalid feed source")
)

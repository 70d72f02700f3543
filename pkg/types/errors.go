package types

import "errors"

// Domain errors for type validation
var (
	// Resource errors
	ErrMissingURL  = errors.New("resource URL is required")
	ErrMissingType = errors.New("resource type is required")

	// Index entry errors
	ErrEmptyEntryText       = errors.New("index entry text cannot be empty")
	ErrMissingEntryCategory = errors.New("index entry category is required")
)

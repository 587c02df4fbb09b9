package usecase

import "errors"

// Sentinel errors for use case layer
var (
	// ErrInvalidInput marks client input errors: missing required fields,
	// empty embeddings, out-of-range limits. Rejected before any store is
	// touched; transport layers map it to a 4xx response.
	ErrInvalidInput = errors.New("invalid input")
)

package apperrors

import "errors"

var (
	// ErrValidation is a generic sentinel for malformed, caller-correctable input.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is a generic sentinel for callers lacking scope over an entity.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrFrozenVersion signals an attempted mutation of a frozen answer version.
	ErrFrozenVersion = errors.New("version is frozen")
	// ErrRateLimited signals an admission-control rejection.
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrInsufficientContext signals that planning found too little source material.
	// This is a client-correctable condition, not a server fault.
	ErrInsufficientContext = errors.New("insufficient context for generation")
	// ErrServiceUnavailable signals that the generation collaborator is unreachable
	// or quota-exhausted.
	ErrServiceUnavailable = errors.New("generation service unavailable")
	// ErrConflict signals a generation run already in flight for the same key.
	ErrConflict = errors.New("generation already in progress")
)

package apperrors

import "errors"

// Code maps an error to the stable classification surfaced to callers.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "notFound"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrFrozenVersion):
		return "frozenVersion"
	case errors.Is(err, ErrRateLimited):
		return "rateLimitExceeded"
	case errors.Is(err, ErrInsufficientContext):
		return "insufficientContext"
	case errors.Is(err, ErrServiceUnavailable):
		return "serviceUnavailable"
	case errors.Is(err, ErrConflict):
		return "conflict"
	}
	return "internal"
}

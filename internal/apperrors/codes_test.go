package apperrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "validation", err: ErrValidation, want: "validation"},
		{name: "wrapped_not_found", err: fmt.Errorf("answer x: %w", ErrNotFound), want: "notFound"},
		{name: "frozen", err: fmt.Errorf("version 2: %w", ErrFrozenVersion), want: "frozenVersion"},
		{name: "rate_limited", err: ErrRateLimited, want: "rateLimitExceeded"},
		{name: "insufficient", err: ErrInsufficientContext, want: "insufficientContext"},
		{name: "unavailable", err: fmt.Errorf("%w: upstream 503", ErrServiceUnavailable), want: "serviceUnavailable"},
		{name: "conflict", err: ErrConflict, want: "conflict"},
		{name: "unknown", err: errors.New("boom"), want: "internal"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Code(tc.err); got != tc.want {
				t.Fatalf("Code(%v) = %q, want %q", tc.err, got, tc.want)
			}
		})
	}
}

package gate

import (
	"errors"
	"fmt"
)

// Gate errors.
var (
	// ErrDenied is the sentinel wrapped by every authorization denial.
	// Use errors.Is(err, ErrDenied) to distinguish denials from
	// unexpected evaluation failures.
	ErrDenied = errors.New("gate: denied")
)

// DeniedError is returned by Authorize when a check resolves to false.
// It wraps ErrDenied so callers can branch on the error class while still
// reporting which ability was refused.
type DeniedError struct {
	// Ability is the ability name that was denied.
	Ability string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("gate: ability %q denied", e.Ability)
}

func (e *DeniedError) Unwrap() error {
	return ErrDenied
}

// IsDenied reports whether the error represents an authorization denial
// rather than an evaluation failure.
func IsDenied(err error) bool {
	return errors.Is(err, ErrDenied)
}

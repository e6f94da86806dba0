// Package dispatcher executes action requests against external
// collaborators, owning retry policy and failure classification.
package dispatcher

import (
	"errors"
	"fmt"
)

// ErrTransient marks a failure worth retrying: network timeouts, throttled
// collaborators, lock contention downstream.
var ErrTransient = errors.New("transient dispatch error")

// ErrPermanent marks a failure retrying cannot fix: unknown targets, invalid
// parameters, unregistered action types.
var ErrPermanent = errors.New("permanent dispatch error")

// Transient wraps an adapter error as retryable.
func Transient(err error) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("%w: %w", ErrTransient, err)
}

// Permanent wraps an adapter error as non-retryable.
func Permanent(err error) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("%w: %w", ErrPermanent, err)
}

// IsTransient reports whether an error should be retried. Unclassified
// errors count as transient so flaky collaborators get the benefit of the
// retry budget.
func IsTransient(err error) bool {
	if errors.Is(err, ErrPermanent) {
		return false
	}

	return true
}

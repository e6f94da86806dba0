// Package persistence provides standardized error types for storage
// operations.
package persistence

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound indicates no session exists for the given key.
	ErrSessionNotFound = errors.New("session not found")

	// ErrMessageNotFound indicates a library message id resolved to nothing.
	ErrMessageNotFound = errors.New("library message not found")

	// ErrFlowNotFound indicates a flow id resolved to nothing for the
	// company.
	ErrFlowNotFound = errors.New("flow not found")

	// ErrCompanyNotFound indicates the catalog holds no documents for the
	// company.
	ErrCompanyNotFound = errors.New("company not found")

	// ErrInvalidDefinition indicates a rule or flow document failed
	// validation at load time. The definition is skipped and logged; it is
	// never fatal to the engine.
	ErrInvalidDefinition = errors.New("invalid definition")
)

// SessionError wraps session storage errors with operation context.
type SessionError struct {
	Op  string
	Key string
	Err error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("%s failed for session %s: %v", e.Op, e.Key, e.Err)
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

func (e *SessionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// DefinitionError wraps a catalog document problem with its identity.
type DefinitionError struct {
	Kind string // rule | flow | message
	ID   string
	Err  error
}

func (e *DefinitionError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Kind, e.ID, e.Err)
}

func (e *DefinitionError) Unwrap() error {
	return e.Err
}

func (e *DefinitionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsSessionNotFound checks whether an error indicates a missing session.
func IsSessionNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound)
}

// IsMessageNotFound checks whether an error indicates a missing library
// message.
func IsMessageNotFound(err error) bool {
	return errors.Is(err, ErrMessageNotFound)
}

// IsFlowNotFound checks whether an error indicates a missing flow.
func IsFlowNotFound(err error) bool {
	return errors.Is(err, ErrFlowNotFound)
}

// IsInvalidDefinition checks whether an error indicates a definition that
// failed load-time validation.
func IsInvalidDefinition(err error) bool {
	return errors.Is(err, ErrInvalidDefinition)
}

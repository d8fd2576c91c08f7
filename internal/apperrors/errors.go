// Package apperrors provides the structured error taxonomy the world core
// uses to carry failures out of a zone tick boundary without ever panicking
// or returning a bare error string.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind identifies which branch of the error taxonomy a GameError belongs to.
// Kinds are matched by callers via errors.As + a type switch/Kind comparison,
// never by string matching on Message.
type Kind string

const (
	// Validation covers malformed requests, unknown ids, out-of-bounds values.
	// No mutation occurred.
	Validation Kind = "validation"

	// Authorization covers wallet/entity ownership mismatches.
	Authorization Kind = "authorization"

	// Precondition covers range, level, cooldown, prerequisite, proficiency,
	// broken-tool, depleted-node, and already-completed-quest failures.
	Precondition Kind = "precondition"

	// Conflict covers already-in-party, already-in-dungeon, gate-already-open,
	// quest-already-active failures.
	Conflict Kind = "conflict"

	// LedgerTransient covers an external ledger call that timed out or
	// returned a retryable status. The runtime has already applied
	// compensation by the time this error reaches the caller.
	LedgerTransient Kind = "ledger_transient"

	// LedgerPermanent covers an external ledger call rejected outright.
	// Compensation has already been applied; there is no retry path.
	LedgerPermanent Kind = "ledger_permanent"

	// Internal covers invariant violations: logged, never auto-recovered.
	Internal Kind = "internal"
)

// GameError is the single error type every action path in the core returns.
// It is never thrown across a tick boundary; tick-internal failures are
// logged and the offending entity is skipped for that tick instead.
type GameError struct {
	Kind    Kind
	Message string
	Details map[string]any
	Err     error
}

func (e *GameError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped error to errors.Is/errors.As chains.
func (e *GameError) Unwrap() error {
	return e.Err
}

// WithDetails attaches a debugging detail and returns the receiver for chaining.
func (e *GameError) WithDetails(key string, value any) *GameError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New constructs a bare GameError of the given kind.
func New(kind Kind, message string) *GameError {
	return &GameError{Kind: kind, Message: message}
}

// Wrap constructs a GameError of the given kind around an existing error.
func Wrap(kind Kind, message string, err error) *GameError {
	return &GameError{Kind: kind, Message: message, Err: err}
}

// As recovers a *GameError from a wrapped error chain.
func As(err error) (*GameError, bool) {
	var ge *GameError
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}

// Is reports whether err carries the given Kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	ge, ok := As(err)
	return ok && ge.Kind == kind
}

// ValidationError constructs a Validation-kind GameError.
func ValidationError(message string) *GameError {
	return New(Validation, message)
}

// AuthorizationError constructs an Authorization-kind GameError.
func AuthorizationError(message string) *GameError {
	return New(Authorization, message)
}

// PreconditionError constructs a Precondition-kind GameError.
func PreconditionError(message string) *GameError {
	return New(Precondition, message)
}

// ConflictError constructs a Conflict-kind GameError.
func ConflictError(message string) *GameError {
	return New(Conflict, message)
}

// LedgerTransientError constructs a LedgerTransient-kind GameError wrapping
// the underlying adapter failure.
func LedgerTransientError(operation string, err error) *GameError {
	return Wrap(LedgerTransient, fmt.Sprintf("ledger operation %q timed out or is retryable", operation), err).
		WithDetails("operation", operation)
}

// LedgerPermanentError constructs a LedgerPermanent-kind GameError wrapping
// the underlying adapter rejection.
func LedgerPermanentError(operation string, err error) *GameError {
	return Wrap(LedgerPermanent, fmt.Sprintf("ledger operation %q rejected", operation), err).
		WithDetails("operation", operation)
}

// InternalError constructs an Internal-kind GameError wrapping an invariant
// violation. Callers log these; there is no auto-recovery path.
func InternalError(message string, err error) *GameError {
	return Wrap(Internal, message, err)
}

// Package domainerrors defines the coded error type returned across service
// boundaries. Stores return sentinel facts; services translate them into one of
// the codes below so transports can map outcomes without string matching.
package domainerrors

import (
	"errors"
	"fmt"
	"strings"
)

// Code classifies a domain error.
type Code string

const (
	// Shape and range failures, rejected before any write.
	CodeValidation   Code = "validation_error"
	CodeInvalidInput Code = "invalid_input"
	CodeBadRequest   Code = "bad_request"
	CodeOutOfRange   Code = "out_of_range"

	// Model-layer invariant failures. Services translate these to CodeValidation.
	CodeInvariantViolation Code = "invariant_violation"

	// State conflicts: the current state is left unchanged.
	CodeConflictingState Code = "conflicting_state"
	CodeInvalidState     Code = "invalid_state"
	CodeConflict         Code = "conflict"

	// Duplicates report the existing row so callers can decide on retries.
	CodeDuplicateAllocation Code = "duplicate_allocation"
	CodeDuplicateBallot     Code = "duplicate_ballot"

	// Preconditions that enumerate what is missing.
	CodeIncompleteSetup Code = "incomplete_setup"
	CodePendingBallots  Code = "pending_ballots"

	CodeNotFound     Code = "not_found"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeTimeout      Code = "timeout"

	// Infrastructure failure, distinct from every domain kind above.
	CodeInternal Code = "internal_error"
)

// Error is a domain error carrying a code, a client-safe message and, for
// precondition failures, the specific missing requirements.
type Error struct {
	Code    Code
	Message string
	// Details enumerates the missing requirement (team positions, adjudicator ids).
	Details []string
	// Existing identifies the row a duplicate collided with.
	Existing string
	Err      error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if len(e.Details) > 0 {
		b.WriteString(" [")
		b.WriteString(strings.Join(e.Details, ", "))
		b.WriteString("]")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a domain error with the given code and message.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Newf creates a domain error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

// WithDetails returns a copy of e listing the unmet requirements.
func (e *Error) WithDetails(details ...string) *Error {
	cp := *e
	cp.Details = append([]string(nil), details...)
	return &cp
}

// WithExisting returns a copy of e naming the row a duplicate collided with.
func (e *Error) WithExisting(existing string) *Error {
	cp := *e
	cp.Existing = existing
	return &cp
}

// As extracts the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// HasCode reports whether the first domain error in err's chain has code.
func HasCode(err error, code Code) bool {
	de, ok := As(err)
	return ok && de.Code == code
}

// Is is an alias of HasCode kept for handler readability.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the code of err, or CodeInternal for non-domain errors.
func CodeOf(err error) Code {
	if de, ok := As(err); ok {
		return de.Code
	}
	return CodeInternal
}

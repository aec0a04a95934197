// Package kgerr defines the error taxonomy shared by the dictionary, the
// quad store, the evaluator and the executors. Kinds are sentinel values so
// callers can errors.Is/errors.As against them; the wrapping types carry the
// context (position, statement index, expected/got types) the plain
// sentinel can't.
package kgerr

import (
	"errors"
	"strconv"
)

var (
	// ErrUnknownID is returned by Dictionary.Resolve for an id that was
	// never assigned (or is 0).
	ErrUnknownID = errors.New("kgerr: unknown id")
	// ErrCancelled is returned by an executor handle once its cancel flag
	// has been observed.
	ErrCancelled = errors.New("kgerr: cancelled")
	// ErrGraphNotFound is returned by DROP/CLEAR against a named graph that
	// holds no quads, unless the statement was marked SILENT.
	ErrGraphNotFound = errors.New("kgerr: graph not found")
)

// ParseError is returned by parsers (external to this core) using the
// position conventions the core expects to receive.
type ParseError struct {
	Line, Column int
	Message      string
}

func (e *ParseError) Error() string {
	return "parse error: " + e.Message
}

// BackendError wraps a storage-backend failure.
type BackendError struct {
	Reason error
}

func (e *BackendError) Error() string { return "backend error: " + e.Reason.Error() }
func (e *BackendError) Unwrap() error { return e.Reason }

// NewBackendError wraps reason as a BackendError, unless it already is one.
func NewBackendError(reason error) error {
	if reason == nil {
		return nil
	}
	var be *BackendError
	if errors.As(reason, &be) {
		return reason
	}
	return &BackendError{Reason: reason}
}

// UnsupportedOperation is returned when a capability (e.g. transactions) is
// requested of a backend or mode that does not provide it.
type UnsupportedOperation struct {
	What string
}

func (e *UnsupportedOperation) Error() string { return "unsupported operation: " + e.What }

// TypeMismatch is returned by expression evaluation when an operand's
// runtime type is incompatible with what the operator/function requires.
type TypeMismatch struct {
	Expected string
	Got      string
}

func (e *TypeMismatch) Error() string {
	return "type mismatch: expected " + e.Expected + ", got " + e.Got
}

// InvalidIRI is returned by term construction for a malformed IRI lexical.
type InvalidIRI struct {
	Lexical string
}

func (e *InvalidIRI) Error() string { return "invalid IRI: " + e.Lexical }

// InvalidLiteral is returned by term construction for a malformed literal.
type InvalidLiteral struct {
	Lexical  string
	Datatype string
}

func (e *InvalidLiteral) Error() string {
	return "invalid literal \"" + e.Lexical + "\"^^<" + e.Datatype + ">"
}

// StatementFailed records a single failed statement within a best-effort
// update batch.
type StatementFailed struct {
	Index     int
	Statement string
	Inner     error
}

func (e *StatementFailed) Error() string {
	return "statement " + strconv.Itoa(e.Index) + " failed: " + e.Inner.Error()
}
func (e *StatementFailed) Unwrap() error { return e.Inner }

// Package core contains the single source of truth for the temporal
// record-store data model: identifiers, keys, records, datasets and the
// errors and contracts the rest of the store is built against.
package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifies the errors raised by the store, per the error
// handling design: all errors are raised as a core.Error carrying one of
// these kinds rather than returned as ad hoc sentinel values.
type ErrorKind string

const (
	// NotFound is returned by a "load" variant that did not find a record,
	// or by a dataset name lookup that resolved to nothing. Callers decide
	// how to handle it.
	KindNotFound ErrorKind = "NOT_FOUND"
	// KindTypeMismatch fires when the runtime type of a deserialized
	// record is not a subtype of the type the caller asked for.
	KindTypeMismatch ErrorKind = "TYPE_MISMATCH"
	// KindOrderViolation fires when an allocated id is not strictly
	// greater than the dataset it is being saved into, or a dataset
	// imports itself.
	KindOrderViolation ErrorKind = "ORDER_VIOLATION"
	// KindReadOnly fires when a write is attempted against a read-only
	// data source, a read-only dataset, or a dataset/source with an
	// active cutoff.
	KindReadOnly ErrorKind = "READ_ONLY"
	// KindValidation fires on malformed DbName tokens, empty dataset
	// names, ';' inside a key token, or a float used as a key field.
	KindValidation ErrorKind = "VALIDATION"
	// KindOrderingError fires when a query builder's `where` is appended
	// after a `sort_by`.
	KindOrderingError ErrorKind = "ORDERING_ERROR"
	// KindStoreError wraps a failure signalled by the underlying store.
	KindStoreError ErrorKind = "STORE_ERROR"
)

// Error is the single error type raised throughout the store. It carries a
// Kind so callers can branch with errors.Is/As without a sprawl of sentinel
// values, and wraps an optional underlying cause.
type Error struct {
	Kind ErrorKind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.msg, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.msg)
}

// Unwrap exposes the wrapped cause so errors.Is/As traverse through it.
func (e *Error) Unwrap() error { return e.err }

// NewError builds a *Error of the given kind with no wrapped cause.
func NewError(kind ErrorKind, format string, args ...any) error {
	return &Error{Kind: kind, msg: fmt.Sprintf(format, args...)}
}

// WrapError builds a *Error of the given kind wrapping cause.
func WrapError(kind ErrorKind, cause error, format string, args ...any) error {
	return &Error{Kind: kind, msg: fmt.Sprintf(format, args...), err: cause}
}

// Is reports whether err is a *Error of the given kind, unwrapping as
// needed. This is how callers test for NotFound rather than comparing
// against a single sentinel value.
func Is(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// FILE: pkg/faults/faults.go
package faults

import (
	"errors"
	"fmt"
)

// Kind classifies an error so callers can pick a policy (retry, reject,
// treat-as-success) without matching on message strings.
type Kind string

const (
	// KindPermanent marks errors that will not succeed on retry
	// (missing transcript, malformed score document, bad input).
	KindPermanent Kind = "permanent"

	// KindTransient marks errors worth retrying (rate limits, timeouts).
	KindTransient Kind = "transient"

	// KindUnauthorized marks authentication/signature failures.
	KindUnauthorized Kind = "unauthorized"

	// KindConflict marks lost races on guarded writes. Callers usually
	// re-read and return the winner's state instead of failing.
	KindConflict Kind = "conflict"

	// KindNotFound marks lookups for records that do not exist.
	KindNotFound Kind = "not_found"
)

// Error carries a Kind, a stable machine-readable Code and an optional cause.
type Error struct {
	Kind Kind
	Code string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, code string, err error) *Error {
	return &Error{Kind: kind, Code: code, Err: err}
}

func Permanent(code string, err error) *Error    { return New(KindPermanent, code, err) }
func Transient(code string, err error) *Error    { return New(KindTransient, code, err) }
func Unauthorized(code string, err error) *Error { return New(KindUnauthorized, code, err) }
func Conflict(code string, err error) *Error     { return New(KindConflict, code, err) }
func NotFound(code string, err error) *Error     { return New(KindNotFound, code, err) }

// KindOf returns the Kind of err, or KindTransient when err carries no
// classification. Unclassified errors are almost always infrastructure
// failures (DB down, network), which are safe to retry.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindTransient
}

// CodeOf returns the stable code of err, or empty when untagged.
func CodeOf(err error) string {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return ""
}

// IsKind reports whether err is tagged with the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

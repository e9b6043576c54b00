package cpcache

import (
	"errors"
	"strings"
)

// Error is the cpcache error domain type.
//
// Errors at the boundary of the engine (blob I/O, root-index parse, JSON
// persistence, local-PACK ingestion) should be inspectable as (errors.As) an
// *Error at some point in the chain; inside a download batch they ride out
// through dlpool.Fatal. Per-URL network and per-PDSC extraction failures are
// never wrapped in an *Error; they're logged and swallowed by the download
// pool, see internal/dlpool.
type Error struct {
	Inner   error
	Kind    ErrorKind
	Message string
	Op      string
}

var (
	_ error                       = (*Error)(nil)
	_ interface{ Is(error) bool } = (*Error)(nil)
	_ interface{ Unwrap() error } = (*Error)(nil)
)

// Error implements error.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString("[")
	b.WriteString(string(e.Kind))
	b.WriteString("]")
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Inner != nil {
		b.WriteString(": ")
		b.WriteString(e.Inner.Error())
	}
	return b.String()
}

// Is enables errors.Is.
func (e *Error) Is(kind error) bool {
	return errors.Is(e.Kind, kind)
}

// Unwrap enables errors.Unwrap.
func (e *Error) Unwrap() error {
	return e.Inner
}

// ErrorKind represents the class of a boundary error.
type ErrorKind string

// Error implements error.
func (k ErrorKind) Error() string { return string(k) }

// Defined error kinds.
var (
	// ErrIO covers blob store and other filesystem failures. Fatal for the
	// batch that triggered them.
	ErrIO = ErrorKind("io")
	// ErrRootIndex covers a missing or unparseable root vendor index.
	ErrRootIndex = ErrorKind("root index")
	// ErrPersist covers JSON index/alias persistence failures.
	ErrPersist = ErrorKind("persist")
	// ErrNotFound signals a query for an unknown device, distinct from an I/O
	// failure.
	ErrNotFound = ErrorKind("not found")
	// ErrMalformedPack signals a local PACK whose embedded PDSC is missing,
	// cannot be decoded, or lacks the fields a pack URL needs.
	ErrMalformedPack = ErrorKind("malformed pack")
)

// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of hctree.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package engerr defines the error kinds the clustering core raises.
//
// There are four kinds: BadArgument and PreconditionViolated are surfaced
// at the API boundary without side effects; IOError and Corruption abort
// the enclosing operation and may carry the path of a best-effort debug
// dump written before returning.
package engerr

import "fmt"

// Kind identifies one of the four error categories the core raises.
type Kind int

const (
	// BadArgument covers unsupported neighborhood orders, out-of-range
	// threshold/ratio values, missing folders, invalid growth modes.
	BadArgument Kind = iota
	// PreconditionViolated covers a tract used in the wrong
	// representation, an empty tree passed to a comparator, mismatched
	// base-node sizes.
	PreconditionViolated
	// IOError covers a tract/image/tree file that is unreadable or
	// unwritable.
	IOError
	// Corruption covers a tree violating (T-1)/(T-2), or the clustering
	// loop observing an inconsistency between the priority set, a
	// proto-node's near-nb, and its neighbor's map.
	Corruption
)

func (k Kind) String() string {
	switch k {
	case BadArgument:
		return "BadArgument"
	case PreconditionViolated:
		return "PreconditionViolated"
	case IOError:
		return "IOError"
	case Corruption:
		return "Corruption"
	default:
		return "UnknownError"
	}
}

// Error wraps a Kind with a message and, for IOError/Corruption, the path
// of a debug dump written before the operation aborted.
type Error struct {
	Kind     Kind
	Msg      string
	DumpPath string
	Wrapped  error
}

func (e *Error) Error() string {
	if e.DumpPath != "" {
		return fmt.Sprintf("%s: %s (debug dump: %s)", e.Kind, e.Msg, e.DumpPath)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Wrapped }

// Is makes errors.Is(err, engerr.ErrBadArgument) work by comparing the
// Kind of the sentinel values below against an *Error's Kind.
func (e *Error) Is(target error) bool {
	sentinel, ok := target.(*sentinelError)
	if !ok {
		return false
	}
	return e.Kind == sentinel.kind
}

type sentinelError struct{ kind Kind }

func (s *sentinelError) Error() string { return s.kind.String() }

// Sentinels usable with errors.Is, e.g. errors.Is(err, engerr.ErrCorruption).
var (
	ErrBadArgument          = &sentinelError{BadArgument}
	ErrPreconditionViolated = &sentinelError{PreconditionViolated}
	ErrIOError              = &sentinelError{IOError}
	ErrCorruption           = &sentinelError{Corruption}
)

// New builds an *Error of the given kind.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error of the given kind around an existing error.
func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Wrapped: err}
}

// WithDump attaches a debug-dump path to the error, for Corruption/IOError.
func (e *Error) WithDump(path string) *Error {
	e.DumpPath = path
	return e
}

// Copyright 2026 The Keel Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"errors"
	"fmt"
)

// ErrInvalidPath is wrapped by lookups given a name that cannot be a
// store-relative path (empty, absolute, or escaping the root). The
// check happens before any I/O.
var ErrInvalidPath = errors.New("invalid store path")

// IOError reports a genuine I/O failure during a store operation, as
// opposed to a missing entry (which is a nil result, not an error).
// Callers can use errors.As to extract the operation and path:
//
//	var ioErr *store.IOError
//	if errors.As(err, &ioErr) { ... }
type IOError struct {
	// Op is the store operation that failed ("definition", "resource",
	// "list", "metadata", "put").
	Op string
	// Path is the filesystem path involved.
	Path string
	// Err is the underlying error.
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("store %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// IsIO reports whether err is (or wraps) an *IOError.
func IsIO(err error) bool {
	var ioErr *IOError
	return errors.As(err, &ioErr)
}

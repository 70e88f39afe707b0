// Copyright 2026 The Keel Authors
// SPDX-License-Identifier: Apache-2.0

// Package name defines artifact names: slash-separated identifiers
// partitioned into a namespace prefix and a local name, with a tagged
// variant for array artifacts ("elem[]") that is synthesized from an
// already-visible element rather than looked up in a store.
package name

import (
	"fmt"
	"strings"
)

// Name identifies an artifact within a loader. The namespace prefix is
// everything up to the last '/'; the local name is the final segment.
// An array name carries the "[]" suffix and never appears in a store.
type Name string

const arraySuffix = "[]"

// Parse validates s and returns it as a Name. Validation is purely
// syntactic: names are rejected before any I/O happens, so a malformed
// name can never reach a store.
func Parse(s string) (Name, error) {
	base := strings.TrimSuffix(s, arraySuffix)
	if base == "" {
		return "", fmt.Errorf("%w: empty name", ErrInvalid)
	}
	if strings.Contains(base, arraySuffix) {
		return "", fmt.Errorf("%w: %q has an interior array marker", ErrInvalid, s)
	}
	if strings.HasPrefix(base, "/") || strings.HasSuffix(base, "/") {
		return "", fmt.Errorf("%w: %q has a leading or trailing separator", ErrInvalid, s)
	}
	if strings.Contains(base, "//") {
		return "", fmt.Errorf("%w: %q has an empty segment", ErrInvalid, s)
	}
	for _, segment := range strings.Split(base, "/") {
		if segment == "." || segment == ".." {
			return "", fmt.Errorf("%w: %q has a relative segment", ErrInvalid, s)
		}
	}
	return Name(s), nil
}

// IsArray reports whether n is an array name.
func (n Name) IsArray() bool {
	return strings.HasSuffix(string(n), arraySuffix)
}

// Element returns the element name of an array name. Calling Element
// on a non-array name returns the name unchanged.
func (n Name) Element() Name {
	return Name(strings.TrimSuffix(string(n), arraySuffix))
}

// ArrayOf returns the array name whose element is n.
func ArrayOf(n Name) Name {
	return Name(string(n) + arraySuffix)
}

// Namespace returns the namespace prefix of n, or "" when n has no
// namespace. Array markers are ignored: the array of an artifact lives
// in the element's namespace.
func (n Name) Namespace() string {
	base := string(n.Element())
	idx := strings.LastIndexByte(base, '/')
	if idx < 0 {
		return ""
	}
	return base[:idx]
}

// Local returns the final segment of n.
func (n Name) Local() string {
	base := string(n.Element())
	idx := strings.LastIndexByte(base, '/')
	return base[idx+1:]
}

// Path returns the store-relative path holding the definition bytes
// for n. Array names have no path; Path returns "" for them.
func (n Name) Path() string {
	if n.IsArray() {
		return ""
	}
	return string(n)
}

func (n Name) String() string {
	return string(n)
}

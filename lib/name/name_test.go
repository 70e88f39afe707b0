// Copyright 2026 The Keel Authors
// SPDX-License-Identifier: Apache-2.0

package name

import (
	"errors"
	"testing"
)

func TestParseValid(t *testing.T) {
	for _, s := range []string{
		"main",
		"app/main",
		"app/util/strings",
		"app/main[]",
	} {
		if _, err := Parse(s); err != nil {
			t.Errorf("Parse(%q) failed: %v", s, err)
		}
	}
}

func TestParseInvalid(t *testing.T) {
	for _, s := range []string{
		"",
		"[]",
		"/app/main",
		"app/main/",
		"app//main",
		"app/../main",
		"app/./main",
		"app[]/main",
	} {
		_, err := Parse(s)
		if err == nil {
			t.Errorf("Parse(%q) succeeded, want error", s)
			continue
		}
		if !errors.Is(err, ErrInvalid) {
			t.Errorf("Parse(%q) error %v does not wrap ErrInvalid", s, err)
		}
	}
}

func TestArrayNames(t *testing.T) {
	n := Name("app/main")
	arr := ArrayOf(n)

	if arr != "app/main[]" {
		t.Errorf("ArrayOf = %q, want app/main[]", arr)
	}
	if !arr.IsArray() {
		t.Error("IsArray = false for array name")
	}
	if n.IsArray() {
		t.Error("IsArray = true for scalar name")
	}
	if arr.Element() != n {
		t.Errorf("Element = %q, want %q", arr.Element(), n)
	}
	if n.Element() != n {
		t.Errorf("Element of scalar = %q, want unchanged", n.Element())
	}
	if arr.Path() != "" {
		t.Errorf("Path of array name = %q, want empty", arr.Path())
	}
}

func TestNamespaceSplit(t *testing.T) {
	tests := []struct {
		name      Name
		namespace string
		local     string
	}{
		{"main", "", "main"},
		{"app/main", "app", "main"},
		{"app/util/strings", "app/util", "strings"},
		{"app/main[]", "app", "main"},
	}
	for _, tc := range tests {
		if got := tc.name.Namespace(); got != tc.namespace {
			t.Errorf("%q.Namespace() = %q, want %q", tc.name, got, tc.namespace)
		}
		if got := tc.name.Local(); got != tc.local {
			t.Errorf("%q.Local() = %q, want %q", tc.name, got, tc.local)
		}
	}
}

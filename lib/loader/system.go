// Copyright 2026 The Keel Authors
// SPDX-License-Identifier: Apache-2.0

package loader

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync/atomic"
)

// System is the read-only routing table for reserved names: the set
// of system prefixes and the single platform authority they route to.
// A System is immutable after construction, so every check is a
// lock-free read. Every loader consults its System before any of its
// own resolution, which is what guarantees one materialized identity
// platform-wide for reserved names.
type System struct {
	authority Loader
	prefixes  []string
}

// NewSystem creates a System routing the given prefixes to authority.
// Prefixes are matched literally against the front of names and
// resource paths; a namespace matches when "<namespace>/" does.
func NewSystem(authority Loader, prefixes []string) (*System, error) {
	if authority == nil {
		return nil, errors.New("system authority is nil")
	}
	for _, prefix := range prefixes {
		if prefix == "" {
			return nil, errors.New("empty system prefix")
		}
	}
	return &System{
		authority: authority,
		prefixes:  slices.Clone(prefixes),
	}, nil
}

// Matches reports whether s routes the given name or path.
func (s *System) Matches(path string) bool {
	for _, prefix := range s.prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Authority returns the platform authority.
func (s *System) Authority() Loader {
	return s.authority
}

// Prefixes returns a copy of the prefix set.
func (s *System) Prefixes() []string {
	return slices.Clone(s.prefixes)
}

// processSystem is the process-wide System, set once during startup.
var processSystem atomic.Pointer[System]

// InitSystem installs the process-wide System. It must be called at
// most once, during startup, before any loader serves requests;
// calling it again is a programming error.
func InitSystem(s *System) error {
	if s == nil {
		return errors.New("InitSystem: nil system")
	}
	if !processSystem.CompareAndSwap(nil, s) {
		return fmt.Errorf("InitSystem: process system already initialized")
	}
	return nil
}

// ProcessSystem returns the process-wide System, or nil when none has
// been installed. Loaders constructed without an explicit System fall
// back to it.
func ProcessSystem() *System {
	return processSystem.Load()
}

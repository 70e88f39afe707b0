// Copyright 2026 The Keel Authors
// SPDX-License-Identifier: Apache-2.0

// Package namespace implements the per-loader namespace registry:
// an atomic define-or-return-existing mapping from namespace name to
// descriptor, with the reentrancy suppression needed when a define
// notifies a process-wide platform table that may call back into
// namespace lookup on the same goroutine.
package namespace

import (
	"errors"
	"sync"
)

// Descriptor describes one namespace: its name, the specification and
// implementation identity, and an optional seal origin. Descriptors
// are immutable once defined; concurrent definers of the same name
// observe the same instance.
type Descriptor struct {
	Name string

	SpecTitle   string
	SpecVersion string
	SpecVendor  string

	ImplTitle   string
	ImplVersion string
	ImplVendor  string

	// SealBase, when non-empty, seals the namespace to the given
	// origin: only artifacts from that origin may join it.
	SealBase string
}

// ErrAlreadyDefined is returned by a [PlatformTable] when the
// namespace exists process-wide. Registries absorb it by adopting the
// platform's existing descriptor.
var ErrAlreadyDefined = errors.New("namespace already defined")

// PlatformTable is the process-wide namespace table a registry
// notifies when defining. DefineNamespace returns the descriptor now
// current platform-wide; for a name that already exists it returns
// the existing descriptor with [ErrAlreadyDefined].
//
// Implementations may call back into loader namespace lookup from
// inside DefineNamespace on the same goroutine. The registry arms its
// reentrancy guard around the call so such lookups short-circuit to
// absent instead of deadlocking against the table's own lock.
type PlatformTable interface {
	DefineNamespace(d *Descriptor) (*Descriptor, error)
}

// Registry is a per-loader concurrent namespace table. The zero value
// is not usable; construct with [NewRegistry].
type Registry struct {
	platform PlatformTable
	guard    *reentrancyGuard

	mu      sync.RWMutex
	entries map[string]*Descriptor
}

// NewRegistry creates a registry. platform may be nil for loaders
// that do not participate in a process-wide namespace table.
func NewRegistry(platform PlatformTable) *Registry {
	return &Registry{
		platform: platform,
		guard:    newReentrancyGuard(),
		entries:  make(map[string]*Descriptor),
	}
}

// Define atomically inserts d if its name is absent and returns the
// descriptor now current for the name. When the name is already
// present, d is discarded and the existing descriptor is returned;
// a concurrent double-define is never an error.
//
// The registry lock is never held across the platform notification:
// the existing-entry check releases the read lock before the platform
// call, and the insert re-checks under the write lock afterwards.
func (r *Registry) Define(d *Descriptor) *Descriptor {
	release := r.guard.enter()
	defer release()

	if existing := r.Lookup(d.Name); existing != nil {
		return existing
	}

	if r.platform != nil {
		platformDesc, err := r.platform.DefineNamespace(d)
		if err != nil && !errors.Is(err, ErrAlreadyDefined) {
			// The platform could not record the namespace; the local
			// definition still proceeds so this loader's artifacts
			// keep a consistent descriptor.
			platformDesc = nil
		}
		if platformDesc != nil {
			d = platformDesc
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.entries[d.Name]; ok {
		return existing
	}
	r.entries[d.Name] = d
	return d
}

// Lookup returns the descriptor for name, or nil when absent.
func (r *Registry) Lookup(name string) *Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries[name]
}

// Suppressed reports whether the current goroutine is inside a Define
// whose platform notification may be calling back in. Loaders consult
// this before general delegating namespace lookup.
func (r *Registry) Suppressed() bool {
	return r.guard.held()
}

// All returns a snapshot of every defined descriptor. Order is
// unspecified.
func (r *Registry) All() []*Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	descriptors := make([]*Descriptor, 0, len(r.entries))
	for _, d := range r.entries {
		descriptors = append(descriptors, d)
	}
	return descriptors
}

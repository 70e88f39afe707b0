// Copyright 2026 The Keel Authors
// SPDX-License-Identifier: Apache-2.0

package namespace

import "sync"

// SharedTable is the process-wide namespace table. Every loader's
// registry in a process is normally constructed against one shared
// instance, so a namespace name resolves to a single descriptor
// identity platform-wide.
//
// The table serializes defines with its own lock. Registries must
// never call into it while holding a registry lock (see
// [Registry.Define]); the reverse order, table lock held while
// namespace lookup re-enters a registry, is what the reentrancy
// guard defuses.
type SharedTable struct {
	mu      sync.Mutex
	entries map[string]*Descriptor
}

// NewSharedTable creates an empty shared table.
func NewSharedTable() *SharedTable {
	return &SharedTable{entries: make(map[string]*Descriptor)}
}

// DefineNamespace implements [PlatformTable]: insert-if-absent, with
// [ErrAlreadyDefined] and the existing descriptor when the name is
// taken.
func (t *SharedTable) DefineNamespace(d *Descriptor) (*Descriptor, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if existing, ok := t.entries[d.Name]; ok {
		return existing, ErrAlreadyDefined
	}
	t.entries[d.Name] = d
	return d, nil
}

// Lookup returns the process-wide descriptor for name, or nil.
func (t *SharedTable) Lookup(name string) *Descriptor {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.entries[name]
}

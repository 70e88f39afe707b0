// Copyright 2026 The Keel Authors
// SPDX-License-Identifier: Apache-2.0

// Package redirect provides a pure forwarding wrapper around a
// loader: every operation delegates to a swappable backing instance.
// The platform authority slot is wired through a Redirector so an
// administrator can retarget the authority without rebuilding the
// routing table handed to every loader at startup.
package redirect

import (
	"sync/atomic"

	"github.com/keel-runtime/keel/lib/loader"
	"github.com/keel-runtime/keel/lib/name"
	"github.com/keel-runtime/keel/lib/namespace"
)

// Redirector is a loader that forwards every operation to its
// current backing loader. The backing reference is read atomically
// per operation: concurrent callers always observe a complete
// instance, and a swap never interrupts an in-flight call.
type Redirector struct {
	backing atomic.Pointer[loader.Loader]
}

// New creates a Redirector forwarding to initial.
func New(initial loader.Loader) *Redirector {
	r := &Redirector{}
	r.backing.Store(&initial)
	return r
}

// ChangeDefault swaps the backing loader. Administrative operation;
// in-flight calls complete against the instance they started with.
func (r *Redirector) ChangeDefault(backing loader.Loader) {
	r.backing.Store(&backing)
}

// Default returns the current backing loader.
func (r *Redirector) Default() loader.Loader {
	return *r.backing.Load()
}

// Unwrap implements [loader.Wrapper], exposing the current backing
// loader to the system bypass. Without it, a loader installed as the
// platform authority through a Redirector would bypass to the
// Redirector, which forwards straight back, and every reserved-name
// operation on that loader would recurse until the stack ran out.
func (r *Redirector) Unwrap() loader.Loader {
	return r.Default()
}

// Load implements [loader.Loader].
func (r *Redirector) Load(n name.Name) (*loader.Artifact, error) {
	return r.Default().Load(n)
}

// LoadExported implements [loader.Loader].
func (r *Redirector) LoadExported(n name.Name) (*loader.Artifact, error) {
	return r.Default().LoadExported(n)
}

// GetResource implements [loader.Loader].
func (r *Redirector) GetResource(path string) (loader.Resource, error) {
	return r.Default().GetResource(path)
}

// GetResources implements [loader.Loader].
func (r *Redirector) GetResources(path string) ([]loader.Resource, error) {
	return r.Default().GetResources(path)
}

// GetNamespace implements [loader.Loader].
func (r *Redirector) GetNamespace(namespaceName string) *namespace.Descriptor {
	return r.Default().GetNamespace(namespaceName)
}

// Copyright 2026 The Keel Authors
// SPDX-License-Identifier: Apache-2.0

package loader

import (
	"fmt"
	"sync/atomic"

	"github.com/keel-runtime/keel/lib/name"
	"github.com/keel-runtime/keel/lib/store"
)

// Artifact is a named, materialized unit of loaded code. Artifacts
// are immutable after materialization and exclusively owned by their
// defining loader: within one loader, a name maps to exactly one
// artifact identity for the loader's lifetime.
type Artifact struct {
	name    name.Name
	bytes   []byte
	digest  store.Digest
	origin  store.Origin
	owner   Loader
	runner  Runner
	element *Artifact

	linked atomic.Bool
}

// Name returns the artifact name.
func (a *Artifact) Name() name.Name {
	return a.name
}

// Bytes returns the definition payload. Array artifacts have no
// payload of their own and return nil.
func (a *Artifact) Bytes() []byte {
	return a.bytes
}

// Digest returns the byte identity of the definition.
func (a *Artifact) Digest() store.Digest {
	return a.digest
}

// Origin returns where the definition came from.
func (a *Artifact) Origin() store.Origin {
	return a.origin
}

// Loader returns the loader that defined this artifact.
func (a *Artifact) Loader() Loader {
	return a.owner
}

// IsArray reports whether this is a synthesized array artifact.
func (a *Artifact) IsArray() bool {
	return a.element != nil
}

// Element returns the element artifact of an array artifact, or nil.
func (a *Artifact) Element() *Artifact {
	return a.element
}

// Link marks the artifact resolved. Loading with resolve set links
// the artifact immediately; otherwise linking is the caller's choice.
// Linking is idempotent.
func (a *Artifact) Link() {
	a.linked.Store(true)
}

// Linked reports whether the artifact has been linked.
func (a *Artifact) Linked() bool {
	return a.linked.Load()
}

// Run invokes the artifact's entry point with the given process
// arguments, using the runner installed by the defining loader.
func (a *Artifact) Run(args []string) error {
	if a.runner == nil {
		return fmt.Errorf("artifact %s is not runnable", a.name)
	}
	return a.runner.Run(a, args)
}

// Runner executes a materialized artifact's entry point. The driver
// installs a process-executing runner; tests install fakes.
type Runner interface {
	Run(a *Artifact, args []string) error
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(a *Artifact, args []string) error

// Run implements Runner.
func (f RunnerFunc) Run(a *Artifact, args []string) error {
	return f(a, args)
}

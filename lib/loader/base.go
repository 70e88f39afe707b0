// Copyright 2026 The Keel Authors
// SPDX-License-Identifier: Apache-2.0

package loader

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/keel-runtime/keel/lib/name"
	"github.com/keel-runtime/keel/lib/namespace"
	"github.com/keel-runtime/keel/lib/store"
)

// Config configures a [Base].
type Config struct {
	// Finder is the search extension point. Nil installs the default
	// finder, which finds nothing.
	Finder Finder

	// Registry is the loader's namespace registry. Nil creates a
	// fresh registry with no platform table.
	Registry *namespace.Registry

	// System overrides the process-wide system routing for this
	// loader. Nil falls back to [ProcessSystem].
	System *System

	// Runner is installed on artifacts materialized by this loader.
	// May be nil for loaders whose artifacts are never run.
	Runner Runner

	// Owner is the loader identity recorded on materialized
	// artifacts. Concrete loaders embedding Base pass themselves;
	// nil makes the Base its own owner.
	Owner Loader

	// Logger receives operational messages. Nil discards them.
	Logger *slog.Logger
}

// Base implements the concurrency discipline of a delegating loader
// once, for concrete loaders to embed: system-prefix bypass, array
// synthesis, the atomic define-or-fetch table, and the
// namespace-lookup ordering. The embedding loader installs itself as
// the [Finder].
//
// All methods are safe for unsynchronized concurrent use. The table
// lock is never held across store I/O, a delegate call, or the
// platform authority.
type Base struct {
	finder   Finder
	registry *namespace.Registry
	system   *System
	runner   Runner
	owner    Loader
	logger   *slog.Logger

	mu      sync.Mutex
	defined map[name.Name]*Artifact
}

// NewBase creates a Base from cfg.
func NewBase(cfg Config) *Base {
	b := &Base{
		finder:   cfg.Finder,
		registry: cfg.Registry,
		system:   cfg.System,
		runner:   cfg.Runner,
		owner:    cfg.Owner,
		logger:   cfg.Logger,
		defined:  make(map[name.Name]*Artifact),
	}
	if b.finder == nil {
		b.finder = notFoundFinder{}
	}
	if b.registry == nil {
		b.registry = namespace.NewRegistry(nil)
	}
	if b.logger == nil {
		b.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if b.owner == nil {
		b.owner = b
	}
	return b
}

// SetFinder installs the search extension point. Concrete loaders
// embedding Base call this with themselves during construction,
// before the loader serves any request.
func (b *Base) SetFinder(f Finder) {
	b.finder = f
}

// SetSystem installs an explicit routing table, overriding the
// process-wide System for this loader. Call during graph wiring,
// before the loader serves any request. Needed when the loader is
// itself the platform authority behind a wrapper: the System can only
// be built after the wrapper exists.
func (b *Base) SetSystem(s *System) {
	b.system = s
}

// Registry returns the loader's namespace registry.
func (b *Base) Registry() *namespace.Registry {
	return b.registry
}

// systemRouting returns the routing table in effect for this loader.
func (b *Base) systemRouting() *System {
	if b.system != nil {
		return b.system
	}
	return ProcessSystem()
}

// bypass returns the platform authority when path matches a system
// prefix and the authority is a different loader. The authority
// itself must not bypass to itself, even when it is installed behind
// one or more forwarding wrappers.
func (b *Base) bypass(path string) Loader {
	sys := b.systemRouting()
	if sys == nil || !sys.Matches(path) {
		return nil
	}
	authority := sys.Authority()
	if isSelf(authority, b.owner) {
		return nil
	}
	return authority
}

// isSelf reports whether authority is the owner loader, seeing
// through [Wrapper] chains. A wrapped authority forwards straight
// back to its backing loader, so comparing only the outermost value
// would send the authority's own reserved-name loads into unbounded
// recursion.
func isSelf(authority, owner Loader) bool {
	for authority != nil {
		if authority == owner {
			return true
		}
		wrapper, ok := authority.(Wrapper)
		if !ok {
			return false
		}
		authority = wrapper.Unwrap()
	}
	return false
}

// Load implements [Loader].
func (b *Base) Load(n name.Name) (*Artifact, error) {
	return b.load(n, false, false)
}

// LoadExported implements [Loader].
func (b *Base) LoadExported(n name.Name) (*Artifact, error) {
	return b.load(n, true, false)
}

// LoadFlags is Load with explicit exported-only and resolve flags.
func (b *Base) LoadFlags(n name.Name, exportedOnly, resolve bool) (*Artifact, error) {
	return b.load(n, exportedOnly, resolve)
}

func (b *Base) load(n name.Name, exportedOnly, resolve bool) (*Artifact, error) {
	if _, err := name.Parse(string(n)); err != nil {
		return nil, err
	}

	// Reserved names route to the platform authority before any
	// resolution of our own. This is a read-only prefix check, never
	// a lock.
	if authority := b.bypass(string(n)); authority != nil {
		if exportedOnly {
			return authority.LoadExported(n)
		}
		return authority.Load(n)
	}

	// Array names are synthesized from the already-visible element
	// rather than looked up; the define step still forces one
	// identity per loader.
	if n.IsArray() {
		element, err := b.load(n.Element(), exportedOnly, resolve)
		if err != nil {
			return nil, err
		}
		arr := &Artifact{
			name:    n,
			owner:   b.owner,
			runner:  b.runner,
			element: element,
		}
		return b.finishLoad(b.converge(arr), resolve)
	}

	artifact, err := b.finder.FindArtifact(n, exportedOnly, resolve)
	if err != nil {
		return nil, err
	}
	return b.finishLoad(artifact, resolve)
}

func (b *Base) finishLoad(a *Artifact, resolve bool) (*Artifact, error) {
	if resolve {
		a.Link()
	}
	return a, nil
}

// DefineOrFetch atomically materializes an artifact for n from data,
// or fetches the existing one when a concurrent definer got there
// first. A lost race is never an error: both definers observe the
// same artifact identity. Only a genuine failure of the define
// primitive propagates.
func (b *Base) DefineOrFetch(n name.Name, data []byte, origin store.Origin) (*Artifact, error) {
	if _, err := name.Parse(string(n)); err != nil {
		return nil, err
	}
	if n.IsArray() {
		return nil, fmt.Errorf("define %s: array artifacts are synthesized, not defined", n)
	}
	return b.converge(&Artifact{
		name:   n,
		bytes:  data,
		digest: store.DigestOf(data),
		origin: origin,
		owner:  b.owner,
		runner: b.runner,
	}), nil
}

// Defined returns the artifact already materialized under n by this
// loader, or nil. This is the fetch half of define-or-fetch.
func (b *Base) Defined(n name.Name) *Artifact {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.defined[n]
}

// defineOutcome is the result kind of the define primitive.
type defineOutcome int

const (
	defineOK defineOutcome = iota
	defineExists
)

// defineResult is the raw outcome of the table insert: either the
// artifact was installed, or the name was already taken and existing
// holds the winner.
type defineResult struct {
	outcome  defineOutcome
	existing *Artifact
}

// define is the atomic insert-if-absent primitive. The table lock is
// held only for the map operation itself.
func (b *Base) define(a *Artifact) defineResult {
	b.mu.Lock()
	defer b.mu.Unlock()
	if existing, ok := b.defined[a.name]; ok {
		return defineResult{outcome: defineExists, existing: existing}
	}
	b.defined[a.name] = a
	return defineResult{outcome: defineOK}
}

// converge normalizes the define result into the single success
// path: the caller's artifact when the define won, the existing
// artifact when it lost the race. A lost race with differing bytes
// violates the resolution layer's contract; the first definition
// still wins, and the divergence is logged.
func (b *Base) converge(a *Artifact) *Artifact {
	result := b.define(a)
	if result.outcome == defineOK {
		return a
	}
	if result.existing.digest != a.digest {
		b.logger.Warn("definition race with differing bytes; first definition wins",
			"name", a.name,
			"kept", result.existing.digest,
			"discarded", a.digest)
	}
	return result.existing
}

// GetResource implements [Loader]: system-prefix bypass first, then
// the finder.
func (b *Base) GetResource(path string) (Resource, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty resource path", name.ErrInvalid)
	}
	if authority := b.bypass(path); authority != nil {
		return authority.GetResource(path)
	}
	return b.finder.FindResource(path, false)
}

// GetResources implements [Loader].
func (b *Base) GetResources(path string) ([]Resource, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty resource path", name.ErrInvalid)
	}
	if authority := b.bypass(path); authority != nil {
		return authority.GetResources(path)
	}
	return b.finder.FindResources(path, false)
}

// GetNamespace implements [Loader]. The ordering is fixed:
// system-prefix bypass, then the suppression check (a nested lookup
// during a platform-notifying define short-circuits to absent), then
// the local registry, then the platform authority's notion.
func (b *Base) GetNamespace(namespaceName string) *namespace.Descriptor {
	if namespaceName == "" {
		return nil
	}
	if authority := b.bypass(namespaceName + "/"); authority != nil {
		return authority.GetNamespace(namespaceName)
	}
	if b.registry.Suppressed() {
		return nil
	}
	if d := b.registry.Lookup(namespaceName); d != nil {
		return d
	}
	if sys := b.systemRouting(); sys != nil && !isSelf(sys.Authority(), b.owner) {
		return sys.Authority().GetNamespace(namespaceName)
	}
	return nil
}

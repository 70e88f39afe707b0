// Copyright 2026 The Keel Authors
// SPDX-License-Identifier: Apache-2.0

package loader

import (
	"io"

	"github.com/keel-runtime/keel/lib/name"
	"github.com/keel-runtime/keel/lib/namespace"
)

// Loader is the authority that resolves names to artifacts,
// resources, and namespaces, possibly via delegation. Delegation is
// always by composition: a loader holds references to its peers and
// calls them with none of its own locks held.
type Loader interface {
	// Load resolves name to an artifact. A name matching a system
	// prefix is routed to the platform authority before any local
	// resolution. Fails with *NotFoundError when neither the system
	// bypass nor the loader's own search succeeds.
	Load(n name.Name) (*Artifact, error)

	// LoadExported is Load restricted to exported artifacts.
	LoadExported(n name.Name) (*Artifact, error)

	// GetResource returns the resource for path, or (nil, nil) when
	// absent. Absence is a normal result, never an error.
	GetResource(path string) (Resource, error)

	// GetResources returns every visible resource for path, local
	// first, then delegates in order. The slice is finite and may be
	// empty; it is never nil on success.
	GetResources(path string) ([]Resource, error)

	// GetNamespace returns the descriptor visible for the namespace
	// name, or nil when absent.
	GetNamespace(namespaceName string) *namespace.Descriptor
}

// LocalLoader is the capability a loader exposes to peers that
// delegate to it: exported-only lookup confined to the loader's own
// store, never re-delegated. Delegate lists are transitively resolved
// by the layer above, so one hop reaches every visible loader and
// cyclic delegation graphs terminate.
type LocalLoader interface {
	// LoadLocal resolves name against this loader's own store only.
	// Unexported and absent names both fail with *NotFoundError.
	LoadLocal(n name.Name, resolve bool) (*Artifact, error)

	// ResourceLocal returns this loader's own resource for path, or
	// (nil, nil) when absent or unexported.
	ResourceLocal(path string) (Resource, error)

	// ResourcesLocal returns this loader's own resources for path.
	ResourcesLocal(path string) ([]Resource, error)
}

// Wrapper is implemented by forwarding loaders that delegate every
// operation to a backing loader. The system bypass unwraps the
// platform authority through it: a loader serving as the authority
// behind a forwarding wrapper must still recognize itself, or a
// reserved-name load would bounce between the loader and the wrapper
// forever.
type Wrapper interface {
	// Unwrap returns the loader currently behind the wrapper.
	Unwrap() Loader
}

// Resource is a named, lazily-opened content entry. Resources are
// materialized per lookup and carry no cached identity: two lookups
// of the same name may return distinct values describing the same
// entry.
type Resource interface {
	// Name is the loader-relative resource name.
	Name() string

	// Location is where the content lives (an absolute path for
	// store-backed resources).
	Location() string

	// Open returns a reader over the resource content.
	Open() (io.ReadCloser, error)
}

// Finder is the extension point concrete loaders install on [Base]:
// the findArtifact/findResource/findResources search that runs after
// the system-prefix bypass. Implementations must never call a
// delegate while holding one of their own locks.
type Finder interface {
	// FindArtifact searches for name. The default fails with
	// *NotFoundError. Implementations materialize through
	// [Base.DefineOrFetch] so concurrent definers converge.
	FindArtifact(n name.Name, exportedOnly, resolve bool) (*Artifact, error)

	// FindResource searches for a resource, (nil, nil) when absent.
	FindResource(path string, exportedOnly bool) (Resource, error)

	// FindResources enumerates resources; empty, non-nil on none.
	FindResources(path string, exportedOnly bool) ([]Resource, error)
}

// notFoundFinder is the default Finder: every artifact is absent.
type notFoundFinder struct{}

func (notFoundFinder) FindArtifact(n name.Name, exportedOnly, resolve bool) (*Artifact, error) {
	return nil, &NotFoundError{Name: n}
}

func (notFoundFinder) FindResource(path string, exportedOnly bool) (Resource, error) {
	return nil, nil
}

func (notFoundFinder) FindResources(path string, exportedOnly bool) ([]Resource, error) {
	return []Resource{}, nil
}

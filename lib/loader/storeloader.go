// Copyright 2026 The Keel Authors
// SPDX-License-Identifier: Apache-2.0

package loader

import (
	"errors"
	"log/slog"
	"slices"
	"sync/atomic"

	"github.com/keel-runtime/keel/lib/name"
	"github.com/keel-runtime/keel/lib/namespace"
	"github.com/keel-runtime/keel/lib/store"
)

// StoreLoaderConfig configures a [StoreLoader].
type StoreLoaderConfig struct {
	// Store backs the loader's own artifacts and resources. Required.
	Store *store.Store

	// Delegates is the already-resolved delegate list, consulted in
	// order after the local store. The resolution layer above hands
	// this in transitively flattened. Delegates may also be installed
	// later with [StoreLoader.SetDelegates] to close cyclic graphs.
	Delegates []LocalLoader

	// Registry is the loader's namespace registry. Nil creates one
	// with no platform table.
	Registry *namespace.Registry

	// System overrides the process-wide system routing for this
	// loader.
	System *System

	// Runner is installed on artifacts this loader materializes.
	Runner Runner

	// Exported reports whether a name is visible to delegating
	// peers. Nil exports everything.
	Exported func(n name.Name) bool

	// Logger receives operational messages.
	Logger *slog.Logger
}

// StoreLoader is a concrete delegating loader over one artifact
// store plus an ordered delegate list: local first, then delegates.
// It implements both [Loader] (the full operation surface) and
// [LocalLoader] (the store-confined capability peers delegate to).
type StoreLoader struct {
	*Base
	store     *store.Store
	exported  func(n name.Name) bool
	delegates atomic.Pointer[[]LocalLoader]
}

// NewStoreLoader creates a StoreLoader. The returned loader may be
// wired into a cyclic delegation graph via [StoreLoader.SetDelegates]
// before it serves requests.
func NewStoreLoader(cfg StoreLoaderConfig) (*StoreLoader, error) {
	if cfg.Store == nil {
		return nil, errors.New("store loader requires a store")
	}
	sl := &StoreLoader{
		store:    cfg.Store,
		exported: cfg.Exported,
	}
	sl.Base = NewBase(Config{
		Finder:   sl,
		Registry: cfg.Registry,
		System:   cfg.System,
		Runner:   cfg.Runner,
		Owner:    sl,
		Logger:   cfg.Logger,
	})
	if cfg.Delegates != nil {
		sl.SetDelegates(cfg.Delegates)
	}
	return sl, nil
}

// SetDelegates installs the delegate list, replacing any previous
// one. The list is copied and read through an atomic pointer, so no
// lock is ever held while walking it. Call during graph wiring,
// before the loader serves concurrent requests.
func (sl *StoreLoader) SetDelegates(delegates []LocalLoader) {
	copied := slices.Clone(delegates)
	sl.delegates.Store(&copied)
}

// Store returns the loader's backing store.
func (sl *StoreLoader) Store() *store.Store {
	return sl.store
}

func (sl *StoreLoader) delegateList() []LocalLoader {
	if p := sl.delegates.Load(); p != nil {
		return *p
	}
	return nil
}

func (sl *StoreLoader) isExported(n name.Name) bool {
	return sl.exported == nil || sl.exported(n)
}

// FindArtifact implements [Finder]: the loader's own store first,
// then each delegate's store-local lookup. No StoreLoader lock is
// held at any point here; materialization races are resolved inside
// DefineOrFetch.
func (sl *StoreLoader) FindArtifact(n name.Name, exportedOnly, resolve bool) (*Artifact, error) {
	if !exportedOnly || sl.isExported(n) {
		artifact, err := sl.loadFromStore(n, resolve)
		if err != nil && !IsNotFound(err) {
			return nil, err
		}
		if artifact != nil {
			return artifact, nil
		}
	}

	for _, delegate := range sl.delegateList() {
		artifact, err := delegate.LoadLocal(n, resolve)
		if err != nil {
			if IsNotFound(err) {
				continue
			}
			return nil, err
		}
		return artifact, nil
	}
	return nil, &NotFoundError{Name: n}
}

// LoadLocal implements [LocalLoader]: exported-only resolution
// against this loader's own store, no delegation, no system bypass.
func (sl *StoreLoader) LoadLocal(n name.Name, resolve bool) (*Artifact, error) {
	if _, err := name.Parse(string(n)); err != nil {
		return nil, err
	}
	if n.IsArray() || !sl.isExported(n) {
		return nil, &NotFoundError{Name: n}
	}
	artifact, err := sl.loadFromStore(n, resolve)
	if err != nil {
		return nil, err
	}
	return artifact, nil
}

// loadFromStore materializes n from the backing store. Absent names
// fail with *NotFoundError; store I/O failures propagate unchanged.
func (sl *StoreLoader) loadFromStore(n name.Name, resolve bool) (*Artifact, error) {
	if existing := sl.Defined(n); existing != nil {
		if resolve {
			existing.Link()
		}
		return existing, nil
	}

	def, err := sl.store.GetDefinition(n.Path())
	if err != nil {
		return nil, err
	}
	if def == nil {
		return nil, &NotFoundError{Name: n}
	}

	sl.ensureNamespace(n)

	artifact, err := sl.DefineOrFetch(n, def.Bytes, def.Origin)
	if err != nil {
		return nil, err
	}
	if resolve {
		artifact.Link()
	}
	return artifact, nil
}

// ensureNamespace defines the namespace of n in the loader's
// registry if absent, seeded from store metadata. Define is atomic;
// a concurrent definer's descriptor wins and that is fine.
func (sl *StoreLoader) ensureNamespace(n name.Name) {
	namespaceName := n.Namespace()
	if namespaceName == "" || sl.Registry().Lookup(namespaceName) != nil {
		return
	}
	descriptor := &namespace.Descriptor{Name: namespaceName}
	if meta := sl.store.Metadata(); meta != nil {
		descriptor.SpecTitle = meta.SpecTitle
		descriptor.SpecVersion = meta.SpecVersion
		descriptor.SpecVendor = meta.SpecVendor
		descriptor.ImplTitle = meta.ImplTitle
		descriptor.ImplVersion = meta.ImplVersion
		descriptor.ImplVendor = meta.ImplVendor
		descriptor.SealBase = meta.SealBase
	}
	sl.Registry().Define(descriptor)
}

// FindResource implements [Finder]: local store, then delegates.
func (sl *StoreLoader) FindResource(path string, exportedOnly bool) (Resource, error) {
	if !exportedOnly || sl.isExported(name.Name(path)) {
		res, err := sl.store.GetResource(path)
		if err != nil {
			return nil, err
		}
		if res != nil {
			return res, nil
		}
	}
	for _, delegate := range sl.delegateList() {
		res, err := delegate.ResourceLocal(path)
		if err != nil {
			return nil, err
		}
		if res != nil {
			return res, nil
		}
	}
	return nil, nil
}

// FindResources implements [Finder]: every match, local first, then
// delegates in order.
func (sl *StoreLoader) FindResources(path string, exportedOnly bool) ([]Resource, error) {
	resources := []Resource{}
	if !exportedOnly || sl.isExported(name.Name(path)) {
		res, err := sl.store.GetResource(path)
		if err != nil {
			return nil, err
		}
		if res != nil {
			resources = append(resources, res)
		}
	}
	for _, delegate := range sl.delegateList() {
		delegated, err := delegate.ResourcesLocal(path)
		if err != nil {
			return nil, err
		}
		resources = append(resources, delegated...)
	}
	return resources, nil
}

// ResourceLocal implements [LocalLoader].
func (sl *StoreLoader) ResourceLocal(path string) (Resource, error) {
	if !sl.isExported(name.Name(path)) {
		return nil, nil
	}
	res, err := sl.store.GetResource(path)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, nil
	}
	return res, nil
}

// ResourcesLocal implements [LocalLoader].
func (sl *StoreLoader) ResourcesLocal(path string) ([]Resource, error) {
	res, err := sl.ResourceLocal(path)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return []Resource{}, nil
	}
	return []Resource{res}, nil
}

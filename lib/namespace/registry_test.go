// Copyright 2026 The Keel Authors
// SPDX-License-Identifier: Apache-2.0

package namespace

import (
	"errors"
	"sync"
	"testing"
)

func TestDefineReturnsExisting(t *testing.T) {
	r := NewRegistry(nil)

	first := &Descriptor{Name: "app", ImplVersion: "1"}
	second := &Descriptor{Name: "app", ImplVersion: "2"}

	if got := r.Define(first); got != first {
		t.Fatalf("first Define returned %+v, want the new descriptor", got)
	}
	if got := r.Define(second); got != first {
		t.Errorf("second Define returned %+v, want the existing descriptor", got)
	}
	if got := r.Lookup("app"); got != first {
		t.Errorf("Lookup returned %+v, want the first descriptor", got)
	}
}

func TestLookupAbsent(t *testing.T) {
	r := NewRegistry(nil)
	if d := r.Lookup("nope"); d != nil {
		t.Errorf("Lookup of absent namespace = %+v, want nil", d)
	}
}

func TestConcurrentDefinersConverge(t *testing.T) {
	r := NewRegistry(nil)

	const definers = 32
	results := make([]*Descriptor, definers)
	var start, done sync.WaitGroup
	start.Add(1)
	done.Add(definers)
	for i := 0; i < definers; i++ {
		i := i
		go func() {
			defer done.Done()
			start.Wait()
			results[i] = r.Define(&Descriptor{Name: "app", ImplTitle: "racer"})
		}()
	}
	start.Done()
	done.Wait()

	for i := 1; i < definers; i++ {
		if results[i] != results[0] {
			t.Fatalf("definer %d observed a different descriptor instance", i)
		}
	}
}

// callbackTable records suppression state observed during the
// platform callback, simulating a platform that calls back into the
// registry from inside its own define.
type callbackTable struct {
	registry       *Registry
	sawSuppressed  bool
	lookupInside   *Descriptor
	lookupHappened bool
}

func (c *callbackTable) DefineNamespace(d *Descriptor) (*Descriptor, error) {
	c.sawSuppressed = c.registry.Suppressed()
	c.lookupInside = c.registry.Lookup(d.Name)
	c.lookupHappened = true
	return d, nil
}

func TestDefineArmsSuppression(t *testing.T) {
	table := &callbackTable{}
	r := NewRegistry(table)
	table.registry = r

	if r.Suppressed() {
		t.Fatal("Suppressed before any Define")
	}

	d := r.Define(&Descriptor{Name: "app"})
	if d == nil {
		t.Fatal("Define returned nil")
	}
	if !table.sawSuppressed {
		t.Error("platform callback did not observe suppression")
	}
	if !table.lookupHappened {
		t.Fatal("platform callback never ran")
	}
	if table.lookupInside != nil {
		t.Error("nested lookup during define saw a descriptor, want absent")
	}
	if r.Suppressed() {
		t.Error("Suppressed still set after Define returned")
	}
}

func TestSuppressionScopedToGoroutine(t *testing.T) {
	otherSuppressed := make(chan bool, 1)
	var r *Registry
	table := platformFunc(func(d *Descriptor) (*Descriptor, error) {
		// From a different goroutine the flag must not be visible.
		ready := make(chan struct{})
		go func() {
			otherSuppressed <- r.Suppressed()
			close(ready)
		}()
		<-ready
		return d, nil
	})
	r = NewRegistry(table)

	r.Define(&Descriptor{Name: "app"})
	if <-otherSuppressed {
		t.Error("suppression leaked to another goroutine")
	}
}

type platformFunc func(*Descriptor) (*Descriptor, error)

func (f platformFunc) DefineNamespace(d *Descriptor) (*Descriptor, error) {
	return f(d)
}

func TestDefineAdoptsPlatformExisting(t *testing.T) {
	table := NewSharedTable()
	platformDesc, err := table.DefineNamespace(&Descriptor{Name: "app", ImplVendor: "platform"})
	if err != nil {
		t.Fatalf("seeding shared table: %v", err)
	}

	r := NewRegistry(table)
	got := r.Define(&Descriptor{Name: "app", ImplVendor: "local"})
	if got != platformDesc {
		t.Errorf("Define = %+v, want the platform's existing descriptor", got)
	}
}

func TestSharedTableAlreadyDefined(t *testing.T) {
	table := NewSharedTable()
	first := &Descriptor{Name: "app"}
	if _, err := table.DefineNamespace(first); err != nil {
		t.Fatalf("first define: %v", err)
	}

	got, err := table.DefineNamespace(&Descriptor{Name: "app"})
	if !errors.Is(err, ErrAlreadyDefined) {
		t.Errorf("err = %v, want ErrAlreadyDefined", err)
	}
	if got != first {
		t.Errorf("got %+v, want the first descriptor", got)
	}
	if table.Lookup("app") != first {
		t.Error("Lookup does not return the first descriptor")
	}
}

func TestPlatformFailureStillDefinesLocally(t *testing.T) {
	table := platformFunc(func(d *Descriptor) (*Descriptor, error) {
		return nil, errors.New("platform unavailable")
	})
	r := NewRegistry(table)

	local := &Descriptor{Name: "app"}
	got := r.Define(local)
	if got != local {
		t.Errorf("Define = %+v, want the local descriptor", got)
	}
	if r.Lookup("app") != local {
		t.Error("local registry missing the descriptor")
	}
}

func TestAllSnapshot(t *testing.T) {
	r := NewRegistry(nil)
	if got := r.All(); len(got) != 0 {
		t.Fatalf("All on empty registry = %v, want empty", got)
	}

	app := r.Define(&Descriptor{Name: "app"})
	vendor := r.Define(&Descriptor{Name: "vendor"})

	got := r.All()
	if len(got) != 2 {
		t.Fatalf("All returned %d descriptors, want 2", len(got))
	}
	seen := map[string]*Descriptor{}
	for _, d := range got {
		seen[d.Name] = d
	}
	if seen["app"] != app || seen["vendor"] != vendor {
		t.Error("All snapshot does not hold the defined descriptor instances")
	}
}

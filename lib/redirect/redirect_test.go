// Copyright 2026 The Keel Authors
// SPDX-License-Identifier: Apache-2.0

package redirect

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/keel-runtime/keel/lib/loader"
	"github.com/keel-runtime/keel/lib/name"
	"github.com/keel-runtime/keel/lib/namespace"
	"github.com/keel-runtime/keel/lib/store"
)

// stubLoader answers every load with one fixed artifact identity.
type stubLoader struct {
	base *loader.Base
}

func newStubLoader(t *testing.T) *stubLoader {
	t.Helper()
	return &stubLoader{base: loader.NewBase(loader.Config{})}
}

func (s *stubLoader) Load(n name.Name) (*loader.Artifact, error) {
	return s.base.DefineOrFetch(n, nil, store.Origin{})
}

func (s *stubLoader) LoadExported(n name.Name) (*loader.Artifact, error) {
	return s.Load(n)
}

func (s *stubLoader) GetResource(path string) (loader.Resource, error) {
	return nil, nil
}

func (s *stubLoader) GetResources(path string) ([]loader.Resource, error) {
	return []loader.Resource{}, nil
}

func (s *stubLoader) GetNamespace(namespaceName string) *namespace.Descriptor {
	return nil
}

func TestRedirectorForwards(t *testing.T) {
	first := newStubLoader(t)
	r := New(first)

	a, err := r.Load("app/main")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	direct, err := first.Load("app/main")
	if err != nil {
		t.Fatal(err)
	}
	if a != direct {
		t.Error("redirected load did not reach the backing loader")
	}
}

func TestChangeDefaultSwaps(t *testing.T) {
	first := newStubLoader(t)
	second := newStubLoader(t)
	r := New(first)

	before, err := r.Load("app/main")
	if err != nil {
		t.Fatal(err)
	}

	r.ChangeDefault(second)
	after, err := r.Load("app/main")
	if err != nil {
		t.Fatal(err)
	}
	if before == after {
		t.Error("load after ChangeDefault still reached the old backing")
	}
	if r.Default() != loader.Loader(second) {
		t.Error("Default does not return the new backing")
	}
}

// newStoreLoader builds a real store-backed loader over the given
// entries.
func newStoreLoader(t *testing.T, entries map[string][]byte) *loader.StoreLoader {
	t.Helper()
	root := t.TempDir()
	for entryName, data := range entries {
		path := filepath.Join(root, filepath.FromSlash(entryName))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir for %s: %v", entryName, err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatalf("write %s: %v", entryName, err)
		}
	}
	st, err := store.Open(root, store.Options{})
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	sl, err := loader.NewStoreLoader(loader.StoreLoaderConfig{Store: st})
	if err != nil {
		t.Fatalf("creating loader: %v", err)
	}
	return sl
}

// TestRedirectorAsSystemAuthority wires the routing table the way the
// launcher does: the authority module's loader installed behind a
// Redirector. The authority must still recognize itself through the
// wrapper; otherwise its own reserved-name operations bounce between
// loader and Redirector without terminating.
func TestRedirectorAsSystemAuthority(t *testing.T) {
	authority := newStoreLoader(t, map[string][]byte{
		"sys/core": []byte("platform core"),
	})
	r := New(authority)
	sys, err := loader.NewSystem(r, []string{"sys/"})
	if err != nil {
		t.Fatal(err)
	}
	authority.SetSystem(sys)

	a, err := authority.Load("sys/core")
	if err != nil {
		t.Fatalf("authority load of reserved name failed: %v", err)
	}
	if !bytes.Equal(a.Bytes(), []byte("platform core")) {
		t.Error("reserved load returned wrong definition")
	}
	if res, err := authority.GetResource("sys/core"); err != nil || res == nil {
		t.Fatalf("authority resource lookup = (%v, %v), want a resource", res, err)
	}
	if d := authority.GetNamespace("absent"); d != nil {
		t.Errorf("absent namespace = %+v, want nil", d)
	}

	// Consumers reach the authority through the Redirector, and the
	// identity stays single platform-wide.
	consumer := newStoreLoader(t, map[string][]byte{
		"sys/core": []byte("local impostor"),
	})
	consumer.SetSystem(sys)
	b, err := consumer.Load("sys/core")
	if err != nil {
		t.Fatalf("consumer load failed: %v", err)
	}
	if b != a {
		t.Error("consumer observed a different reserved artifact identity")
	}

	if r.Unwrap() != loader.Loader(authority) {
		t.Error("Unwrap does not expose the backing loader")
	}
}

func TestConcurrentSwapNeverObservesNil(t *testing.T) {
	first := newStubLoader(t)
	second := newStubLoader(t)
	r := New(first)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			if i%2 == 0 {
				r.ChangeDefault(second)
			} else {
				r.ChangeDefault(first)
			}
		}
	}()

	for i := 0; i < 1000; i++ {
		if _, err := r.Load("app/main"); err != nil {
			t.Fatalf("Load during swap failed: %v", err)
		}
	}
	close(stop)
	wg.Wait()
}

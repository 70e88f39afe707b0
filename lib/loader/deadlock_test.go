// Copyright 2026 The Keel Authors
// SPDX-License-Identifier: Apache-2.0

package loader

import (
	"sync"
	"testing"
	"time"

	"github.com/keel-runtime/keel/lib/testutil"
)

// TestCrossDelegationNoDeadlock loads through a cyclic delegation
// graph from both sides at once: L1 delegates to L2 for name A while
// L2 delegates to L1 for name B. A naive hierarchical loader holding
// its own lock across the delegate call would deadlock here; the
// define-or-fetch discipline must complete both loads in bounded
// time.
func TestCrossDelegationNoDeadlock(t *testing.T) {
	l1 := newTestLoader(t, map[string][]byte{"one/b": []byte("B lives in L1")}, StoreLoaderConfig{})
	l2 := newTestLoader(t, map[string][]byte{"two/a": []byte("A lives in L2")}, StoreLoaderConfig{})
	l1.SetDelegates([]LocalLoader{l2})
	l2.SetDelegates([]LocalLoader{l1})

	const rounds = 200
	done := make(chan struct{})
	go func() {
		defer close(done)
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for r := 0; r < rounds; r++ {
				if _, err := l1.Load("two/a"); err != nil {
					t.Errorf("L1 load of A failed: %v", err)
					return
				}
			}
		}()
		go func() {
			defer wg.Done()
			for r := 0; r < rounds; r++ {
				if _, err := l2.Load("one/b"); err != nil {
					t.Errorf("L2 load of B failed: %v", err)
					return
				}
			}
		}()
		wg.Wait()
	}()

	testutil.RequireClosed(t, done, 10*time.Second, "cross-delegating loads to complete")
}

// TestConcurrentDelegatedLoadsConverge hammers one delegated name
// from many goroutines on both loaders and checks that every caller
// observes the single identity materialized by the owning loader.
func TestConcurrentDelegatedLoadsConverge(t *testing.T) {
	owner := newTestLoader(t, map[string][]byte{"dep/core": []byte("payload")}, StoreLoaderConfig{})
	borrower := newTestLoader(t, nil, StoreLoaderConfig{Delegates: []LocalLoader{owner}})

	const callers = 32
	results := make([]*Artifact, 2*callers)
	errs := make([]error, 2*callers)
	var start, doneGroup sync.WaitGroup
	start.Add(1)
	doneGroup.Add(2 * callers)
	for i := 0; i < callers; i++ {
		i := i
		go func() {
			defer doneGroup.Done()
			start.Wait()
			results[i], errs[i] = owner.Load("dep/core")
		}()
		go func() {
			defer doneGroup.Done()
			start.Wait()
			results[callers+i], errs[callers+i] = borrower.Load("dep/core")
		}()
	}
	start.Done()

	done := make(chan struct{})
	go func() {
		doneGroup.Wait()
		close(done)
	}()
	testutil.RequireClosed(t, done, 10*time.Second, "concurrent loads to complete")

	for i, err := range errs {
		if err != nil {
			t.Fatalf("caller %d failed: %v", i, err)
		}
		if results[i] != results[0] {
			t.Fatalf("caller %d observed a different artifact identity", i)
		}
	}
}

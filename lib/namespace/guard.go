// Copyright 2026 The Keel Authors
// SPDX-License-Identifier: Apache-2.0

package namespace

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
)

// reentrancyGuard tracks which goroutines are currently inside a
// platform-notifying Define call. Lookups made from those goroutines
// short-circuit to absent instead of re-entering delegating lookup,
// which could otherwise acquire the shared platform table lock the
// platform already holds while calling back in.
//
// Go has no goroutine-local storage, so the guard keys its state on
// the goroutine ID parsed from the runtime stack header. Enter
// returns a release function that must run on every exit path.
type reentrancyGuard struct {
	mu     sync.Mutex
	active map[uint64]int
}

func newReentrancyGuard() *reentrancyGuard {
	return &reentrancyGuard{active: make(map[uint64]int)}
}

// enter marks the current goroutine as suppressed and returns the
// release function. Nested enters on the same goroutine are counted.
func (g *reentrancyGuard) enter() func() {
	id := goroutineID()
	g.mu.Lock()
	g.active[id]++
	g.mu.Unlock()

	return func() {
		g.mu.Lock()
		g.active[id]--
		if g.active[id] <= 0 {
			delete(g.active, id)
		}
		g.mu.Unlock()
	}
}

// held reports whether the current goroutine is inside a guarded
// section.
func (g *reentrancyGuard) held() bool {
	id := goroutineID()
	g.mu.Lock()
	_, ok := g.active[id]
	g.mu.Unlock()
	return ok
}

// goroutineID parses the numeric ID from the first line of the
// current goroutine's stack trace ("goroutine 42 [running]:").
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	header := bytes.TrimPrefix(buf[:n], []byte("goroutine "))
	end := bytes.IndexByte(header, ' ')
	if end < 0 {
		return 0
	}
	id, err := strconv.ParseUint(string(header[:end]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

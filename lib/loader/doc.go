// Copyright 2026 The Keel Authors
// SPDX-License-Identifier: Apache-2.0

// Package loader implements the concurrent delegating loader at the
// heart of the keel runtime: load-by-name over a graph of cooperating
// loaders, atomic define-or-fetch, delegation-aware resource lookup,
// and system-prefix routing to the process-wide platform authority.
//
// The governing rule is that no operation ever holds a lock owned by
// one loader while invoking an operation on another. Delegation is
// structured to make that property hold by construction:
//
//   - The artifact table lock is only held inside the define
//     primitive, never across store I/O or a delegate call.
//   - Delegate lists are immutable snapshots read through an atomic
//     pointer, so walking them takes no lock at all.
//   - System-prefix routing is a read-only check against an immutable
//     prefix set, not a call into a possibly-locked peer.
//   - Races on "materialize from bytes" are resolved by retrying the
//     fetch rather than by mutual exclusion: concurrent definers of
//     one name converge on a single artifact identity and never see
//     a conflict.
//
// Delegation between peer loaders goes through [LocalLoader], an
// exported-only lookup confined to the peer's own store. Delegate
// lists arrive already transitively resolved from the layer above, so
// a single hop reaches every visible loader and cyclic graphs (L1
// delegating to L2 and L2 back to L1) terminate trivially.
//
// All public operations are safe for unsynchronized concurrent use.
// Blocking happens only for genuine store I/O. There is no
// cancellation at this layer; operations run to completion or error.
package loader

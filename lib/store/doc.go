// Copyright 2026 The Keel Authors
// SPDX-License-Identifier: Apache-2.0

// Package store implements the artifact store: name-indexed access to
// definition bytes and resources under a directory root, with an
// optional persisted path index.
//
// Lookups distinguish "absent" from "failed": a missing entry is a
// normal (nil, nil) result, while an I/O failure surfaces as an
// [*IOError] and leaves the store unmodified. Definitions may be
// stored compressed (".zst" or ".lz4" suffix); reads are transparent
// and the definition digest is always computed over the uncompressed
// payload.
//
// ListPaths enumerates the directory-like prefixes under the root. A
// sidecar index file at "<root>.index" (one relative path per line,
// the empty root entry first) is trusted verbatim when present; there
// is no freshness check against the current tree. This is an
// intentional trade-off: stores are treated as immutable once indexed,
// and a stale index is repaired by deleting the sidecar. When no
// sidecar exists the tree is walked once and, if persistence is
// enabled, the result is written back atomically. A failed write is
// logged and swallowed; the computed list is still returned and is
// never retained in memory between calls.
//
// A second sidecar, "<root>.meta", carries CBOR-encoded store
// metadata: default namespace descriptor fields (spec/impl
// title-version-vendor) and the signer identity attached to
// definitions originating from this store.
package store

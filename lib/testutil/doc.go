// Copyright 2026 The Keel Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for keel packages.
//
// [RequireReceive], [RequireSend], and [RequireClosed] encapsulate
// the timeout safety valve pattern (select with time.After fallback)
// so that individual tests do not need direct time.After calls. The
// loader deadlock-freedom tests rely on them: a cross-delegation hang
// fails the test within the timeout instead of hanging the suite.
package testutil

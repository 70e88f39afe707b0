// Copyright 2026 The Keel Authors
// SPDX-License-Identifier: Apache-2.0

package name

import "errors"

// ErrInvalid is wrapped by every validation failure in this package.
// Callers test for it with errors.Is.
var ErrInvalid = errors.New("invalid artifact name")

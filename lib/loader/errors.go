// Copyright 2026 The Keel Authors
// SPDX-License-Identifier: Apache-2.0

package loader

import (
	"errors"
	"fmt"

	"github.com/keel-runtime/keel/lib/name"
)

// NotFoundError reports that a name was absent from the loader's own
// store and every delegate. It is the recoverable "keep looking
// elsewhere" outcome, distinct from store I/O failures which
// propagate as-is.
type NotFoundError struct {
	Name name.Name
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("artifact not found: %s", e.Name)
}

// IsNotFound reports whether err is (or wraps) a *NotFoundError.
func IsNotFound(err error) bool {
	var notFound *NotFoundError
	return errors.As(err, &notFound)
}

// Copyright 2026 The Keel Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/keel-runtime/keel/lib/loader"
)

// execRunner runs a materialized artifact as a child process. The
// artifact bytes are written to a private temporary file, made
// executable, and executed with the launcher's stdio. The temporary
// directory is removed when the process exits.
type execRunner struct {
	logger *slog.Logger
}

func (r *execRunner) Run(artifact *loader.Artifact, args []string) error {
	dir, err := os.MkdirTemp("", "keel-entry-")
	if err != nil {
		return fmt.Errorf("staging entry: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, artifact.Name().Local())
	if err := os.WriteFile(path, artifact.Bytes(), 0o700); err != nil {
		return fmt.Errorf("staging entry %s: %w", artifact.Name(), err)
	}

	cmd := exec.Command(path, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	r.logger.Debug("exec entry", "name", artifact.Name(), "args", args)
	err = cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &exitCodeError{name: string(artifact.Name()), code: exitErr.ExitCode()}
	}
	if err != nil {
		return fmt.Errorf("running entry %s: %w", artifact.Name(), err)
	}
	return nil
}

// exitCodeError carries a child process exit status up to main so the
// launcher can mirror it.
type exitCodeError struct {
	name string
	code int
}

func (e *exitCodeError) Error() string {
	return fmt.Sprintf("entry %s exited with status %d", e.name, e.code)
}

func (e *exitCodeError) ExitCode() int {
	return e.code
}

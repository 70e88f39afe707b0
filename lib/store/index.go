// Copyright 2026 The Keel Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
)

const (
	indexSuffix = ".index"
	metaSuffix  = ".meta"
)

// walkCounter counts full tree walks. Read by tests to verify that a
// persisted index short-circuits the walk.
type walkCounter struct {
	count atomic.Int64
}

// ListPaths returns the directory-like prefixes under the store root:
// the root itself ("") first, then every directory in depth-first
// order. A "<root>.index" sidecar, when present and readable, is
// returned verbatim with no freshness check. Otherwise the tree is
// walked once; with persistence enabled the result is then written to
// the sidecar. The list is recomputed on every call; it is
// deliberately not cached in memory, so the sidecar stays the only
// second source of truth.
func (s *Store) ListPaths() ([]string, error) {
	if paths, ok := s.readIndex(); ok {
		return paths, nil
	}

	paths, err := s.walkPaths()
	if err != nil {
		return nil, err
	}

	if s.persistIndex {
		s.writeIndex(paths)
	}
	return paths, nil
}

// readIndex reads the sidecar index. The second result is false when
// the sidecar is absent or unreadable, which triggers a rebuild.
func (s *Store) readIndex() ([]string, bool) {
	data, err := os.ReadFile(s.root + indexSuffix)
	if err != nil {
		if !isAbsent(err) {
			s.logger.Warn("unreadable path index, rebuilding",
				"store", s.root, "error", err)
		}
		return nil, false
	}

	lines := strings.Split(string(data), "\n")
	// A trailing newline produces one empty final element; only the
	// first line may legitimately be empty (the root entry).
	if len(lines) > 1 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	paths := make([]string, len(lines))
	for i, line := range lines {
		paths[i] = strings.TrimSpace(line)
	}
	return paths, true
}

// walkPaths computes the path list by walking the tree once,
// collecting directories only.
func (s *Store) walkPaths() ([]string, error) {
	s.walks.count.Add(1)

	paths := []string{""}
	err := filepath.WalkDir(s.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() || path == s.root {
			return nil
		}
		relative, relErr := filepath.Rel(s.root, path)
		if relErr != nil {
			return relErr
		}
		paths = append(paths, filepath.ToSlash(relative))
		return nil
	})
	if err != nil {
		return nil, &IOError{Op: "list", Path: s.root, Err: err}
	}
	return paths, nil
}

// writeIndex persists the path list to the sidecar, one path per
// line. The write is atomic (temp file + rename). Persistence is
// best-effort: any failure is logged, the partial file is removed,
// and the caller still gets the computed list.
func (s *Store) writeIndex(paths []string) {
	indexPath := s.root + indexSuffix
	tmpPath := indexPath + ".tmp"

	var builder strings.Builder
	for _, path := range paths {
		builder.WriteString(path)
		builder.WriteByte('\n')
	}

	if err := os.WriteFile(tmpPath, []byte(builder.String()), 0o644); err != nil {
		s.logger.Warn("path index persist failed",
			"store", s.root, "error", err)
		os.Remove(tmpPath)
		return
	}
	if err := os.Rename(tmpPath, indexPath); err != nil {
		s.logger.Warn("path index persist failed",
			"store", s.root, "error", err)
		os.Remove(tmpPath)
	}
}

// walkCount returns the number of full tree walks performed so far.
func (s *Store) walkCount() int64 {
	return s.walks.count.Load()
}

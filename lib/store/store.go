// Copyright 2026 The Keel Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// Options configures a Store.
type Options struct {
	// PersistIndex enables writing the computed path index to the
	// "<root>.index" sidecar after a tree walk. Reads of an existing
	// sidecar happen regardless of this setting.
	PersistIndex bool

	// Logger receives operational messages (index persistence
	// failures). If nil, a no-op logger is used.
	Logger *slog.Logger
}

// Store provides name-indexed access to the artifacts under one
// directory root. All methods are safe for concurrent use; the store
// holds no mutable state between calls.
type Store struct {
	root         string
	persistIndex bool
	logger       *slog.Logger
	meta         *Metadata

	walks walkCounter
}

// Open opens a store rooted at the given directory. The directory
// must exist. The "<root>.meta" metadata sidecar is read if present;
// a sidecar that exists but cannot be decoded is an I/O failure, not
// an absent one.
func Open(root string, opts Options) (*Store, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, &IOError{Op: "open", Path: root, Err: err}
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, &IOError{Op: "open", Path: absRoot, Err: err}
	}
	if !info.IsDir() {
		return nil, &IOError{Op: "open", Path: absRoot, Err: errors.New("not a directory")}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	meta, err := readMetadata(absRoot + metaSuffix)
	if err != nil {
		return nil, err
	}

	return &Store{
		root:         absRoot,
		persistIndex: opts.PersistIndex,
		logger:       logger,
		meta:         meta,
	}, nil
}

// Root returns the absolute store root path.
func (s *Store) Root() string {
	return s.root
}

// Metadata returns the store metadata, or nil when the store has no
// "<root>.meta" sidecar.
func (s *Store) Metadata() *Metadata {
	return s.meta
}

// Definition is the immutable payload of one artifact as stored.
type Definition struct {
	// Name is the store-relative artifact name.
	Name string

	// Bytes is the uncompressed definition payload.
	Bytes []byte

	// Digest is the BLAKE3 digest of Bytes.
	Digest Digest

	// Origin records where the definition came from.
	Origin Origin
}

// Origin records the provenance of a definition.
type Origin struct {
	// StoreRoot is the absolute root of the store that supplied the
	// definition.
	StoreRoot string

	// Path is the root-relative on-disk path, including any
	// compression suffix.
	Path string

	// Signer is the signing identity from store metadata, or "".
	Signer string
}

// GetDefinition returns the definition stored under name, or
// (nil, nil) when no entry exists. The name is probed as a plain
// file first, then as ".zst" and ".lz4" compressed variants.
func (s *Store) GetDefinition(name string) (*Definition, error) {
	relative, err := s.entryPath(name)
	if err != nil {
		return nil, err
	}

	for _, tag := range probeOrder {
		onDisk := relative + tag.suffix()
		raw, err := os.ReadFile(filepath.Join(s.root, onDisk))
		if err != nil {
			if isAbsent(err) {
				continue
			}
			return nil, &IOError{Op: "definition", Path: onDisk, Err: err}
		}

		data, err := decompress(raw, tag)
		if err != nil {
			return nil, &IOError{Op: "definition", Path: onDisk, Err: err}
		}

		signer := ""
		if s.meta != nil {
			signer = s.meta.Signer
		}
		return &Definition{
			Name:   name,
			Bytes:  data,
			Digest: DigestOf(data),
			Origin: Origin{
				StoreRoot: s.root,
				Path:      onDisk,
				Signer:    signer,
			},
		}, nil
	}
	return nil, nil
}

// Resource is a lazily-opened store entry. The content is not read
// until Open is called; the resource itself is only a name and a
// locator.
type Resource struct {
	name string
	path string
	tag  CompressionTag
}

// Name returns the store-relative resource name.
func (r *Resource) Name() string {
	return r.name
}

// Location returns the absolute on-disk path of the backing entry,
// including any compression suffix.
func (r *Resource) Location() string {
	return r.path
}

// Open returns a reader over the uncompressed resource content.
func (r *Resource) Open() (io.ReadCloser, error) {
	file, err := os.Open(r.path)
	if err != nil {
		return nil, &IOError{Op: "resource", Path: r.path, Err: err}
	}
	reader, err := decompressStream(file, r.tag)
	if err != nil {
		return nil, &IOError{Op: "resource", Path: r.path, Err: err}
	}
	return reader, nil
}

// GetResource returns the resource stored under name, or (nil, nil)
// when no entry exists. Content access is deferred to [Resource.Open].
func (s *Store) GetResource(name string) (*Resource, error) {
	relative, err := s.entryPath(name)
	if err != nil {
		return nil, err
	}

	for _, tag := range probeOrder {
		onDisk := relative + tag.suffix()
		full := filepath.Join(s.root, onDisk)
		info, err := os.Stat(full)
		if err != nil {
			if isAbsent(err) {
				continue
			}
			return nil, &IOError{Op: "resource", Path: onDisk, Err: err}
		}
		if info.IsDir() {
			continue
		}
		return &Resource{name: name, path: full, tag: tag}, nil
	}
	return nil, nil
}

// Put writes a definition or resource under name using the given
// compression tag, creating parent directories as needed. Put is the
// population path used by store tooling and tests; it is not part of
// the loader-facing read contract.
func (s *Store) Put(name string, data []byte, tag CompressionTag) error {
	relative, err := s.entryPath(name)
	if err != nil {
		return err
	}

	encoded, err := compress(data, tag)
	if err != nil {
		return &IOError{Op: "put", Path: relative, Err: err}
	}

	full := filepath.Join(s.root, relative+tag.suffix())
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return &IOError{Op: "put", Path: relative, Err: err}
	}
	if err := os.WriteFile(full, encoded, 0o644); err != nil {
		return &IOError{Op: "put", Path: relative, Err: err}
	}
	return nil
}

// entryPath validates name as a store-relative path and converts it
// to the platform path form. Validation happens before any I/O.
func (s *Store) entryPath(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: empty name", ErrInvalidPath)
	}
	if strings.HasPrefix(name, "/") || filepath.IsAbs(name) {
		return "", fmt.Errorf("%w: %q is absolute", ErrInvalidPath, name)
	}
	cleaned := filepath.Clean(filepath.FromSlash(name))
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q escapes the store root", ErrInvalidPath, name)
	}
	return cleaned, nil
}

// isAbsent reports whether err means "no such entry" as opposed to a
// genuine I/O failure. A path component that exists as a regular file
// (ENOTDIR while probing below it) is also an absent entry.
func isAbsent(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR)
}

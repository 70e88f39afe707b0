// Copyright 2026 The Keel Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMetadataRoundtrip(t *testing.T) {
	root := filepath.Join(t.TempDir(), "store")
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatal(err)
	}

	meta := &Metadata{
		SpecTitle:   "keel/runtime",
		SpecVersion: "1.2",
		SpecVendor:  "keel",
		ImplTitle:   "app",
		ImplVersion: "0.9.1",
		ImplVendor:  "example",
		Signer:      "release-key-1",
	}
	if err := WriteMetadata(root, meta); err != nil {
		t.Fatalf("WriteMetadata failed: %v", err)
	}

	s, err := Open(root, Options{})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	got := s.Metadata()
	if got == nil {
		t.Fatal("Metadata is nil after writing sidecar")
	}
	if *got != *meta {
		t.Errorf("Metadata = %+v, want %+v", got, meta)
	}
}

func TestMetadataAbsent(t *testing.T) {
	s := newTestStore(t, Options{})
	if s.Metadata() != nil {
		t.Error("Metadata non-nil without sidecar")
	}
}

func TestMetadataCorruptIsIOError(t *testing.T) {
	root := filepath.Join(t.TempDir(), "store")
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(root+metaSuffix, []byte("not cbor at all"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Open(root, Options{})
	if err == nil {
		t.Fatal("Open succeeded with corrupt metadata")
	}
	if !IsIO(err) {
		t.Errorf("error %v is not an IOError", err)
	}
}

func TestDefinitionCarriesSigner(t *testing.T) {
	root := filepath.Join(t.TempDir(), "store")
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := WriteMetadata(root, &Metadata{Signer: "release-key-1"}); err != nil {
		t.Fatal(err)
	}

	s, err := Open(root, Options{})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := s.Put("app/main", []byte("payload"), CompressionNone); err != nil {
		t.Fatal(err)
	}

	def, err := s.GetDefinition("app/main")
	if err != nil || def == nil {
		t.Fatalf("GetDefinition = (%v, %v)", def, err)
	}
	if def.Origin.Signer != "release-key-1" {
		t.Errorf("Origin.Signer = %q, want release-key-1", def.Origin.Signer)
	}
}

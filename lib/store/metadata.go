// Copyright 2026 The Keel Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"os"

	"github.com/fxamacker/cbor/v2"
)

// Metadata is the optional per-store descriptor sidecar, CBOR-encoded
// at "<root>.meta". It supplies the default namespace descriptor
// fields for artifacts defined from this store and the signer
// identity recorded in definition origins.
//
// Struct fields use json tags; fxamacker/cbor falls back to json
// tags, so the same types work for both encodings.
type Metadata struct {
	// SpecTitle, SpecVersion, and SpecVendor describe the
	// specification the store's namespaces implement.
	SpecTitle   string `json:"spec_title,omitempty"`
	SpecVersion string `json:"spec_version,omitempty"`
	SpecVendor  string `json:"spec_vendor,omitempty"`

	// ImplTitle, ImplVersion, and ImplVendor describe the
	// implementation packaged in the store.
	ImplTitle   string `json:"impl_title,omitempty"`
	ImplVersion string `json:"impl_version,omitempty"`
	ImplVendor  string `json:"impl_vendor,omitempty"`

	// SealBase, when non-empty, seals namespaces defined from this
	// store to the given origin.
	SealBase string `json:"seal_base,omitempty"`

	// Signer is the signing identity attached to definitions read
	// from this store.
	Signer string `json:"signer,omitempty"`
}

// metaEncMode is the deterministic CBOR encoding mode used for the
// metadata sidecar, matching RFC 8949 Core Deterministic Encoding.
var metaEncMode cbor.EncMode

func init() {
	var err error
	metaEncMode, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic("store: CBOR encoding mode initialization failed: " + err.Error())
	}
}

// readMetadata loads the metadata sidecar at path. An absent sidecar
// is (nil, nil); a sidecar that exists but cannot be read or decoded
// is an I/O failure.
func readMetadata(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if isAbsent(err) {
			return nil, nil
		}
		return nil, &IOError{Op: "metadata", Path: path, Err: err}
	}

	var meta Metadata
	if err := cbor.Unmarshal(data, &meta); err != nil {
		return nil, &IOError{Op: "metadata", Path: path, Err: err}
	}
	return &meta, nil
}

// WriteMetadata writes the metadata sidecar for the store rooted at
// root. This is store population tooling, the counterpart of
// [Store.Put]; open stores read metadata once at [Open].
func WriteMetadata(root string, meta *Metadata) error {
	data, err := metaEncMode.Marshal(meta)
	if err != nil {
		return &IOError{Op: "metadata", Path: root + metaSuffix, Err: err}
	}
	if err := os.WriteFile(root+metaSuffix, data, 0o644); err != nil {
		return &IOError{Op: "metadata", Path: root + metaSuffix, Err: err}
	}
	return nil
}

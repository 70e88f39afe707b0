// Copyright 2026 The Keel Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Digest is the 32-byte BLAKE3 digest of a definition's uncompressed
// bytes. It is the artifact's byte identity: two definitions with the
// same name and the same digest are the same artifact.
type Digest [32]byte

// definitionDomainKey is the BLAKE3 keyed-hash domain for definition
// digests. A fixed constant: changing it invalidates every recorded
// digest. The value is the ASCII domain name zero-padded to 32 bytes
// so it stays readable in hex dumps.
var definitionDomainKey = [32]byte{
	'k', 'e', 'e', 'l', '.', 's', 't', 'o', 'r', 'e', '.',
	'd', 'e', 'f', 'i', 'n', 'i', 't', 'i', 'o', 'n', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// DigestOf computes the definition-domain digest of data.
func DigestOf(data []byte) Digest {
	hasher, err := blake3.NewKeyed(definitionDomainKey[:])
	if err != nil {
		// NewKeyed only fails for a wrong key length, which the
		// fixed-size array rules out.
		panic("store: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(data)
	var digest Digest
	copy(digest[:], hasher.Sum(nil))
	return digest
}

// String returns the hex encoding of the digest.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Copyright 2026 The Keel Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// CompressionTag identifies how an entry is stored on disk. The tag is
// derived from the file suffix; reads decompress transparently.
type CompressionTag uint8

const (
	// CompressionNone indicates a plain file.
	CompressionNone CompressionTag = 0

	// CompressionZstd indicates a zstd frame (".zst" suffix). Better
	// ratios for text-like definitions.
	CompressionZstd CompressionTag = 1

	// CompressionLZ4 indicates an LZ4 frame (".lz4" suffix). Fast
	// default for binary payloads.
	CompressionLZ4 CompressionTag = 2
)

// String returns the human-readable name of a compression tag.
func (tag CompressionTag) String() string {
	switch tag {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("unknown(%d)", tag)
	}
}

// ParseCompressionTag parses a compression tag from its string
// representation.
func ParseCompressionTag(s string) (CompressionTag, error) {
	switch s {
	case "none", "":
		return CompressionNone, nil
	case "zstd":
		return CompressionZstd, nil
	case "lz4":
		return CompressionLZ4, nil
	default:
		return 0, fmt.Errorf("unknown compression tag: %q", s)
	}
}

// suffix returns the filename suffix for the tag ("" for none).
func (tag CompressionTag) suffix() string {
	switch tag {
	case CompressionZstd:
		return ".zst"
	case CompressionLZ4:
		return ".lz4"
	default:
		return ""
	}
}

// probeOrder is the lookup order for a name: the plain file first,
// then the compressed variants.
var probeOrder = []CompressionTag{CompressionNone, CompressionZstd, CompressionLZ4}

// zstdEncoder and zstdDecoder are reused across calls to avoid
// repeated initialization overhead. Both are safe for concurrent use
// in EncodeAll/DecodeAll mode.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
	)
	if err != nil {
		panic("store: zstd encoder initialization failed: " + err.Error())
	}

	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("store: zstd decoder initialization failed: " + err.Error())
	}
}

// compress encodes data for on-disk storage with the given tag. Frame
// formats are used for both codecs so files are self-describing and
// no uncompressed size needs to be recorded elsewhere.
func compress(data []byte, tag CompressionTag) ([]byte, error) {
	switch tag {
	case CompressionNone:
		return data, nil

	case CompressionZstd:
		return zstdEncoder.EncodeAll(data, nil), nil

	case CompressionLZ4:
		var buf bytes.Buffer
		writer := lz4.NewWriter(&buf)
		if _, err := writer.Write(data); err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		if err := writer.Close(); err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		return buf.Bytes(), nil

	default:
		return nil, fmt.Errorf("unsupported compression tag: %d", tag)
	}
}

// decompress decodes a stored entry back to its original bytes.
func decompress(data []byte, tag CompressionTag) ([]byte, error) {
	switch tag {
	case CompressionNone:
		return data, nil

	case CompressionZstd:
		decoded, err := zstdDecoder.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		return decoded, nil

	case CompressionLZ4:
		decoded, err := io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
		return decoded, nil

	default:
		return nil, fmt.Errorf("unsupported compression tag: %d", tag)
	}
}

// decompressStream wraps an open on-disk entry in a reader yielding
// the uncompressed content. Closing the returned reader closes file.
func decompressStream(file io.ReadCloser, tag CompressionTag) (io.ReadCloser, error) {
	switch tag {
	case CompressionNone:
		return file, nil

	case CompressionZstd:
		// Streaming decode needs its own decoder instance; the shared
		// decoder is only safe for DecodeAll.
		decoder, err := zstd.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("zstd stream: %w", err)
		}
		return &streamReader{
			reader: decoder.IOReadCloser(),
			file:   file,
		}, nil

	case CompressionLZ4:
		return &streamReader{
			reader: io.NopCloser(lz4.NewReader(file)),
			file:   file,
		}, nil

	default:
		file.Close()
		return nil, fmt.Errorf("unsupported compression tag: %d", tag)
	}
}

// streamReader couples a decompressing reader with the underlying
// file so a single Close releases both.
type streamReader struct {
	reader io.ReadCloser
	file   io.Closer
}

func (s *streamReader) Read(p []byte) (int, error) {
	return s.reader.Read(p)
}

func (s *streamReader) Close() error {
	readerErr := s.reader.Close()
	fileErr := s.file.Close()
	if readerErr != nil {
		return readerErr
	}
	return fileErr
}

// Copyright 2026 The Assetforge Authors
// SPDX-License-Identifier: Apache-2.0

package cachestore

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// CompressionTag identifies the algorithm a persisted entry was
// compressed with. The tag is stored in the entry header (1 byte) —
// these values are format constants.
type CompressionTag uint8

const (
	// CompressionNone stores the entry uncompressed. Chosen when the
	// payload is incompressible (already-minified or binary bodies).
	CompressionNone CompressionTag = 0

	// CompressionLZ4 is LZ4 block compression: fast default with a
	// modest ratio, for entries of unknown or mixed content.
	CompressionLZ4 CompressionTag = 1

	// CompressionZstd is zstd at the default level: better ratios for
	// the text-heavy payloads (scripts, stylesheets) that dominate an
	// asset cache.
	CompressionZstd CompressionTag = 2
)

// String returns the tag name as used in configuration files.
func (tag CompressionTag) String() string {
	switch tag {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(tag))
	}
}

// ParseCompressionTag parses a tag from its configuration name.
func ParseCompressionTag(name string) (CompressionTag, error) {
	switch name {
	case "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("unknown compression tag: %q", name)
	}
}

// errIncompressible signals that compression did not shrink the
// payload; the caller falls back to storing it uncompressed.
var errIncompressible = errors.New("payload is incompressible")

// entryHeaderSize is the persisted entry framing: 1-byte tag plus an
// 8-byte little-endian uncompressed length.
const entryHeaderSize = 9

// zstdEncoder and zstdDecoder are shared across calls; both are safe
// for concurrent use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("cachestore: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("cachestore: zstd decoder initialization failed: " + err.Error())
	}
}

// frameEntry compresses payload with the requested tag and prepends
// the entry header. When compression does not shrink the payload the
// entry silently falls back to CompressionNone — the tag in the
// header records what was actually used.
func frameEntry(payload []byte, tag CompressionTag) ([]byte, error) {
	compressed, usedTag, err := compressPayload(payload, tag)
	if err != nil {
		return nil, err
	}

	framed := make([]byte, entryHeaderSize+len(compressed))
	framed[0] = byte(usedTag)
	binary.LittleEndian.PutUint64(framed[1:entryHeaderSize], uint64(len(payload)))
	copy(framed[entryHeaderSize:], compressed)
	return framed, nil
}

// unframeEntry reverses frameEntry.
func unframeEntry(framed []byte) ([]byte, error) {
	if len(framed) < entryHeaderSize {
		return nil, fmt.Errorf("cache entry is %d bytes, shorter than the %d-byte header",
			len(framed), entryHeaderSize)
	}

	tag := CompressionTag(framed[0])
	uncompressedSize := binary.LittleEndian.Uint64(framed[1:entryHeaderSize])
	payload := framed[entryHeaderSize:]

	switch tag {
	case CompressionNone:
		if uint64(len(payload)) != uncompressedSize {
			return nil, fmt.Errorf("uncompressed entry: size %d does not match header %d",
				len(payload), uncompressedSize)
		}
		return payload, nil

	case CompressionLZ4:
		destination := make([]byte, uncompressedSize)
		read, err := lz4.UncompressBlock(payload, destination)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
		if uint64(read) != uncompressedSize {
			return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d", read, uncompressedSize)
		}
		return destination, nil

	case CompressionZstd:
		destination, err := zstdDecoder.DecodeAll(payload, make([]byte, 0, uncompressedSize))
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		if uint64(len(destination)) != uncompressedSize {
			return nil, fmt.Errorf("zstd decompress: got %d bytes, expected %d",
				len(destination), uncompressedSize)
		}
		return destination, nil

	default:
		return nil, fmt.Errorf("unsupported compression tag: %d", uint8(tag))
	}
}

func compressPayload(payload []byte, tag CompressionTag) ([]byte, CompressionTag, error) {
	switch tag {
	case CompressionNone:
		return payload, CompressionNone, nil

	case CompressionLZ4:
		compressed, err := compressLZ4(payload)
		if errors.Is(err, errIncompressible) {
			return payload, CompressionNone, nil
		}
		if err != nil {
			return nil, 0, err
		}
		return compressed, CompressionLZ4, nil

	case CompressionZstd:
		compressed := zstdEncoder.EncodeAll(payload, nil)
		if len(compressed) >= len(payload) {
			return payload, CompressionNone, nil
		}
		return compressed, CompressionZstd, nil

	default:
		return nil, 0, fmt.Errorf("unsupported compression tag: %d", uint8(tag))
	}
}

func compressLZ4(payload []byte) ([]byte, error) {
	bound := lz4.CompressBlockBound(len(payload))
	destination := make([]byte, bound)

	written, err := lz4.CompressBlock(payload, destination, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	// CompressBlock returns 0 for incompressible input; also reject
	// output that failed to shrink.
	if written == 0 || written >= len(payload) {
		return nil, errIncompressible
	}
	return destination[:written], nil
}

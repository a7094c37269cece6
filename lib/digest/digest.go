// Copyright 2026 The Assetforge Authors
// SPDX-License-Identifier: Apache-2.0

package digest

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"sort"

	"github.com/zeebo/blake3"
)

// Hash is a 32-byte BLAKE3 digest. All pipeline hashes (asset bodies,
// dependency closures, cache keys) are this size.
type Hash [32]byte

// domainKey is a 32-byte key for BLAKE3 keyed hashing. Domain
// separation ensures that the same input bytes produce different
// hashes in different contexts.
type domainKey [32]byte

// Domain separation keys. These are fixed constants — changing them
// invalidates every digest ever computed in that domain, which in
// turn invalidates all cached assets. The byte values are the ASCII
// encoding of the domain name, zero-padded to 32 bytes, so the keys
// are readable in hex dumps.
var (
	contentDomainKey = domainKey{
		'a', 's', 's', 'e', 't', 'f', 'o', 'r', 'g', 'e', '.', 'd', 'i', 'g', 'e', 's',
		't', '.', 'c', 'o', 'n', 't', 'e', 'n', 't', 0, 0, 0, 0, 0, 0, 0,
	}

	valueDomainKey = domainKey{
		'a', 's', 's', 'e', 't', 'f', 'o', 'r', 'g', 'e', '.', 'd', 'i', 'g', 'e', 's',
		't', '.', 'v', 'a', 'l', 'u', 'e', 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}
)

// Variant markers mixed into the value-domain hash before each node's
// content. They keep values of different kinds from colliding (the
// string "1" and the integer 1 must not hash equal) and are part of
// the digest format.
const (
	markerString   = 0x01
	markerBytes    = 0x02
	markerInteger  = 0x03
	markerUnsigned = 0x04
	markerFloat    = 0x05
	markerBool     = 0x06
	markerNil      = 0x07
	markerSequence = 0x08
	markerMapping  = 0x09
	markerHash     = 0x0a
)

// UnsupportedTypeError reports a value outside the supported variant
// set passed to HashValue. It indicates a programming error in the
// caller (typically a processor producing a malformed structured
// result), not a runtime condition.
type UnsupportedTypeError struct {
	// Value is the offending value.
	Value any
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("digest: unsupported value type %T", e.Value)
}

// HashBytes computes the content-domain hash of a byte body. This is
// the digest stored on assets and compared for staleness.
func HashBytes(data []byte) Hash {
	return keyedHash(contentDomainKey, data)
}

// HashValue computes the value-domain hash of a JSON-like value.
//
// Supported variants: string, []byte, bool, nil, signed and unsigned
// integers, float64, Hash, []any, and map[string]any. Sequences hash
// their elements in order. Mappings hash each key/value pair
// independently, sort the per-pair digests lexicographically, and mix
// them in that order — so mapping digests do not depend on iteration
// order. Any other type returns *UnsupportedTypeError.
func HashValue(value any) (Hash, error) {
	hasher := newValueHasher()
	if err := hasher.visit(value); err != nil {
		return Hash{}, err
	}
	return hasher.sum(), nil
}

// MustHashValue is HashValue for values the caller constructed from
// supported variants only. Panics on an unsupported type, which is a
// bug in the caller.
func MustHashValue(value any) Hash {
	hash, err := HashValue(value)
	if err != nil {
		panic("digest: " + err.Error())
	}
	return hash
}

// Format returns the hex-encoded string representation of a hash.
// This is the canonical format used in serialized assets, artifact
// filenames, and logs.
func Format(hash Hash) string {
	return hex.EncodeToString(hash[:])
}

// Parse parses a 64-character hex string into a Hash.
func Parse(hexString string) (Hash, error) {
	var hash Hash
	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		return hash, fmt.Errorf("parsing digest: %w", err)
	}
	if len(decoded) != 32 {
		return hash, fmt.Errorf("digest is %d bytes, want 32", len(decoded))
	}
	copy(hash[:], decoded)
	return hash, nil
}

// valueHasher streams a value-domain hash. A single hasher accumulates
// the top-level value; nested mapping pairs get their own hashers so
// pair digests can be sorted before mixing.
type valueHasher struct {
	hasher *blake3.Hasher
}

func newValueHasher() *valueHasher {
	hasher, err := blake3.NewKeyed(valueDomainKey[:])
	if err != nil {
		// NewKeyed fails only on wrong key length, which the
		// fixed-size domainKey type rules out.
		panic("digest: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	return &valueHasher{hasher: hasher}
}

func (h *valueHasher) sum() Hash {
	var hash Hash
	copy(hash[:], h.hasher.Sum(nil))
	return hash
}

func (h *valueHasher) marker(marker byte) {
	h.hasher.Write([]byte{marker})
}

// length prefixes variable-length content so that adjacent values
// cannot alias ("ab"+"c" vs "a"+"bc").
func (h *valueHasher) length(n int) {
	var buffer [8]byte
	binary.LittleEndian.PutUint64(buffer[:], uint64(n))
	h.hasher.Write(buffer[:])
}

func (h *valueHasher) visit(value any) error {
	switch v := value.(type) {
	case string:
		h.marker(markerString)
		h.length(len(v))
		h.hasher.Write([]byte(v))

	case []byte:
		h.marker(markerBytes)
		h.length(len(v))
		h.hasher.Write(v)

	case bool:
		h.marker(markerBool)
		if v {
			h.hasher.Write([]byte{1})
		} else {
			h.hasher.Write([]byte{0})
		}

	case nil:
		h.marker(markerNil)

	case int:
		h.integer(int64(v))
	case int8:
		h.integer(int64(v))
	case int16:
		h.integer(int64(v))
	case int32:
		h.integer(int64(v))
	case int64:
		h.integer(v)

	case uint:
		h.unsigned(uint64(v))
	case uint8:
		h.unsigned(uint64(v))
	case uint16:
		h.unsigned(uint64(v))
	case uint32:
		h.unsigned(uint64(v))
	case uint64:
		h.unsigned(v)

	case float64:
		h.marker(markerFloat)
		var buffer [8]byte
		binary.LittleEndian.PutUint64(buffer[:], math.Float64bits(v))
		h.hasher.Write(buffer[:])

	case Hash:
		h.marker(markerHash)
		h.hasher.Write(v[:])

	case []any:
		h.marker(markerSequence)
		h.length(len(v))
		for _, element := range v {
			if err := h.visit(element); err != nil {
				return err
			}
		}

	case map[string]any:
		return h.mapping(v)

	default:
		return &UnsupportedTypeError{Value: value}
	}
	return nil
}

func (h *valueHasher) integer(v int64) {
	h.marker(markerInteger)
	var buffer [8]byte
	binary.LittleEndian.PutUint64(buffer[:], uint64(v))
	h.hasher.Write(buffer[:])
}

func (h *valueHasher) unsigned(v uint64) {
	h.marker(markerUnsigned)
	var buffer [8]byte
	binary.LittleEndian.PutUint64(buffer[:], v)
	h.hasher.Write(buffer[:])
}

// mapping hashes each key/value pair with its own hasher, sorts the
// per-pair digests lexicographically, and mixes them in sorted order.
// Mapping iteration order is not a stable identity for this system's
// inputs (file attribute maps, option maps), but reproducibility is.
func (h *valueHasher) mapping(m map[string]any) error {
	pairDigests := make([]Hash, 0, len(m))
	for key, value := range m {
		pair := newValueHasher()
		if err := pair.visit(key); err != nil {
			return err
		}
		if err := pair.visit(value); err != nil {
			return err
		}
		pairDigests = append(pairDigests, pair.sum())
	}

	sort.Slice(pairDigests, func(i, j int) bool {
		return string(pairDigests[i][:]) < string(pairDigests[j][:])
	})

	h.marker(markerMapping)
	h.length(len(pairDigests))
	for _, pairDigest := range pairDigests {
		h.hasher.Write(pairDigest[:])
	}
	return nil
}

// keyedHash computes a BLAKE3 keyed hash with the given domain key.
func keyedHash(key domainKey, data []byte) Hash {
	hasher, err := blake3.NewKeyed(key[:])
	if err != nil {
		panic("digest: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(data)
	var hash Hash
	copy(hash[:], hasher.Sum(nil))
	return hash
}

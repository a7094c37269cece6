// Copyright 2026 The Assetforge Authors
// SPDX-License-Identifier: Apache-2.0

// Package asset defines the immutable value object produced by one
// asset build — a single processed file, a pass-through static file,
// or a bundle of concatenated files — together with its serialized
// form for persisted caching.
//
// An Asset is constructed once per build and never mutated. Its
// DependencyDigest is the correctness proof for cache validity: two
// builds with identical dependency digests are byte-identical, modulo
// environment version.
package asset

import (
	"fmt"
	"sort"
	"time"

	"github.com/assetforge/assetforge/lib/digest"
)

// Kind distinguishes the three asset shapes in serialized form.
type Kind string

const (
	// Static is a pass-through file: no processors touched the body.
	Static Kind = "static"

	// Processed is a single file run through its engine and pre/post
	// processor chains.
	Processed Kind = "processed"

	// Bundled is the concatenation of a processed asset and its
	// resolved dependencies, run through the bundle processors.
	Bundled Kind = "bundled"
)

// DependencyPath records one file an asset's build depended on: its
// absolute path, its modification time, and the content digest of its
// raw bytes. Any change to any of the three marks the asset stale.
type DependencyPath struct {
	// Path is the absolute filesystem path.
	Path string

	// Mtime is the file's modification time in Unix nanoseconds.
	// Stored as an integer so it digests and serializes exactly.
	Mtime int64

	// Digest is the content-domain hash of the file's raw bytes.
	Digest digest.Hash
}

// Asset is one build result. All fields are set at construction and
// never mutated afterwards.
type Asset struct {
	// Kind tags the asset shape for serialization.
	Kind Kind

	// LogicalPath is the normalized lookup identifier, independent of
	// filesystem location.
	LogicalPath string

	// Filename is the absolute source location.
	Filename string

	// ContentType is the resolved MIME type after engine extensions
	// are stripped.
	ContentType string

	// Mtime is the latest modification time across the asset and all
	// of its dependencies.
	Mtime time.Time

	// Length is the byte length of the final processed body.
	Length int64

	// Digest is the content hash of the final processed body.
	Digest digest.Hash

	// Source is the processed byte content.
	Source []byte

	// DependencyPaths lists every file this build depended on,
	// including the asset itself, sorted by path.
	DependencyPaths []DependencyPath

	// DependencyDigest is the digest over the sorted DependencyPaths
	// entries. See [DependencyDigestOf].
	DependencyDigest digest.Hash

	// RequiredAssets is the flattened dependency graph in link order,
	// self last. Bundles only; nil after deserialization (the cache
	// layer revalidates with DependencyPaths alone).
	RequiredAssets []*Asset

	// DependencyAssets lists the filenames whose content digests
	// participate in the dependency digest — for bundles, the files
	// whose bodies were concatenated, as opposed to files merely
	// watched via DependencyPaths.
	DependencyAssets []string
}

// StaleError reports a deserialized asset whose recorded dependency
// digest no longer matches a live recomputation. Inside the cache
// layer this triggers a rebuild; on a direct load it is fatal.
type StaleError struct {
	// LogicalPath identifies the stale asset.
	LogicalPath string
}

func (e *StaleError) Error() string {
	return fmt.Sprintf("unserialize error: processed asset %q belongs to a stale environment", e.LogicalPath)
}

// NormalizeDependencyPaths returns paths sorted by path with exact
// duplicates removed. Asset constructors use it so that
// DependencyPaths has set semantics and a canonical order for
// digesting.
func NormalizeDependencyPaths(paths []DependencyPath) []DependencyPath {
	sorted := make([]DependencyPath, len(paths))
	copy(sorted, paths)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Path < sorted[j].Path
	})

	normalized := sorted[:0]
	for index, entry := range sorted {
		if index > 0 && entry == sorted[index-1] {
			continue
		}
		normalized = append(normalized, entry)
	}
	return normalized
}

// DependencyDigestOf digests a dependency path set: each entry
// becomes a [path, mtime, digest] triple, the triples are taken in
// path order, and the whole sequence is value-hashed. Adding,
// removing, or changing any entry changes the digest.
func DependencyDigestOf(paths []DependencyPath) digest.Hash {
	normalized := NormalizeDependencyPaths(paths)
	sequence := make([]any, len(normalized))
	for index, entry := range normalized {
		sequence[index] = []any{entry.Path, entry.Mtime, entry.Digest}
	}
	return digest.MustHashValue(sequence)
}

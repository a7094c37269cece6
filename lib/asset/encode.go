// Copyright 2026 The Assetforge Authors
// SPDX-License-Identifier: Apache-2.0

package asset

import (
	"fmt"
	"time"

	"github.com/assetforge/assetforge/lib/codec"
	"github.com/assetforge/assetforge/lib/digest"
)

// SchemaVersion is the serialized asset format version. Bump on any
// incompatible layout change; decoders reject versions they do not
// understand rather than guessing.
const SchemaVersion = 1

// record is the persisted asset layout. Digests are stored as hex
// strings so records stay inspectable with generic CBOR tooling.
type record struct {
	SchemaVersion    int                `cbor:"schema_version"`
	Kind             string             `cbor:"kind"`
	LogicalPath      string             `cbor:"logical_path"`
	Filename         string             `cbor:"filename"`
	ContentType      string             `cbor:"content_type"`
	Mtime            int64              `cbor:"mtime"`
	Length           int64              `cbor:"length"`
	Digest           string             `cbor:"digest"`
	DependencyPaths  []dependencyRecord `cbor:"dependency_paths"`
	DependencyDigest string             `cbor:"dependency_digest"`
	DependencyAssets []string           `cbor:"dependency_assets,omitempty"`
	Source           []byte             `cbor:"source,omitempty"`
}

type dependencyRecord struct {
	Path   string `cbor:"path"`
	Mtime  int64  `cbor:"mtime"`
	Digest string `cbor:"digest"`
}

// Encode serializes the asset for the persisted cache tier. The
// bundle graph (RequiredAssets) is not serialized: a decoded asset is
// only ever trusted after its dependency digest revalidates, and that
// check needs DependencyPaths alone.
func Encode(a *Asset) ([]byte, error) {
	dependencies := make([]dependencyRecord, len(a.DependencyPaths))
	for index, entry := range a.DependencyPaths {
		dependencies[index] = dependencyRecord{
			Path:   entry.Path,
			Mtime:  entry.Mtime,
			Digest: digest.Format(entry.Digest),
		}
	}

	encoded, err := codec.Marshal(record{
		SchemaVersion:    SchemaVersion,
		Kind:             string(a.Kind),
		LogicalPath:      a.LogicalPath,
		Filename:         a.Filename,
		ContentType:      a.ContentType,
		Mtime:            a.Mtime.UnixNano(),
		Length:           a.Length,
		Digest:           digest.Format(a.Digest),
		DependencyPaths:  dependencies,
		DependencyDigest: digest.Format(a.DependencyDigest),
		DependencyAssets: a.DependencyAssets,
		Source:           a.Source,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding asset %s: %w", a.LogicalPath, err)
	}
	return encoded, nil
}

// Decode reconstructs an asset from its serialized form. Decoding
// proves nothing about freshness — serialized data cannot attest to
// the current filesystem state — so callers must revalidate the
// dependency digest against live file content before trusting the
// result.
func Decode(data []byte) (*Asset, error) {
	var rec record
	if err := codec.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decoding asset: %w", err)
	}
	if rec.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("decoding asset: unsupported schema version %d (this code supports %d)",
			rec.SchemaVersion, SchemaVersion)
	}

	kind := Kind(rec.Kind)
	switch kind {
	case Static, Processed, Bundled:
	default:
		return nil, fmt.Errorf("decoding asset: unknown kind %q", rec.Kind)
	}

	bodyDigest, err := digest.Parse(rec.Digest)
	if err != nil {
		return nil, fmt.Errorf("decoding asset %s: body digest: %w", rec.LogicalPath, err)
	}
	dependencyDigest, err := digest.Parse(rec.DependencyDigest)
	if err != nil {
		return nil, fmt.Errorf("decoding asset %s: dependency digest: %w", rec.LogicalPath, err)
	}

	dependencies := make([]DependencyPath, len(rec.DependencyPaths))
	for index, dependency := range rec.DependencyPaths {
		pathDigest, err := digest.Parse(dependency.Digest)
		if err != nil {
			return nil, fmt.Errorf("decoding asset %s: dependency %s: %w",
				rec.LogicalPath, dependency.Path, err)
		}
		dependencies[index] = DependencyPath{
			Path:   dependency.Path,
			Mtime:  dependency.Mtime,
			Digest: pathDigest,
		}
	}

	return &Asset{
		Kind:             kind,
		LogicalPath:      rec.LogicalPath,
		Filename:         rec.Filename,
		ContentType:      rec.ContentType,
		Mtime:            time.Unix(0, rec.Mtime),
		Length:           rec.Length,
		Digest:           bodyDigest,
		Source:           rec.Source,
		DependencyPaths:  dependencies,
		DependencyDigest: dependencyDigest,
		DependencyAssets: rec.DependencyAssets,
	}, nil
}

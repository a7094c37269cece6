// Copyright 2026 The Assetforge Authors
// SPDX-License-Identifier: Apache-2.0

package asset

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/assetforge/assetforge/lib/digest"
)

func sampleDependencies() []DependencyPath {
	return []DependencyPath{
		{Path: "/srv/assets/b.js", Mtime: 1_700_000_000_000_000_000, Digest: digest.HashBytes([]byte("bar"))},
		{Path: "/srv/assets/a.js", Mtime: 1_700_000_100_000_000_000, Digest: digest.HashBytes([]byte("foo"))},
	}
}

func TestNormalizeDependencyPathsSortsAndDeduplicates(t *testing.T) {
	entries := sampleDependencies()
	entries = append(entries, entries[0]) // exact duplicate

	normalized := NormalizeDependencyPaths(entries)
	if len(normalized) != 2 {
		t.Fatalf("normalized length = %d, want 2", len(normalized))
	}
	if normalized[0].Path != "/srv/assets/a.js" || normalized[1].Path != "/srv/assets/b.js" {
		t.Errorf("not sorted by path: %v, %v", normalized[0].Path, normalized[1].Path)
	}
}

func TestDependencyDigestOrderIndependent(t *testing.T) {
	forward := sampleDependencies()
	backward := []DependencyPath{forward[1], forward[0]}

	if DependencyDigestOf(forward) != DependencyDigestOf(backward) {
		t.Error("dependency digest depends on input order")
	}
}

func TestDependencyDigestDetectsChanges(t *testing.T) {
	base := sampleDependencies()
	baseDigest := DependencyDigestOf(base)

	contentChanged := sampleDependencies()
	contentChanged[0].Digest = digest.HashBytes([]byte("bar v2"))
	if DependencyDigestOf(contentChanged) == baseDigest {
		t.Error("content change did not change the dependency digest")
	}

	mtimeChanged := sampleDependencies()
	mtimeChanged[0].Mtime++
	if DependencyDigestOf(mtimeChanged) == baseDigest {
		t.Error("mtime change did not change the dependency digest")
	}

	// Path-set changes (additions and removals) count as staleness
	// too, not just content changes.
	added := append(sampleDependencies(), DependencyPath{
		Path:   "/srv/assets/c.js",
		Mtime:  1,
		Digest: digest.HashBytes([]byte("baz")),
	})
	if DependencyDigestOf(added) == baseDigest {
		t.Error("added dependency did not change the dependency digest")
	}

	removed := sampleDependencies()[:1]
	if DependencyDigestOf(removed) == baseDigest {
		t.Error("removed dependency did not change the dependency digest")
	}
}

func sampleAsset(kind Kind) *Asset {
	source := []byte("var x = 1;\nvar y = 2;\n")
	dependencies := NormalizeDependencyPaths(sampleDependencies())
	return &Asset{
		Kind:             kind,
		LogicalPath:      "app/main.js",
		Filename:         "/srv/assets/app/main.js",
		ContentType:      "application/javascript",
		Mtime:            time.Unix(1_700_000_100, 500).UTC(),
		Length:           int64(len(source)),
		Digest:           digest.HashBytes(source),
		Source:           source,
		DependencyPaths:  dependencies,
		DependencyDigest: DependencyDigestOf(dependencies),
		DependencyAssets: []string{"/srv/assets/app/main.js", "/srv/assets/b.js"},
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, kind := range []Kind{Static, Processed, Bundled} {
		t.Run(string(kind), func(t *testing.T) {
			original := sampleAsset(kind)
			encoded, err := Encode(original)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}

			decoded, err := Decode(encoded)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}

			if decoded.Kind != original.Kind {
				t.Errorf("kind = %q, want %q", decoded.Kind, original.Kind)
			}
			if decoded.Digest != original.Digest {
				t.Error("body digest did not round-trip")
			}
			if decoded.DependencyDigest != original.DependencyDigest {
				t.Error("dependency digest did not round-trip")
			}
			if !bytes.Equal(decoded.Source, original.Source) {
				t.Error("body bytes did not round-trip")
			}
			if !decoded.Mtime.Equal(original.Mtime) {
				t.Errorf("mtime = %v, want %v", decoded.Mtime, original.Mtime)
			}
			if diff := cmp.Diff(original.DependencyPaths, decoded.DependencyPaths); diff != "" {
				t.Errorf("dependency paths (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(original.DependencyAssets, decoded.DependencyAssets); diff != "" {
				t.Errorf("dependency assets (-want +got):\n%s", diff)
			}

			// Deterministic encoding: encode(decode(x)) == x byte for byte.
			reencoded, err := Encode(decoded)
			if err != nil {
				t.Fatalf("re-Encode: %v", err)
			}
			if !bytes.Equal(encoded, reencoded) {
				t.Error("encode(decode(x)) produced different bytes than encode(x)")
			}
		})
	}
}

func TestDecodeRejectsUnknownSchemaVersion(t *testing.T) {
	original := sampleAsset(Processed)
	encoded, err := Encode(original)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	// Re-encode with a bumped version via the generic map form.
	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	_ = decoded

	tampered := bytes.Replace(encoded, []byte("schema_version"), []byte("schema_verxion"), 1)
	if _, err := Decode(tampered); err == nil {
		t.Error("Decode accepted a record with a missing schema version")
	}
}

func TestDecodeRejectsCorruptRecords(t *testing.T) {
	if _, err := Decode([]byte{0xff, 0x13, 0x00}); err == nil {
		t.Error("Decode accepted corrupt CBOR")
	}

	// Valid CBOR, wrong shape.
	original := sampleAsset(Processed)
	encoded, err := Encode(original)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	tampered := bytes.Replace(encoded, []byte("processed"), []byte("prozessed"), 1)
	if _, err := Decode(tampered); err == nil || !strings.Contains(err.Error(), "unknown kind") {
		t.Errorf("Decode of unknown kind: err = %v", err)
	}
}

func TestStaleErrorMessage(t *testing.T) {
	err := &StaleError{LogicalPath: "app/main.js"}
	if !strings.Contains(err.Error(), "stale environment") {
		t.Errorf("StaleError message = %q", err.Error())
	}
	if !strings.Contains(err.Error(), "app/main.js") {
		t.Errorf("StaleError message does not name the asset: %q", err.Error())
	}
}

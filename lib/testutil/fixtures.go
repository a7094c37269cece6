// Copyright 2026 The Assetforge Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for assetforge
// packages.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteTree creates a temporary directory containing the given files
// (relative slash-separated path → contents) and returns its root.
// The directory is removed when the test completes.
func WriteTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, contents := range files {
		WriteFile(t, root, name, contents)
	}
	return root
}

// WriteFile writes one file under root, creating parent directories
// as needed. Rewriting an existing file bumps its mtime, which is how
// staleness tests mutate dependencies.
func WriteFile(t *testing.T, root, name, contents string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("creating directory for %s: %v", name, err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

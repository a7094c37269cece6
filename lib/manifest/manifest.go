// Copyright 2026 The Assetforge Authors
// SPDX-License-Identifier: Apache-2.0

// Package manifest provides parsing and validation for compile
// manifests: the JSONC files that tell the compiler which logical
// paths to build and where the artifacts go. The format is JSON
// extended with // line comments, /* block comments */, and trailing
// commas.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/jsonc"
)

// Manifest is one compile run: the assets to build and the output
// settings that apply to all of them.
type Manifest struct {
	// Assets lists the logical paths to compile, in order.
	Assets []string `json:"assets"`

	// OutputDir receives the compiled artifacts. Relative paths are
	// resolved against the manifest's own directory by the caller.
	// Optional; the configuration's output directory applies when
	// empty.
	OutputDir string `json:"output_dir,omitempty"`

	// Bundle selects bundled output (the asset's dependency graph
	// concatenated) over per-file processed output. Defaults to true
	// when absent.
	Bundle *bool `json:"bundle,omitempty"`
}

// Bundled reports the effective bundle setting.
func (m *Manifest) Bundled() bool {
	return m.Bundle == nil || *m.Bundle
}

// Parse strips JSONC comments and trailing commas from data, then
// unmarshals the result into a Manifest.
func Parse(data []byte) (*Manifest, error) {
	stripped := jsonc.ToJSON(data)

	var parsed Manifest
	if err := json.Unmarshal(stripped, &parsed); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return &parsed, nil
}

// ReadFile reads a JSONC manifest file from disk and parses it.
func ReadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	parsed, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return parsed, nil
}

// Validate checks a Manifest for structural issues. Returns a list of
// human-readable issue descriptions; an empty list means the manifest
// is valid.
func Validate(m *Manifest) []string {
	var issues []string

	if len(m.Assets) == 0 {
		issues = append(issues, "manifest lists no assets (at least one logical path is required)")
	}

	seen := make(map[string]int, len(m.Assets))
	for index, logicalPath := range m.Assets {
		switch {
		case logicalPath == "":
			issues = append(issues, fmt.Sprintf("assets[%d]: empty logical path", index))
		case strings.HasPrefix(logicalPath, "/"):
			issues = append(issues, fmt.Sprintf(
				"assets[%d] %q: logical paths are relative to the search roots, not absolute",
				index, logicalPath,
			))
		default:
			if firstIndex, exists := seen[logicalPath]; exists {
				issues = append(issues, fmt.Sprintf(
					"assets[%d] %q: duplicate entry (first listed at assets[%d])",
					index, logicalPath, firstIndex,
				))
			} else {
				seen[logicalPath] = index
			}
		}
	}
	return issues
}

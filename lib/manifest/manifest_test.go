// Copyright 2026 The Assetforge Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseJSONCExtensions(t *testing.T) {
	parsed, err := Parse([]byte(`{
		// application bundles
		"assets": [
			"app.js",
			"app.css", /* styles */
		],
		"output_dir": "public/assets",
	}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if diff := cmp.Diff([]string{"app.js", "app.css"}, parsed.Assets); diff != "" {
		t.Errorf("Assets (-want +got):\n%s", diff)
	}
	if parsed.OutputDir != "public/assets" {
		t.Errorf("OutputDir = %q", parsed.OutputDir)
	}
	if !parsed.Bundled() {
		t.Error("Bundled() must default to true")
	}
}

func TestParseBundleOverride(t *testing.T) {
	parsed, err := Parse([]byte(`{"assets": ["app.js"], "bundle": false}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if parsed.Bundled() {
		t.Error("Bundled() = true after explicit false")
	}
}

func TestParseMalformed(t *testing.T) {
	if _, err := Parse([]byte(`{"assets": [`)); err == nil {
		t.Fatal("Parse accepted malformed input")
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compile.jsonc")
	if err := os.WriteFile(path, []byte(`{"assets": ["app.js"]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	parsed, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(parsed.Assets) != 1 {
		t.Errorf("Assets = %v", parsed.Assets)
	}

	if _, err := ReadFile(filepath.Join(t.TempDir(), "absent.jsonc")); err == nil {
		t.Fatal("ReadFile accepted a missing file")
	}
}

func TestValidate(t *testing.T) {
	valid := &Manifest{Assets: []string{"app.js", "app.css"}}
	if issues := Validate(valid); len(issues) != 0 {
		t.Errorf("valid manifest reported issues: %v", issues)
	}

	tests := []struct {
		name     string
		manifest *Manifest
		fragment string
	}{
		{"no assets", &Manifest{}, "no assets"},
		{"empty entry", &Manifest{Assets: []string{""}}, "empty logical path"},
		{"absolute path", &Manifest{Assets: []string{"/srv/app.js"}}, "not absolute"},
		{"duplicate", &Manifest{Assets: []string{"app.js", "app.js"}}, "duplicate entry"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			issues := Validate(test.manifest)
			if len(issues) == 0 {
				t.Fatal("expected issues, got none")
			}
			found := false
			for _, issue := range issues {
				if strings.Contains(issue, test.fragment) {
					found = true
				}
			}
			if !found {
				t.Errorf("issues %v do not mention %q", issues, test.fragment)
			}
		})
	}
}

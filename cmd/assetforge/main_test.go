// Copyright 2026 The Assetforge Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/assetforge/assetforge/lib/digest"
)

func writeFixture(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCompileEndToEnd(t *testing.T) {
	workspace := t.TempDir()
	assets := filepath.Join(workspace, "assets")
	writeFixture(t, assets, "app.js", "//= require lib.js\nconsole.log(\"app\");\n")
	writeFixture(t, assets, "lib.js", "function lib() {}\n")

	configPath := writeFixture(t, workspace, "assetforge.yaml",
		"version: \"test\"\n"+
			"search_paths:\n  - "+assets+"\n"+
			"cache:\n  dir: "+filepath.Join(workspace, "cache")+"\n  compression: lz4\n")
	manifestPath := writeFixture(t, workspace, "compile.jsonc",
		`{
			// the application bundle
			"assets": ["app.js"],
		}`)
	output := filepath.Join(workspace, "public")

	err := runCompile([]string{
		"--config", configPath,
		"--manifest", manifestPath,
		"--output", output,
	})
	if err != nil {
		t.Fatalf("runCompile: %v", err)
	}

	manifestData, err := os.ReadFile(filepath.Join(output, "manifest.json"))
	if err != nil {
		t.Fatalf("reading output manifest: %v", err)
	}
	var entries []compiledEntry
	if err := json.Unmarshal(manifestData, &entries); err != nil {
		t.Fatalf("parsing output manifest: %v", err)
	}
	if len(entries) != 1 || entries[0].LogicalPath != "app.js" {
		t.Fatalf("entries = %+v", entries)
	}

	artifact, err := os.ReadFile(filepath.Join(output, entries[0].Output))
	if err != nil {
		t.Fatalf("reading artifact: %v", err)
	}
	want := "function lib() {}\nconsole.log(\"app\");\n"
	if string(artifact) != want {
		t.Errorf("artifact = %q, want %q", artifact, want)
	}
	if entries[0].Digest != digest.Format(digest.HashBytes(artifact)) {
		t.Error("manifest digest does not match artifact contents")
	}

	// Second run: warm persisted cache, identical output.
	if err := runCompile([]string{
		"--config", configPath,
		"--manifest", manifestPath,
		"--output", output,
	}); err != nil {
		t.Fatalf("runCompile (warm): %v", err)
	}
	again, err := os.ReadFile(filepath.Join(output, entries[0].Output))
	if err != nil {
		t.Fatalf("artifact missing after warm run: %v", err)
	}
	if string(again) != want {
		t.Errorf("warm artifact = %q", again)
	}
}

func TestCompileRejectsBadManifest(t *testing.T) {
	workspace := t.TempDir()
	assets := filepath.Join(workspace, "assets")
	writeFixture(t, assets, "app.js", "var app;\n")
	configPath := writeFixture(t, workspace, "assetforge.yaml",
		"search_paths:\n  - "+assets+"\ncache:\n  dir: \"\"\n")
	manifestPath := writeFixture(t, workspace, "compile.jsonc", `{"assets": []}`)

	err := runCompile([]string{
		"--config", configPath,
		"--manifest", manifestPath,
		"--output", filepath.Join(workspace, "public"),
	})
	if err == nil || !strings.Contains(err.Error(), "no assets") {
		t.Fatalf("expected manifest validation failure, got %v", err)
	}
}

func TestDigestedName(t *testing.T) {
	name := digestedName("js/app.js", digest.HashBytes([]byte("body")))
	if !strings.HasPrefix(name, "js/app-") || !strings.HasSuffix(name, ".js") {
		t.Errorf("digestedName = %q", name)
	}
	if len(name) != len("js/app-.js")+64 {
		t.Errorf("digestedName = %q, want full hex digest spliced in", name)
	}
}

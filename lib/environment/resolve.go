// Copyright 2026 The Assetforge Authors
// SPDX-License-Identifier: Apache-2.0

package environment

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/assetforge/assetforge/lib/processor"
)

// Resolve maps a logical path (slash-separated, with its format
// extension, e.g. "app/main.js") to an absolute filename. Search
// roots are tried in order; within a root, an exact match wins over
// engine-suffixed variants ("app/main.js.tmpl"). Returns
// *NotFoundError when nothing matches.
func (e *Environment) Resolve(logicalPath string) (string, error) {
	for _, root := range e.searchPaths {
		candidate := filepath.Join(root, filepath.FromSlash(logicalPath))
		if found, ok := e.resolveCandidate(candidate); ok {
			return found, nil
		}
	}
	return "", &NotFoundError{LogicalPath: logicalPath}
}

// resolveCandidate checks one concrete path: first the exact file,
// then directory entries that extend it with engine extensions only.
func (e *Environment) resolveCandidate(candidate string) (string, bool) {
	if isFile(candidate) {
		return candidate, true
	}

	directory := filepath.Dir(candidate)
	base := filepath.Base(candidate)
	entries, err := os.ReadDir(directory)
	if err != nil {
		return "", false
	}

	// ReadDir returns sorted entries, so shadowing among multiple
	// engine variants is deterministic.
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, base+".") {
			continue
		}
		if e.suffixIsEngines(strings.TrimPrefix(name, base)) {
			return filepath.Join(directory, name), true
		}
	}
	return "", false
}

// suffixIsEngines reports whether suffix (e.g. ".tmpl.min") consists
// entirely of registered engine extensions.
func (e *Environment) suffixIsEngines(suffix string) bool {
	for suffix != "" {
		matched := false
		for extension := range e.engines {
			if strings.HasSuffix(suffix, extension) {
				suffix = strings.TrimSuffix(suffix, extension)
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

// stripEngineExtensions removes trailing registered engine extensions
// from a filename: "main.js.tmpl" becomes "main.js".
func (e *Environment) stripEngineExtensions(filename string) string {
	for {
		extension := filepath.Ext(filename)
		if _, isEngine := e.engines[extension]; !isEngine {
			return filename
		}
		filename = strings.TrimSuffix(filename, extension)
	}
}

// engineChain returns the engine processors for a filename in
// execution order: the outermost (rightmost) extension runs first.
// "main.js.tmpl" runs the ".tmpl" engine, then any engine under the
// next remaining extension, and so on.
func (e *Environment) engineChain(filename string) []processor.Processor {
	var chain []processor.Processor
	for {
		extension := filepath.Ext(filename)
		engine, isEngine := e.engines[extension]
		if !isEngine {
			return chain
		}
		chain = append(chain, engine)
		filename = strings.TrimSuffix(filename, extension)
	}
}

// ContentType returns the MIME type of a path after engine extensions
// are stripped, or "" when the format extension is unknown.
func (e *Environment) ContentType(path string) string {
	stripped := e.stripEngineExtensions(path)
	return e.contentTypes[filepath.Ext(stripped)]
}

// LogicalPath computes the logical path of an absolute filename: the
// path relative to its search root, slash-separated, with engine
// extensions stripped. A file outside every root keeps its base name.
func (e *Environment) LogicalPath(filename string) string {
	stripped := e.stripEngineExtensions(filename)
	for _, root := range e.searchPaths {
		if relative, ok := pathUnder(root, stripped); ok {
			return filepath.ToSlash(relative)
		}
	}
	return filepath.Base(stripped)
}

// resolveReference resolves a required/stubbed/depended path as
// written in a source file: absolute paths pass through, "./" and
// "../" references are relative to the requiring file, anything else
// is a logical path.
func (e *Environment) resolveReference(fromFile, reference string) (string, error) {
	if filepath.IsAbs(reference) {
		if found, ok := e.resolveCandidate(reference); ok {
			return found, nil
		}
		return "", &NotFoundError{LogicalPath: reference}
	}
	if strings.HasPrefix(reference, "./") || strings.HasPrefix(reference, "../") {
		candidate := filepath.Join(filepath.Dir(fromFile), filepath.FromSlash(reference))
		if found, ok := e.resolveCandidate(candidate); ok {
			return found, nil
		}
		return "", &NotFoundError{LogicalPath: reference}
	}
	return e.Resolve(reference)
}

// pathUnder returns path relative to root when root is a proper path
// prefix of path.
func pathUnder(root, path string) (string, bool) {
	prefix := strings.TrimSuffix(root, "/") + "/"
	if strings.HasPrefix(path, prefix) {
		return strings.TrimPrefix(path, prefix), true
	}
	return "", false
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

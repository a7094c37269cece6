// Copyright 2026 The Assetforge Authors
// SPDX-License-Identifier: Apache-2.0

package environment

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/assetforge/assetforge/lib/digest"
	"github.com/assetforge/assetforge/lib/processor"
)

// Environment is the mutable pipeline configuration and the uncached
// asset builder. Configure it at startup (paths, engines, processors,
// content types), then either build through it directly or freeze it
// behind a [Cached] view.
//
// Environment is not safe for concurrent mutation. Builds are safe to
// run concurrently once configuration has stopped.
type Environment struct {
	version      string
	searchPaths  []string
	registry     *processor.Registry
	engines      map[string]processor.Processor
	contentTypes map[string]string
	cache        processor.Cache
	logger       *slog.Logger
}

// Options configures a new Environment.
type Options struct {
	// Version is an application-chosen configuration version. It
	// participates in the environment digest, so bumping it
	// invalidates every cached asset without touching the stores.
	Version string

	// Cache is the processor-visible cache handle. Optional.
	Cache processor.Cache

	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
}

// New returns an Environment with the default content-type table and
// no search paths, engines, or processors.
func New(options Options) *Environment {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	environment := &Environment{
		version:  options.Version,
		registry: processor.NewRegistry(),
		engines:  make(map[string]processor.Processor),
		contentTypes: map[string]string{
			".js":   "application/javascript",
			".css":  "text/css",
			".html": "text/html",
			".txt":  "text/plain",
			".json": "application/json",
			".svg":  "image/svg+xml",
			".png":  "image/png",
			".jpg":  "image/jpeg",
			".gif":  "image/gif",
		},
		cache:  options.Cache,
		logger: logger,
	}
	return environment
}

// AppendPath adds a search root to the end of the search order.
// Earlier roots shadow later ones.
func (e *Environment) AppendPath(path string) {
	e.searchPaths = append(e.searchPaths, strings.TrimSuffix(path, "/"))
}

// SearchPaths returns a copy of the search roots in search order.
func (e *Environment) SearchPaths() []string {
	paths := make([]string, len(e.searchPaths))
	copy(paths, e.searchPaths)
	return paths
}

// RegisterEngine maps a filename extension (e.g. ".tmpl") to an
// engine processor. Engine extensions are stripped when computing an
// asset's logical path and content type, and the engine runs before
// the preprocessor phase.
func (e *Environment) RegisterEngine(extension string, engine processor.Processor) {
	e.engines[extension] = engine
}

// RegisterContentType maps a format extension to a MIME type,
// overriding or extending the default table.
func (e *Environment) RegisterContentType(extension, contentType string) {
	e.contentTypes[extension] = contentType
}

// Registry exposes the processor registry for configuration
// (Register/Unregister) and for cached views.
func (e *Environment) Registry() *processor.Registry {
	return e.registry
}

// Logger returns the environment's logger.
func (e *Environment) Logger() *slog.Logger {
	return e.logger
}

// VersionDigest covers everything that affects build output besides
// file content: the application version string, search paths in
// order, the processor registry, engine extensions, and the
// content-type table. Any configuration change changes this digest
// and thereby invalidates all previously cached entries without
// explicit eviction.
func (e *Environment) VersionDigest() digest.Hash {
	paths := make([]any, len(e.searchPaths))
	for index, path := range e.searchPaths {
		paths[index] = path
	}

	engines := make([]any, 0, len(e.engines))
	for extension, engine := range e.engines {
		engines = append(engines, extension+"="+engine.Name())
	}
	sort.Slice(engines, func(i, j int) bool { return engines[i].(string) < engines[j].(string) })

	contentTypes := make(map[string]any, len(e.contentTypes))
	for extension, contentType := range e.contentTypes {
		contentTypes[extension] = contentType
	}

	return digest.MustHashValue([]any{
		"assetforge",
		e.version,
		paths,
		engines,
		contentTypes,
		e.registry.DigestValue(),
	})
}

var _ processor.Environment = (*Environment)(nil)

// Copyright 2026 The Assetforge Authors
// SPDX-License-Identifier: Apache-2.0

package environment

import (
	"fmt"
	"os"
	"time"

	"github.com/assetforge/assetforge/lib/asset"
	"github.com/assetforge/assetforge/lib/digest"
	"github.com/assetforge/assetforge/lib/pipeline"
	"github.com/assetforge/assetforge/lib/processor"
)

// FindAsset resolves logicalPath and builds its asset from the
// filesystem. With bundle set, the result is the bundled form: the
// asset's resolved dependency graph concatenated and run through the
// bundle processors. Every call rebuilds; use [Cached] to memoize.
func (e *Environment) FindAsset(logicalPath string, bundle bool) (*asset.Asset, error) {
	filename, err := e.Resolve(logicalPath)
	if err != nil {
		return nil, err
	}
	return e.FindAssetByFilename(filename, bundle)
}

// FindAssetByFilename is FindAsset for an already-resolved absolute
// filename.
func (e *Environment) FindAssetByFilename(filename string, bundle bool) (*asset.Asset, error) {
	build := &builder{
		environment: e,
		processed:   make(map[string]*asset.Asset),
	}

	processed, err := build.buildProcessed(filename)
	if err != nil {
		return nil, err
	}
	// Static assets have no processor-visible structure to bundle.
	if !bundle || processed.Kind == asset.Static {
		return processed, nil
	}
	return e.buildBundle(processed)
}

// builder carries the per-build state for one FindAsset call: the
// memo of already-processed files (the dependency graph is a DAG, and
// diamonds are common) and the current require chain for cycle
// detection.
type builder struct {
	environment *Environment
	processed   map[string]*asset.Asset
	chain       []string
}

// buildProcessed builds the non-bundled asset for filename: raw file
// bytes through the engine chain, then the pre and post processor
// phases, with the dependency metadata reported by the stages
// resolved into a dependency closure.
func (b *builder) buildProcessed(filename string) (*asset.Asset, error) {
	for _, ancestor := range b.chain {
		if ancestor == filename {
			return nil, &CircularDependencyError{Chain: append(append([]string{}, b.chain...), filename)}
		}
	}
	if memoized, done := b.processed[filename]; done {
		return memoized, nil
	}
	b.chain = append(b.chain, filename)
	defer func() { b.chain = b.chain[:len(b.chain)-1] }()

	environment := b.environment

	raw, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}
	selfEntry, err := statDependency(filename)
	if err != nil {
		return nil, err
	}

	logicalPath := environment.LogicalPath(filename)
	contentType := environment.ContentType(filename)

	processors := environment.engineChain(filename)
	processors = append(processors, environment.registry.Processors(processor.Pre, contentType)...)
	processors = append(processors, environment.registry.Processors(processor.Post, contentType)...)

	// No processors at all: a pass-through static asset. The body is
	// the raw file and the dependency set is the file itself.
	if len(processors) == 0 {
		static := &asset.Asset{
			Kind:             asset.Static,
			LogicalPath:      logicalPath,
			Filename:         filename,
			ContentType:      contentType,
			Mtime:            time.Unix(0, selfEntry.Mtime),
			Length:           int64(len(raw)),
			Digest:           digest.HashBytes(raw),
			Source:           raw,
			DependencyPaths:  []asset.DependencyPath{selfEntry},
			DependencyDigest: asset.DependencyDigestOf([]asset.DependencyPath{selfEntry}),
			DependencyAssets: []string{filename},
		}
		b.processed[filename] = static
		return static, nil
	}

	outcome, err := pipeline.Run(pipeline.Exec{
		Environment: environment,
		Cache:       environment.cache,
		SearchRoots: environment.searchPaths,
		LogicalPath: logicalPath,
		ContentType: contentType,
	}, processors, filename, raw)
	if err != nil {
		return nil, err
	}

	stubbed, err := b.resolveSet(filename, outcome.StubbedAssets)
	if err != nil {
		return nil, err
	}

	requiredAssets, err := b.resolveRequired(filename, outcome.RequiredPaths, stubbed)
	if err != nil {
		return nil, err
	}

	dependencyPaths := []asset.DependencyPath{selfEntry}
	dependencyAssets := make([]string, 0, len(outcome.DependencyAssets))

	// Watched-only paths: stat and hash, but never concatenate.
	for _, reference := range outcome.DependencyPaths {
		resolved, err := b.environment.resolveReference(filename, reference)
		if err != nil {
			return nil, err
		}
		entry, err := statDependency(resolved)
		if err != nil {
			return nil, err
		}
		dependencyPaths = append(dependencyPaths, entry)
	}

	// Assets whose digest participates directly (the accumulator is
	// seeded with the current file).
	for _, reference := range outcome.DependencyAssets {
		resolved := reference
		if resolved != filename {
			resolved, err = b.environment.resolveReference(filename, reference)
			if err != nil {
				return nil, err
			}
		}
		dependencyAssets = append(dependencyAssets, resolved)
		entry, err := statDependency(resolved)
		if err != nil {
			return nil, err
		}
		dependencyPaths = append(dependencyPaths, entry)
	}

	// The bundle closure's own dependencies: anything that makes a
	// constituent stale makes this asset stale.
	for _, constituent := range requiredAssets {
		dependencyPaths = append(dependencyPaths, constituent.DependencyPaths...)
	}

	dependencyPaths = asset.NormalizeDependencyPaths(dependencyPaths)

	built := &asset.Asset{
		Kind:             asset.Processed,
		LogicalPath:      logicalPath,
		Filename:         filename,
		ContentType:      contentType,
		Mtime:            maxMtime(dependencyPaths),
		Length:           int64(len(outcome.Data)),
		Digest:           digest.HashBytes(outcome.Data),
		Source:           outcome.Data,
		DependencyPaths:  dependencyPaths,
		DependencyDigest: asset.DependencyDigestOf(dependencyPaths),
		DependencyAssets: dependencyAssets,
	}
	built.RequiredAssets = b.flattenWithSelf(requiredAssets, built)
	b.processed[filename] = built
	return built, nil
}

// resolveRequired resolves each required reference to its processed
// asset, in declaration order, excluding stubbed filenames. A
// reference to the requiring file itself is dropped — the requiring
// asset closes its own bundle (self last).
func (b *builder) resolveRequired(fromFile string, references []string, stubbed map[string]bool) ([]*asset.Asset, error) {
	var required []*asset.Asset
	for _, reference := range references {
		resolved, err := b.environment.resolveReference(fromFile, reference)
		if err != nil {
			return nil, fmt.Errorf("required from %s: %w", fromFile, err)
		}
		if resolved == fromFile || stubbed[resolved] {
			continue
		}
		constituent, err := b.buildProcessed(resolved)
		if err != nil {
			return nil, err
		}
		required = append(required, constituent)
	}
	return required, nil
}

// flattenWithSelf flattens the constituents' bundle closures into one
// ordered sequence in declaration order, deduplicated by filename,
// with self appended last. Static constituents have no closure of
// their own and contribute themselves directly.
func (b *builder) flattenWithSelf(required []*asset.Asset, self *asset.Asset) []*asset.Asset {
	seen := make(map[string]bool)
	var flattened []*asset.Asset
	for _, constituent := range required {
		closure := constituent.RequiredAssets
		if len(closure) == 0 {
			closure = []*asset.Asset{constituent}
		}
		for _, member := range closure {
			if member.Filename == self.Filename || seen[member.Filename] {
				continue
			}
			seen[member.Filename] = true
			flattened = append(flattened, member)
		}
	}
	return append(flattened, self)
}

// resolveSet resolves references into a filename set.
func (b *builder) resolveSet(fromFile string, references []string) (map[string]bool, error) {
	if len(references) == 0 {
		return nil, nil
	}
	set := make(map[string]bool, len(references))
	for _, reference := range references {
		resolved, err := b.environment.resolveReference(fromFile, reference)
		if err != nil {
			return nil, fmt.Errorf("stubbed from %s: %w", fromFile, err)
		}
		set[resolved] = true
	}
	return set, nil
}

// statDependency captures a file's current (path, mtime, digest)
// tuple for the dependency closure.
func statDependency(path string) (asset.DependencyPath, error) {
	info, err := os.Stat(path)
	if err != nil {
		return asset.DependencyPath{}, fmt.Errorf("stat %s: %w", path, err)
	}
	contents, err := os.ReadFile(path)
	if err != nil {
		return asset.DependencyPath{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return asset.DependencyPath{
		Path:   path,
		Mtime:  info.ModTime().UnixNano(),
		Digest: digest.HashBytes(contents),
	}, nil
}

// maxMtime returns the latest modification time across the closure.
func maxMtime(paths []asset.DependencyPath) time.Time {
	var latest int64
	for _, entry := range paths {
		if entry.Mtime > latest {
			latest = entry.Mtime
		}
	}
	return time.Unix(0, latest)
}

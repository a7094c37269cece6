// Copyright 2026 The Assetforge Authors
// SPDX-License-Identifier: Apache-2.0

// Package pipeline runs an ordered processor chain over one file's
// contents, threading the data buffer through each stage and
// collecting the dependency metadata the stages report.
//
// The executor is pure: given the same processors and inputs it
// performs no I/O of its own and returns the same outcome. Processor
// errors are not caught here — a failing transform fails the build.
package pipeline

import (
	"fmt"
	"strings"

	"github.com/assetforge/assetforge/lib/processor"
)

// Exec carries the per-build envelope fields the executor cannot
// derive from the filename alone. The caller (environment builder)
// has already filtered processors by phase and content type.
type Exec struct {
	// Environment is the processor-visible environment handle. May be
	// nil for standalone runs.
	Environment processor.Environment

	// Cache is the processor-visible cache handle. May be nil.
	Cache processor.Cache

	// SearchRoots are the environment's search roots, used to derive
	// the envelope's root path.
	SearchRoots []string

	// LogicalPath is the asset's logical path without engine or
	// format extensions.
	LogicalPath string

	// ContentType is the asset's resolved content type.
	ContentType string
}

// Outcome is the final buffer plus the four accumulators collected
// across the processor chain. Within one run accumulators only grow;
// DependencyAssets always contains the input filename.
type Outcome struct {
	// Data is the output of the last processor (or the initial data
	// when the chain is empty).
	Data []byte

	// RequiredPaths lists dependencies to bundle, in declaration
	// order, deduplicated.
	RequiredPaths []string

	// StubbedAssets lists dependencies excluded from bundling.
	StubbedAssets []string

	// DependencyPaths lists files watched for staleness but not
	// concatenated.
	DependencyPaths []string

	// DependencyAssets lists assets whose digest participates in the
	// dependency digest. Always contains the processed filename.
	DependencyAssets []string
}

// Run invokes each processor in order over data. Each stage receives
// the shared envelope plus the previous stage's output; its Result's
// Data replaces the buffer and the metadata fields append into the
// accumulators. A processor error aborts the run and propagates.
func Run(exec Exec, processors []processor.Processor, filename string, data []byte) (*Outcome, error) {
	ctx := processor.Context{
		Environment: exec.Environment,
		Cache:       exec.Cache,
		Filename:    filename,
		RootPath:    rootPath(exec.SearchRoots, filename),
		LogicalPath: exec.LogicalPath,
		ContentType: exec.ContentType,
	}

	var (
		required         = newOrderedSet()
		stubbed          = newOrderedSet()
		dependencyPaths  = newOrderedSet()
		dependencyAssets = newOrderedSet()
	)
	dependencyAssets.add(filename)

	for _, proc := range processors {
		ctx.Data = data
		result, err := proc.Process(&ctx)
		if err != nil {
			return nil, fmt.Errorf("processing %s with %s: %w", filename, proc.Name(), err)
		}
		if result == nil {
			return nil, &processor.InvalidResultError{Processor: proc.Name()}
		}

		data = result.Data
		required.addAll(result.RequiredPaths)
		stubbed.addAll(result.StubbedAssets)
		dependencyPaths.addAll(result.DependencyPaths)
		dependencyAssets.addAll(result.DependencyAssets)
	}

	return &Outcome{
		Data:             data,
		RequiredPaths:    required.items(),
		StubbedAssets:    stubbed.items(),
		DependencyPaths:  dependencyPaths.items(),
		DependencyAssets: dependencyAssets.items(),
	}, nil
}

// rootPath returns the first search root that is a path prefix of
// filename, or "" when filename lives outside every root.
func rootPath(searchRoots []string, filename string) string {
	for _, root := range searchRoots {
		if filename == root || strings.HasPrefix(filename, strings.TrimSuffix(root, "/")+"/") {
			return root
		}
	}
	return ""
}

// orderedSet is a string set that remembers insertion order.
type orderedSet struct {
	seen    map[string]struct{}
	ordered []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]struct{})}
}

func (s *orderedSet) add(value string) {
	if _, present := s.seen[value]; present {
		return
	}
	s.seen[value] = struct{}{}
	s.ordered = append(s.ordered, value)
}

func (s *orderedSet) addAll(values []string) {
	for _, value := range values {
		s.add(value)
	}
}

func (s *orderedSet) items() []string {
	return s.ordered
}

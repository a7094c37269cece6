// Copyright 2026 The Assetforge Authors
// SPDX-License-Identifier: Apache-2.0

package processor

import (
	"fmt"

	"github.com/assetforge/assetforge/lib/digest"
)

// Environment is the narrow view of the build environment a processor
// may consult. Defined here (consumer side) so processors do not
// depend on the environment package.
type Environment interface {
	// Resolve maps a logical path to an absolute filename using the
	// environment's search paths.
	Resolve(logicalPath string) (string, error)

	// ContentType returns the content type of the given path after
	// engine extensions are stripped, or "" if unknown.
	ContentType(path string) string

	// VersionDigest is the environment-wide version digest. Changing
	// the environment configuration changes this digest.
	VersionDigest() digest.Hash
}

// Cache is the key-value handle a processor may use to memoize its
// own expensive work (e.g. a compiled syntax tree). Entirely optional;
// the pipeline never writes through it.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
}

// Context is the input envelope for one processor invocation. All
// fields except Data are fixed for the duration of a pipeline run;
// Data carries the output of the previous processor.
type Context struct {
	// Environment is the build environment handle. May be nil when a
	// pipeline runs standalone (tests).
	Environment Environment

	// Cache is the processor-visible cache handle. May be nil when
	// caching is disabled.
	Cache Cache

	// Filename is the absolute path of the file being built.
	Filename string

	// RootPath is the search root that contains Filename, or "" when
	// the file lives outside every registered root.
	RootPath string

	// LogicalPath is the asset's logical path without engine
	// extensions or format extension.
	LogicalPath string

	// ContentType is the asset's resolved content type.
	ContentType string

	// Data is the current buffer: the previous processor's output, or
	// the initial file contents for the first processor.
	Data []byte
}

// Result is what a processor returns. Data replaces the pipeline's
// current buffer; the remaining fields append into the pipeline's
// accumulators. A simple transform fills only Data.
type Result struct {
	// Data is the replacement buffer.
	Data []byte

	// RequiredPaths are dependencies whose bodies must be bundled
	// into this asset, in declaration order. Entries may be logical
	// paths or paths relative to the current file.
	RequiredPaths []string

	// StubbedAssets are declared dependencies intentionally excluded
	// from the bundle (provided elsewhere).
	StubbedAssets []string

	// DependencyPaths are files whose content affects correctness but
	// whose bodies are not concatenated (watched for staleness only).
	DependencyPaths []string

	// DependencyAssets are assets whose digest participates in this
	// asset's dependency digest.
	DependencyAssets []string
}

// Processor is one transform stage. Name identifies the processor for
// registry removal and error reporting.
type Processor interface {
	Name() string
	Process(ctx *Context) (*Result, error)
}

// InvalidResultError reports a processor that returned neither a
// result nor an error. The contract makes any well-typed return
// valid, so this is the one shape the type system cannot rule out.
type InvalidResultError struct {
	// Processor is the name of the offending processor.
	Processor string
}

func (e *InvalidResultError) Error() string {
	return fmt.Sprintf("invalid processor result: %s returned neither a result nor an error", e.Processor)
}

// funcProcessor adapts a structured function to the Processor
// interface.
type funcProcessor struct {
	name string
	fn   func(ctx *Context) (*Result, error)
}

func (p *funcProcessor) Name() string { return p.name }

func (p *funcProcessor) Process(ctx *Context) (*Result, error) {
	return p.fn(ctx)
}

// Func wraps a structured function as a named Processor.
func Func(name string, fn func(ctx *Context) (*Result, error)) Processor {
	return &funcProcessor{name: name, fn: fn}
}

// legacyProcessor adapts the two-argument buffer-in/buffer-out
// shorthand to the Processor interface. The returned buffer becomes
// the Result's Data; accumulators are untouched.
type legacyProcessor struct {
	name string
	fn   func(ctx *Context, data []byte) ([]byte, error)
}

func (p *legacyProcessor) Name() string { return p.name }

func (p *legacyProcessor) Process(ctx *Context) (*Result, error) {
	data, err := p.fn(ctx, ctx.Data)
	if err != nil {
		return nil, err
	}
	return &Result{Data: data}, nil
}

// LegacyFunc wraps a two-argument transform function as a Processor.
// The processor's name is synthesized from label, so it can later be
// removed from a registry by that label alone — callers do not need
// to keep a reference to the wrapper.
func LegacyFunc(label string, fn func(ctx *Context, data []byte) ([]byte, error)) Processor {
	return &legacyProcessor{name: legacyName(label), fn: fn}
}

// legacyName derives the synthetic registry name for a legacy
// processor registered under label.
func legacyName(label string) string {
	return fmt.Sprintf("legacy processor (%s)", label)
}

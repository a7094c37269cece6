// Copyright 2026 The Assetforge Authors
// SPDX-License-Identifier: Apache-2.0

package environment

import (
	"github.com/assetforge/assetforge/lib/asset"
	"github.com/assetforge/assetforge/lib/digest"
	"github.com/assetforge/assetforge/lib/pipeline"
	"github.com/assetforge/assetforge/lib/processor"
)

// buildBundle constructs the bundled form of an already-processed
// asset: the bodies of its flattened dependency graph concatenated in
// link order, run through the bundle-phase processors for its content
// type.
//
// Bundling never changes which files are dependencies — RequiredAssets,
// DependencyPaths, DependencyDigest, and Mtime are inherited from the
// processed asset verbatim. Only Length and Digest are recomputed,
// over the post-bundle-processing bytes. Given the same constituents
// and processors, the output bytes are identical.
func (e *Environment) buildBundle(processed *asset.Asset) (*asset.Asset, error) {
	var concatenated []byte
	dependencyAssets := make([]string, 0, len(processed.RequiredAssets))
	for _, constituent := range processed.RequiredAssets {
		concatenated = append(concatenated, constituent.Source...)
		dependencyAssets = append(dependencyAssets, constituent.Filename)
	}

	data := concatenated
	bundleProcessors := e.registry.Processors(processor.Bundle, processed.ContentType)
	if len(bundleProcessors) > 0 {
		outcome, err := pipeline.Run(pipeline.Exec{
			Environment: e,
			Cache:       e.cache,
			SearchRoots: e.searchPaths,
			LogicalPath: processed.LogicalPath,
			ContentType: processed.ContentType,
		}, bundleProcessors, processed.Filename, concatenated)
		if err != nil {
			return nil, err
		}
		data = outcome.Data
	}

	return &asset.Asset{
		Kind:             asset.Bundled,
		LogicalPath:      processed.LogicalPath,
		Filename:         processed.Filename,
		ContentType:      processed.ContentType,
		Mtime:            processed.Mtime,
		Length:           int64(len(data)),
		Digest:           digest.HashBytes(data),
		Source:           data,
		DependencyPaths:  processed.DependencyPaths,
		DependencyDigest: processed.DependencyDigest,
		RequiredAssets:   processed.RequiredAssets,
		DependencyAssets: dependencyAssets,
	}, nil
}

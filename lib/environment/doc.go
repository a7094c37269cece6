// Copyright 2026 The Assetforge Authors
// SPDX-License-Identifier: Apache-2.0

// Package environment ties the asset pipeline together: it owns the
// search paths, engine and processor registrations, and content-type
// table, resolves logical paths to files, and builds assets by
// running the processor phases and (for bundles) concatenating the
// resolved dependency graph.
//
// Two entry points exist. [Environment] is the mutable configuration
// surface and uncached builder: every FindAsset call rebuilds from
// the filesystem. [Cached] is the immutable view used to serve
// lookups: it memoizes builds in memory and in a persisted store,
// keyed by a digest over (environment version, filename, file content
// hash, bundle flag), and revalidates every persisted hit against
// live dependency content before trusting it. Cached exposes no
// mutation operations — freeze the configuration first, then wrap it.
package environment

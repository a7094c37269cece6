// Copyright 2026 The Assetforge Authors
// SPDX-License-Identifier: Apache-2.0

// Assetforge compiles content-addressed asset bundles. It reads a
// YAML configuration naming the search roots and cache directory, a
// JSONC manifest listing the logical paths to build, runs each asset
// through its processor pipeline with two-tier caching, and writes
// digest-suffixed artifacts to the output directory.
// Subcommands: compile, hash, version.
package main

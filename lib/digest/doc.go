// Copyright 2026 The Assetforge Authors
// SPDX-License-Identifier: Apache-2.0

// Package digest computes the content hashes that address everything
// in the asset pipeline: asset bodies, dependency closures, cache
// keys, and the environment version.
//
// Two domains are used. The content domain hashes raw byte bodies
// (processed asset sources). The value domain hashes structured
// JSON-like values (strings, numbers, booleans, nil, sequences,
// mappings) with a stable encoding: mapping hashing is independent of
// key order, so the same logical value always produces the same
// digest across process restarts.
package digest

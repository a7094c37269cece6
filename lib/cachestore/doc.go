// Copyright 2026 The Assetforge Authors
// SPDX-License-Identifier: Apache-2.0

// Package cachestore provides the two cache tiers behind the cached
// environment: a sharded in-memory map for the process lifetime, and
// a compressed file-backed store that persists across processes.
//
// Both tiers are plain key-value stores addressed by opaque cache key
// strings. Neither tier knows anything about assets or staleness —
// validation of persisted hits is the cache layer's job. The stores
// treat the cache strictly as an optimization: a failed persisted
// read or write degrades to a miss or a log line, never to a build
// failure.
package cachestore

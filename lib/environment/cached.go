// Copyright 2026 The Assetforge Authors
// SPDX-License-Identifier: Apache-2.0

package environment

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/assetforge/assetforge/lib/asset"
	"github.com/assetforge/assetforge/lib/cachestore"
	"github.com/assetforge/assetforge/lib/digest"
)

// Cached is the immutable, memoizing view of an environment. Freeze
// the environment's configuration, wrap it with NewCached, and serve
// all lookups through the view. The type deliberately exposes no
// mutation operations — the cache's premise is that configuration is
// fixed for the view's lifetime, so there is nothing to invalidate at
// runtime.
//
// Lookups go memory tier → persisted tier → base builder. The memory
// tier holds only entries validated during this process's lifetime,
// so memory hits return without any filesystem access. A persisted
// hit is revalidated by re-stating and re-hashing every recorded
// dependency path and comparing dependency digests; a mismatch of any
// kind — content, mtime, or the path set itself — falls through to a
// rebuild. The result is always either a current asset or a build
// error, never a silently stale artifact.
//
// Concurrent lookups for the same key may race and build twice.
// Builds are pure functions of file content, so the race costs
// redundant work, not correctness; the tiers are last-write-wins.
type Cached struct {
	environment   *Environment
	versionDigest digest.Hash
	memory        *cachestore.Memory[*asset.Asset]
	persisted     cachestore.Store
	logger        *slog.Logger
}

// CachedOptions configures a cached view.
type CachedOptions struct {
	// Persisted is the second cache tier. Optional; without it the
	// view memoizes in memory only.
	Persisted cachestore.Store

	// Logger receives cache-decision logging at debug level. If nil,
	// the environment's logger is used.
	Logger *slog.Logger
}

// NewCached wraps an environment in a cached view. The environment's
// version digest is snapshotted now; configuration changes made to
// the base after this point are not observed by the view.
func NewCached(environment *Environment, options CachedOptions) *Cached {
	logger := options.Logger
	if logger == nil {
		logger = environment.logger
	}
	return &Cached{
		environment:   environment,
		versionDigest: environment.VersionDigest(),
		memory:        cachestore.NewMemory[*asset.Asset](),
		persisted:     options.Persisted,
		logger:        logger,
	}
}

// VersionDigest returns the snapshotted environment version digest.
func (c *Cached) VersionDigest() digest.Hash {
	return c.versionDigest
}

// Resolve maps a logical path to an absolute filename.
func (c *Cached) Resolve(logicalPath string) (string, error) {
	return c.environment.Resolve(logicalPath)
}

// FindAsset returns the asset for logicalPath, building it only when
// neither tier holds a current copy.
func (c *Cached) FindAsset(logicalPath string, bundle bool) (*asset.Asset, error) {
	filename, err := c.environment.Resolve(logicalPath)
	if err != nil {
		return nil, err
	}

	// The fast per-file hash makes the key sensitive to edits of the
	// asset's own file without paying for the full dependency
	// closure. Dependency edits are caught by revalidation below.
	contents, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}
	key := c.cacheKey(filename, digest.HashBytes(contents), bundle)

	if memoized, present := c.memory.Get(key); present {
		return memoized, nil
	}

	if c.persisted != nil {
		if serialized, present := c.persisted.Get(key); present {
			if decoded, err := asset.Decode(serialized); err == nil {
				if c.fresh(decoded) {
					c.memory.Set(key, decoded)
					return decoded, nil
				}
				c.logger.Debug("persisted asset stale, rebuilding",
					"logical_path", logicalPath, "bundle", bundle)
			} else {
				c.logger.Debug("persisted asset unreadable, rebuilding",
					"logical_path", logicalPath, "error", err)
			}
		}
	}

	built, err := c.environment.FindAssetByFilename(filename, bundle)
	if err != nil {
		return nil, err
	}

	if c.persisted != nil {
		if serialized, err := asset.Encode(built); err == nil {
			c.persisted.Set(key, serialized)
		} else {
			c.logger.Warn("asset serialization failed", "logical_path", logicalPath, "error", err)
		}
	}
	c.memory.Set(key, built)
	return built, nil
}

// LoadAsset reconstructs an asset from its serialized form outside
// the lookup path (e.g. handed over from another process). Unlike a
// persisted cache hit, there is no rebuild to fall through to: a
// stale asset is a hard *asset.StaleError.
func (c *Cached) LoadAsset(serialized []byte) (*asset.Asset, error) {
	decoded, err := asset.Decode(serialized)
	if err != nil {
		return nil, err
	}
	if !c.fresh(decoded) {
		return nil, &asset.StaleError{LogicalPath: decoded.LogicalPath}
	}
	return decoded, nil
}

// cacheKey addresses both tiers: environment version, filename, the
// file's current content hash, and the bundle flag. Distinct from the
// dependency digest, which is the correctness proof recomputed only
// on persisted hits.
func (c *Cached) cacheKey(filename string, fileHash digest.Hash, bundle bool) string {
	return digest.Format(digest.MustHashValue([]any{
		c.versionDigest,
		filename,
		fileHash,
		bundle,
	}))
}

// fresh recomputes the dependency digest over the asset's recorded
// dependency paths from current filesystem state. Any failure to
// stat or read a recorded path counts as stale.
func (c *Cached) fresh(a *asset.Asset) bool {
	live := make([]asset.DependencyPath, 0, len(a.DependencyPaths))
	for _, recorded := range a.DependencyPaths {
		entry, err := statDependency(recorded.Path)
		if err != nil {
			return false
		}
		live = append(live, entry)
	}
	return asset.DependencyDigestOf(live) == a.DependencyDigest
}

// Copyright 2026 The Assetforge Authors
// SPDX-License-Identifier: Apache-2.0

package cachestore

// Store is the persisted-tier contract: an external key-value service
// with per-key atomic get/set and no cross-key transactions. Get
// returns the stored value and true, or nil and false when the key is
// absent (a failed read counts as absent — the caller rebuilds).
type Store interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
}

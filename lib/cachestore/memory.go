// Copyright 2026 The Assetforge Authors
// SPDX-License-Identifier: Apache-2.0

package cachestore

import (
	"hash/fnv"
	"sync"
)

// memoryShardCount is the number of independent shards in a Memory
// store. Sharding keeps concurrent lookups from contending on one
// lock; 32 shards is ample for the lookup rates of an asset server.
const memoryShardCount = 32

// Memory is a sharded in-memory key-value map, generic over the
// stored value. The cached environment uses Memory[*asset.Asset] for
// its first tier (validated, decoded entries) and Memory[[]byte]
// satisfies [Store] for tests and for processes that want a purely
// in-memory persisted tier.
//
// Safe for concurrent use. Racing writes to the same key are
// last-write-wins, which is correct here because builds are pure:
// both racers computed the same value.
type Memory[V any] struct {
	shards [memoryShardCount]memoryShard[V]
}

type memoryShard[V any] struct {
	mu      sync.RWMutex
	entries map[string]V
}

// NewMemory returns an empty sharded in-memory store.
func NewMemory[V any]() *Memory[V] {
	store := &Memory[V]{}
	for index := range store.shards {
		store.shards[index].entries = make(map[string]V)
	}
	return store
}

func (m *Memory[V]) shard(key string) *memoryShard[V] {
	hasher := fnv.New32a()
	hasher.Write([]byte(key))
	return &m.shards[hasher.Sum32()%memoryShardCount]
}

// Get returns the value stored under key and whether it was present.
func (m *Memory[V]) Get(key string) (V, bool) {
	shard := m.shard(key)
	shard.mu.RLock()
	value, present := shard.entries[key]
	shard.mu.RUnlock()
	return value, present
}

// Set stores value under key, replacing any previous value.
func (m *Memory[V]) Set(key string, value V) {
	shard := m.shard(key)
	shard.mu.Lock()
	shard.entries[key] = value
	shard.mu.Unlock()
}

// Len returns the total number of entries across all shards.
func (m *Memory[V]) Len() int {
	total := 0
	for index := range m.shards {
		shard := &m.shards[index]
		shard.mu.RLock()
		total += len(shard.entries)
		shard.mu.RUnlock()
	}
	return total
}

// Bytes is the []byte instantiation of Memory, usable wherever a
// [Store] is expected.
type Bytes = Memory[[]byte]

// NewBytes returns an empty in-memory byte store.
func NewBytes() *Bytes {
	return NewMemory[[]byte]()
}

var _ Store = (*Bytes)(nil)

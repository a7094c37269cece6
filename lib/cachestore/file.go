// Copyright 2026 The Assetforge Authors
// SPDX-License-Identifier: Apache-2.0

package cachestore

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/assetforge/assetforge/lib/digest"
)

// FileStore is the persisted cache tier: one file per key under a
// two-level sharded directory layout, each entry compressed and
// framed by [frameEntry].
//
// Keys are opaque strings; the on-disk name is the hex digest of the
// key, so any key is filesystem-safe and the layout never leaks key
// contents. Writes go through a temp file and an atomic rename, so a
// reader never observes a partially written entry. Read and write
// failures are absorbed: a broken entry is a miss, a failed write is
// a log line. The cache is an optimization, not a correctness
// dependency.
type FileStore struct {
	root        string
	compression CompressionTag
	logger      *slog.Logger
}

// FileStoreOptions configures a FileStore.
type FileStoreOptions struct {
	// Compression selects the entry compression algorithm. The
	// zero value (CompressionNone) stores entries uncompressed.
	Compression CompressionTag

	// Logger receives warnings about absorbed I/O failures. If nil,
	// slog.Default() is used.
	Logger *slog.Logger
}

// NewFileStore creates a FileStore rooted at the given directory,
// creating it if needed.
func NewFileStore(root string, options FileStoreOptions) (*FileStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory %s: %w", root, err)
	}

	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &FileStore{
		root:        root,
		compression: options.Compression,
		logger:      logger,
	}, nil
}

// entryPath maps a key to its on-disk location: the first two hex
// characters of the key digest form a fan-out directory, the rest the
// file name.
func (s *FileStore) entryPath(key string) string {
	name := digest.Format(digest.HashBytes([]byte(key)))
	return filepath.Join(s.root, name[:2], name[2:]+".cache")
}

// Get returns the entry stored under key. Any failure — missing
// file, truncated entry, corrupt compression frame — is reported as
// an absent key; the caller rebuilds and overwrites the entry.
func (s *FileStore) Get(key string) ([]byte, bool) {
	path := s.entryPath(key)
	framed, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("cache read failed", "path", path, "error", err)
		}
		return nil, false
	}

	payload, err := unframeEntry(framed)
	if err != nil {
		s.logger.Warn("cache entry corrupt", "path", path, "error", err)
		return nil, false
	}
	return payload, true
}

// Set stores value under key. Failures are logged and absorbed.
func (s *FileStore) Set(key string, value []byte) {
	framed, err := frameEntry(value, s.compression)
	if err != nil {
		s.logger.Warn("cache entry framing failed", "key", key, "error", err)
		return
	}

	path := s.entryPath(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		s.logger.Warn("cache write failed", "path", path, "error", err)
		return
	}

	// Temp file in the same directory so the rename is atomic.
	tmpFile, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		s.logger.Warn("cache write failed", "path", path, "error", err)
		return
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(framed); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		s.logger.Warn("cache write failed", "path", path, "error", err)
		return
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		s.logger.Warn("cache write failed", "path", path, "error", err)
		return
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		s.logger.Warn("cache write failed", "path", path, "error", err)
	}
}

var _ Store = (*FileStore)(nil)

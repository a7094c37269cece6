// Copyright 2026 The Assetforge Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for assetforge.
//
// Configuration is loaded from a single YAML file specified by:
//   - ASSETFORGE_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery. The config file is
// the single source of truth; environment variables do not override
// config values. The only expansion performed is ${HOME} and similar
// path variables for portability.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/assetforge/assetforge/lib/cachestore"
)

// Config is the master configuration for assetforge.
type Config struct {
	// Version tags the environment. Bumping it invalidates every
	// cache entry at once, independent of file content.
	Version string `yaml:"version"`

	// SearchPaths lists the asset roots, in resolution priority
	// order. Earlier roots shadow later ones.
	SearchPaths []string `yaml:"search_paths"`

	// Paths configures directory locations.
	Paths PathsConfig `yaml:"paths"`

	// Cache configures the persisted cache tier.
	Cache CacheConfig `yaml:"cache"`
}

// PathsConfig configures directory locations.
type PathsConfig struct {
	// Root is the base directory for assetforge data.
	Root string `yaml:"root"`

	// Output receives compiled artifacts. A manifest's output_dir
	// takes precedence when set.
	Output string `yaml:"output"`
}

// CacheConfig configures the persisted cache tier.
type CacheConfig struct {
	// Dir is the on-disk cache directory. Empty disables the
	// persisted tier; lookups still memoize in memory.
	Dir string `yaml:"dir"`

	// Compression names the codec applied to persisted entries:
	// "none", "lz4", or "zstd". Default: zstd.
	Compression string `yaml:"compression"`
}

// Default returns the default configuration. These defaults ensure
// all fields have sensible zero-values before the config file is
// merged over them.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultRoot := filepath.Join(homeDir, ".cache", "assetforge")

	return &Config{
		Version: "1",
		Paths: PathsConfig{
			Root:   defaultRoot,
			Output: filepath.Join(defaultRoot, "output"),
		},
		Cache: CacheConfig{
			Dir:         filepath.Join(defaultRoot, "cache"),
			Compression: cachestore.CompressionZstd.String(),
		},
	}
}

// Load loads configuration from the ASSETFORGE_CONFIG environment
// variable. There are no fallbacks: if the variable is not set, this
// fails.
func Load() (*Config, error) {
	configPath := os.Getenv("ASSETFORGE_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("ASSETFORGE_CONFIG environment variable not set; " +
			"set it to the path of your assetforge.yaml config file, or use --config flag")
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path, merging it
// over Default.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.expandVariables()
	return cfg, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in
// paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"ASSETFORGE_ROOT": c.Paths.Root,
		"HOME":            os.Getenv("HOME"),
	}

	c.Paths.Root = expandVars(c.Paths.Root, vars)
	vars["ASSETFORGE_ROOT"] = c.Paths.Root // Update for dependent paths.

	c.Paths.Output = expandVars(c.Paths.Output, vars)
	c.Cache.Dir = expandVars(c.Cache.Dir, vars)
	for index, root := range c.SearchPaths {
		c.SearchPaths[index] = expandVars(root, vars)
	}
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if len(c.SearchPaths) == 0 {
		errs = append(errs, fmt.Errorf("search_paths is required (at least one asset root)"))
	}
	for index, root := range c.SearchPaths {
		if root == "" {
			errs = append(errs, fmt.Errorf("search_paths[%d] is empty", index))
		}
	}
	if c.Paths.Root == "" {
		errs = append(errs, fmt.Errorf("paths.root is required"))
	}
	if _, err := cachestore.ParseCompressionTag(c.Cache.Compression); err != nil {
		errs = append(errs, fmt.Errorf("cache.compression: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// CompressionTag returns the parsed persisted-entry compression
// codec. Call Validate first; an invalid name falls back to no
// compression here.
func (c *Config) CompressionTag() cachestore.CompressionTag {
	tag, err := cachestore.ParseCompressionTag(c.Cache.Compression)
	if err != nil {
		return cachestore.CompressionNone
	}
	return tag
}

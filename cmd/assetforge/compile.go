// Copyright 2026 The Assetforge Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/assetforge/assetforge/lib/cachestore"
	"github.com/assetforge/assetforge/lib/config"
	"github.com/assetforge/assetforge/lib/digest"
	"github.com/assetforge/assetforge/lib/directive"
	"github.com/assetforge/assetforge/lib/environment"
	"github.com/assetforge/assetforge/lib/manifest"
	"github.com/assetforge/assetforge/lib/processor"
)

// compiledEntry is one row of the output manifest: where a logical
// path ended up and what its content digest is.
type compiledEntry struct {
	LogicalPath string `json:"logical_path"`
	Output      string `json:"output"`
	Digest      string `json:"digest"`
	Length      int64  `json:"length"`
}

func runCompile(args []string) error {
	var configPath string
	var manifestPath string
	var outputDir string
	var jobs int
	var verbose bool

	flagSet := pflag.NewFlagSet("assetforge compile", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to assetforge.yaml (default: $ASSETFORGE_CONFIG)")
	flagSet.StringVar(&manifestPath, "manifest", "", "path to the JSONC compile manifest (required)")
	flagSet.StringVar(&outputDir, "output", "", "output directory (overrides manifest and config)")
	flagSet.IntVar(&jobs, "jobs", runtime.NumCPU(), "maximum concurrent asset builds")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "log cache decisions at debug level")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if manifestPath == "" {
		return fmt.Errorf("--manifest is required")
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	compileManifest, err := manifest.ReadFile(manifestPath)
	if err != nil {
		return err
	}
	if issues := manifest.Validate(compileManifest); len(issues) > 0 {
		return fmt.Errorf("invalid manifest %s:\n  %s", manifestPath, strings.Join(issues, "\n  "))
	}

	destination := firstNonEmpty(outputDir, compileManifest.OutputDir, cfg.Paths.Output)
	if !filepath.IsAbs(destination) && compileManifest.OutputDir == destination {
		// A manifest-relative output directory anchors at the
		// manifest, not the working directory.
		destination = filepath.Join(filepath.Dir(manifestPath), destination)
	}
	if err := os.MkdirAll(destination, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	view, err := newCachedView(cfg, logger)
	if err != nil {
		return err
	}

	entries := make([]compiledEntry, len(compileManifest.Assets))
	var group errgroup.Group
	group.SetLimit(jobs)

	for index, logicalPath := range compileManifest.Assets {
		index, logicalPath := index, logicalPath
		group.Go(func() error {
			built, err := view.FindAsset(logicalPath, compileManifest.Bundled())
			if err != nil {
				return fmt.Errorf("compiling %s: %w", logicalPath, err)
			}

			outputName := digestedName(logicalPath, built.Digest)
			outputPath := filepath.Join(destination, filepath.FromSlash(outputName))
			if err := writeArtifact(outputPath, built.Source); err != nil {
				return err
			}

			logger.Info("compiled", "logical_path", logicalPath,
				"output", outputName, "length", built.Length)
			entries[index] = compiledEntry{
				LogicalPath: logicalPath,
				Output:      outputName,
				Digest:      digest.Format(built.Digest),
				Length:      built.Length,
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	return writeOutputManifest(destination, entries)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

// newCachedView assembles the environment from the configuration:
// search roots, the directive preprocessor on the bundleable content
// types, and the two cache tiers.
func newCachedView(cfg *config.Config, logger *slog.Logger) (*environment.Cached, error) {
	env := environment.New(environment.Options{
		Version: cfg.Version,
		Logger:  logger,
	})
	for _, root := range cfg.SearchPaths {
		env.AppendPath(root)
	}
	for _, contentType := range []string{"application/javascript", "text/css"} {
		env.Registry().Register(processor.Pre, contentType, directive.New())
	}

	var persisted cachestore.Store
	if cfg.Cache.Dir != "" {
		store, err := cachestore.NewFileStore(cfg.Cache.Dir, cachestore.FileStoreOptions{
			Compression: cfg.CompressionTag(),
			Logger:      logger,
		})
		if err != nil {
			return nil, err
		}
		persisted = store
	}
	return environment.NewCached(env, environment.CachedOptions{
		Persisted: persisted,
		Logger:    logger,
	}), nil
}

// digestedName splits the logical path at its extension and splices
// the content digest in: "app.js" becomes "app-<digest>.js".
func digestedName(logicalPath string, contentDigest digest.Hash) string {
	extension := filepath.Ext(logicalPath)
	stem := strings.TrimSuffix(logicalPath, extension)
	return fmt.Sprintf("%s-%s%s", stem, digest.Format(contentDigest), extension)
}

// writeArtifact writes atomically: temp file in the target directory,
// then rename.
func writeArtifact(path string, data []byte) error {
	directory := filepath.Dir(path)
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", directory, err)
	}
	temp, err := os.CreateTemp(directory, ".artifact-*")
	if err != nil {
		return fmt.Errorf("creating artifact: %w", err)
	}
	if _, err := temp.Write(data); err != nil {
		temp.Close()
		os.Remove(temp.Name())
		return fmt.Errorf("writing artifact: %w", err)
	}
	if err := temp.Close(); err != nil {
		os.Remove(temp.Name())
		return fmt.Errorf("writing artifact: %w", err)
	}
	if err := os.Rename(temp.Name(), path); err != nil {
		os.Remove(temp.Name())
		return fmt.Errorf("writing artifact: %w", err)
	}
	return nil
}

// writeOutputManifest records the logical-path → artifact mapping the
// serving layer needs, sorted for stable diffs.
func writeOutputManifest(destination string, entries []compiledEntry) error {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].LogicalPath < entries[j].LogicalPath
	})
	encoded, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding output manifest: %w", err)
	}
	path := filepath.Join(destination, "manifest.json")
	if err := os.WriteFile(path, append(encoded, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing output manifest: %w", err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}

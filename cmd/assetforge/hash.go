// Copyright 2026 The Assetforge Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/assetforge/assetforge/lib/digest"
)

// runHash prints the content digest of each argument file, one per
// line in "digest  path" form. With no arguments it hashes stdin.
func runHash(args []string) error {
	var check string

	flagSet := pflag.NewFlagSet("assetforge hash", pflag.ContinueOnError)
	flagSet.StringVar(&check, "check", "", "verify the input matches this digest instead of printing")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	paths := flagSet.Args()

	var expected digest.Hash
	if check != "" {
		parsed, err := digest.Parse(check)
		if err != nil {
			return fmt.Errorf("--check: %w", err)
		}
		expected = parsed
	}

	if len(paths) == 0 {
		contents, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		return emitHash(digest.HashBytes(contents), "-", check != "", expected)
	}

	for _, path := range paths {
		contents, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		if err := emitHash(digest.HashBytes(contents), path, check != "", expected); err != nil {
			return err
		}
	}
	return nil
}

func emitHash(actual digest.Hash, label string, checking bool, expected digest.Hash) error {
	if checking {
		if actual != expected {
			return fmt.Errorf("%s: digest mismatch: got %s", label, digest.Format(actual))
		}
		fmt.Printf("%s: OK\n", label)
		return nil
	}
	fmt.Printf("%s  %s\n", digest.Format(actual), label)
	return nil
}

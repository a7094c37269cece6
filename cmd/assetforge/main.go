// Copyright 2026 The Assetforge Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/assetforge/assetforge/lib/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if len(os.Args) < 2 {
		printUsage()
		return fmt.Errorf("subcommand required")
	}

	subcommand := os.Args[1]
	switch subcommand {
	case "compile":
		return runCompile(os.Args[2:])
	case "hash":
		return runHash(os.Args[2:])
	case "version":
		version.Print("assetforge")
		return nil
	case "-h", "--help", "help":
		printUsage()
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown subcommand: %q", subcommand)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: assetforge <subcommand> [flags]

Subcommands:
  compile     Build the assets listed in a manifest
  hash        Print the content digest of files
  version     Print version information

Run 'assetforge <subcommand> --help' for subcommand flags.
`)
}

// Copyright 2026 The Assetforge Authors
// SPDX-License-Identifier: Apache-2.0

package environment

import (
	"fmt"
	"strings"
)

// NotFoundError reports a logical path that resolved to no file under
// any search root.
type NotFoundError struct {
	// LogicalPath is the path that failed to resolve.
	LogicalPath string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("asset not found: %q", e.LogicalPath)
}

// CircularDependencyError reports a require cycle discovered while
// resolving a bundle's dependency graph.
type CircularDependencyError struct {
	// Chain is the require chain, starting at the bundle root and
	// ending at the file that closed the cycle.
	Chain []string
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("circular dependency: %s", strings.Join(e.Chain, " -> "))
}

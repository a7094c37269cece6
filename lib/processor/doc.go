// Copyright 2026 The Assetforge Authors
// SPDX-License-Identifier: Apache-2.0

// Package processor defines the transform contract of the asset
// pipeline and the registry that orders transforms per content type.
//
// A processor receives a Context (the immutable envelope describing
// the file being built plus the current data buffer) and returns a
// Result: a replacement buffer plus any dependency metadata the
// transform discovered. Processors run in registration order within a
// phase; later processors see the output of earlier ones.
//
// The registry is a plain value owned by the environment and shared
// by reference with cached views. There is no package-level global
// state.
package processor

// Copyright 2026 The Assetforge Authors
// SPDX-License-Identifier: Apache-2.0

package processor

import (
	"sort"
)

// Phase identifies where in an asset build a processor runs.
type Phase int

const (
	// Pre runs on a single file's contents after its engines, before
	// any bundling.
	Pre Phase = iota

	// Post runs on a single file's contents after Pre.
	Post

	// Bundle runs once over the concatenation of a bundle's
	// constituent bodies.
	Bundle
)

// String returns the phase name used in the environment version
// digest and in error messages.
func (p Phase) String() string {
	switch p {
	case Pre:
		return "pre"
	case Post:
		return "post"
	case Bundle:
		return "bundle"
	default:
		return "unknown"
	}
}

// phases are all valid phases, in digest order.
var phases = []Phase{Pre, Post, Bundle}

// Registry holds the ordered processor lists per content type for
// each phase. The zero value is not usable; call NewRegistry.
//
// Registry is not safe for concurrent mutation. The environment owns
// it and mutates it only during configuration; cached views read it
// after configuration is frozen.
type Registry struct {
	processors map[Phase]map[string][]Processor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	processors := make(map[Phase]map[string][]Processor, len(phases))
	for _, phase := range phases {
		processors[phase] = make(map[string][]Processor)
	}
	return &Registry{processors: processors}
}

// Register appends proc to the end of contentType's sequence for the
// given phase. Processors of the same phase run in registration
// order: later registrations see the output of earlier ones.
func (r *Registry) Register(phase Phase, contentType string, proc Processor) {
	r.processors[phase][contentType] = append(r.processors[phase][contentType], proc)
}

// Unregister removes the first processor in contentType's sequence
// for the given phase whose identity or name matches. The name match
// also covers the synthetic name of a legacy processor registered via
// [LegacyFunc], so a legacy transform can be removed by its original
// label. Returns true if a processor was removed.
func (r *Registry) Unregister(phase Phase, contentType string, processorOrName any) bool {
	sequence := r.processors[phase][contentType]
	for index, registered := range sequence {
		if !matches(registered, processorOrName) {
			continue
		}
		r.processors[phase][contentType] = append(sequence[:index:index], sequence[index+1:]...)
		return true
	}
	return false
}

// matches reports whether registered is identified by ref: either the
// same Processor value, its name, or the synthetic legacy name
// derived from ref when ref is a string label.
func matches(registered Processor, ref any) bool {
	switch ref := ref.(type) {
	case string:
		return registered.Name() == ref || registered.Name() == legacyName(ref)
	case Processor:
		return registered == ref
	default:
		return false
	}
}

// Processors returns the ordered processor sequence for one phase and
// content type. The returned slice is a copy; mutating it does not
// affect the registry.
func (r *Registry) Processors(phase Phase, contentType string) []Processor {
	sequence := r.processors[phase][contentType]
	if len(sequence) == 0 {
		return nil
	}
	duplicate := make([]Processor, len(sequence))
	copy(duplicate, sequence)
	return duplicate
}

// ContentTypes returns the content types with at least one processor
// registered in the given phase, sorted.
func (r *Registry) ContentTypes(phase Phase) []string {
	types := make([]string, 0, len(r.processors[phase]))
	for contentType, sequence := range r.processors[phase] {
		if len(sequence) > 0 {
			types = append(types, contentType)
		}
	}
	sort.Strings(types)
	return types
}

// DigestValue returns a stable JSON-like description of the registry
// (phase → content type → ordered processor names) for inclusion in
// the environment version digest. Reconfiguring processors changes
// this value and therefore invalidates every cached asset.
func (r *Registry) DigestValue() map[string]any {
	description := make(map[string]any, len(phases))
	for _, phase := range phases {
		perType := make(map[string]any, len(r.processors[phase]))
		for contentType, sequence := range r.processors[phase] {
			if len(sequence) == 0 {
				continue
			}
			names := make([]any, len(sequence))
			for index, registered := range sequence {
				names[index] = registered.Name()
			}
			perType[contentType] = names
		}
		description[phase.String()] = perType
	}
	return description
}

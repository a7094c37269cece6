// Copyright 2026 The Assetforge Authors
// SPDX-License-Identifier: Apache-2.0

package processor

import (
	"strings"
	"testing"
)

func identity(name string) Processor {
	return Func(name, func(ctx *Context) (*Result, error) {
		return &Result{Data: ctx.Data}, nil
	})
}

func registeredNames(r *Registry, phase Phase, contentType string) []string {
	var names []string
	for _, proc := range r.Processors(phase, contentType) {
		names = append(names, proc.Name())
	}
	return names
}

func TestRegisterPreservesOrder(t *testing.T) {
	registry := NewRegistry()
	registry.Register(Pre, "application/javascript", identity("first"))
	registry.Register(Pre, "application/javascript", identity("second"))
	registry.Register(Pre, "application/javascript", identity("third"))

	names := registeredNames(registry, Pre, "application/javascript")
	want := []string{"first", "second", "third"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("order = %v, want %v", names, want)
	}
}

func TestPhasesAndContentTypesIsolated(t *testing.T) {
	registry := NewRegistry()
	registry.Register(Pre, "application/javascript", identity("js-pre"))
	registry.Register(Bundle, "application/javascript", identity("js-bundle"))
	registry.Register(Pre, "text/css", identity("css-pre"))

	if got := registeredNames(registry, Pre, "application/javascript"); len(got) != 1 || got[0] != "js-pre" {
		t.Errorf("js pre = %v", got)
	}
	if got := registeredNames(registry, Bundle, "application/javascript"); len(got) != 1 || got[0] != "js-bundle" {
		t.Errorf("js bundle = %v", got)
	}
	if got := registry.Processors(Post, "application/javascript"); got != nil {
		t.Errorf("post phase should be empty, got %v", got)
	}
	if got := registeredNames(registry, Pre, "text/css"); len(got) != 1 || got[0] != "css-pre" {
		t.Errorf("css pre = %v", got)
	}
}

func TestUnregisterByIdentity(t *testing.T) {
	registry := NewRegistry()
	keep := identity("keep")
	remove := identity("remove")
	registry.Register(Post, "text/css", keep)
	registry.Register(Post, "text/css", remove)

	if !registry.Unregister(Post, "text/css", remove) {
		t.Fatal("Unregister by identity returned false")
	}
	names := registeredNames(registry, Post, "text/css")
	if len(names) != 1 || names[0] != "keep" {
		t.Errorf("remaining = %v, want [keep]", names)
	}
}

func TestUnregisterLegacyByLabel(t *testing.T) {
	// A legacy processor registered via the two-argument shorthand is
	// removable by its original label, without a reference to the
	// generated wrapper.
	registry := NewRegistry()
	registry.Register(Pre, "application/javascript", identity("untouched"))
	registry.Register(Pre, "application/javascript",
		LegacyFunc("strip-comments", func(ctx *Context, data []byte) ([]byte, error) {
			return data, nil
		}))

	if !registry.Unregister(Pre, "application/javascript", "strip-comments") {
		t.Fatal("Unregister by legacy label returned false")
	}
	names := registeredNames(registry, Pre, "application/javascript")
	if len(names) != 1 || names[0] != "untouched" {
		t.Errorf("remaining = %v, want [untouched]", names)
	}
}

func TestUnregisterRemovesExactlyOne(t *testing.T) {
	registry := NewRegistry()
	registry.Register(Pre, "application/javascript", identity("duplicate"))
	registry.Register(Pre, "application/javascript", identity("duplicate"))

	if !registry.Unregister(Pre, "application/javascript", "duplicate") {
		t.Fatal("Unregister returned false")
	}
	if remaining := registry.Processors(Pre, "application/javascript"); len(remaining) != 1 {
		t.Errorf("remaining count = %d, want 1", len(remaining))
	}
}

func TestUnregisterMissing(t *testing.T) {
	registry := NewRegistry()
	if registry.Unregister(Pre, "application/javascript", "absent") {
		t.Error("Unregister of an absent processor returned true")
	}
}

func TestProcessorsReturnsDefensiveCopy(t *testing.T) {
	registry := NewRegistry()
	registry.Register(Pre, "application/javascript", identity("stable"))

	sequence := registry.Processors(Pre, "application/javascript")
	sequence[0] = identity("clobbered")

	names := registeredNames(registry, Pre, "application/javascript")
	if names[0] != "stable" {
		t.Error("mutating the returned slice affected the registry")
	}
}

func TestLegacyAdapterReplacesBuffer(t *testing.T) {
	legacy := LegacyFunc("upcase", func(ctx *Context, data []byte) ([]byte, error) {
		return []byte(strings.ToUpper(string(data))), nil
	})

	result, err := legacy.Process(&Context{Data: []byte("abc")})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if string(result.Data) != "ABC" {
		t.Errorf("data = %q, want %q", result.Data, "ABC")
	}
	if len(result.RequiredPaths)+len(result.StubbedAssets)+len(result.DependencyPaths)+len(result.DependencyAssets) != 0 {
		t.Error("legacy adapter touched accumulators")
	}
}

func TestDigestValueReflectsRegistrations(t *testing.T) {
	registry := NewRegistry()
	before := registry.DigestValue()
	if len(before["pre"].(map[string]any)) != 0 {
		t.Fatal("fresh registry has pre-phase entries")
	}

	registry.Register(Pre, "application/javascript", identity("one"))
	after := registry.DigestValue()
	perType := after["pre"].(map[string]any)
	names, ok := perType["application/javascript"].([]any)
	if !ok || len(names) != 1 || names[0] != "one" {
		t.Errorf("digest value = %v", after)
	}
}

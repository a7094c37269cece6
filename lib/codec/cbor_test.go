// Copyright 2026 The Assetforge Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"testing"
)

func TestMarshalDeterministic(t *testing.T) {
	// Same logical map must serialize identically regardless of how it
	// was built — deterministic encoding sorts keys.
	first := map[string]any{"logical_path": "a.js", "length": int64(10), "kind": "processed"}
	second := map[string]any{"kind": "processed", "length": int64(10), "logical_path": "a.js"}

	firstBytes, err := Marshal(first)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	secondBytes, err := Marshal(second)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !bytes.Equal(firstBytes, secondBytes) {
		t.Error("equal maps serialized to different bytes")
	}
}

func TestRoundTripStruct(t *testing.T) {
	type record struct {
		Version int    `cbor:"version"`
		Kind    string `cbor:"kind"`
		Source  []byte `cbor:"source"`
	}

	input := record{Version: 1, Kind: "bundled", Source: []byte("var x = 1;")}
	encoded, err := Marshal(input)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var output record
	if err := Unmarshal(encoded, &output); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if output.Version != input.Version || output.Kind != input.Kind || !bytes.Equal(output.Source, input.Source) {
		t.Errorf("round trip mismatch: got %+v, want %+v", output, input)
	}
}

func TestUnmarshalIgnoresUnknownFields(t *testing.T) {
	// A newer writer may add fields; an older reader must not choke.
	encoded, err := Marshal(map[string]any{"kind": "processed", "future_field": true})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var output struct {
		Kind string `cbor:"kind"`
	}
	if err := Unmarshal(encoded, &output); err != nil {
		t.Fatalf("Unmarshal with unknown field: %v", err)
	}
	if output.Kind != "processed" {
		t.Errorf("kind = %q, want %q", output.Kind, "processed")
	}
}

func TestStreamEncoderDecoder(t *testing.T) {
	var buffer bytes.Buffer
	encoder := NewEncoder(&buffer)
	for _, value := range []string{"one", "two", "three"} {
		if err := encoder.Encode(value); err != nil {
			t.Fatalf("Encode(%q): %v", value, err)
		}
	}

	decoder := NewDecoder(&buffer)
	for _, want := range []string{"one", "two", "three"} {
		var got string
		if err := decoder.Decode(&got); err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if got != want {
			t.Errorf("decoded %q, want %q", got, want)
		}
	}
}

func TestUnmarshalRejectsCorruptInput(t *testing.T) {
	var output map[string]any
	if err := Unmarshal([]byte{0xff, 0x00, 0x13}, &output); err == nil {
		t.Error("Unmarshal accepted corrupt input")
	}
}

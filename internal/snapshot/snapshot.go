// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package snapshot provides CBOR golden-file encoding of a Controller
// Memory snapshot, for phase-machine regression tests to compare
// against a recorded fixture rather than re-deriving expected values
// inline. Grounded on pkg/fusain/cbor.go's map[int]interface{} CBOR
// helpers — the teacher's own library, kept even though cs800sim's wire
// protocol (internal/wire) no longer uses CBOR anywhere.
package snapshot

import (
	"fmt"
	"sort"

	"github.com/fxamacker/cbor/v2"
	"github.com/prjemian/cs800sim/internal/memory"
)

// Golden is the CBOR-encodable form of a memory.Snapshot: the parameter
// values plus the two typed fields. Encode writes map keys in sorted
// (canonical) order, so golden files diff cleanly and don't depend on Go
// map iteration order.
type Golden struct {
	Phase   string         `cbor:"1,keyasint"`
	RunMode string         `cbor:"2,keyasint"`
	Values  map[string]int `cbor:"3,keyasint"`
}

// Encode converts a Controller Memory snapshot to its CBOR golden-file
// representation.
func Encode(snap memory.Snapshot) ([]byte, error) {
	values := make(map[string]int, len(snap.Values))
	for name, v := range snap.Values {
		values[name] = int(v)
	}
	g := Golden{Phase: snap.Phase, RunMode: snap.RunMode, Values: values}
	em, err := cbor.EncOptions{Sort: cbor.SortCanonical}.EncMode()
	if err != nil {
		return nil, fmt.Errorf("snapshot: encoding golden fixture: %w", err)
	}
	out, err := em.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("snapshot: encoding golden fixture: %w", err)
	}
	return out, nil
}

// Decode parses a CBOR golden fixture back into a Golden value.
func Decode(data []byte) (Golden, error) {
	var g Golden
	if err := cbor.Unmarshal(data, &g); err != nil {
		return Golden{}, fmt.Errorf("snapshot: decoding golden fixture: %w", err)
	}
	return g, nil
}

// Diff compares two snapshots and reports every parameter whose value
// differs, plus phase/run-mode mismatches, in a stable (sorted) order —
// used by regression tests to produce a readable failure message
// instead of a raw map diff.
func Diff(want, got memory.Snapshot) []string {
	var diffs []string
	if want.Phase != got.Phase {
		diffs = append(diffs, fmt.Sprintf("phase: want %q, got %q", want.Phase, got.Phase))
	}
	if want.RunMode != got.RunMode {
		diffs = append(diffs, fmt.Sprintf("run_mode: want %q, got %q", want.RunMode, got.RunMode))
	}

	names := make([]string, 0, len(want.Values))
	for name := range want.Values {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		wv, gv := want.Values[name], got.Values[name]
		if wv != gv {
			diffs = append(diffs, fmt.Sprintf("%s: want %d, got %d", name, wv, gv))
		}
	}
	return diffs
}

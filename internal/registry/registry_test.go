// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmbeddedCatalog(t *testing.T) {
	r := Load()

	names := r.Names()
	require.NotEmpty(t, names)
	assert.GreaterOrEqual(t, len(names), 45, "catalog should carry ~50 parameters per spec")

	seen := make(map[string]bool)
	for _, name := range names {
		assert.False(t, seen[name], "order must not repeat %q", name)
		seen[name] = true

		p, ok := r.ByName(name)
		require.True(t, ok, "every ordered name must resolve")

		byID, ok := r.ByID(p.ID)
		require.True(t, ok)
		assert.Equal(t, p, byID)
	}
}

func TestEveryAdvertisedIDHasExactlyOneEntry(t *testing.T) {
	r := Load()
	ids := make(map[uint16]string)
	for _, p := range r.All() {
		if other, dup := ids[p.ID]; dup {
			t.Fatalf("duplicate id %d used by %q and %q", p.ID, other, p.Name)
		}
		ids[p.ID] = p.Name
	}
}

func TestConstantParameterSet(t *testing.T) {
	r := Load()
	for _, name := range []string{
		"StatusGasTemp", "StatusGasSetPoint", "StatusRunMode", "StatusPhaseId",
		"SetUpControllerNumber", "SetUpCommissionDate", "SetUpColdheadNumber",
		"DeviceH8Firmware", "StatusRampRate", "StatusTargetTemp",
		"StatusRemaining", "StatusRunTime",
	} {
		p, ok := r.ByName(name)
		require.True(t, ok, name)
		assert.True(t, p.Constant, "%s must be a constant parameter", name)
	}
}

func TestRunModeAndPhaseRoundTrip(t *testing.T) {
	for i, name := range RunModes {
		idx, err := RunModeIndex(name)
		require.NoError(t, err)
		assert.Equal(t, uint16(i), idx)
	}
	_, err := RunModeIndex("bogus")
	assert.Error(t, err)

	for i, name := range Phases {
		idx, err := PhaseIndex(name)
		require.NoError(t, err)
		assert.Equal(t, uint16(i), idx)
		got, err := PhaseName(idx)
		require.NoError(t, err)
		assert.Equal(t, name, got)
	}
	_, err = PhaseName(uint16(len(Phases)))
	assert.Error(t, err)
}

func TestNamesForFormatFallsBackToFullCatalog(t *testing.T) {
	r := Load()
	assert.Equal(t, r.Names(), r.NamesForFormat(0))
	assert.Equal(t, r.Names(), r.NamesForFormat(999), "unrecognised format id falls back to the full catalog")

	core := r.NamesForFormat(1)
	assert.Contains(t, core, "StatusGasTemp")
	assert.Less(t, len(core), len(r.Names()))
	for _, name := range core {
		_, ok := r.ByName(name)
		assert.True(t, ok, "every name in a declared format must resolve: %s", name)
	}
}

func TestParseRejectsUnknownWireType(t *testing.T) {
	_, err := parse([]byte(`
parameters:
  - { name: Bogus, id: 1, type: nonsense }
order: []
`))
	assert.Error(t, err)
}

func TestParseRejectsDuplicateIDs(t *testing.T) {
	_, err := parse([]byte(`
parameters:
  - { name: A, id: 1, type: plain }
  - { name: B, id: 1, type: plain }
order: []
`))
	assert.Error(t, err)
}

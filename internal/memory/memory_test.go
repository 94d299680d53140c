// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package memory

import (
	"testing"
	"time"

	"github.com/prjemian/cs800sim/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMemory(t *testing.T) *Memory {
	t.Helper()
	return New(registry.Load())
}

func TestNewSeedsDefaults(t *testing.T) {
	m := newTestMemory(t)
	assert.Equal(t, "Hold", m.Phase())
	assert.Equal(t, "Startup", m.RunMode())
}

func TestGetSetUnknownParameter(t *testing.T) {
	m := newTestMemory(t)
	_, err := m.Get("NoSuchParameter")
	assert.ErrorIs(t, err, ErrUnknownParameter)

	err = m.Set("NoSuchParameter", 1)
	assert.ErrorIs(t, err, ErrUnknownParameter)
}

func TestGasSetPointClamping(t *testing.T) {
	m := newTestMemory(t)
	require.NoError(t, m.SetTemperature("StatusGasSetPoint", 1000))
	v, err := m.GetTemperature("StatusGasSetPoint")
	require.NoError(t, err)
	assert.Equal(t, 400.0, v)

	require.NoError(t, m.SetTemperature("StatusGasSetPoint", 10))
	v, err = m.GetTemperature("StatusGasSetPoint")
	require.NoError(t, err)
	assert.Equal(t, 80.0, v)
}

func TestSetPhaseByNameAndIndex(t *testing.T) {
	m := newTestMemory(t)
	require.NoError(t, m.SetPhase("Ramp"))
	assert.Equal(t, "Ramp", m.Phase())

	require.NoError(t, m.SetPhaseIndex(1)) // Cool
	assert.Equal(t, "Cool", m.Phase())

	err := m.SetPhase("Bogus")
	assert.ErrorIs(t, err, ErrInvalidPhase)
	assert.Equal(t, "Cool", m.Phase(), "failed SetPhase must not mutate state")

	err = m.SetPhaseIndex(999)
	assert.ErrorIs(t, err, ErrInvalidPhase)
}

func TestSetRunMode(t *testing.T) {
	m := newTestMemory(t)
	require.NoError(t, m.SetRunMode("Run"))
	assert.Equal(t, "Run", m.RunMode())

	err := m.SetRunMode("Bogus")
	assert.ErrorIs(t, err, ErrInvalidRunMode)
	assert.Equal(t, "Run", m.RunMode())
}

func TestSnapshotIsACopy(t *testing.T) {
	m := newTestMemory(t)
	snap := m.Snapshot()
	snap.Values["StatusGasTemp"] = 99

	v, err := m.Get("StatusGasTemp")
	require.NoError(t, err)
	assert.NotEqual(t, uint16(99), v)
}

func TestTickMovesGasTempTowardSetPointAndSkipsConstants(t *testing.T) {
	m := newTestMemory(t)
	require.NoError(t, m.SetTemperature("StatusGasSetPoint", 300))
	require.NoError(t, m.SetTemperature("StatusGasTemp", 150))
	require.NoError(t, m.Set("StatusRampRate", 42))

	start := time.Unix(0, 0)
	ticker := NewTicker(0.9, 0, start)
	ticker.Tick(m, start.Add(30*time.Second))

	got, err := m.GetTemperature("StatusGasTemp")
	require.NoError(t, err)
	assert.Greater(t, got, 150.0, "gas temp should move toward the higher set point")
	assert.Less(t, got, 300.0)

	rampRate, err := m.Get("StatusRampRate")
	require.NoError(t, err)
	assert.Equal(t, uint16(42), rampRate, "constant parameters must not be touched by the tick")
}

func TestStatusFormatDefaultsToZero(t *testing.T) {
	m := newTestMemory(t)
	assert.Equal(t, uint16(0), m.StatusFormat())
	m.SetStatusFormat(1)
	assert.Equal(t, uint16(1), m.StatusFormat())
}

func TestTickUpdatesRunTime(t *testing.T) {
	m := newTestMemory(t)
	start := time.Unix(1000, 0)
	ticker := NewTicker(DefaultSmoothing, DefaultNoiseAmplitude, start)
	ticker.Tick(m, start.Add(2*time.Minute))

	rt, err := m.Get("StatusRunTime")
	require.NoError(t, err)
	assert.Equal(t, uint16(2), rt)
}

func TestNewSeedsTemperatureDefaultsInKelvinNotRaw(t *testing.T) {
	m := newTestMemory(t)

	gasTemp, err := m.GetTemperature("StatusGasTemp")
	require.NoError(t, err)
	assert.Greater(t, gasTemp, 1.0, "StatusGasTemp must be seeded in Kelvin, not left at the raw registry default")
	assert.InDelta(t, 150.0, gasTemp, 0.01)

	setPoint, err := m.GetTemperature("StatusGasSetPoint")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, setPoint, gasSetPointMin, "fresh-boot StatusGasSetPoint must already satisfy the [80K,400K] invariant")
	assert.LessOrEqual(t, setPoint, gasSetPointMax)
}

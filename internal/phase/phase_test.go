// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package phase

import (
	"testing"
	"time"

	"github.com/prjemian/cs800sim/internal/memory"
	"github.com/prjemian/cs800sim/internal/registry"
	"github.com/prjemian/cs800sim/internal/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSetup(t *testing.T) (*memory.Memory, *Machine, time.Time) {
	t.Helper()
	mem := memory.New(registry.Load())
	ma := New(mem)
	return mem, ma, time.Unix(0, 0)
}

func TestCoolDownOnlyIgnoresWarmerTarget(t *testing.T) {
	mem, ma, now := newTestSetup(t)
	require.NoError(t, mem.SetTemperature("StatusGasTemp", 150))

	ma.Dispatch(wire.Command{Kind: wire.COOL, Arg1: wire.EncodeTemperature(200)}, now)
	ma.lastDequeue = time.Time{}
	ma.Tick(now)

	assert.Equal(t, "Hold", mem.Phase(), "COOL above the current temperature must be ignored")
}

func TestCoolReachesTargetAndReturnsToHold(t *testing.T) {
	mem, ma, now := newTestSetup(t)
	require.NoError(t, mem.SetTemperature("StatusGasTemp", 200))

	ma.Dispatch(wire.Command{Kind: wire.COOL, Arg1: wire.EncodeTemperature(100)}, now)
	ma.Tick(now) // dequeues and starts Cool
	assert.Equal(t, "Cool", mem.Phase())

	target, err := mem.GetTemperature("StatusTargetTemp")
	require.NoError(t, err)
	assert.Equal(t, 100.0, target)

	// Jump the gas temperature down (as if the ambient tick already
	// carried it there) and tick again: Cool must snap to Hold.
	require.NoError(t, mem.SetTemperature("StatusGasTemp", 99))
	ma.Tick(now.Add(time.Minute))

	assert.Equal(t, "Hold", mem.Phase())
	sp, err := mem.GetTemperature("StatusGasSetPoint")
	require.NoError(t, err)
	assert.Equal(t, 100.0, sp)
}

func TestRampUpOnlyIgnoresCoolerTarget(t *testing.T) {
	mem, ma, now := newTestSetup(t)
	require.NoError(t, mem.SetTemperature("StatusGasTemp", 200))

	ma.Dispatch(wire.Command{Kind: wire.RAMP, Arg1: 60, Arg2: wire.EncodeTemperature(100)}, now)
	ma.Tick(now)

	assert.Equal(t, "Hold", mem.Phase(), "RAMP below the current temperature must be ignored")
}

func TestPlatCountsDownAndReturnsToHold(t *testing.T) {
	mem, ma, now := newTestSetup(t)
	ma.Dispatch(wire.Command{Kind: wire.PLAT, Arg1: 1}, now)
	ma.Tick(now)
	assert.Equal(t, "Plat", mem.Phase())

	ma.Tick(now.Add(30 * time.Second))
	assert.Equal(t, "Plat", mem.Phase())
	remaining, err := mem.Get("StatusRemaining")
	require.NoError(t, err)
	assert.Equal(t, uint16(1), remaining)

	ma.Tick(now.Add(2 * time.Minute))
	assert.Equal(t, "Hold", mem.Phase())
}

func TestEndDrivesTowardThreeHundredThenQueuesShutdownRestart(t *testing.T) {
	mem, ma, now := newTestSetup(t)
	require.NoError(t, mem.SetTemperature("StatusGasTemp", 200))

	ma.Dispatch(wire.Command{Kind: wire.END, Arg1: 360}, now)
	ma.Tick(now) // idle dequeues END, starts the End phase
	assert.Equal(t, "End", mem.Phase())

	sp, err := mem.GetTemperature("StatusGasSetPoint")
	require.NoError(t, err)
	assert.Equal(t, 300.0, sp, "End sets the set point immediately so ambient smoothing carries the gas there")

	// Simulate the ambient tick having carried the gas to the target, then
	// let End notice completion and install the canned shutdown sequence.
	require.NoError(t, mem.SetTemperature("StatusGasTemp", 300))
	ma.Tick(now.Add(time.Hour))
	assert.Equal(t, "Hold", mem.Phase())
	assert.Equal(t, "Startup", mem.RunMode(), "STOP has not been dequeued yet")

	ma.lastDequeue = time.Time{} // force past the idle dequeue throttle
	ma.Tick(now.Add(time.Hour))
	assert.Equal(t, "Shutdown OK", mem.RunMode())

	ma.lastDequeue = time.Time{}
	ma.Tick(now.Add(time.Hour))
	assert.Equal(t, "Plat", mem.Phase())

	ma.Tick(now.Add(time.Hour + 2*time.Minute))
	assert.Equal(t, "Hold", mem.Phase())

	ma.lastDequeue = time.Time{}
	ma.Tick(now.Add(time.Hour + 2*time.Minute))
	assert.Equal(t, "Startup OK", mem.RunMode())
}

func TestPurgeBehavesLikeEnd(t *testing.T) {
	mem, ma, now := newTestSetup(t)
	require.NoError(t, mem.SetTemperature("StatusGasTemp", 200))

	ma.Dispatch(wire.Command{Kind: wire.PURGE, Arg1: 360}, now)
	ma.Tick(now)
	assert.Equal(t, "Purge", mem.Phase())

	require.NoError(t, mem.SetTemperature("StatusGasTemp", 300))
	ma.Tick(now.Add(time.Hour))
	assert.Equal(t, "Hold", mem.Phase())

	ma.lastDequeue = time.Time{}
	ma.Tick(now.Add(time.Hour))
	assert.Equal(t, "Shutdown OK", mem.RunMode())
}

func TestHoldClearsQueueAndSnapsSetPointToCurrentTemp(t *testing.T) {
	mem, ma, now := newTestSetup(t)
	require.NoError(t, mem.SetTemperature("StatusGasTemp", 222))
	ma.Dispatch(wire.Command{Kind: wire.RAMP, Arg1: 60, Arg2: wire.EncodeTemperature(300)}, now)
	ma.Dispatch(wire.Command{Kind: wire.HOLD}, now)

	assert.Equal(t, "Hold", mem.Phase())
	assert.Equal(t, 0, ma.QueueLen())
	sp, err := mem.GetTemperature("StatusGasSetPoint")
	require.NoError(t, err)
	assert.Equal(t, 222.0, sp)
}

func TestPauseFreezesProgressAndResumeRestoresIt(t *testing.T) {
	mem, ma, now := newTestSetup(t)
	require.NoError(t, mem.SetTemperature("StatusGasTemp", 200))
	ma.Dispatch(wire.Command{Kind: wire.RAMP, Arg1: 60, Arg2: wire.EncodeTemperature(260)}, now)
	ma.Tick(now)
	require.Equal(t, "Ramp", mem.Phase())

	ma.Dispatch(wire.Command{Kind: wire.PAUSE}, now.Add(10*time.Second))
	assert.Equal(t, "Wait", mem.Phase())
	assert.True(t, ma.Paused())

	// Ticks while paused must not advance anything.
	ma.Tick(now.Add(time.Hour))
	assert.Equal(t, "Wait", mem.Phase())

	ma.Dispatch(wire.Command{Kind: wire.RESUME}, now.Add(time.Hour))
	assert.Equal(t, "Ramp", mem.Phase())
	assert.False(t, ma.Paused())
}

func TestRepeatedPauseIsANoOp(t *testing.T) {
	mem, ma, now := newTestSetup(t)
	ma.Dispatch(wire.Command{Kind: wire.PAUSE}, now)
	firstPhase := mem.Phase()
	ma.Dispatch(wire.Command{Kind: wire.PAUSE}, now.Add(time.Second))
	assert.Equal(t, firstPhase, mem.Phase())
	assert.True(t, ma.Paused())
}

func TestResumeWithoutPauseIsANoOp(t *testing.T) {
	mem, ma, now := newTestSetup(t)
	ma.Dispatch(wire.Command{Kind: wire.RESUME}, now)
	assert.False(t, ma.Paused())
	assert.Equal(t, "Hold", mem.Phase())
}

func TestCommandsDroppedWhilePaused(t *testing.T) {
	mem, ma, now := newTestSetup(t)
	ma.Dispatch(wire.Command{Kind: wire.PAUSE}, now)
	ma.Dispatch(wire.Command{Kind: wire.RAMP, Arg1: 60, Arg2: wire.EncodeTemperature(300)}, now)
	assert.Equal(t, 0, ma.QueueLen())
	_ = mem
}

func TestTurboCommandSetsStatusTurboMode(t *testing.T) {
	mem, ma, now := newTestSetup(t)

	ma.Dispatch(wire.Command{Kind: wire.TURBO, Arg1: 1}, now)
	ma.Tick(now) // dequeues from Hold

	turbo, err := mem.Get("StatusTurboMode")
	require.NoError(t, err)
	assert.Equal(t, uint16(1), turbo)

	ma.Dispatch(wire.Command{Kind: wire.TURBO, Arg1: 0}, now.Add(dequeueInterval))
	ma.Tick(now.Add(dequeueInterval))

	turbo, err = mem.Get("StatusTurboMode")
	require.NoError(t, err)
	assert.Equal(t, uint16(0), turbo)
}

func TestTurboCommandClampsOutOfRangeArg(t *testing.T) {
	mem, ma, now := newTestSetup(t)

	ma.Dispatch(wire.Command{Kind: wire.TURBO, Arg1: 7}, now)
	ma.Tick(now)

	turbo, err := mem.Get("StatusTurboMode")
	require.NoError(t, err)
	assert.Equal(t, uint16(1), turbo)
}

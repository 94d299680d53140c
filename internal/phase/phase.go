// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package phase implements the cryostream phase state machine (spec
// section 4.4): the queue of pending commands and the per-phase step
// functions that advance Controller Memory over time.
//
// Per the "handler-as-function-pointer" redesign note in spec section 9,
// the currently active handler is never stored as a callable on the
// Machine. Instead Tick looks the current phase name up in a
// phase -> step-function table each call, so "one tick advances exactly
// one handler" falls out of a table lookup rather than runtime dispatch
// on a mutable field. This is grounded on the teacher's own avoidance of
// stringly-typed dispatch (cmd/control.go's typed message structs) and,
// structurally, on rob-gra-go-iecp5/cs104/apci.go's per-frame-kind
// handling — a pack example of dispatching on a small closed set of
// protocol states.
package phase

import (
	"sync"
	"time"

	"github.com/prjemian/cs800sim/internal/memory"
	"github.com/prjemian/cs800sim/internal/wire"
)

// dequeueInterval is how often the idle handler is allowed to pull the
// next queued command (spec section 4.4: "processes one queued command
// per ~1.0s until a handler is set").
const dequeueInterval = time.Second

// noiseAmplitude mirrors original_source/v1/broadcast_status.py's
// cs800_status.noise_amplitude, used by the End/Purge completion check
// as a small settling margin.
const noiseAmplitude = memory.DefaultNoiseAmplitude

type queuedCommand struct {
	kind wire.CommandKind
	arg1 uint16
	arg2 uint16
}

// stepFunc advances a single active phase by one tick.
type stepFunc func(ma *Machine, now time.Time)

// handlerTable maps an active (non-idle, non-paused) phase name to its
// step function (spec section 4.4). "Hold" is handled separately by
// Tick because it alone is throttled to dequeueInterval; "Wait" never
// appears here because Tick checks the paused flag before any lookup.
var handlerTable = map[string]stepFunc{
	"Cool":  stepCool,
	"Ramp":  stepRamp,
	"Plat":  stepPlat,
	"End":   stepEnd,
	"Purge": stepEnd, // identical to End per spec section 9's open question
}

// Machine is the phase state machine (spec section 3's "Phase machine
// state"). It owns the command queue exclusively; internal/command only
// ever calls Dispatch.
type Machine struct {
	mem *memory.Memory

	mu             sync.Mutex
	queue          []queuedCommand
	lastDequeue    time.Time
	paused         bool
	pausedPhase    string
	pausedAt       time.Time
	targetWallTime time.Time
}

// New creates a phase Machine bound to the given Controller Memory.
func New(mem *memory.Memory) *Machine {
	return &Machine{mem: mem}
}

// QueueLen reports the number of commands currently queued (used by
// tests and the operator console).
func (ma *Machine) QueueLen() int {
	ma.mu.Lock()
	defer ma.mu.Unlock()
	return len(ma.queue)
}

// Paused reports whether the machine is currently paused.
func (ma *Machine) Paused() bool {
	ma.mu.Lock()
	defer ma.mu.Unlock()
	return ma.paused
}

// Dispatch applies one decoded command (spec section 4.4's dispatch
// diagram). HOLD, PAUSE, and RESUME take effect immediately; every other
// command is enqueued unless the machine is paused, in which case it is
// silently dropped (spec section 4.4: "When paused, new non-PAUSE/RESUME
// commands are dropped").
func (ma *Machine) Dispatch(cmd wire.Command, now time.Time) {
	ma.mu.Lock()
	defer ma.mu.Unlock()

	switch cmd.Kind {
	case wire.HOLD:
		ma.doHold(now)
	case wire.PAUSE:
		if !ma.paused { // repeated PAUSE while paused is a no-op (spec section 9)
			ma.doPause(now)
		}
	case wire.RESUME:
		if ma.paused { // RESUME while not paused is a no-op
			ma.doResume(now)
		}
	default:
		if !ma.paused {
			ma.queue = append(ma.queue, queuedCommand{kind: cmd.Kind, arg1: cmd.Arg1, arg2: cmd.Arg2})
		}
	}
}

// Tick advances the machine by one step. It is called roughly every
// 100ms by internal/controller's phase tick loop (spec section 5).
func (ma *Machine) Tick(now time.Time) {
	ma.mu.Lock()
	defer ma.mu.Unlock()

	if ma.paused {
		return
	}

	phase := ma.mem.Phase()
	if phase == "Hold" {
		if now.Sub(ma.lastDequeue) < dequeueInterval {
			return
		}
		ma.lastDequeue = now
		ma.idleStep(now)
		return
	}

	if fn, ok := handlerTable[phase]; ok {
		fn(ma, now)
	}
}

// idleStep pops the next queued command and dispatches it per the
// "From Idle (Hold)" rows of spec section 4.4's transition table. It is
// the direct descendant of original_source/v1/cs800.py's
// StateMachine.idle.
func (ma *Machine) idleStep(now time.Time) {
	if len(ma.queue) == 0 {
		return
	}
	req := ma.queue[0]
	ma.queue = ma.queue[1:]

	switch req.kind {
	case wire.COOL:
		ma.startCool(req, now)
	case wire.RAMP:
		ma.startRamp(req, now)
	case wire.PLAT:
		ma.startPlat(req, now)
	case wire.END:
		ma.startEnd(req, now, "End")
	case wire.PURGE:
		ma.startEnd(req, now, "Purge")
	case wire.STOP:
		_ = ma.mem.SetRunMode("Shutdown OK")
	case wire.RESTART:
		_ = ma.mem.SetRunMode("Startup OK")
	case wire.TURBO:
		ma.setTurbo(req.arg1)
	}
}

// setTurbo applies TURBO as an immediate flag flip (spec section 3's
// command table: arg1 0 or 1, off/on) rather than a phase transition —
// it has no duration or target, so it carries no handler of its own.
func (ma *Machine) setTurbo(arg1 uint16) {
	mode := arg1
	if mode > 1 {
		mode = 1
	}
	_ = ma.mem.Set("StatusTurboMode", mode)
}

func (ma *Machine) startCool(req queuedCommand, now time.Time) {
	target := float64(req.arg1) / 100.0
	tempNow, _ := ma.mem.GetTemperature("StatusGasTemp")
	if target >= tempNow {
		return // cool-down only (spec section 4.4 tie-break)
	}
	const rate = 360.0
	_ = ma.mem.Set("StatusRampRate", 360)
	_ = ma.mem.SetTemperature("StatusTargetTemp", target)
	_ = ma.mem.SetPhase("Cool")
	rampSeconds := (tempNow - target) / rate * 3600
	ma.targetWallTime = now.Add(time.Duration(rampSeconds * float64(time.Second)))
}

func (ma *Machine) startRamp(req queuedCommand, now time.Time) {
	rate := float64(req.arg1)
	target := float64(req.arg2) / 100.0
	tempNow, _ := ma.mem.GetTemperature("StatusGasTemp")
	if target <= tempNow || rate <= 0 {
		return // ramp-up only (spec section 4.4 tie-break)
	}
	_ = ma.mem.Set("StatusRampRate", uint16(rate))
	_ = ma.mem.SetTemperature("StatusTargetTemp", target)
	_ = ma.mem.SetPhase("Ramp")
	rampSeconds := (target - tempNow) / rate * 3600
	ma.targetWallTime = now.Add(time.Duration(rampSeconds * float64(time.Second)))
}

func (ma *Machine) startPlat(req queuedCommand, now time.Time) {
	duration := time.Duration(req.arg1) * time.Minute
	ma.targetWallTime = now.Add(duration)
	_ = ma.mem.SetPhase("Plat")
}

// startEnd services both END and PURGE: both bring the gas temperature
// to 300K and then shut down (spec section 9's open question: the two
// are kept identical). The rate comes from the command's arg1, per spec
// section 3's command table, defaulting to the maximum rate if zero.
func (ma *Machine) startEnd(req queuedCommand, now time.Time, phaseName string) {
	rate := float64(req.arg1)
	if rate <= 0 {
		rate = 360
	}
	const target = 300.0
	tempNow, _ := ma.mem.GetTemperature("StatusGasTemp")

	_ = ma.mem.Set("StatusRampRate", uint16(rate))
	_ = ma.mem.SetTemperature("StatusTargetTemp", target)
	_ = ma.mem.SetTemperature("StatusGasSetPoint", target)
	_ = ma.mem.SetPhase(phaseName)

	rampSeconds := absFloat(target-tempNow) / rate * 3600
	ma.targetWallTime = now.Add(time.Duration(rampSeconds * float64(time.Second)))
}

func stepCool(ma *Machine, now time.Time) {
	timeLeft := ma.targetWallTime.Sub(now)
	ma.setRemaining(timeLeft)

	target, _ := ma.mem.GetTemperature("StatusTargetTemp")
	rate, _ := ma.mem.Get("StatusRampRate")
	tempNow, _ := ma.mem.GetTemperature("StatusGasTemp")

	if timeLeft < 0 || tempNow <= target {
		ma.finishToHold(target)
		return
	}
	setPoint := target + timeLeft.Hours()*float64(rate)
	_ = ma.mem.SetTemperature("StatusGasSetPoint", setPoint)
}

func stepRamp(ma *Machine, now time.Time) {
	timeLeft := ma.targetWallTime.Sub(now)
	ma.setRemaining(timeLeft)

	target, _ := ma.mem.GetTemperature("StatusTargetTemp")
	rate, _ := ma.mem.Get("StatusRampRate")
	tempNow, _ := ma.mem.GetTemperature("StatusGasTemp")

	if timeLeft < 0 || tempNow >= target {
		ma.finishToHold(target)
		return
	}
	setPoint := target - timeLeft.Hours()*float64(rate)
	_ = ma.mem.SetTemperature("StatusGasSetPoint", setPoint)
}

func stepPlat(ma *Machine, now time.Time) {
	timeLeft := ma.targetWallTime.Sub(now)
	ma.setRemaining(timeLeft)
	if timeLeft < 0 {
		_ = ma.mem.Set("StatusRemaining", 0)
		_ = ma.mem.SetPhase("Hold")
	}
}

func stepEnd(ma *Machine, now time.Time) {
	target, _ := ma.mem.GetTemperature("StatusTargetTemp")
	rate, _ := ma.mem.Get("StatusRampRate")
	tempNow, _ := ma.mem.GetTemperature("StatusGasTemp")

	timeLeft := time.Duration(absFloat(target-tempNow) / float64(rate) * 3600 * float64(time.Second))
	ma.setRemaining(timeLeft)

	if timeLeft < 0 || tempNow >= target-noiseAmplitude {
		_ = ma.mem.SetTemperature("StatusGasSetPoint", target)
		_ = ma.mem.Set("StatusRemaining", 0)
		_ = ma.mem.SetPhase("Hold")
		// Canned shutdown-then-restart sequence (spec section 4.4's
		// "END's terminal action"), replacing whatever was queued.
		ma.queue = []queuedCommand{
			{kind: wire.STOP},
			{kind: wire.PLAT, arg1: 1},
			{kind: wire.RESTART},
		}
	}
}

func (ma *Machine) finishToHold(snapTarget float64) {
	_ = ma.mem.SetTemperature("StatusGasSetPoint", snapTarget)
	_ = ma.mem.Set("StatusRemaining", 0)
	_ = ma.mem.SetPhase("Hold")
}

func (ma *Machine) doHold(now time.Time) {
	gasTemp, _ := ma.mem.GetTemperature("StatusGasTemp")
	_ = ma.mem.SetTemperature("StatusGasSetPoint", gasTemp)
	_ = ma.mem.Set("StatusRemaining", 0)
	ma.queue = nil
	_ = ma.mem.SetPhase("Hold")
}

func (ma *Machine) doPause(now time.Time) {
	ma.pausedAt = now
	ma.pausedPhase = ma.mem.Phase()
	_ = ma.mem.SetPhase("Wait")
	ma.paused = true
}

func (ma *Machine) doResume(now time.Time) {
	ma.targetWallTime = ma.targetWallTime.Add(now.Sub(ma.pausedAt))
	ma.pausedAt = time.Time{}
	_ = ma.mem.SetPhase(ma.pausedPhase)
	ma.pausedPhase = ""
	ma.paused = false
}

func (ma *Machine) setRemaining(timeLeft time.Duration) {
	minutes := timeLeft.Minutes() + 0.5
	if minutes < 0 {
		minutes = 0
	}
	if minutes > 65535 {
		minutes = 65535
	}
	_ = ma.mem.Set("StatusRemaining", uint16(minutes))
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

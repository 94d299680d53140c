// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package memory implements Controller Memory (spec section 4.2): the
// thread-safe map from parameter name to 16-bit value, the typed
// run-mode/phase accessors, and the simulation tick. It is modeled on
// cmd/control.go's connectionManager: a sync.RWMutex-guarded struct with
// paired get/set accessors, rather than the teacher's own domain state
// (which has nothing to do with temperature control).
package memory

import (
	"errors"
	"fmt"
	"sync"

	"github.com/prjemian/cs800sim/internal/registry"
)

// ErrUnknownParameter is returned by Get/Set when name is not in the
// registry (spec section 7's UnknownParameter error kind).
var ErrUnknownParameter = errors.New("memory: unknown parameter")

// ErrInvalidPhase is returned by SetPhase when the given value is
// neither a known phase name nor a valid phase index (spec section
// 4.2/7).
var ErrInvalidPhase = errors.New("memory: invalid phase")

// ErrInvalidRunMode is returned by SetRunMode for any string that is not
// one of registry.RunModes.
var ErrInvalidRunMode = errors.New("memory: invalid run mode")

// gasSetPointMin and gasSetPointMax bound StatusGasSetPoint (spec
// section 3): [80K, 400K] for the base model, widened to 500K for the
// "+" model. cs800sim simulates the base model.
const (
	gasSetPointMin = 80.0
	gasSetPointMax = 400.0
)

// Memory is Controller Memory: the single shared mutable structure
// (spec section 5) that internal/phase mutates and internal/emit
// snapshots.
type Memory struct {
	reg *registry.Registry

	mu           sync.RWMutex
	values       map[string]uint16
	runMode      string
	phaseIdx     uint16
	statusFormat uint16
}

// New creates Controller Memory seeded with the registry's default
// values, run_mode=Startup, phase=Hold (spec section 3's Lifecycle).
func New(reg *registry.Registry) *Memory {
	m := &Memory{
		reg:     reg,
		values:  make(map[string]uint16),
		runMode: registry.RunModes[0], // Startup
	}
	for _, p := range reg.All() {
		if p.Type == registry.Temperature {
			m.values[p.Name] = quantiseDefaultTemp(p.Default)
			continue
		}
		m.values[p.Name] = p.Default
	}
	if idx, err := registry.PhaseIndex("Hold"); err == nil {
		m.phaseIdx = idx
	}
	m.values["StatusPhaseId"] = m.phaseIdx
	runIdx, _ := registry.RunModeIndex(m.runMode)
	m.values["StatusRunMode"] = runIdx
	return m
}

// Get returns a parameter's current raw wire value.
func (m *Memory) Get(name string) (uint16, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownParameter, name)
	}
	return v, nil
}

// GetTemperature returns a temperature parameter's value in Kelvin.
func (m *Memory) GetTemperature(name string) (float64, error) {
	v, err := m.Get(name)
	if err != nil {
		return 0, err
	}
	return float64(v) / 100.0, nil
}

// Set stores a parameter's raw wire value. StatusGasSetPoint writes are
// clamped to [80K, 400K] (spec section 3); unknown names fail without
// mutating anything.
func (m *Memory) Set(name string, value uint16) error {
	if name == "StatusGasSetPoint" {
		if value < gasSetPointMin*100 {
			value = gasSetPointMin * 100
		} else if value > gasSetPointMax*100 {
			value = gasSetPointMax * 100
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setLocked(name, value)
}

func (m *Memory) setLocked(name string, value uint16) error {
	if _, ok := m.reg.ByName(name); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownParameter, name)
	}
	m.values[name] = value
	return nil
}

// SetTemperature stores a Kelvin value for a temperature parameter,
// quantising to centiKelvin. StatusGasSetPoint is clamped to its legal
// range before storage.
func (m *Memory) SetTemperature(name string, kelvin float64) error {
	if name == "StatusGasSetPoint" {
		if kelvin < gasSetPointMin {
			kelvin = gasSetPointMin
		} else if kelvin > gasSetPointMax {
			kelvin = gasSetPointMax
		}
	}
	v := kelvin*100 + 0.5
	var raw uint16
	switch {
	case v <= 0:
		raw = 0
	case v >= 65535:
		raw = 65535
	default:
		raw = uint16(v)
	}
	return m.Set(name, raw)
}

// quantiseDefaultTemp converts a registry default given in whole Kelvin
// (the convention stated in parameters.yaml's header comment) to
// the wire's centiKelvin form. Used by New to seed Controller Memory's
// temperature parameters correctly at boot, the same quantisation
// SetTemperature applies on every subsequent write.
func quantiseDefaultTemp(kelvin uint16) uint16 {
	v := float64(kelvin)*100 + 0.5
	switch {
	case v <= 0:
		return 0
	case v >= 65535:
		return 65535
	default:
		return uint16(v)
	}
}

// Phase returns the current phase name.
func (m *Memory) Phase() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	name, _ := registry.PhaseName(m.phaseIdx)
	return name
}

// SetPhase accepts a phase name; SetPhaseIndex is the form that takes an
// integer in [0, len(Phases)) (spec section 4.2). An invalid value leaves
// state unchanged and returns ErrInvalidPhase.
func (m *Memory) SetPhase(phase string) error {
	idx, err := registry.PhaseIndex(phase)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidPhase, phase)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.phaseIdx = idx
	return m.setLocked("StatusPhaseId", idx)
}

// SetPhaseIndex is SetPhase's integer-indexed form.
func (m *Memory) SetPhaseIndex(idx int) error {
	if idx < 0 || idx >= len(registry.Phases) {
		return fmt.Errorf("%w: index %d", ErrInvalidPhase, idx)
	}
	return m.SetPhase(registry.Phases[idx])
}

// RunMode returns the current run-mode name.
func (m *Memory) RunMode() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.runMode
}

// SetRunMode accepts only a valid run-mode name (spec section 4.2).
func (m *Memory) SetRunMode(mode string) error {
	idx, err := registry.RunModeIndex(mode)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidRunMode, mode)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runMode = mode
	return m.setLocked("StatusRunMode", idx)
}

// Snapshot is an immutable copy of Controller Memory suitable for
// encoding (spec section 4.2: "readers never observe a torn write").
type Snapshot struct {
	Values  map[string]uint16
	Phase   string
	RunMode string
}

// Snapshot copies Controller Memory's current state under a single read
// lock.
func (m *Memory) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	values := make(map[string]uint16, len(m.values))
	for k, v := range m.values {
		values[k] = v
	}
	phase, _ := registry.PhaseName(m.phaseIdx)
	return Snapshot{Values: values, Phase: phase, RunMode: m.runMode}
}

// StatusFormat returns the id of the status packet variant currently
// selected (spec section 3's SETSTATUSFORMAT command).
func (m *Memory) StatusFormat() uint16 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.statusFormat
}

// SetStatusFormat selects a status packet variant. It is a pure
// presentation setting: it never touches phase state, matching spec
// section 3's description of SETSTATUSFORMAT as choosing "a status
// packet variant" rather than acting on the controller.
func (m *Memory) SetStatusFormat(formatID uint16) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusFormat = formatID
}

// Registry exposes the parameter catalog Memory was built from, for
// callers (internal/emit, internal/snapshot) that need to walk it.
func (m *Memory) Registry() *registry.Registry {
	return m.reg
}

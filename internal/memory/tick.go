// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package memory

import (
	"math/rand"
	"time"

	"github.com/prjemian/cs800sim/internal/registry"
)

// Default smoothing/noise coefficients (spec section 4.2): gas
// temperature tracks its set point with a first-order smoothing filter
// plus a little noise, the way original_source/v1/broadcast_status.py's
// readGasTemp nudges StatusGasTemp toward StatusGasSetPoint each cycle.
const (
	DefaultSmoothing      = 0.7
	DefaultNoiseAmplitude = 0.1
)

// noise values for the placeholder "plausible but not physical" data
// the tick advertises for parameters nothing else drives (spec section
// 4.2), grounded on the target+amplitude noise generator in
// other_examples' internal-protocol-simulator.go (kbuckham/mmcd).
const (
	plainMean        = 500.0
	plainStddev      = 50.0
	percentageMean   = 30.0
	percentageStddev = 5.0
	tempMean         = 150.0
	tempStddev       = 5.0
)

// Ticker drives Controller Memory's simulation tick. The status emitter
// is the only caller (spec section 4.3).
type Ticker struct {
	Smoothing      float64
	NoiseAmplitude float64
	startedAt      time.Time
	rng            *rand.Rand
}

// NewTicker creates a Ticker with the given smoothing/noise
// coefficients, starting the StatusRunTime clock now.
func NewTicker(smoothing, noiseAmplitude float64, now time.Time) *Ticker {
	return &Ticker{
		Smoothing:      smoothing,
		NoiseAmplitude: noiseAmplitude,
		startedAt:      now,
		rng:            rand.New(rand.NewSource(now.UnixNano())),
	}
}

// Tick advances Controller Memory's non-constant parameters by one
// simulation step (spec section 4.2). It is called by internal/emit's
// status broadcaster immediately before each status send.
func (t *Ticker) Tick(m *Memory, now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	gasTemp := float64(m.values["StatusGasTemp"]) / 100.0
	setPoint := float64(m.values["StatusGasSetPoint"]) / 100.0
	next := t.Smoothing*setPoint + (1-t.Smoothing)*gasTemp + t.rng.NormFloat64()*t.NoiseAmplitude
	m.values["StatusGasTemp"] = quantiseTemp(next)

	runMinutes := now.Sub(t.startedAt).Minutes()
	m.values["StatusRunTime"] = clampUint16(runMinutes)

	for _, p := range m.reg.All() {
		if p.Constant || p.Name == "StatusGasTemp" || p.Name == "StatusRunTime" {
			continue
		}
		switch p.Type {
		case registry.Percentage:
			m.values[p.Name] = clampUint16(percentageMean + t.rng.NormFloat64()*percentageStddev)
		case registry.Temperature:
			m.values[p.Name] = quantiseTemp(tempMean + t.rng.NormFloat64()*tempStddev)
		case registry.Plain:
			m.values[p.Name] = clampUint16(plainMean + t.rng.NormFloat64()*plainStddev)
		case registry.Enum:
			// Enumerated parameters (e.g. StatusTurboMode) are only
			// ever changed by commands, never by the random tick.
		}
	}
}

func quantiseTemp(kelvin float64) uint16 {
	return clampUint16(kelvin*100 + 0.5)
}

func clampUint16(v float64) uint16 {
	switch {
	case v <= 0:
		return 0
	case v >= 65535:
		return 65535
	default:
		return uint16(v)
	}
}

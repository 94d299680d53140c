// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package registry

import "fmt"

// RunModes lists the StatusRunMode enumerants in wire order (spec
// section 3). The integer index is what travels on the wire.
var RunModes = []string{
	"Startup",
	"Startup Fail",
	"Startup OK",
	"Run",
	"Setup",
	"Shutdown OK",
	"Shutdown Fail",
}

// Phases lists the StatusPhaseId enumerants in wire order (spec section
// 3). Phase names double as internal/phase's state identifiers.
var Phases = []string{
	"Ramp",
	"Cool",
	"Plat",
	"Hold",
	"End",
	"Purge",
	"Delete Phase",
	"Load Program",
	"Save Program",
	"Soak",
	"Wait",
}

// TurboModes lists the StatusTurboMode enumerants: OFF=0, ON=1.
var TurboModes = []string{"OFF", "ON"}

// RunModeIndex returns the wire index for a run-mode name, or an error
// if it is not a recognised run mode.
func RunModeIndex(name string) (uint16, error) {
	for i, n := range RunModes {
		if n == name {
			return uint16(i), nil
		}
	}
	return 0, fmt.Errorf("registry: invalid run mode %q", name)
}

// PhaseIndex returns the wire index for a phase name, or an error if it
// is not a recognised phase.
func PhaseIndex(name string) (uint16, error) {
	for i, n := range Phases {
		if n == name {
			return uint16(i), nil
		}
	}
	return 0, fmt.Errorf("registry: invalid phase %q", name)
}

// PhaseName returns the phase name for a wire index, or an error if the
// index is out of range.
func PhaseName(index uint16) (string, error) {
	if int(index) >= len(Phases) {
		return "", fmt.Errorf("registry: phase index %d out of range", index)
	}
	return Phases[index], nil
}

// RunModeName returns the run-mode name for a wire index, or an error if
// the index is out of range.
func RunModeName(index uint16) (string, error) {
	if int(index) >= len(RunModes) {
		return "", fmt.Errorf("registry: run mode index %d out of range", index)
	}
	return RunModes[index], nil
}

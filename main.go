// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// cs800sim - Oxford Cryosystems 800 Series cryostream simulator
//
// Simulates the controller's UDP identity, status, and command
// interfaces so client software can be developed without hardware.

package main

import (
	"fmt"
	"os"

	"github.com/prjemian/cs800sim/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"github.com/spf13/cobra"
)

var (
	// Global persistent flags.
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "cs800sim",
	Short: "Oxford Cryosystems 800 Series cryostream simulator",
	Long: `cs800sim - a network-level simulator of the Oxford Cryosystems 800
Series cryostream controller.

Reproduces the controller's three UDP interfaces (identity announcements,
status broadcasts, command reception) so beamline control software,
discovery tools, and operator dashboards can be developed and tested
without physical hardware.`,
	Version: "1.0.0",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

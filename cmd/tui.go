// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prjemian/cs800sim/internal/controller"
	itui "github.com/prjemian/cs800sim/internal/tui"
	"github.com/spf13/cobra"
)

var tuiCommandAddr string

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Operator console for the simulated controller",
	Long: `Launch the simulated CS800 controller and attach an interactive
terminal console to it: a live phase/temperature/run-mode readout plus
a command palette that injects commands directly into the phase state
machine, bypassing UDP entirely.

This is the same simulator serve starts; tui simply runs it in-process
so a single terminal can both drive and observe the state machine
while developing against it.`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
	tuiCmd.Flags().StringVar(&tuiCommandAddr, "command-addr", ":30305", "address the command receiver binds")
}

func runTUI(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	ctrl, err := controller.New(controller.Options{
		CommandAddr: tuiCommandAddr,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("starting controller: %w", err)
	}
	defer ctrl.Close()

	runCtx, stop := context.WithCancel(cmd.Context())
	defer stop()

	go func() {
		_ = ctrl.Run(runCtx)
	}()

	model := itui.New(ctrl)
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("operator console: %w", err)
	}
	return nil
}

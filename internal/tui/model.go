// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package tui is the operator console: a Bubble Tea program attached
// directly to a running *controller.Controller, showing the same
// phase/temperature/run-mode fields a status packet carries and
// offering a command palette that injects wire.Command values straight
// into the phase machine, bypassing UDP entirely.
//
// Repurposed from cmd/control_tui.go's controlModel: the teacher's
// model tracks a remote device list discovered over a serial/WebSocket
// connection and lets an operator send RPM setpoints; this model
// tracks one in-process simulated controller and lets an operator send
// cryostream commands. The textinput-driven "enter a value, press
// enter to send" interaction is carried over directly from
// control_tui.go's rpmInput field.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/prjemian/cs800sim/internal/controller"
	"github.com/prjemian/cs800sim/internal/wire"
)

const refreshInterval = 250 * time.Millisecond

const maxLogEntries = 50

// logEntry is one line of the console's scrolling event log.
type logEntry struct {
	at      time.Time
	message string
	isError bool
}

// Model is the Bubble Tea model for the operator console.
type Model struct {
	ctrl *controller.Controller

	input textinput.Model
	log   []logEntry

	width, height int
	quitting      bool
}

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// New builds an operator console attached to ctrl.
func New(ctrl *controller.Controller) Model {
	ti := textinput.New()
	ti.Placeholder = "RAMP 60 200.0"
	ti.Focus()
	ti.CharLimit = 64
	ti.Width = 40

	return Model{
		ctrl:   ctrl,
		input:  ti,
		log:    make([]logEntry, 0, maxLogEntries),
		width:  80,
		height: 24,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), textinput.Blink)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "enter":
			m.submit()
			m.input.SetValue("")
			return m, nil
		}

	case tickMsg:
		return m, tickCmd()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit parses the input line as "KIND [ARG1] [ARG2]" and dispatches
// it to the phase machine, the same immediate-effect/enqueue split
// internal/command's receiver applies to a wire-decoded command.
func (m *Model) submit() {
	line := strings.TrimSpace(m.input.Value())
	if line == "" {
		return
	}
	cmd, err := parseConsoleCommand(line)
	if err != nil {
		m.addLog(err.Error(), true)
		return
	}
	m.ctrl.Machine.Dispatch(cmd, time.Now())
	m.addLog(fmt.Sprintf("sent %s arg1=%d arg2=%d", cmd.Kind, cmd.Arg1, cmd.Arg2), false)
}

func (m *Model) addLog(message string, isError bool) {
	m.log = append(m.log, logEntry{at: time.Now(), message: message, isError: isError})
	if len(m.log) > maxLogEntries {
		m.log = m.log[len(m.log)-maxLogEntries:]
	}
}

var consoleKinds = map[string]wire.CommandKind{
	"RESTART": wire.RESTART,
	"RAMP":    wire.RAMP,
	"PLAT":    wire.PLAT,
	"HOLD":    wire.HOLD,
	"COOL":    wire.COOL,
	"END":     wire.END,
	"PURGE":   wire.PURGE,
	"PAUSE":   wire.PAUSE,
	"RESUME":  wire.RESUME,
	"STOP":    wire.STOP,
	"TURBO":   wire.TURBO,
}

// parseConsoleCommand turns a typed console line into a wire.Command.
// Temperature arguments are given in Kelvin and converted to the wire's
// centiKelvin form here, so an operator types "RAMP 60 200" rather than
// the raw wire value 20000.
func parseConsoleCommand(line string) (wire.Command, error) {
	fields := strings.Fields(strings.ToUpper(line))
	if len(fields) == 0 {
		return wire.Command{}, fmt.Errorf("empty command")
	}
	kind, ok := consoleKinds[fields[0]]
	if !ok {
		return wire.Command{}, fmt.Errorf("unknown command %q", fields[0])
	}

	var args []float64
	for _, f := range fields[1:] {
		var v float64
		if _, err := fmt.Sscanf(f, "%g", &v); err != nil {
			return wire.Command{}, fmt.Errorf("bad argument %q", f)
		}
		args = append(args, v)
	}

	cmd := wire.Command{Kind: kind}
	switch kind {
	case wire.RAMP:
		if len(args) < 2 {
			return wire.Command{}, fmt.Errorf("RAMP needs rate and target")
		}
		cmd.Arg1 = uint16(args[0])
		cmd.Arg2 = wire.EncodeTemperature(args[1])
	case wire.COOL:
		if len(args) < 1 {
			return wire.Command{}, fmt.Errorf("COOL needs a target")
		}
		cmd.Arg1 = wire.EncodeTemperature(args[0])
	case wire.PLAT, wire.END, wire.TURBO:
		if len(args) >= 1 {
			cmd.Arg1 = uint16(args[0])
		}
	}
	return cmd, nil
}

func (m Model) View() string {
	if m.quitting {
		return "cs800sim operator console: shutting down\n"
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	boxStyle := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)

	snap := m.ctrl.Memory.Snapshot()

	var b strings.Builder
	b.WriteString(titleStyle.Render("CS800SIM OPERATOR CONSOLE"))
	b.WriteString("\n\n")

	status := fmt.Sprintf(
		"%s %s   %s %s   %s %s\n%s %.2fK   %s %.2fK   %s %.2fK\n%s %d K/h   %s %d min   %s %d",
		labelStyle.Render("Phase:"), valueStyle.Render(snap.Phase),
		labelStyle.Render("Run mode:"), valueStyle.Render(snap.RunMode),
		labelStyle.Render("Paused:"), valueStyle.Render(fmt.Sprintf("%v", m.ctrl.Machine.Paused())),
		labelStyle.Render("Gas temp:"), float64(snap.Values["StatusGasTemp"])/100.0,
		labelStyle.Render("Set point:"), float64(snap.Values["StatusGasSetPoint"])/100.0,
		labelStyle.Render("Target:"), float64(snap.Values["StatusTargetTemp"])/100.0,
		labelStyle.Render("Ramp rate:"), snap.Values["StatusRampRate"],
		labelStyle.Render("Remaining:"), snap.Values["StatusRemaining"],
		labelStyle.Render("Queue:"), m.ctrl.Machine.QueueLen(),
	)
	b.WriteString(boxStyle.Render(status))
	b.WriteString("\n\n")

	b.WriteString(labelStyle.Render("Command: "))
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	start := 0
	if len(m.log) > 10 {
		start = len(m.log) - 10
	}
	for _, e := range m.log[start:] {
		line := fmt.Sprintf("[%s] %s", e.at.Format("15:04:05"), e.message)
		if e.isError {
			b.WriteString(errorStyle.Render(line))
		} else {
			b.WriteString(labelStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(labelStyle.Render("enter: send command | esc/ctrl+c: quit"))
	return b.String()
}

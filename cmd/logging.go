// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"log/slog"
	"os"
	"strings"
)

// newLogger builds the slog.Logger every subcommand shares, leveled by
// the --log-level persistent flag (spec.md section 7's DEBUG/WARN error
// taxonomy). The teacher has no background daemon and never shows a
// structured logger of its own; cs800sim's three concurrent UDP workers
// need one, so this is the stdlib answer (see DESIGN.md's standard
// library justification).
func newLogger() *slog.Logger {
	var level slog.Level
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

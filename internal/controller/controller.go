// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package controller wires Controller Memory, the phase state machine,
// and the three UDP workers (identity emitter, status emitter, command
// receiver) into one owning structure, and drives the Startup ->
// Startup OK -> Run boot sequence.
//
// Per spec section 9's "global singletons" redesign note, cs800sim never
// exposes package-level mutable state the way original_source/v1's
// module-level cs800_status/cs800_commands references do. Everything
// lives on *Controller, constructed once in New and handed by reference
// to each worker before any goroutine starts, the way cmd/control.go's
// runControl assembles a connectionManager before spawning its reader
// goroutines.
package controller

import (
	"context"
	"log/slog"
	"time"

	"github.com/prjemian/cs800sim/internal/command"
	"github.com/prjemian/cs800sim/internal/emit"
	"github.com/prjemian/cs800sim/internal/memory"
	"github.com/prjemian/cs800sim/internal/phase"
	"github.com/prjemian/cs800sim/internal/registry"
)

// bootDelay is how long the simulator stays in "Startup" before
// advancing to "Startup OK" and then "Run" (spec section 3's
// Lifecycle paragraph and original_source/v1/cs800.py's main(), which
// performs this transition once at process start rather than leaving
// the device parked at Startup forever).
const bootDelay = 2 * time.Second

// Controller owns Controller Memory and the phase machine, and starts
// the identity emitter, status emitter, and command receiver against
// them. It is the single owning structure the redesign note calls for.
type Controller struct {
	Memory  *memory.Memory
	Machine *phase.Machine

	identity *emit.IdentityEmitter
	status   *emit.StatusEmitter
	commands *command.Receiver

	logger *slog.Logger
}

// Options configures the three UDP workers. Zero values select the
// well-known ports and addresses spec.md section 6 names.
type Options struct {
	// CommandAddr is the local address the command receiver binds
	// (empty host binds all interfaces). Defaults to ":30305".
	CommandAddr string
	Logger      *slog.Logger
}

// New builds Controller Memory and the phase machine and opens the
// three worker sockets, but does not start any goroutine — call Run for
// that. Memory starts at run_mode=Startup, phase=Hold, per spec.md
// section 3.
func New(opts Options) (*Controller, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	reg := registry.Load()
	mem := memory.New(reg)
	mach := phase.New(mem)

	identity, err := emit.NewIdentityEmitter(logger)
	if err != nil {
		return nil, err
	}
	status, err := emit.NewStatusEmitter(mem, time.Now(), logger)
	if err != nil {
		identity.Close()
		return nil, err
	}

	cmdAddr := opts.CommandAddr
	if cmdAddr == "" {
		cmdAddr = ":30305"
	}
	receiver, err := command.Listen(cmdAddr, mem, mach, logger)
	if err != nil {
		identity.Close()
		status.Close()
		return nil, err
	}

	return &Controller{
		Memory:   mem,
		Machine:  mach,
		identity: identity,
		status:   status,
		commands: receiver,
		logger:   logger,
	}, nil
}

// Close releases every worker's socket. Safe to call after Run has
// returned.
func (c *Controller) Close() error {
	_ = c.identity.Close()
	_ = c.status.Close()
	return c.commands.Close()
}

// Run starts all three workers plus the internal phase-machine tick
// loop and the one-shot boot sequence, blocking until ctx is cancelled
// or a worker fails. Every worker and the tick loop terminate within one
// tick of cancellation (spec section 5's Cancellation requirement).
func (c *Controller) Run(ctx context.Context) error {
	errCh := make(chan error, 4)

	go func() { errCh <- c.identity.Run(ctx) }()
	go func() { errCh <- c.status.Run(ctx) }()
	go func() { errCh <- c.commands.Run(ctx) }()
	go c.runPhaseTicks(ctx)
	go c.runBootSequence(ctx)

	for i := 0; i < 3; i++ {
		if err := <-errCh; err != nil && ctx.Err() == nil {
			return err
		}
	}
	return ctx.Err()
}

// phaseTickInterval matches spec section 4.4's event loop cadence: "ticks
// every ~0.1s; processes one queued command per ~1.0s".
const phaseTickInterval = 100 * time.Millisecond

func (c *Controller) runPhaseTicks(ctx context.Context) {
	ticker := time.NewTicker(phaseTickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			c.Machine.Tick(now)
		}
	}
}

// runBootSequence performs the one-shot Startup -> Startup OK -> Run
// transition (spec section 3's Lifecycle, original_source/v1/cs800.py's
// main()). It is not retried and does not repeat.
func (c *Controller) runBootSequence(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(bootDelay):
	}
	if err := c.Memory.SetRunMode("Startup OK"); err != nil {
		c.logger.Warn("boot sequence: failed to set Startup OK", "err", err)
		return
	}
	select {
	case <-ctx.Done():
		return
	case <-time.After(bootDelay):
	}
	if err := c.Memory.SetRunMode("Run"); err != nil {
		c.logger.Warn("boot sequence: failed to set Run", "err", err)
	}
}

// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package command implements the command receipt interface (spec
// section 4.3's "Command receipt", UDP port 30305): a single socket that
// decodes seven-byte command packets and dispatches them to the phase
// state machine.
//
// The receive loop is grounded on cmd/control.go's readerLoop — a
// goroutine reading until a done channel closes, logging and continuing
// past transient errors rather than giving up — adapted from a
// reconnecting byte-stream decoder to a single UDP socket, since
// original_source/v1/controller.py's CS800controller.handler is itself
// just a blocking recvfrom loop with no reconnection logic to carry
// over.
package command

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/prjemian/cs800sim/internal/memory"
	"github.com/prjemian/cs800sim/internal/phase"
	"github.com/prjemian/cs800sim/internal/wire"
)

// Port is the UDP port the cryostream controller listens on for command
// packets (spec section 4.3).
const Port = 30305

// readTimeout bounds each blocking read so Run can notice ctx
// cancellation promptly, the UDP analogue of cmd/control.go's done
// channel select inside readerLoop.
const readTimeout = 200 * time.Millisecond

// Receiver owns the command-receipt socket and forwards every decoded
// command to a phase.Machine.
type Receiver struct {
	conn   *net.UDPConn
	mem    *memory.Memory
	mach   *phase.Machine
	logger *slog.Logger
}

// Listen opens the command-receipt socket on the given address (empty
// host binds all interfaces) and returns a Receiver ready for Run.
func Listen(addr string, mem *memory.Memory, mach *phase.Machine, logger *slog.Logger) (*Receiver, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Receiver{conn: conn, mem: mem, mach: mach, logger: logger}, nil
}

// Close releases the command-receipt socket.
func (r *Receiver) Close() error {
	return r.conn.Close()
}

// Run decodes command packets until ctx is cancelled. Decode and
// checksum failures are logged and skipped (spec section 7: a malformed
// command packet is dropped, never a fatal error) — matching
// original_source/v1/controller.py's handler, which drops on checksum
// mismatch and keeps listening.
func (r *Receiver) Run(ctx context.Context) error {
	buf := make([]byte, 256)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := r.conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
			return err
		}
		n, from, err := r.conn.ReadFromUDP(buf)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			r.logger.Warn("command socket read error", "err", err)
			continue
		}

		cmd, decodeErr := wire.DecodeCommand(buf[:n])
		if decodeErr != nil {
			r.logger.Warn("dropping malformed command packet", "from", from, "err", decodeErr)
			continue
		}

		r.logger.Info("command received", "kind", cmd.Kind.String(), "arg1", cmd.Arg1, "arg2", cmd.Arg2, "from", from)

		// SETSTATUSFORMAT configures the status emitter directly; it never
		// touches phase state, so it bypasses the phase machine entirely
		// rather than riding through its command queue.
		if cmd.Kind == wire.SETSTATUSFORMAT {
			r.mem.SetStatusFormat(cmd.Arg1)
			continue
		}
		r.mach.Dispatch(cmd, time.Now())
	}
}

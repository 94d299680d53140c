// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package emit

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/prjemian/cs800sim/internal/memory"
	"github.com/prjemian/cs800sim/internal/wire"
)

// StatusPort is the UDP port the status broadcaster sends on (spec
// section 4.3).
const StatusPort = 30304

// statusInterval matches original_source/v1/broadcast_status.py's
// emit_status loop (`time.sleep(1)`).
const statusInterval = time.Second

// StatusEmitter periodically advances Controller Memory's simulation
// tick and broadcasts the resulting status frame. It is the sole caller
// of the tick (spec section 4.3: "The emitter is the only caller that
// triggers the tick").
type StatusEmitter struct {
	conn     *net.UDPConn
	dest     *net.UDPAddr
	mem      *memory.Memory
	ticker   *memory.Ticker
	logger   *slog.Logger
	Interval time.Duration
}

// NewStatusEmitter opens a broadcast socket bound to the status
// broadcaster's simulation clock starting at now.
func NewStatusEmitter(mem *memory.Memory, now time.Time, logger *slog.Logger) (*StatusEmitter, error) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{})
	if err != nil {
		return nil, err
	}
	if err := setBroadcast(conn); err != nil {
		conn.Close()
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	dest := &net.UDPAddr{IP: net.IPv4bcast, Port: StatusPort}
	return &StatusEmitter{
		conn:     conn,
		dest:     dest,
		mem:      mem,
		ticker:   memory.NewTicker(memory.DefaultSmoothing, memory.DefaultNoiseAmplitude, now),
		logger:   logger,
		Interval: statusInterval,
	}, nil
}

// Close releases the status socket.
func (e *StatusEmitter) Close() error {
	return e.conn.Close()
}

// Run ticks Controller Memory and broadcasts a status frame every
// Interval until ctx is cancelled.
func (e *StatusEmitter) Run(ctx context.Context) error {
	t := time.NewTicker(e.Interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-t.C:
			e.ticker.Tick(e.mem, now)
			frame := e.buildFrame()
			if _, err := e.conn.WriteToUDP(frame, e.dest); err != nil {
				e.logger.Warn("status broadcast failed", "err", err)
			}
		}
	}
}

func (e *StatusEmitter) buildFrame() []byte {
	snap := e.mem.Snapshot()
	reg := e.mem.Registry()
	names := reg.NamesForFormat(e.mem.StatusFormat())

	pairs := make([]wire.IDValue, 0, len(names))
	for _, name := range names {
		p, ok := reg.ByName(name)
		if !ok {
			continue
		}
		pairs = append(pairs, wire.IDValue{ID: p.ID, Value: snap.Values[name]})
	}
	return wire.EncodeStatus(pairs)
}

// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package emit implements the identity and status broadcasters (spec
// section 4.3): two independent ~1Hz UDP broadcasters built on the same
// ticker-driven goroutine idiom cmd/control.go uses for its connection
// manager, sending the packets internal/wire encodes.
package emit

import (
	"context"
	"log/slog"
	"net"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/prjemian/cs800sim/internal/wire"
)

// IdentityPort is the UDP port the identity announcer broadcasts on
// (spec section 4.3).
const IdentityPort = 30303

// identityInterval matches original_source/v1/emit_id.py's 1Hz
// announce loop.
const identityInterval = time.Second

// IdentityEmitter periodically broadcasts this controller's NetBIOS-ish
// name and MAC address on IdentityPort.
type IdentityEmitter struct {
	conn     *net.UDPConn
	dest     *net.UDPAddr
	name     string
	mac      [6]byte
	logger   *slog.Logger
	Interval time.Duration
}

// NewIdentityEmitter opens a broadcast socket and resolves the
// controller's name/MAC the way spec section 4.3 describes: the host
// name truncated at its first '.', and the hardware address of the
// first eligible network interface (see SelectInterface).
func NewIdentityEmitter(logger *slog.Logger) (*IdentityEmitter, error) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{})
	if err != nil {
		return nil, err
	}
	if err := setBroadcast(conn); err != nil {
		conn.Close()
		return nil, err
	}

	name := hostNetBIOSName()
	var mac [6]byte
	if ifaces, err := net.Interfaces(); err == nil {
		if iface, ok := SelectInterface(ifaces); ok {
			mac = HardwareAddr(iface)
		}
	}

	if logger == nil {
		logger = slog.Default()
	}
	dest := &net.UDPAddr{IP: net.IPv4bcast, Port: IdentityPort}
	return &IdentityEmitter{conn: conn, dest: dest, name: name, mac: mac, logger: logger, Interval: identityInterval}, nil
}

func hostNetBIOSName() string {
	host, err := os.Hostname()
	if err != nil {
		return "cs800sim"
	}
	if i := strings.IndexByte(host, '.'); i >= 0 {
		host = host[:i]
	}
	return host
}

// Close releases the identity socket.
func (e *IdentityEmitter) Close() error {
	return e.conn.Close()
}

// Run broadcasts an identity packet every Interval until ctx is
// cancelled. A transient send error is logged and the loop continues
// (spec section 4.3: "transient send errors are logged and do not stop
// the loop").
func (e *IdentityEmitter) Run(ctx context.Context) error {
	frame := wire.EncodeIdentityBinary(e.name, e.mac)
	ticker := time.NewTicker(e.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := e.conn.WriteToUDP(frame, e.dest); err != nil {
				e.logger.Warn("identity broadcast failed", "err", err)
			}
		}
	}
}

// setBroadcast enables SO_BROADCAST on conn, the Go translation of
// original_source/v1/emit_id.py's
// sock.setsockopt(SOL_SOCKET, SO_BROADCAST, 1) — without it, Linux
// refuses sendto calls aimed at the limited broadcast address.
func setBroadcast(conn *net.UDPConn) error {
	raw, err := conn.SyscallConn()
	if err != nil {
		return err
	}
	var sockErr error
	if err := raw.Control(func(fd uintptr) {
		sockErr = syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, syscall.SO_BROADCAST, 1)
	}); err != nil {
		return err
	}
	return sockErr
}

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package wire

import (
	"encoding/binary"
	"fmt"
)

// CommandKind enumerates the command codes a CS800 datagram can carry
// (spec section 3).
type CommandKind uint16

const (
	RESTART         CommandKind = 10
	RAMP            CommandKind = 11
	PLAT            CommandKind = 12
	HOLD            CommandKind = 13
	COOL            CommandKind = 14
	END             CommandKind = 15
	PURGE           CommandKind = 16
	PAUSE           CommandKind = 17
	RESUME          CommandKind = 18
	STOP            CommandKind = 19
	TURBO           CommandKind = 20
	SETSTATUSFORMAT CommandKind = 40
)

var commandNames = map[CommandKind]string{
	RESTART:         "RESTART",
	RAMP:            "RAMP",
	PLAT:            "PLAT",
	HOLD:            "HOLD",
	COOL:            "COOL",
	END:             "END",
	PURGE:           "PURGE",
	PAUSE:           "PAUSE",
	RESUME:          "RESUME",
	STOP:            "STOP",
	TURBO:           "TURBO",
	SETSTATUSFORMAT: "SETSTATUSFORMAT",
}

func (k CommandKind) String() string {
	if s, ok := commandNames[k]; ok {
		return s
	}
	return fmt.Sprintf("CommandKind(%d)", uint16(k))
}

// IsKnown reports whether k is one of the recognised command codes.
func (k CommandKind) IsKnown() bool {
	_, ok := commandNames[k]
	return ok
}

// CommandLen is the fixed length of a command datagram (spec section
// 4.1): CMD_ID(2) | ARG1(2) | ARG2(2) | CKSUM(1).
const CommandLen = 7

// Command is a decoded command datagram, without the arrival metadata
// (timestamp, source IP) that internal/command attaches on receipt.
type Command struct {
	Kind CommandKind
	Arg1 uint16
	Arg2 uint16
}

// EncodeCommand builds the 7-byte command datagram: CMD_ID, ARG1, ARG2
// big-endian, followed by an 8-bit checksum of the first 6 bytes. This
// mirrors original_source/v1/commander.py's send_command.
func EncodeCommand(c Command) []byte {
	out := make([]byte, CommandLen)
	binary.BigEndian.PutUint16(out[0:2], uint16(c.Kind))
	binary.BigEndian.PutUint16(out[2:4], c.Arg1)
	binary.BigEndian.PutUint16(out[4:6], c.Arg2)
	out[6] = checksum8(out[:6])
	return out
}

// DecodeCommand parses a 7-byte command datagram, verifying its
// checksum. Packets with the wrong length, an unrecognised CMD_ID, or a
// bad checksum are rejected (spec section 4.1: "dropped silently" by
// the caller, which decides policy; DecodeCommand just reports why).
func DecodeCommand(data []byte) (Command, error) {
	if len(data) != CommandLen {
		return Command{}, fmt.Errorf("wire: command datagram has length %d, want %d", len(data), CommandLen)
	}
	want := checksum8(data[:6])
	got := data[6]
	if want != got {
		return Command{}, fmt.Errorf("wire: command checksum mismatch: got %#02x, frame says %#02x", want, got)
	}

	kind := CommandKind(binary.BigEndian.Uint16(data[0:2]))
	if !kind.IsKnown() {
		return Command{}, fmt.Errorf("wire: unknown command id %d", uint16(kind))
	}

	return Command{
		Kind: kind,
		Arg1: binary.BigEndian.Uint16(data[2:4]),
		Arg2: binary.BigEndian.Uint16(data[4:6]),
	}, nil
}

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusRoundTrip(t *testing.T) {
	pairs := []IDValue{
		{ID: 1, Value: 15000},
		{ID: 2, Value: 15000},
		{ID: 3, Value: 0},
	}
	frame := EncodeStatus(pairs)

	assert.Equal(t, byte(0xAA), frame[0])
	assert.Equal(t, byte(0xAB), frame[1])
	assert.Equal(t, byte(0xAB), frame[len(frame)-2])
	assert.Equal(t, byte(0xAA), frame[len(frame)-1])

	got, err := DecodeStatus(frame)
	require.NoError(t, err)
	assert.Equal(t, pairs, got)
}

func TestStatusChecksumRejectsEverySingleByteFlip(t *testing.T) {
	pairs := []IDValue{{ID: 7, Value: 12345}, {ID: 8, Value: 1}}
	frame := EncodeStatus(pairs)

	dataStart, dataEnd := 4, 4+4*len(pairs)
	for i := dataStart; i < dataEnd; i++ {
		for bit := 0; bit < 8; bit++ {
			corrupt := append([]byte(nil), frame...)
			corrupt[i] ^= 1 << bit
			_, err := DecodeStatus(corrupt)
			assert.Error(t, err, "byte %d bit %d should be rejected", i, bit)
		}
	}
}

func TestStatusRejectsBadHeaderFooterAndSize(t *testing.T) {
	frame := EncodeStatus([]IDValue{{ID: 1, Value: 2}})

	bad := append([]byte(nil), frame...)
	bad[0] = 0
	_, err := DecodeStatus(bad)
	assert.Error(t, err)

	bad = append([]byte(nil), frame...)
	bad[len(bad)-1] = 0
	_, err = DecodeStatus(bad)
	assert.Error(t, err)

	_, err = DecodeStatus(frame[:len(frame)-1])
	assert.Error(t, err)
}

func TestTemperatureQuantisation(t *testing.T) {
	assert.Equal(t, uint16(15000), EncodeTemperature(150))
	assert.Equal(t, uint16(0), EncodeTemperature(-5))
	assert.Equal(t, uint16(65535), EncodeTemperature(1000))
	assert.InDelta(t, 150.0, DecodeTemperature(15000), 0.001)
}

func TestIdentityBinaryRoundTrip(t *testing.T) {
	mac := [6]byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}
	frame := EncodeIdentityBinary("CS800-1", mac)
	assert.Len(t, frame, 22)

	id, err := DecodeIdentity(frame)
	require.NoError(t, err)
	assert.Equal(t, "CS800-1", id.Name)
	assert.Equal(t, mac, id.MAC)
}

func TestIdentityTextForm(t *testing.T) {
	name := make([]byte, 15)
	for i := range name {
		name[i] = 0xFF
	}
	frame := append(name, "\r\nAA-BB-CC-DD-EE-FF"...)

	id, err := DecodeIdentity(frame)
	require.NoError(t, err)
	assert.Equal(t, [6]byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}, id.MAC)
}

func TestIdentityRejectsUnknownLength(t *testing.T) {
	_, err := DecodeIdentity([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestCommandRoundTrip(t *testing.T) {
	cases := []Command{
		{Kind: RESTART},
		{Kind: RAMP, Arg1: 60, Arg2: 20000},
		{Kind: PLAT, Arg1: 120},
		{Kind: HOLD},
		{Kind: COOL, Arg1: 10000},
		{Kind: END, Arg1: 360},
		{Kind: PURGE},
		{Kind: PAUSE},
		{Kind: RESUME},
		{Kind: STOP},
		{Kind: TURBO, Arg1: 1},
		{Kind: SETSTATUSFORMAT, Arg1: 1},
	}
	for _, c := range cases {
		frame := EncodeCommand(c)
		require.Len(t, frame, CommandLen)

		var sum uint32
		for _, b := range frame[:6] {
			sum += uint32(b)
		}
		assert.Equal(t, byte(sum%256), frame[6])

		got, err := DecodeCommand(frame)
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
}

func TestCommandRejectsBadChecksumAndUnknownID(t *testing.T) {
	frame := EncodeCommand(Command{Kind: RAMP, Arg1: 60, Arg2: 20000})
	corrupt := append([]byte(nil), frame...)
	corrupt[6] ^= 0xFF
	_, err := DecodeCommand(corrupt)
	assert.Error(t, err)

	unknown := EncodeCommand(Command{Kind: 999})
	_, err = DecodeCommand(unknown)
	assert.Error(t, err)

	_, err = DecodeCommand(frame[:CommandLen-1])
	assert.Error(t, err)
}

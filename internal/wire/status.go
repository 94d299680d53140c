// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package wire

import (
	"encoding/binary"
	"fmt"
)

// Status packet framing bytes (spec section 4.1).
var (
	statusHeader = [2]byte{0xAA, 0xAB}
	statusFooter = [2]byte{0xAB, 0xAA}
)

// IDValue is one {ID, VALUE} entry of a status packet.
type IDValue struct {
	ID    uint16
	Value uint16
}

// EncodeStatus builds a complete status packet from an ordered list of
// parameter id/value pairs:
//
//	HEADER(2) | DATA_SIZE(2) | {ID(2) VALUE(2)}*N | CKSUM(2) | FOOTER(2)
//
// DATA_SIZE is the byte length of the {ID,VALUE} region (4*N); CKSUM is
// the sum modulo 2^16 of every byte in that region. All integers are
// big-endian (spec section 4.1).
func EncodeStatus(pairs []IDValue) []byte {
	dataLen := 4 * len(pairs)
	data := make([]byte, dataLen)
	for i, pv := range pairs {
		binary.BigEndian.PutUint16(data[i*4:], pv.ID)
		binary.BigEndian.PutUint16(data[i*4+2:], pv.Value)
	}

	out := make([]byte, 0, 2+2+dataLen+2+2)
	out = append(out, statusHeader[:]...)
	out = binary.BigEndian.AppendUint16(out, uint16(dataLen))
	out = append(out, data...)
	out = binary.BigEndian.AppendUint16(out, checksum16(data))
	out = append(out, statusFooter[:]...)
	return out
}

// DecodeStatus parses a status packet built by EncodeStatus, validating
// header, footer, DATA_SIZE, and checksum. The open question in spec
// section 9 about the checksum's byte offset is resolved here: the
// checksum immediately follows the {ID,VALUE} region, at offset
// 4+DATA_SIZE, before the 2-byte footer.
func DecodeStatus(frame []byte) ([]IDValue, error) {
	const minLen = 2 + 2 + 2 + 2 // header + size + cksum + footer, zero params
	if len(frame) < minLen {
		return nil, fmt.Errorf("wire: status frame too short: %d bytes", len(frame))
	}
	if frame[0] != statusHeader[0] || frame[1] != statusHeader[1] {
		return nil, fmt.Errorf("wire: bad status header % X", frame[:2])
	}

	dataSize := binary.BigEndian.Uint16(frame[2:4])
	if dataSize%4 != 0 {
		return nil, fmt.Errorf("wire: status DATA_SIZE %d not a multiple of 4", dataSize)
	}

	dataStart := 4
	dataEnd := dataStart + int(dataSize)
	cksumEnd := dataEnd + 2
	footerEnd := cksumEnd + 2
	if len(frame) != footerEnd {
		return nil, fmt.Errorf("wire: status frame length %d does not match DATA_SIZE %d", len(frame), dataSize)
	}

	data := frame[dataStart:dataEnd]
	wantCksum := binary.BigEndian.Uint16(frame[dataEnd:cksumEnd])
	gotCksum := checksum16(data)
	if wantCksum != gotCksum {
		return nil, fmt.Errorf("wire: status checksum mismatch: got %#04x, frame says %#04x", gotCksum, wantCksum)
	}

	footer := frame[cksumEnd:footerEnd]
	if footer[0] != statusFooter[0] || footer[1] != statusFooter[1] {
		return nil, fmt.Errorf("wire: bad status footer % X", footer)
	}

	n := int(dataSize) / 4
	pairs := make([]IDValue, n)
	for i := 0; i < n; i++ {
		pairs[i] = IDValue{
			ID:    binary.BigEndian.Uint16(data[i*4:]),
			Value: binary.BigEndian.Uint16(data[i*4+2:]),
		}
	}
	return pairs, nil
}

// EncodeTemperature converts a Kelvin value to the wire's centiKelvin
// representation, clipped to [0, 65535] (spec section 3/4.1).
func EncodeTemperature(kelvin float64) uint16 {
	v := kelvin*100 + 0.5
	switch {
	case v <= 0:
		return 0
	case v >= 65535:
		return 65535
	default:
		return uint16(v)
	}
}

// DecodeTemperature converts a wire centiKelvin value back to Kelvin.
func DecodeTemperature(raw uint16) float64 {
	return float64(raw) / 100.0
}

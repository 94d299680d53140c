// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package wire

import (
	"bytes"
	"fmt"
)

// Identity packet shapes (spec section 4.1). Emitters emit the binary
// form only, grounded on original_source/v1/emit_id.py; receivers MUST
// accept both, since real hardware has also been observed to use the
// text form.
const (
	identityNameWidth = 16
	identityMACLen    = 6
	identityBinaryLen = identityNameWidth + identityMACLen // 22

	identityTextNamePad = 15
	identityTextMinLen  = identityTextNamePad + 2 + 17 // name pad + CRLF + "AA-BB-CC-DD-EE-FF"
)

// Identity is a decoded identity announcement: a NetBIOS-style host name
// and a 6-byte MAC address.
type Identity struct {
	Name string
	MAC  [6]byte
}

// EncodeIdentityBinary builds the 22-byte binary identity form: 16
// bytes of left-justified, space-padded ASCII name followed by 6 raw
// MAC bytes, big-endian.
func EncodeIdentityBinary(name string, mac [6]byte) []byte {
	out := make([]byte, identityBinaryLen)
	copy(out, padName(name, identityNameWidth))
	copy(out[identityNameWidth:], mac[:])
	return out
}

func padName(name string, width int) []byte {
	b := []byte(name)
	if len(b) > width {
		b = b[:width]
	}
	out := bytes.Repeat([]byte{' '}, width)
	copy(out, b)
	return out
}

// DecodeIdentity accepts either wire shape (spec section 4.1):
//
//   - Binary form (22 bytes): 16-byte padded name + 6 raw MAC bytes.
//   - Text form (>=34 bytes): 15 bytes of padding/0xFF, CR LF, then a
//     17-byte "AA-BB-CC-DD-EE-FF" MAC string.
func DecodeIdentity(data []byte) (Identity, error) {
	switch {
	case len(data) == identityBinaryLen:
		var id Identity
		id.Name = string(bytes.TrimRight(data[:identityNameWidth], " "))
		copy(id.MAC[:], data[identityNameWidth:])
		return id, nil

	case len(data) >= identityTextMinLen:
		return decodeIdentityText(data)

	default:
		return Identity{}, fmt.Errorf("wire: identity frame has unexpected length %d", len(data))
	}
}

func decodeIdentityText(data []byte) (Identity, error) {
	crlf := bytes.Index(data, []byte("\r\n"))
	if crlf < 0 || crlf+2+17 > len(data) {
		return Identity{}, fmt.Errorf("wire: malformed text-form identity frame")
	}
	name := string(bytes.TrimRight(bytes.TrimRight(data[:crlf], "\xff"), " "))
	macText := data[crlf+2 : crlf+2+17]

	var mac [6]byte
	n, err := fmt.Sscanf(string(macText), "%02x-%02x-%02x-%02x-%02x-%02x",
		&mac[0], &mac[1], &mac[2], &mac[3], &mac[4], &mac[5])
	if err != nil || n != 6 {
		return Identity{}, fmt.Errorf("wire: malformed MAC text %q: %w", macText, err)
	}
	return Identity{Name: name, MAC: mac}, nil
}

// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package emit

import (
	"net"
	"strings"
)

// internalPrefixes lists interface name prefixes treated as internal
// (spec section 4.3), translated verbatim from the exclusion list in
// original_source/v1/utils.py's commented-out isNicKnownAsInternal.
var internalPrefixes = []string{"Loopback", "br-", "Virtual", "Bluetooth", "docker"}

// SelectInterface picks the network interface the identity emitter
// reports its MAC address from.
//
// original_source/v1/utils.py ranks interfaces by the number of
// established IPv4 connections seen in psutil.net_connections(), a view
// the Go standard library has no equivalent for (reading connection
// tables is OS-specific and not exposed by net or syscall in a portable
// way). This is the one place SPEC_FULL.md's ambient stack accepts a
// standard-library-only implementation: lacking a connection-count
// signal, it takes the first up, non-loopback interface with a 6-byte
// hardware address — the same exclusion list, just
// without the ranking step.
func SelectInterface(ifaces []net.Interface) (net.Interface, bool) {
	for _, iface := range ifaces {
		if isInternal(iface.Name) {
			continue
		}
		if iface.Flags&net.FlagUp == 0 {
			continue
		}
		if iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		if len(iface.HardwareAddr) != 6 {
			continue
		}
		return iface, true
	}
	return net.Interface{}, false
}

func isInternal(name string) bool {
	if name == "lo" {
		return true
	}
	for _, prefix := range internalPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// HardwareAddr returns a fixed 6-byte MAC for iface, or the zero MAC if
// iface carries no usable hardware address.
func HardwareAddr(iface net.Interface) [6]byte {
	var mac [6]byte
	copy(mac[:], iface.HardwareAddr)
	return mac
}

// go-spiflasher
// Copyright (c) 2025 The OpenFlasher Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-spiflasher.
//
// go-spiflasher is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-spiflasher is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-spiflasher; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

// Package uart enumerates serial ports that may carry the flasher link.
package uart

import "strings"

// Port describes one candidate serial port.
type Port struct {
	// Path is the device path ("/dev/ttyUSB0", "COM3").
	Path string
	// Name is a short human-readable label when the platform provides one.
	Name string
}

// List returns the serial ports present on this machine, most likely
// candidates first.
func List() ([]Port, error) {
	ports, err := getSerialPorts()
	if err != nil {
		return nil, err
	}

	// Stable order: likely USB-serial bridges before on-board ports.
	candidates := make([]Port, 0, len(ports))
	var rest []Port
	for _, p := range ports {
		if IsCandidate(p.Path) {
			candidates = append(candidates, p)
		} else {
			rest = append(rest, p)
		}
	}
	return append(candidates, rest...), nil
}

// IsCandidate reports whether the path looks like a USB-serial bridge of the
// kind flasher boards enumerate as.
func IsCandidate(path string) bool {
	lower := strings.ToLower(path)
	for _, pattern := range []string{
		"ttyusb", "ttyacm", "usbserial", "usbmodem", "wchusbserial", "slab_usbtouart",
	} {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

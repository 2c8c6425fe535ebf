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

/*
Package spiflasher implements the device side of a serial SPI flash
programming protocol: a host computer reprograms an external SPI flash chip
through a small line-framed command set over a serial link.

The package is the command processor itself - byte framing, command dispatch,
chunked-transfer bookkeeping, checksum verification, and the erase/write/reset
control flow. The serial link and the physical flash chip are collaborators
behind the Transport and Flash interfaces, with real implementations in the
transport/uart and flash/spidev subpackages.

Wire protocol:

Each command is a single selector byte, optionally followed by a base64
payload, terminated by a newline. Integer payloads (baud rate, flags, file
size) are little-endian. Flash data travels in chunks of at most 2048 raw
bytes per frame. Every response line from the device starts with a
one-character tag: '!' error, '@' MD5 checksum, '#' informational.

Basic usage:

	import (
	    spiflasher "github.com/OpenFlasherProject/go-spiflasher"
	    "github.com/OpenFlasherProject/go-spiflasher/flash/spidev"
	    "github.com/OpenFlasherProject/go-spiflasher/transport/uart"
	)

	transport, err := uart.New("/dev/ttyAMA0", spiflasher.InitialBaudRate)
	if err != nil {
	    log.Fatal(err)
	}
	defer transport.Close()

	chip, err := spidev.New("SPI0.0")
	if err != nil {
	    log.Fatal(err)
	}
	defer chip.Close()

	ctrl, err := spiflasher.New(transport, chip)
	if err != nil {
	    log.Fatal(err)
	}
	if err := ctrl.Run(context.Background()); err != nil {
	    log.Fatal(err)
	}

The controller is strictly request/response and single-threaded: it never
emits a line on its own initiative, and device operations (erase, write,
identify) run to completion on the calling goroutine. Controller is NOT
safe for concurrent use; the protocol itself is single-session.

Every failure is terminal for the current transfer: the device emits one
diagnostic line, resets the session, and waits for the host to start over.
There is no retry logic anywhere in the protocol.

The host side of the same protocol is implemented by the host subpackage.
*/
package spiflasher

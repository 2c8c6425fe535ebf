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

package spiflasher

import "github.com/OpenFlasherProject/go-spiflasher/internal/frame"

// Protocol limits, re-exported for collaborators and hosts.
const (
	// MaxChunkSize is the maximum raw size of one flash data chunk.
	MaxChunkSize = frame.MaxChunkSize

	// MaxPayloadSize is the framing buffer capacity in bytes.
	MaxPayloadSize = frame.MaxPayloadSize

	// InitialBaudRate is the symbol rate after power-on and after a reset.
	InitialBaudRate = frame.InitialBaudRate

	// MaxBaudRate is the highest rate set-baud accepts.
	MaxBaudRate = frame.MaxBaudRate
)

// Transport is the serial link collaborator: a byte-oriented, half-duplex,
// line-buffered stream with a mutable symbol rate.
//
// The controller reads one byte at a time and writes whole response lines.
// Implementations exist for real UART hardware (transport/uart) and for
// tests (MockTransport).
type Transport interface {
	// ReadByte returns the next available byte. ok is false when no data is
	// waiting; that is the idle condition, not an error.
	ReadByte() (b byte, ok bool, err error)

	// WriteLine writes one response line. The line terminator is appended by
	// the transport.
	WriteLine(line string) error

	// Flush blocks until all written bytes have left the transport.
	Flush() error

	// Reopen closes and reopens the transport at a new symbol rate. Bytes
	// already buffered for output should be drained first.
	Reopen(baudRate int) error

	// Close closes the transport connection.
	Close() error

	// Type returns the transport type.
	Type() TransportType
}

// TransportType represents the type of transport
type TransportType string

const (
	// TransportUART represents UART/serial transport.
	TransportUART TransportType = "uart"
	// TransportMock represents a mock transport for testing
	TransportMock TransportType = "mock"
)

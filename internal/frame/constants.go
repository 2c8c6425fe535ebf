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

// Package frame defines the wire constants of the flasher serial protocol.
package frame

// Command selector bytes - host to device. Each selector byte arms the
// corresponding command; the payload that follows (if any) is terminated
// by Terminator.
const (
	SelSetBaud     = '!'
	SelSetErase    = '@'
	SelSetWrite    = '#'
	SelSetFileSize = '$'
	SelChunk       = '%'
	SelDoErase     = '^'
	SelDoFlash     = '&'
	SelReset       = '*'
	SelInfo        = '('
)

// Terminator closes the current payload and marks it ready for dispatch.
const Terminator = '\n'

// Response line tags - device to host. Every response line starts with
// exactly one of these.
const (
	TagError    = '!'
	TagChecksum = '@'
	TagInfo     = '#'
)

// Size limits
const (
	// MaxChunkSize is the maximum raw (decoded) size of one flash data chunk.
	MaxChunkSize = 2048

	// MaxPayloadSize is the receive buffer capacity: MaxChunkSize inflated
	// by the base64 expansion factor, plus framing slack.
	MaxPayloadSize = MaxChunkSize*4/3 + 5
)

// Baud rates
const (
	// InitialBaudRate is the rate the device listens at after power-on
	// and after every session reset.
	InitialBaudRate = 9600

	// MaxBaudRate is the highest rate a set-baud command may request.
	MaxBaudRate = 921600
)

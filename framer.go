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

// frameEvent is the outcome of feeding one byte to the framer.
type frameEvent int

const (
	// eventNone: byte consumed, nothing to dispatch.
	eventNone frameEvent = iota
	// eventPayloadReady: a terminator closed the current payload.
	eventPayloadReady
	// eventOverflow: the byte would not fit in the framing buffer.
	eventOverflow
)

// feed consumes one transport byte.
//
// Selector bytes arm the matching command without touching the payload
// buffer; a new selector unconditionally replaces the previous pending
// command. The terminator records the payload length, resets the fill cursor
// for the next frame, and leaves the pending command armed. Any other byte
// is payload data.
//
// The buffer may be filled exactly to capacity; the data byte that would
// exceed it is the overflow. Payloads are base64, so selector and terminator
// bytes can never appear literally inside one.
func (s *Session) feed(b byte) frameEvent {
	if cmd, ok := commandForSelector(b); ok {
		s.pending = cmd
		return eventNone
	}

	if b == frame.Terminator {
		s.payloadLen = s.fill
		s.fill = 0
		s.payloadReady = true
		return eventPayloadReady
	}

	if s.fill >= len(s.payload) {
		return eventOverflow
	}
	s.payload[s.fill] = b
	s.fill++
	return eventNone
}

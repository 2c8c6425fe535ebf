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

// Command identifies the operation armed by the most recent selector byte.
type Command int

// Commands, in selector order.
const (
	CmdNone Command = iota
	CmdSetBaud
	CmdSetErase
	CmdSetWrite
	CmdSetFileSize
	CmdReceiveChunk
	CmdDoErase
	CmdDoFlash
	CmdReset
	CmdInfo
)

func (c Command) String() string {
	switch c {
	case CmdNone:
		return "none"
	case CmdSetBaud:
		return "set-baud"
	case CmdSetErase:
		return "set-erase-flag"
	case CmdSetWrite:
		return "set-write-flag"
	case CmdSetFileSize:
		return "set-file-size"
	case CmdReceiveChunk:
		return "receive-flash-chunk"
	case CmdDoErase:
		return "do-erase"
	case CmdDoFlash:
		return "do-flash"
	case CmdReset:
		return "reset"
	case CmdInfo:
		return "report-info"
	default:
		return "unknown"
	}
}

// commandForSelector maps a wire selector byte to its command.
func commandForSelector(b byte) (Command, bool) {
	switch b {
	case frame.SelSetBaud:
		return CmdSetBaud, true
	case frame.SelSetErase:
		return CmdSetErase, true
	case frame.SelSetWrite:
		return CmdSetWrite, true
	case frame.SelSetFileSize:
		return CmdSetFileSize, true
	case frame.SelChunk:
		return CmdReceiveChunk, true
	case frame.SelDoErase:
		return CmdDoErase, true
	case frame.SelDoFlash:
		return CmdDoFlash, true
	case frame.SelReset:
		return CmdReset, true
	case frame.SelInfo:
		return CmdInfo, true
	default:
		return CmdNone, false
	}
}

// Session is the single mutable context for one host-device conversation.
// It is owned by a Controller and never shared; an explicit Reset (or any
// unrecoverable error) returns it to its power-on state.
type Session struct {
	// payload is the framing buffer. fill is the write cursor for incoming
	// bytes; payloadLen is the length of the last completed frame.
	payload    []byte
	fill       int
	payloadLen int

	// payloadReady is set when a terminator closed the current payload and
	// cleared once the frame has been dispatched.
	payloadReady bool

	pending Command

	// writeCursor is the flash offset the next accepted chunk is written to.
	// It only advances after a confirmed successful device write.
	writeCursor uint32

	// targetFileSize is validated against device capacity when set. It is
	// never cross-checked against bytes actually written; the host is
	// trusted to send what it announced.
	targetFileSize uint32

	eraseRequested bool
	writeRequested bool

	// chunk holds the most recently decoded flash data payload, pending the
	// next do-flash.
	chunk []byte
}

// NewSession returns a Session in its power-on state.
func NewSession() *Session {
	return &Session{
		payload: make([]byte, frame.MaxPayloadSize),
	}
}

// Reset returns the session to its power-on state. The framing buffer is
// retained but its contents are discarded.
func (s *Session) Reset() {
	s.pending = CmdNone
	s.fill = 0
	s.payloadLen = 0
	s.payloadReady = false
	s.writeCursor = 0
	s.targetFileSize = 0
	s.eraseRequested = false
	s.writeRequested = false
	s.chunk = nil
}

// PendingCommand returns the command armed by the last selector byte.
func (s *Session) PendingCommand() Command {
	return s.pending
}

// WriteCursor returns the flash offset for the next accepted chunk.
func (s *Session) WriteCursor() uint32 {
	return s.writeCursor
}

// TargetFileSize returns the announced size of the incoming file.
func (s *Session) TargetFileSize() uint32 {
	return s.targetFileSize
}

// currentPayload returns the bytes of the last completed frame.
func (s *Session) currentPayload() []byte {
	return s.payload[:s.payloadLen]
}

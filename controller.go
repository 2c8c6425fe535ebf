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

import (
	"context"
	"crypto/md5" //nolint:gosec // transfer integrity check, not security
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// Controller owns the Session and drives the command/response protocol: it
// frames transport bytes, dispatches completed frames, and invokes the flash
// and transport collaborators.
//
// Thread Safety: Controller is NOT thread-safe. The protocol is
// single-session and half-duplex; all methods must be called from a single
// goroutine.
type Controller struct {
	transport Transport
	flash     Flash
	session   *Session

	sleep       func(time.Duration)
	initialBaud int
	erasePause  time.Duration
	resetGrace  time.Duration
	idlePause   time.Duration
}

// New creates a Controller for the given transport and flash collaborators.
func New(transport Transport, flash Flash, opts ...Option) (*Controller, error) {
	if transport == nil {
		return nil, errors.New("transport must not be nil")
	}
	if flash == nil {
		return nil, errors.New("flash must not be nil")
	}

	c := &Controller{
		transport:   transport,
		flash:       flash,
		session:     NewSession(),
		sleep:       time.Sleep,
		initialBaud: InitialBaudRate,
		erasePause:  1 * time.Millisecond,
		resetGrace:  1 * time.Second,
		idlePause:   1 * time.Millisecond,
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Session returns the controller's session state.
func (c *Controller) Session() *Session {
	return c.session
}

// Run drains the transport and dispatches frames until the context is
// cancelled or the transport fails. Device operations block the loop for
// their full duration; the protocol is half-duplex and the host waits for
// each reply before sending the next command.
func (c *Controller) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		b, ok, err := c.transport.ReadByte()
		if err != nil {
			return fmt.Errorf("read transport: %w", err)
		}
		if !ok {
			c.sleep(c.idlePause)
			continue
		}
		c.HandleByte(b)
	}
}

// HandleByte feeds one transport byte through the framer and, when the byte
// completes a frame, dispatches it. Exported so alternative run loops can
// drive the controller directly.
func (c *Controller) HandleByte(b byte) {
	switch c.session.feed(b) {
	case eventOverflow:
		c.emit(errorf("Message overflowed buffer; did you mean to send '&' (DO_FLASH)?"))
		c.resetSession()
	case eventPayloadReady:
		c.dispatch()
	case eventNone:
	}
}

// dispatch handles one completed frame, keyed on the pending command. The
// payload-ready signal and payload length are always cleared before
// returning, whatever the outcome.
func (c *Controller) dispatch() {
	defer func() {
		c.session.payloadReady = false
		c.session.payloadLen = 0
	}()

	cmd := c.session.pending

	var err error
	switch cmd {
	case CmdSetBaud:
		err = c.handleSetBaud()
	case CmdSetErase:
		c.session.eraseRequested = c.payloadUint32() != 0
	case CmdSetWrite:
		c.session.writeRequested = c.payloadUint32() != 0
	case CmdSetFileSize:
		err = c.handleSetFileSize()
	case CmdReceiveChunk:
		err = c.handleReceiveChunk()
	case CmdDoErase:
		err = c.handleDoErase()
	case CmdDoFlash:
		err = c.handleDoFlash()
	case CmdReset:
		c.resetSession()
	case CmdInfo:
		err = c.handleReportInfo()
	case CmdNone:
		// Stray terminator with nothing armed.
	}

	if err != nil {
		debugf("%s failed: %v", cmd, err)
	}
}

// handleReportInfo queries the chip identification word and capacity
// metrics. A failed identification is reported but does not reset the
// session: nothing has been mutated yet.
func (c *Controller) handleReportInfo() error {
	id, err := c.flash.JEDECID()
	if err != nil || id == 0 {
		c.emit(errorf("Connection to flash failed; check wiring."))
		return ErrDeviceUnreachable
	}

	c.emit(infof("JEDEC ID: 0x%X", id))
	c.emit(infof("Man ID: 0x%X", uint8(id>>16)))
	c.emit(infof("Memory ID: 0x%X", uint8(id>>8)))
	c.emit(infof("Capacity: %d", c.flash.Capacity()))
	c.emit(infof("Max Pages: %d", c.flash.PageCount()))
	return nil
}

// handleSetBaud reopens the transport at the requested rate. A successful
// change is acknowledged implicitly: the host assumes success when no error
// line arrives before the transport closes.
func (c *Controller) handleSetBaud() error {
	rate := c.payloadUint32()
	if rate > MaxBaudRate {
		c.emit(errorf("Invalid baudrate '%X'", rate))
		c.resetSession()
		return &BaudError{Requested: rate}
	}

	if err := c.transport.Reopen(int(rate)); err != nil {
		c.resetSession()
		return fmt.Errorf("reopen at %d baud: %w", rate, err)
	}
	return nil
}

// handleSetFileSize stores the announced file size after bounding it against
// device capacity. Success is silent.
func (c *Controller) handleSetFileSize() error {
	size := c.payloadUint32()
	if size > c.flash.Capacity() {
		c.emit(errorf("File size exceeds flash size"))
		c.resetSession()
		return ErrFileTooLarge
	}
	c.session.targetFileSize = size
	return nil
}

// handleReceiveChunk decodes the payload, retains it for the next do-flash,
// and answers with its MD5 digest so the host can verify the transfer before
// committing the chunk.
func (c *Controller) handleReceiveChunk() error {
	data, err := c.decodePayload()
	if err != nil || len(data) == 0 {
		c.emit(errorf("Data length was 0 after conversion from base64"))
		c.resetSession()
		return ErrEmptyChunk
	}
	if len(data) > MaxChunkSize {
		c.emit(errorf("Data length %d exceeds max chunk size %d", len(data), MaxChunkSize))
		c.resetSession()
		return ErrChunkTooLarge
	}

	c.session.chunk = append(c.session.chunk[:0], data...)
	sum := md5.Sum(data) //nolint:gosec // transfer integrity check, not security
	c.emit(checksumResponse(hex.EncodeToString(sum[:])))
	return nil
}

// handleDoErase erases the chip block by block, checking the device status
// after each block. The first nonzero status ends the operation.
func (c *Controller) handleDoErase() error {
	c.emit(infof("Erasing chip..."))
	c.flushTransport()

	capacity := c.flash.Capacity()
	block := c.flash.BlockSize()
	if block == 0 {
		block = 32 * 1024
	}

	for offset := uint32(0); offset < capacity; offset += block {
		c.flash.EraseBlock(offset)
		if code := c.flash.LastError(); code != 0 {
			c.emit(errorf("Flash error during erase in block at %d | Err %d", offset, code))
			c.resetSession()
			return &DeviceError{Op: "erase", Offset: offset, Code: code}
		}
		c.sleep(c.erasePause)
	}

	c.emit(infof("Chip erased"))
	return nil
}

// handleDoFlash writes the retained chunk at the write cursor. The cursor
// only advances on a confirmed successful write.
func (c *Controller) handleDoFlash() error {
	data := c.session.chunk
	cursor := c.session.writeCursor

	c.flash.Write(cursor, data)
	if code := c.flash.LastError(); code != 0 {
		c.emit(errorf("Flash error during write in page at %d : Err %d", cursor, code))
		c.resetSession()
		return &DeviceError{Op: "write", Offset: cursor, Code: code}
	}

	c.emit(infof("W_OK"))
	c.flushTransport()
	c.session.writeCursor = cursor + uint32(len(data))
	c.session.chunk = nil
	return nil
}

// resetSession returns the session to its power-on state and reopens the
// transport at the initial rate. The grace delay lets the host drain any
// response bytes in flight first.
func (c *Controller) resetSession() {
	c.sleep(c.resetGrace)
	if err := c.transport.Reopen(c.initialBaud); err != nil {
		debugf("reopen at initial baud: %v", err)
	}
	c.session.Reset()
	debugln("session reset")
}

func (c *Controller) emit(r Response) {
	if err := c.transport.WriteLine(r.Line()); err != nil {
		debugf("write response: %v", err)
	}
}

func (c *Controller) flushTransport() {
	if err := c.transport.Flush(); err != nil {
		debugf("flush transport: %v", err)
	}
}

// decodePayload decodes the completed frame's base64 payload.
func (c *Controller) decodePayload() ([]byte, error) {
	out := make([]byte, base64.StdEncoding.DecodedLen(c.session.payloadLen))
	n, err := base64.StdEncoding.Decode(out, c.session.currentPayload())
	if err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return out[:n], nil
}

// payloadUint32 decodes the payload and reconstructs a little-endian
// unsigned integer from it. Undecodable or empty payloads yield zero.
func (c *Controller) payloadUint32() uint32 {
	data, err := c.decodePayload()
	if err != nil {
		return 0
	}
	var v uint32
	for i, b := range data {
		v += uint32(b) << (i * 8)
	}
	return v
}

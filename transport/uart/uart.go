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

// Package uart provides the serial port implementation of the flasher
// transport.
package uart

import (
	"fmt"
	"time"

	spiflasher "github.com/OpenFlasherProject/go-spiflasher"
	"go.bug.st/serial"
)

// readPollTimeout bounds each Read call so ReadByte can report "no data"
// instead of blocking the controller loop.
const readPollTimeout = 1 * time.Millisecond

var _ spiflasher.Transport = (*Transport)(nil)

// Transport implements spiflasher.Transport over a serial port.
type Transport struct {
	port serial.Port
	path string
	baud int
	rbuf [1]byte
}

// New opens the serial port at the given symbol rate.
func New(path string, baudRate int) (*Transport, error) {
	port, err := open(path, baudRate)
	if err != nil {
		return nil, err
	}
	return &Transport{
		port: port,
		path: path,
		baud: baudRate,
	}, nil
}

func open(path string, baudRate int) (serial.Port, error) {
	mode := &serial.Mode{BaudRate: baudRate}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, spiflasher.NewTransportError("open", path, err)
	}
	if err := port.SetReadTimeout(readPollTimeout); err != nil {
		_ = port.Close()
		return nil, spiflasher.NewTransportError("set read timeout", path, err)
	}
	return port, nil
}

// ReadByte returns the next received byte, or ok=false when nothing arrived
// within the poll timeout.
func (t *Transport) ReadByte() (byte, bool, error) {
	n, err := t.port.Read(t.rbuf[:])
	if err != nil {
		return 0, false, spiflasher.NewTransportError("read", t.path, err)
	}
	if n == 0 {
		return 0, false, nil
	}
	return t.rbuf[0], true, nil
}

// WriteLine writes the line followed by the frame terminator.
func (t *Transport) WriteLine(line string) error {
	if _, err := t.port.Write(append([]byte(line), '\n')); err != nil {
		return spiflasher.NewTransportError("write", t.path, err)
	}
	return nil
}

// Flush blocks until all written bytes have been transmitted.
func (t *Transport) Flush() error {
	if err := t.port.Drain(); err != nil {
		return spiflasher.NewTransportError("drain", t.path, err)
	}
	return nil
}

// Reopen closes the port and reopens it at a new symbol rate. Pending output
// is drained before closing so no response bytes are lost.
func (t *Transport) Reopen(baudRate int) error {
	_ = t.port.Drain()
	if err := t.port.Close(); err != nil {
		return spiflasher.NewTransportError("close", t.path, err)
	}

	port, err := open(t.path, baudRate)
	if err != nil {
		return fmt.Errorf("reopen %s at %d baud: %w", t.path, baudRate, err)
	}
	t.port = port
	t.baud = baudRate
	return nil
}

// Close closes the serial port.
func (t *Transport) Close() error {
	if err := t.port.Close(); err != nil {
		return spiflasher.NewTransportError("close", t.path, err)
	}
	return nil
}

// Type returns spiflasher.TransportUART
func (*Transport) Type() spiflasher.TransportType {
	return spiflasher.TransportUART
}

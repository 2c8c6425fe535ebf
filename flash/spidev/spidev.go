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

// Package spidev implements the flash collaborator for JEDEC-compliant SPI
// NOR flash chips attached through a periph.io SPI port.
package spidev

import (
	"fmt"
	"time"

	spiflasher "github.com/OpenFlasherProject/go-spiflasher"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// JEDEC command set shared by common SPI NOR parts (W25Q, MX25, AT25...).
const (
	cmdReadJEDECID   = 0x9F
	cmdWriteEnable   = 0x06
	cmdPageProgram   = 0x02
	cmdReadStatus    = 0x05
	cmdBlockErase32K = 0x52

	statusBusy = 0x01

	pageSize       = 256
	eraseBlockSize = 32 * 1024
)

// Status codes surfaced through LastError.
const (
	// StatusOK means the last operation completed.
	StatusOK = 0
	// StatusTransferFailed means an SPI transfer was rejected by the bus.
	StatusTransferFailed = 1
	// StatusBusyTimeout means the chip never cleared its busy bit.
	StatusBusyTimeout = 2
)

// Per-operation busy-wait deadlines, from worst-case datasheet timings with
// headroom.
const (
	eraseTimeout = 3 * time.Second
	writeTimeout = 10 * time.Millisecond
)

var _ spiflasher.Flash = (*Flash)(nil)

// Flash implements spiflasher.Flash for a JEDEC SPI NOR chip.
type Flash struct {
	port     spi.PortCloser
	conn     spi.Conn
	name     string
	capacity uint32
	lastErr  int
}

// New opens the named SPI port (see periph.io spireg, e.g. "SPI0.0") and
// probes the attached chip. The capacity is derived from the JEDEC density
// code at open time; chips the 3-byte command set cannot fully address are
// rejected.
func New(portName string) (*Flash, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("initialize periph host: %w", err)
	}

	port, err := spireg.Open(portName)
	if err != nil {
		return nil, fmt.Errorf("open SPI port %s: %w", portName, err)
	}

	conn, err := port.Connect(8*physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("connect SPI port %s: %w", portName, err)
	}

	f := &Flash{port: port, conn: conn, name: portName}

	id, err := f.JEDECID()
	if err != nil {
		_ = port.Close()
		return nil, err
	}
	f.capacity = capacityForDensity(uint8(id))
	if f.capacity == 0 {
		_ = port.Close()
		return nil, fmt.Errorf("unsupported density code 0x%02X on %s", uint8(id), portName)
	}

	return f, nil
}

// capacityForDensity converts a JEDEC density code to bytes. The command set
// uses 3-byte addressing, so parts above 16 MiB (code 0x18) are out of reach
// and yield zero, same as codes outside the plausible NOR range.
func capacityForDensity(code uint8) uint32 {
	if code < 0x10 || code > 0x18 {
		return 0
	}
	return 1 << code
}

// JEDECID reads the chip identification word: manufacturer, memory type,
// and density code.
func (f *Flash) JEDECID() (uint32, error) {
	var rx [4]byte
	if err := f.conn.Tx([]byte{cmdReadJEDECID, 0, 0, 0}, rx[:]); err != nil {
		return 0, fmt.Errorf("read JEDEC id on %s: %w", f.name, err)
	}

	id := uint32(rx[1])<<16 | uint32(rx[2])<<8 | uint32(rx[3])
	// An absent or unpowered chip reads all-zeros or all-ones.
	if id == 0 || id == 0xFFFFFF {
		return 0, spiflasher.ErrDeviceUnreachable
	}
	return id, nil
}

// Capacity returns the chip size in bytes.
func (f *Flash) Capacity() uint32 {
	return f.capacity
}

// PageCount returns the number of program pages.
func (f *Flash) PageCount() uint32 {
	return f.capacity / pageSize
}

// BlockSize returns the erase granularity in bytes.
func (*Flash) BlockSize() uint32 {
	return eraseBlockSize
}

// EraseBlock erases the 32 KiB block at offset. The outcome is reported
// through LastError.
func (f *Flash) EraseBlock(offset uint32) {
	if err := f.writeEnable(); err != nil {
		f.lastErr = StatusTransferFailed
		return
	}
	cmd := []byte{cmdBlockErase32K, byte(offset >> 16), byte(offset >> 8), byte(offset)}
	if err := f.conn.Tx(cmd, nil); err != nil {
		f.lastErr = StatusTransferFailed
		return
	}
	f.lastErr = f.waitReady(eraseTimeout)
}

// Write programs data starting at offset, splitting on page boundaries. The
// outcome is reported through LastError.
func (f *Flash) Write(offset uint32, data []byte) {
	f.lastErr = StatusOK
	for len(data) > 0 {
		n := pageSize - int(offset%pageSize)
		if n > len(data) {
			n = len(data)
		}
		if code := f.programPage(offset, data[:n]); code != StatusOK {
			f.lastErr = code
			return
		}
		offset += uint32(n)
		data = data[n:]
	}
}

func (f *Flash) programPage(offset uint32, data []byte) int {
	if err := f.writeEnable(); err != nil {
		return StatusTransferFailed
	}
	cmd := make([]byte, 0, 4+len(data))
	cmd = append(cmd, cmdPageProgram, byte(offset>>16), byte(offset>>8), byte(offset))
	cmd = append(cmd, data...)
	if err := f.conn.Tx(cmd, nil); err != nil {
		return StatusTransferFailed
	}
	return f.waitReady(writeTimeout)
}

// LastError returns the status code of the most recent erase or write.
func (f *Flash) LastError() int {
	return f.lastErr
}

// Close releases the SPI port.
func (f *Flash) Close() error {
	if err := f.port.Close(); err != nil {
		return fmt.Errorf("close SPI port %s: %w", f.name, err)
	}
	return nil
}

func (f *Flash) writeEnable() error {
	return f.conn.Tx([]byte{cmdWriteEnable}, nil)
}

// waitReady polls the status register until the busy bit clears.
func (f *Flash) waitReady(timeout time.Duration) int {
	deadline := time.Now().Add(timeout)
	var rx [2]byte
	for {
		if err := f.conn.Tx([]byte{cmdReadStatus, 0}, rx[:]); err != nil {
			return StatusTransferFailed
		}
		if rx[1]&statusBusy == 0 {
			return StatusOK
		}
		if time.Now().After(deadline) {
			return StatusBusyTimeout
		}
		time.Sleep(100 * time.Microsecond)
	}
}

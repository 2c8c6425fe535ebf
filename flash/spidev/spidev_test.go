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

package spidev

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/spi"
)

// recordingConn is an in-memory spi.Conn that records every transmit and
// answers status reads with "ready".
type recordingConn struct {
	writes [][]byte
	txErr  error
}

func (c *recordingConn) String() string { return "recording" }

func (c *recordingConn) Tx(w, r []byte) error {
	if c.txErr != nil {
		return c.txErr
	}
	c.writes = append(c.writes, append([]byte(nil), w...))
	for i := range r {
		r[i] = 0
	}
	return nil
}

func (c *recordingConn) Duplex() conn.Duplex { return conn.Full }

func (c *recordingConn) TxPackets([]spi.Packet) error { return nil }

func newTestFlash(rec *recordingConn, capacity uint32) *Flash {
	return &Flash{conn: rec, name: "recording", capacity: capacity}
}

func TestCapacityForDensity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		code uint8
		want uint32
	}{
		{"below NOR range", 0x0F, 0},
		{"64 KiB", 0x10, 64 * 1024},
		{"8 MiB", 0x17, 8 * 1024 * 1024},
		{"16 MiB, largest 3-byte-addressable part", 0x18, 16 * 1024 * 1024},
		{"32 MiB needs 4-byte addressing", 0x19, 0},
		{"2 GiB", 0x1F, 0},
		{"all ones", 0xFF, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, capacityForDensity(tt.code))
		})
	}
}

func TestEraseBlock_EncodesFullAddress(t *testing.T) {
	t.Parallel()

	rec := &recordingConn{}
	f := newTestFlash(rec, 16*1024*1024)

	// Highest 32 KiB block on a 16 MiB part.
	f.EraseBlock(0xFF8000)

	assert.Equal(t, StatusOK, f.LastError())
	// write-enable, erase, status poll.
	require.Len(t, rec.writes, 3)
	assert.Equal(t, []byte{cmdWriteEnable}, rec.writes[0])
	assert.Equal(t, []byte{cmdBlockErase32K, 0xFF, 0x80, 0x00}, rec.writes[1])
	assert.Equal(t, byte(cmdReadStatus), rec.writes[2][0])
}

func TestWrite_SplitsOnPageBoundaries(t *testing.T) {
	t.Parallel()

	rec := &recordingConn{}
	f := newTestFlash(rec, 16*1024*1024)

	data := make([]byte, 200)
	for i := range data {
		data[i] = byte(i)
	}
	f.Write(0x123480, data)

	assert.Equal(t, StatusOK, f.LastError())

	var programs [][]byte
	for _, w := range rec.writes {
		if w[0] == cmdPageProgram {
			programs = append(programs, w)
		}
	}
	require.Len(t, programs, 2)

	// First program runs to the end of the page at 0x123480.
	assert.Equal(t, []byte{cmdPageProgram, 0x12, 0x34, 0x80}, programs[0][:4])
	assert.Equal(t, data[:128], programs[0][4:])
	// Second program continues on the next page.
	assert.Equal(t, []byte{cmdPageProgram, 0x12, 0x35, 0x00}, programs[1][:4])
	assert.Equal(t, data[128:], programs[1][4:])
}

func TestEraseBlock_TransferFailureSetsStatus(t *testing.T) {
	t.Parallel()

	rec := &recordingConn{txErr: errors.New("bus rejected transfer")}
	f := newTestFlash(rec, 16*1024*1024)

	f.EraseBlock(0)

	assert.Equal(t, StatusTransferFailed, f.LastError())
}

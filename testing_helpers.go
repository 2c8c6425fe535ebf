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

var _ Transport = (*MockTransport)(nil)

// MockTransport is an in-memory Transport for tests: input bytes are queued
// ahead of time, emitted lines and baud changes are recorded.
type MockTransport struct {
	// ReadErr, when set, is returned by every ReadByte call.
	ReadErr error
	// WriteErr, when set, is returned by every WriteLine call.
	WriteErr error
	// ReopenErr, when set, is returned by every Reopen call.
	ReopenErr error
	// ErrAfterDrain, when set, is returned by ReadByte once the queued
	// input is exhausted, so run loops terminate deterministically.
	ErrAfterDrain error

	input   []byte
	pos     int
	lines   []string
	reopens []int
	flushes int
	closed  bool
}

// NewMockTransport creates an empty mock transport.
func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

// QueueBytes appends raw bytes to the pending input.
func (m *MockTransport) QueueBytes(b []byte) {
	m.input = append(m.input, b...)
}

// QueueString appends the bytes of s to the pending input.
func (m *MockTransport) QueueString(s string) {
	m.input = append(m.input, s...)
}

// ReadByte pops the next queued input byte.
func (m *MockTransport) ReadByte() (byte, bool, error) {
	if m.ReadErr != nil {
		return 0, false, m.ReadErr
	}
	if m.pos >= len(m.input) {
		return 0, false, m.ErrAfterDrain
	}
	b := m.input[m.pos]
	m.pos++
	return b, true, nil
}

// WriteLine records the emitted line.
func (m *MockTransport) WriteLine(line string) error {
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.lines = append(m.lines, line)
	return nil
}

// Flush counts flush calls.
func (m *MockTransport) Flush() error {
	m.flushes++
	return nil
}

// Reopen records the requested baud rate.
func (m *MockTransport) Reopen(baudRate int) error {
	if m.ReopenErr != nil {
		return m.ReopenErr
	}
	m.reopens = append(m.reopens, baudRate)
	return nil
}

// Close marks the transport closed.
func (m *MockTransport) Close() error {
	m.closed = true
	return nil
}

// Type returns TransportMock
func (*MockTransport) Type() TransportType {
	return TransportMock
}

// Lines returns every line written so far, in order.
func (m *MockTransport) Lines() []string {
	return m.lines
}

// Reopens returns the baud rates passed to Reopen, in order.
func (m *MockTransport) Reopens() []int {
	return m.reopens
}

// Flushes returns the number of Flush calls.
func (m *MockTransport) Flushes() int {
	return m.flushes
}

// Closed reports whether Close has been called.
func (m *MockTransport) Closed() bool {
	return m.closed
}

// MockWrite records one Write call on a MockFlash.
type MockWrite struct {
	Data   []byte
	Offset uint32
}

var _ Flash = (*MockFlash)(nil)

// MockFlash is an in-memory Flash for tests. Error schedules inject nonzero
// status codes at chosen offsets.
type MockFlash struct {
	// EraseErrAt maps block offsets to the status code EraseBlock leaves
	// behind at that offset.
	EraseErrAt map[uint32]int
	// WriteErrAt maps write offsets to the status code Write leaves behind.
	WriteErrAt map[uint32]int
	// IDErr, when set, makes JEDECID fail.
	IDErr error

	ID      uint32
	Size    uint32
	Pages   uint32
	Block   uint32
	Writes  []MockWrite
	Erased  []uint32
	lastErr int
	idReads int
}

// NewMockFlash creates a 4 MiB mock chip with 32 KiB erase blocks.
func NewMockFlash() *MockFlash {
	return &MockFlash{
		ID:    0xEF4017,
		Size:  4 * 1024 * 1024,
		Pages: 16384,
		Block: 32 * 1024,
	}
}

// JEDECID returns the configured identification word.
func (f *MockFlash) JEDECID() (uint32, error) {
	f.idReads++
	if f.IDErr != nil {
		return 0, f.IDErr
	}
	return f.ID, nil
}

// Capacity returns the configured chip size.
func (f *MockFlash) Capacity() uint32 {
	return f.Size
}

// PageCount returns the configured page count.
func (f *MockFlash) PageCount() uint32 {
	return f.Pages
}

// BlockSize returns the configured erase block size.
func (f *MockFlash) BlockSize() uint32 {
	return f.Block
}

// EraseBlock records the erase and arms the scheduled status code, if any.
func (f *MockFlash) EraseBlock(offset uint32) {
	f.Erased = append(f.Erased, offset)
	f.lastErr = f.EraseErrAt[offset]
}

// Write records the write and arms the scheduled status code, if any.
func (f *MockFlash) Write(offset uint32, data []byte) {
	f.Writes = append(f.Writes, MockWrite{Offset: offset, Data: append([]byte(nil), data...)})
	f.lastErr = f.WriteErrAt[offset]
}

// LastError returns the status code of the most recent operation.
func (f *MockFlash) LastError() int {
	return f.lastErr
}

// IDReads returns the number of JEDECID calls.
func (f *MockFlash) IDReads() int {
	return f.idReads
}

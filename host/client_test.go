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

package host

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	spiflasher "github.com/OpenFlasherProject/go-spiflasher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loopback connects a Client directly to an in-process device controller:
// bytes written by the client are framed and dispatched synchronously, and
// reads drain the lines the device emitted.
type loopback struct {
	ctrl      *spiflasher.Controller
	transport *spiflasher.MockTransport
	flash     *spiflasher.MockFlash
	pending   []byte
	served    int
}

func newLoopback(t *testing.T) *loopback {
	t.Helper()
	transport := spiflasher.NewMockTransport()
	flash := spiflasher.NewMockFlash()
	ctrl, err := spiflasher.New(transport, flash,
		spiflasher.WithSleep(func(time.Duration) {}))
	require.NoError(t, err)
	return &loopback{ctrl: ctrl, transport: transport, flash: flash}
}

func (l *loopback) Write(p []byte) (int, error) {
	for _, b := range p {
		l.ctrl.HandleByte(b)
	}
	return len(p), nil
}

func (l *loopback) Read(p []byte) (int, error) {
	if len(l.pending) == 0 {
		lines := l.transport.Lines()
		for ; l.served < len(lines); l.served++ {
			l.pending = append(l.pending, lines[l.served]...)
			l.pending = append(l.pending, '\n')
		}
	}
	if len(l.pending) == 0 {
		return 0, io.EOF
	}
	n := copy(p, l.pending)
	l.pending = l.pending[n:]
	return n, nil
}

// scriptedStream pairs canned responses with a write sink.
type scriptedStream struct {
	io.Reader
	io.Writer
}

func newLoopbackClient(t *testing.T, opts ...Option) (*Client, *loopback) {
	t.Helper()
	lb := newLoopback(t)
	client, err := NewClient(lb, opts...)
	require.NoError(t, err)
	return client, lb
}

func TestWithChunkSize_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewClient(&bytes.Buffer{}, WithChunkSize(0))
	require.Error(t, err)

	_, err = NewClient(&bytes.Buffer{}, WithChunkSize(spiflasher.MaxChunkSize+1))
	require.Error(t, err)

	_, err = NewClient(&bytes.Buffer{}, WithChunkSize(spiflasher.MaxChunkSize))
	require.NoError(t, err)
}

func TestInfo_ParsesDeviceReport(t *testing.T) {
	t.Parallel()

	client, _ := newLoopbackClient(t)

	info, err := client.Info()
	require.NoError(t, err)
	assert.Equal(t, uint32(0xEF4017), info.JEDECID)
	assert.Equal(t, uint32(4*1024*1024), info.Capacity)
	assert.Equal(t, uint32(16384), info.MaxPages)
}

func TestInfo_DeviceErrorSurfaces(t *testing.T) {
	t.Parallel()

	client, lb := newLoopbackClient(t)
	lb.flash.IDErr = spiflasher.ErrDeviceUnreachable

	_, err := client.Info()
	var devErr *DeviceReportedError
	require.ErrorAs(t, err, &devErr)
	assert.Contains(t, devErr.Message, "Connection to flash failed")
}

func TestSetFileSize_SilenceMeansSuccess(t *testing.T) {
	t.Parallel()

	client, lb := newLoopbackClient(t)

	require.NoError(t, client.SetFileSize(1024))
	assert.Equal(t, uint32(1024), lb.ctrl.Session().TargetFileSize())
}

func TestSetFileSize_RejectionIsReported(t *testing.T) {
	t.Parallel()

	client, lb := newLoopbackClient(t)

	err := client.SetFileSize(lb.flash.Size + 1)
	var devErr *DeviceReportedError
	require.ErrorAs(t, err, &devErr)
	assert.Contains(t, devErr.Message, "File size exceeds flash size")
}

func TestSetBaud_DeviceFollows(t *testing.T) {
	t.Parallel()

	client, lb := newLoopbackClient(t)

	require.NoError(t, client.SetBaud(115200))
	assert.Equal(t, []int{115200}, lb.transport.Reopens())
}

func TestSendChunkAndCommit(t *testing.T) {
	t.Parallel()

	client, lb := newLoopbackClient(t)
	data := []byte{0x01, 0x02, 0x03, 0x04}

	require.NoError(t, client.SendChunk(data))
	require.NoError(t, client.Commit())

	require.Len(t, lb.flash.Writes, 1)
	assert.Equal(t, uint32(0), lb.flash.Writes[0].Offset)
	assert.Equal(t, data, lb.flash.Writes[0].Data)
}

func TestSendChunk_RejectsOversizedChunk(t *testing.T) {
	t.Parallel()

	client, _ := newLoopbackClient(t, WithChunkSize(16))
	err := client.SendChunk(make([]byte, 17))
	require.Error(t, err)
}

func TestSendChunk_ChecksumMismatch(t *testing.T) {
	t.Parallel()

	// A stream that answers every chunk with a wrong digest.
	responses := &bytes.Buffer{}
	responses.WriteString("@00000000000000000000000000000000\n")
	client, err := NewClient(scriptedStream{Reader: responses, Writer: io.Discard})
	require.NoError(t, err)

	err = client.SendChunk([]byte{1, 2, 3})
	require.ErrorIs(t, err, ErrChecksumMismatch)
}

func TestEraseChip(t *testing.T) {
	t.Parallel()

	client, lb := newLoopbackClient(t)
	lb.flash.Size = 2 * 32 * 1024

	require.NoError(t, client.EraseChip())
	assert.Equal(t, []uint32{0, 32768}, lb.flash.Erased)
}

func TestEraseChip_DeviceFailure(t *testing.T) {
	t.Parallel()

	client, lb := newLoopbackClient(t)
	lb.flash.EraseErrAt = map[uint32]int{32768: 4}

	err := client.EraseChip()
	var devErr *DeviceReportedError
	require.ErrorAs(t, err, &devErr)
	assert.Contains(t, devErr.Message, "32768")
}

func TestWriteFile_StreamsAllChunksInOrder(t *testing.T) {
	t.Parallel()

	var updates []Progress
	client, lb := newLoopbackClient(t, WithProgress(func(p Progress) {
		updates = append(updates, p)
	}))

	data := make([]byte, 5000)
	for i := range data {
		data[i] = byte(i)
	}
	require.NoError(t, client.WriteFile(context.Background(), data))

	require.Len(t, lb.flash.Writes, 3)
	assert.Equal(t, uint32(0), lb.flash.Writes[0].Offset)
	assert.Equal(t, uint32(2048), lb.flash.Writes[1].Offset)
	assert.Equal(t, uint32(4096), lb.flash.Writes[2].Offset)
	assert.Equal(t, data[4096:], lb.flash.Writes[2].Data)

	require.Len(t, updates, 3)
	assert.Equal(t, Progress{ChunksSent: 3, ChunkCount: 3, BytesSent: 5000, TotalBytes: 5000}, updates[2])
	assert.Equal(t, uint32(5000), lb.ctrl.Session().WriteCursor())
}

func TestWriteFile_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	client, _ := newLoopbackClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := client.WriteFile(ctx, make([]byte, 4096))
	require.ErrorIs(t, err, context.Canceled)
}

func TestReset_QuietlyRestoresDevice(t *testing.T) {
	t.Parallel()

	client, lb := newLoopbackClient(t)
	require.NoError(t, client.SetFileSize(4096))
	require.NoError(t, client.Reset())

	assert.Zero(t, lb.ctrl.Session().TargetFileSize())
	assert.Equal(t, []int{spiflasher.InitialBaudRate}, lb.transport.Reopens())
}

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

// Package host implements the host side of the flasher serial protocol: it
// streams a firmware image to the device in base64 chunks, verifying each
// chunk's checksum before committing it.
package host

import (
	"context"
	"crypto/md5" //nolint:gosec // transfer integrity check, not security
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	spiflasher "github.com/OpenFlasherProject/go-spiflasher"
	"github.com/OpenFlasherProject/go-spiflasher/internal/frame"
	"go.bug.st/serial"
)

// ErrChecksumMismatch indicates the device's digest of a chunk did not match
// the locally computed one; the chunk must not be committed.
var ErrChecksumMismatch = errors.New("chunk checksum mismatch")

// DeviceReportedError carries the text of an error line received from the
// device. The device has already reset its session by the time this arrives.
type DeviceReportedError struct {
	Message string
}

func (e *DeviceReportedError) Error() string {
	return "device reported: " + e.Message
}

// UnexpectedLineError indicates the device answered with a line the current
// operation cannot interpret.
type UnexpectedLineError struct {
	Line string
}

func (e *UnexpectedLineError) Error() string {
	return fmt.Sprintf("unexpected response line %q", e.Line)
}

// Progress describes how far a WriteFile transfer has come.
type Progress struct {
	ChunksSent int
	ChunkCount int
	BytesSent  int
	TotalBytes int
}

// ProgressFunc is called after each committed chunk. It must return quickly;
// the transfer blocks while it runs.
type ProgressFunc func(Progress)

// Default response deadlines. Erase is a multi-second blocking operation on
// the device, everything else answers within a frame or two.
const (
	defaultReadDeadline = 5 * time.Second
	eraseDeadline       = 2 * time.Minute

	// silentWindow is how long silent commands (set-baud, flags, file size)
	// are given to produce an error line before the host assumes success.
	// Absence-of-error as soft success is a property of the wire protocol.
	silentWindow = 200 * time.Millisecond
)

// Client drives one flasher device over a byte stream.
//
// Client is NOT safe for concurrent use; the protocol is half-duplex.
type Client struct {
	rw        io.ReadWriter
	progress  ProgressFunc
	chunkSize int
}

// Option is a functional option for configuring a Client
type Option func(*Client) error

// WithChunkSize sets the raw bytes per transfer chunk, at most
// spiflasher.MaxChunkSize.
func WithChunkSize(n int) Option {
	return func(c *Client) error {
		if n <= 0 || n > spiflasher.MaxChunkSize {
			return fmt.Errorf("chunk size %d out of range 1..%d", n, spiflasher.MaxChunkSize)
		}
		c.chunkSize = n
		return nil
	}
}

// WithProgress sets the transfer progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(c *Client) error {
		c.progress = fn
		return nil
	}
}

// Dial opens the serial port at the protocol's initial symbol rate.
func Dial(path string, opts ...Option) (*Client, error) {
	port, err := serial.Open(path, &serial.Mode{BaudRate: spiflasher.InitialBaudRate})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := port.SetReadTimeout(50 * time.Millisecond); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", path, err)
	}
	return NewClient(port, opts...)
}

// NewClient wraps an already-open byte stream. Baud changes are applied to
// the stream only when it is a serial port.
func NewClient(rw io.ReadWriter, opts ...Option) (*Client, error) {
	c := &Client{
		rw:        rw,
		chunkSize: spiflasher.MaxChunkSize,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Close closes the underlying stream when it is closeable.
func (c *Client) Close() error {
	if closer, ok := c.rw.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// DeviceInfo is the parsed report-info response.
type DeviceInfo struct {
	JEDECID  uint32
	Capacity uint32
	MaxPages uint32
}

// Info queries the device identification and capacity report.
func (c *Client) Info() (*DeviceInfo, error) {
	if err := c.send(frame.SelInfo, nil); err != nil {
		return nil, err
	}

	info := &DeviceInfo{}
	// Five informational lines: JEDEC ID, Man ID, Memory ID, Capacity, Max Pages.
	for i := 0; i < 5; i++ {
		line, ok, err := c.readLine(defaultReadDeadline)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("info report truncated after %d lines", i)
		}
		if err := parseInfoLine(line, info); err != nil {
			return nil, err
		}
	}
	return info, nil
}

func parseInfoLine(line string, info *DeviceInfo) error {
	tag, text, err := splitLine(line)
	if err != nil {
		return err
	}
	if tag != frame.TagInfo {
		return &UnexpectedLineError{Line: line}
	}

	key, value, found := strings.Cut(text, ": ")
	if !found {
		return &UnexpectedLineError{Line: line}
	}
	switch key {
	case "JEDEC ID":
		id, err := strconv.ParseUint(strings.TrimPrefix(value, "0x"), 16, 32)
		if err != nil {
			return &UnexpectedLineError{Line: line}
		}
		info.JEDECID = uint32(id)
	case "Capacity":
		n, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return &UnexpectedLineError{Line: line}
		}
		info.Capacity = uint32(n)
	case "Max Pages":
		n, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return &UnexpectedLineError{Line: line}
		}
		info.MaxPages = uint32(n)
	case "Man ID", "Memory ID":
		// Component ids are already part of the JEDEC word.
	default:
		return &UnexpectedLineError{Line: line}
	}
	return nil
}

// SetBaud asks the device to switch symbol rate, then follows it. Success is
// signalled only by the absence of an error line.
func (c *Client) SetBaud(rate int) error {
	if err := c.sendUint32(frame.SelSetBaud, uint32(rate)); err != nil {
		return err
	}
	if err := c.expectSilence(); err != nil {
		return err
	}
	if port, ok := c.rw.(serial.Port); ok {
		if err := port.SetMode(&serial.Mode{BaudRate: rate}); err != nil {
			return fmt.Errorf("follow device to %d baud: %w", rate, err)
		}
	}
	return nil
}

// SetEraseFlag stores the erase-requested flag on the device.
func (c *Client) SetEraseFlag(v bool) error {
	return c.sendSilentFlag(frame.SelSetErase, v)
}

// SetWriteFlag stores the write-requested flag on the device.
func (c *Client) SetWriteFlag(v bool) error {
	return c.sendSilentFlag(frame.SelSetWrite, v)
}

// SetFileSize announces the total transfer size. The device rejects sizes
// above its capacity.
func (c *Client) SetFileSize(n uint32) error {
	if err := c.sendUint32(frame.SelSetFileSize, n); err != nil {
		return err
	}
	return c.expectSilence()
}

// SendChunk transfers one chunk and verifies the device's checksum against a
// locally computed digest. The chunk is retained on the device for the next
// Commit.
func (c *Client) SendChunk(data []byte) error {
	if len(data) == 0 || len(data) > c.chunkSize {
		return fmt.Errorf("chunk length %d out of range 1..%d", len(data), c.chunkSize)
	}
	if err := c.send(frame.SelChunk, data); err != nil {
		return err
	}

	text, err := c.expectTagged(frame.TagChecksum, defaultReadDeadline)
	if err != nil {
		return err
	}
	sum := md5.Sum(data) //nolint:gosec // transfer integrity check, not security
	if text != hex.EncodeToString(sum[:]) {
		return fmt.Errorf("%w: device computed %s", ErrChecksumMismatch, text)
	}
	return nil
}

// Commit writes the last verified chunk into flash at the device's write
// cursor.
func (c *Client) Commit() error {
	if err := c.send(frame.SelDoFlash, nil); err != nil {
		return err
	}
	text, err := c.expectTagged(frame.TagInfo, defaultReadDeadline)
	if err != nil {
		return err
	}
	if text != "W_OK" {
		return &UnexpectedLineError{Line: text}
	}
	return nil
}

// EraseChip erases the whole device. This blocks for the full erase
// duration.
func (c *Client) EraseChip() error {
	if err := c.send(frame.SelDoErase, nil); err != nil {
		return err
	}
	if _, err := c.expectTagged(frame.TagInfo, defaultReadDeadline); err != nil {
		return err // "Erasing chip..."
	}
	text, err := c.expectTagged(frame.TagInfo, eraseDeadline)
	if err != nil {
		return err
	}
	if text != "Chip erased" {
		return &UnexpectedLineError{Line: text}
	}
	return nil
}

// Reset returns the device to its power-on session state and initial baud
// rate. The local port follows back to the initial rate.
func (c *Client) Reset() error {
	if err := c.send(frame.SelReset, nil); err != nil {
		return err
	}
	if port, ok := c.rw.(serial.Port); ok {
		if err := port.SetMode(&serial.Mode{BaudRate: spiflasher.InitialBaudRate}); err != nil {
			return fmt.Errorf("return to initial baud: %w", err)
		}
	}
	return nil
}

// WriteFile streams data to the device: announces the size, then sends and
// commits each chunk in order. The caller erases first if the chip needs it.
func (c *Client) WriteFile(ctx context.Context, data []byte) error {
	if err := c.SetFileSize(uint32(len(data))); err != nil {
		return err
	}

	chunkCount := (len(data) + c.chunkSize - 1) / c.chunkSize
	sent := 0
	for i := 0; i < chunkCount; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := (i + 1) * c.chunkSize
		if end > len(data) {
			end = len(data)
		}
		chunk := data[i*c.chunkSize : end]

		if err := c.SendChunk(chunk); err != nil {
			return fmt.Errorf("chunk %d/%d: %w", i+1, chunkCount, err)
		}
		if err := c.Commit(); err != nil {
			return fmt.Errorf("commit chunk %d/%d: %w", i+1, chunkCount, err)
		}

		sent += len(chunk)
		if c.progress != nil {
			c.progress(Progress{
				ChunksSent: i + 1,
				ChunkCount: chunkCount,
				BytesSent:  sent,
				TotalBytes: len(data),
			})
		}
	}
	return nil
}

// send writes one command frame: selector byte, base64 payload, terminator.
func (c *Client) send(selector byte, payload []byte) error {
	buf := make([]byte, 0, 1+base64.StdEncoding.EncodedLen(len(payload))+1)
	buf = append(buf, selector)
	buf = base64.StdEncoding.AppendEncode(buf, payload)
	buf = append(buf, frame.Terminator)
	if _, err := c.rw.Write(buf); err != nil {
		return fmt.Errorf("send command %q: %w", selector, err)
	}
	return nil
}

func (c *Client) sendUint32(selector byte, v uint32) error {
	var le [4]byte
	binary.LittleEndian.PutUint32(le[:], v)
	return c.send(selector, le[:])
}

func (c *Client) sendSilentFlag(selector byte, v bool) error {
	var n uint32
	if v {
		n = 1
	}
	if err := c.sendUint32(selector, n); err != nil {
		return err
	}
	return c.expectSilence()
}

// expectSilence waits briefly for an error line; not hearing one is the
// protocol's soft success signal for silent commands.
func (c *Client) expectSilence() error {
	line, ok, err := c.readLine(silentWindow)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	tag, text, err := splitLine(line)
	if err != nil {
		return err
	}
	if tag == frame.TagError {
		return &DeviceReportedError{Message: text}
	}
	return &UnexpectedLineError{Line: line}
}

// expectTagged reads one line and requires the given tag; error lines become
// DeviceReportedError.
func (c *Client) expectTagged(tag byte, deadline time.Duration) (string, error) {
	line, ok, err := c.readLine(deadline)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("no response within %v", deadline)
	}
	gotTag, text, err := splitLine(line)
	if err != nil {
		return "", err
	}
	if gotTag == frame.TagError {
		return "", &DeviceReportedError{Message: text}
	}
	if gotTag != tag {
		return "", &UnexpectedLineError{Line: line}
	}
	return text, nil
}

// splitLine separates the tag character from the line text. Error lines drop
// the fixed "ERROR: " prefix.
func splitLine(line string) (byte, string, error) {
	if line == "" {
		return 0, "", errors.New("empty response line")
	}
	tag := line[0]
	text := line[1:]
	if tag == frame.TagError {
		text = strings.TrimPrefix(text, "ERROR: ")
	}
	return tag, text, nil
}

// readLine accumulates bytes until the terminator. ok is false if the
// deadline passes (or the stream ends) before a full line arrives.
func (c *Client) readLine(deadline time.Duration) (string, bool, error) {
	var sb strings.Builder
	buf := make([]byte, 1)
	expiry := time.Now().Add(deadline)

	for {
		n, err := c.rw.Read(buf)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", false, nil
			}
			return "", false, fmt.Errorf("read response: %w", err)
		}
		if n == 0 {
			if time.Now().After(expiry) {
				return "", false, nil
			}
			continue
		}
		if buf[0] == frame.Terminator {
			if sb.Len() == 0 {
				continue // skip blank lines
			}
			return sb.String(), true, nil
		}
		if buf[0] == '\r' {
			continue
		}
		sb.WriteByte(buf[0])
	}
}

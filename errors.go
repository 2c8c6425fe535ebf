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
	"errors"
	"fmt"
)

// Sentinel errors for the protocol failure taxonomy
var (
	// ErrPayloadOverflow indicates the incoming payload exceeded the framing
	// buffer capacity.
	ErrPayloadOverflow = errors.New("payload overflowed receive buffer")

	// ErrEmptyChunk indicates a flash data payload decoded to zero bytes.
	ErrEmptyChunk = errors.New("decoded chunk is empty")

	// ErrChunkTooLarge indicates a flash data payload decoded to more than
	// MaxChunkSize bytes.
	ErrChunkTooLarge = errors.New("decoded chunk exceeds max chunk size")

	// ErrFileTooLarge indicates a requested file size above the device capacity.
	ErrFileTooLarge = errors.New("file size exceeds flash capacity")

	// ErrDeviceUnreachable indicates the flash chip did not answer an
	// identification read.
	ErrDeviceUnreachable = errors.New("connection to flash failed")

	// ErrTransportRead indicates a failed read from the serial link.
	ErrTransportRead = errors.New("transport read failed")

	// ErrTransportWrite indicates a failed write to the serial link.
	ErrTransportWrite = errors.New("transport write failed")
)

// ErrorType classifies protocol failures for logging and tests
type ErrorType int

const (
	// ErrorTypeNone means no classification applies.
	ErrorTypeNone ErrorType = iota
	// ErrorTypeFraming covers receive buffer overflows.
	ErrorTypeFraming
	// ErrorTypeDecode covers payloads that decode to nothing usable.
	ErrorTypeDecode
	// ErrorTypeValidation covers rejected baud rates, file sizes, and
	// oversize chunks.
	ErrorTypeValidation
	// ErrorTypeDevice covers nonzero flash status codes and failed
	// identification reads.
	ErrorTypeDevice
	// ErrorTypeTransport covers serial link failures.
	ErrorTypeTransport
)

// DeviceError reports a nonzero flash status code after an erase or write
// operation. Offset is the flash address the operation targeted.
type DeviceError struct {
	Op     string
	Offset uint32
	Code   int
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("flash %s failed at offset %d: status %d", e.Op, e.Offset, e.Code)
}

// BaudError reports a requested symbol rate above the protocol ceiling.
type BaudError struct {
	Requested uint32
}

func (e *BaudError) Error() string {
	return fmt.Sprintf("invalid baud rate %d: above ceiling %d", e.Requested, MaxBaudRate)
}

// TransportError wraps a serial link failure with its operation and port.
type TransportError struct {
	Err  error
	Op   string
	Port string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s on %s: %v", e.Op, e.Port, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError creates a TransportError for the given operation and port.
func NewTransportError(op, port string, err error) *TransportError {
	return &TransportError{Op: op, Port: port, Err: err}
}

// GetErrorType classifies an error into the protocol failure taxonomy.
func GetErrorType(err error) ErrorType {
	var devErr *DeviceError
	var baudErr *BaudError
	var transErr *TransportError

	switch {
	case err == nil:
		return ErrorTypeNone
	case errors.Is(err, ErrPayloadOverflow):
		return ErrorTypeFraming
	case errors.Is(err, ErrEmptyChunk):
		return ErrorTypeDecode
	case errors.Is(err, ErrFileTooLarge), errors.Is(err, ErrChunkTooLarge),
		errors.As(err, &baudErr):
		return ErrorTypeValidation
	case errors.Is(err, ErrDeviceUnreachable), errors.As(err, &devErr):
		return ErrorTypeDevice
	case errors.Is(err, ErrTransportRead), errors.Is(err, ErrTransportWrite),
		errors.As(err, &transErr):
		return ErrorTypeTransport
	default:
		return ErrorTypeNone
	}
}

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
	"fmt"

	"github.com/OpenFlasherProject/go-spiflasher/internal/frame"
)

// ResponseKind is the variant of a response line: error, checksum, or
// informational. The kind is serialized as a single-character prefix only at
// the transport edge.
type ResponseKind int

const (
	// ResponseError is a diagnostic line; for most causes the session has
	// been reset by the time the host reads it.
	ResponseError ResponseKind = iota
	// ResponseChecksum carries the MD5 digest of a just-decoded chunk.
	ResponseChecksum
	// ResponseInfo carries device identification or a terse status word.
	ResponseInfo
)

// Response is one line of the device-to-host protocol before serialization.
type Response struct {
	Text string
	Kind ResponseKind
}

// Line renders the response in wire form: tag character plus text, without
// the trailing terminator (the transport appends it).
func (r Response) Line() string {
	switch r.Kind {
	case ResponseError:
		return string(frame.TagError) + "ERROR: " + r.Text
	case ResponseChecksum:
		return string(frame.TagChecksum) + r.Text
	case ResponseInfo:
		return string(frame.TagInfo) + r.Text
	default:
		return r.Text
	}
}

func errorf(format string, args ...any) Response {
	return Response{Kind: ResponseError, Text: fmt.Sprintf(format, args...)}
}

func infof(format string, args ...any) Response {
	return Response{Kind: ResponseInfo, Text: fmt.Sprintf(format, args...)}
}

func checksumResponse(digest string) Response {
	return Response{Kind: ResponseChecksum, Text: digest}
}

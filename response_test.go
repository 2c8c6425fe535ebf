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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResponseLine_Serialization(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		response Response
		want     string
	}{
		{
			name:     "error line carries the diagnostic prefix",
			response: errorf("File size exceeds flash size"),
			want:     "!ERROR: File size exceeds flash size",
		},
		{
			name:     "error line with formatting",
			response: errorf("Invalid baudrate '%X'", uint32(2000000)),
			want:     "!ERROR: Invalid baudrate '1E8480'",
		},
		{
			name:     "checksum line",
			response: checksumResponse("08d6c05a21512a79a1dfeb9d2a8f262f"),
			want:     "@08d6c05a21512a79a1dfeb9d2a8f262f",
		},
		{
			name:     "info line",
			response: infof("Capacity: %d", 4194304),
			want:     "#Capacity: 4194304",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.response.Line())
		})
	}
}

func TestResponseLine_FitsPayloadBound(t *testing.T) {
	t.Parallel()

	// Responses are plain text; every line the protocol can produce must fit
	// the framer's own payload bound.
	longest := errorf("Flash error during erase in block at %d | Err %d", uint32(0xFFFFFFFF), 255)
	assert.LessOrEqual(t, len(longest.Line()), MaxPayloadSize)
}

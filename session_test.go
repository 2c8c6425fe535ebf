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

// assertInitialState checks every field the protocol defines as the power-on
// state.
func assertInitialState(t *testing.T, s *Session) {
	t.Helper()
	assert.Equal(t, CmdNone, s.PendingCommand())
	assert.Zero(t, s.WriteCursor())
	assert.Zero(t, s.TargetFileSize())
	assert.False(t, s.eraseRequested)
	assert.False(t, s.writeRequested)
	assert.Zero(t, s.fill)
	assert.Zero(t, s.payloadLen)
	assert.False(t, s.payloadReady)
	assert.Nil(t, s.chunk)
}

func TestSessionReset_FromAnyState(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Session)
	}{
		{
			name:   "fresh session",
			mutate: func(*Session) {},
		},
		{
			name: "mid-frame",
			mutate: func(s *Session) {
				s.feed('%')
				s.feed('A')
				s.feed('B')
			},
		},
		{
			name: "transfer in progress",
			mutate: func(s *Session) {
				s.pending = CmdDoFlash
				s.writeCursor = 8192
				s.targetFileSize = 64 * 1024
				s.eraseRequested = true
				s.writeRequested = true
				s.chunk = []byte{1, 2, 3}
				s.payloadReady = true
				s.payloadLen = 12
			},
		},
		{
			name: "already reset",
			mutate: func(s *Session) {
				s.writeCursor = 7
				s.Reset()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := NewSession()
			tt.mutate(s)
			s.Reset()
			assertInitialState(t, s)
		})
	}
}

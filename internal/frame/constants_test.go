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

package frame

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaxPayloadSize_HoldsEncodedMaxChunk(t *testing.T) {
	t.Parallel()

	// A full chunk, base64 encoded, must fit the framing buffer with slack
	// to spare.
	encoded := base64.StdEncoding.EncodedLen(MaxChunkSize)
	assert.Less(t, encoded, MaxPayloadSize)
}

func TestSelectors_AreDistinctAndReserved(t *testing.T) {
	t.Parallel()

	selectors := []byte{
		SelSetBaud, SelSetErase, SelSetWrite, SelSetFileSize,
		SelChunk, SelDoErase, SelDoFlash, SelReset, SelInfo,
	}

	seen := make(map[byte]bool)
	for _, s := range selectors {
		assert.False(t, seen[s], "selector %q reused", s)
		seen[s] = true
		assert.NotEqual(t, byte(Terminator), s)
	}

	// Selector bytes must never collide with base64 payload text, which is
	// why payloads are encoded in the first place.
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/="
	for _, s := range selectors {
		assert.NotContains(t, alphabet, string(s))
	}
}

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

// Flash is the physical flash chip collaborator.
//
// Erase and write report success through a separate status read: the
// operation itself has no return value, and LastError holds the status code
// of the most recent operation, zero meaning success. This mirrors how SPI
// flash driver stacks surface their per-operation error registers.
type Flash interface {
	// JEDECID returns the chip identification word (manufacturer, memory
	// type, capacity code). A chip that cannot be reached returns an error.
	JEDECID() (uint32, error)

	// Capacity returns the total addressable size in bytes.
	Capacity() uint32

	// PageCount returns the number of program pages.
	PageCount() uint32

	// BlockSize returns the erase block granularity in bytes.
	BlockSize() uint32

	// EraseBlock erases the block starting at offset. Check LastError
	// afterwards.
	EraseBlock(offset uint32)

	// Write programs data starting at offset. Check LastError afterwards.
	Write(offset uint32, data []byte)

	// LastError returns the status code of the most recent erase or write,
	// zero meaning success.
	LastError() int
}

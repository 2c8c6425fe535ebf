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
	"time"
)

// Option is a functional option for configuring a Controller
type Option func(*Controller) error

// WithInitialBaud sets the symbol rate used at startup and restored by every
// session reset.
func WithInitialBaud(rate int) Option {
	return func(c *Controller) error {
		if rate <= 0 {
			return errors.New("initial baud rate must be positive")
		}
		c.initialBaud = rate
		return nil
	}
}

// WithErasePause sets the pause between erase blocks. The pause is a
// hardware-responsiveness accommodation; tests shorten it to zero.
func WithErasePause(d time.Duration) Option {
	return func(c *Controller) error {
		c.erasePause = d
		return nil
	}
}

// WithResetGrace sets the delay observed before a session reset reopens the
// transport, so the host can drain any response bytes in flight.
func WithResetGrace(d time.Duration) Option {
	return func(c *Controller) error {
		c.resetGrace = d
		return nil
	}
}

// WithIdlePause sets the pause between run loop iterations when no transport
// bytes are available.
func WithIdlePause(d time.Duration) Option {
	return func(c *Controller) error {
		c.idlePause = d
		return nil
	}
}

// WithSleep replaces the pause function used for the erase, reset, and idle
// delays. Tests inject a no-op to run at full speed.
func WithSleep(fn func(time.Duration)) Option {
	return func(c *Controller) error {
		if fn == nil {
			return errors.New("sleep function must not be nil")
		}
		c.sleep = fn
		return nil
	}
}

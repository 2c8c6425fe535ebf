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

// Command flasherd runs the device side of the flasher protocol on a board
// that bridges a serial link to an SPI flash chip.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	spiflasher "github.com/OpenFlasherProject/go-spiflasher"
	detect "github.com/OpenFlasherProject/go-spiflasher/detection/uart"
	"github.com/OpenFlasherProject/go-spiflasher/flash/spidev"
	"github.com/OpenFlasherProject/go-spiflasher/transport/uart"
)

type config struct {
	serialPath *string
	spiPort    *string
	baud       *int
	debug      *bool
}

func parseFlags() *config {
	cfg := &config{
		serialPath: flag.String("serial", "",
			"Serial device path (e.g. /dev/ttyAMA0). Leave empty for auto-detection."),
		spiPort: flag.String("spi", "SPI0.0", "SPI port name of the flash chip (see periph.io spireg)"),
		baud:    flag.Int("baud", spiflasher.InitialBaudRate, "Initial baud rate"),
		debug:   flag.Bool("debug", false, "Enable debug output"),
	}
	flag.Parse()

	if *cfg.debug {
		spiflasher.SetDebugEnabled(true)
	}
	return cfg
}

func serialPath(cfg *config) (string, error) {
	if *cfg.serialPath != "" {
		return *cfg.serialPath, nil
	}
	ports, err := detect.List()
	if err != nil {
		return "", fmt.Errorf("detect serial ports: %w", err)
	}
	if len(ports) == 0 {
		return "", errors.New("no serial port found; pass -serial")
	}
	return ports[0].Path, nil
}

func run() error {
	cfg := parseFlags()

	path, err := serialPath(cfg)
	if err != nil {
		return err
	}

	transport, err := uart.New(path, *cfg.baud)
	if err != nil {
		return err
	}
	defer func() { _ = transport.Close() }()

	chip, err := spidev.New(*cfg.spiPort)
	if err != nil {
		return err
	}
	defer func() { _ = chip.Close() }()

	ctrl, err := spiflasher.New(transport, chip, spiflasher.WithInitialBaud(*cfg.baud))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("flasherd: serving %s <-> %s\n", path, *cfg.spiPort)
	if err := ctrl.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "flasherd:", err)
		os.Exit(1)
	}
}

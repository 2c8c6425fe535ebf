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

// Command flashsend streams a firmware image to a flasher device: identify,
// optional chip erase, checksummed chunk transfer, reset.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	detect "github.com/OpenFlasherProject/go-spiflasher/detection/uart"
	"github.com/OpenFlasherProject/go-spiflasher/host"
)

type config struct {
	port  *string
	file  *string
	baud  *int
	erase *bool
}

func parseFlags() *config {
	cfg := &config{
		port:  flag.String("port", "", "Serial port of the flasher (empty for auto-detection)"),
		file:  flag.String("file", "", "Image file to write (required)"),
		baud:  flag.Int("baud", 921600, "Transfer baud rate"),
		erase: flag.Bool("erase", true, "Erase the chip before writing"),
	}
	flag.Parse()
	return cfg
}

func portPath(cfg *config) (string, error) {
	if *cfg.port != "" {
		return *cfg.port, nil
	}
	ports, err := detect.List()
	if err != nil {
		return "", fmt.Errorf("detect serial ports: %w", err)
	}
	if len(ports) == 0 {
		return "", errors.New("no serial port found; pass -port")
	}
	return ports[0].Path, nil
}

func run() error {
	cfg := parseFlags()
	if *cfg.file == "" {
		flag.Usage()
		return errors.New("-file is required")
	}

	data, err := os.ReadFile(*cfg.file)
	if err != nil {
		return err
	}

	path, err := portPath(cfg)
	if err != nil {
		return err
	}

	client, err := host.Dial(path, host.WithProgress(func(p host.Progress) {
		fmt.Printf("\r%d/%d chunks (%d/%d bytes)", p.ChunksSent, p.ChunkCount, p.BytesSent, p.TotalBytes)
		if p.ChunksSent == p.ChunkCount {
			fmt.Println()
		}
	}))
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	info, err := client.Info()
	if err != nil {
		return fmt.Errorf("identify device: %w", err)
	}
	fmt.Printf("Chip 0x%06X, capacity %d bytes, %d pages\n", info.JEDECID, info.Capacity, info.MaxPages)

	if uint32(len(data)) > info.Capacity {
		return fmt.Errorf("image is %d bytes but chip holds %d", len(data), info.Capacity)
	}

	if *cfg.baud > 0 {
		if err := client.SetBaud(*cfg.baud); err != nil {
			return fmt.Errorf("raise baud: %w", err)
		}
	}

	if *cfg.erase {
		if err := client.SetEraseFlag(true); err != nil {
			return err
		}
		fmt.Println("Erasing chip...")
		if err := client.EraseChip(); err != nil {
			return fmt.Errorf("erase: %w", err)
		}
	}

	if err := client.SetWriteFlag(true); err != nil {
		return err
	}
	if err := client.WriteFile(ctx, data); err != nil {
		return fmt.Errorf("write image: %w", err)
	}

	if err := client.Reset(); err != nil {
		return fmt.Errorf("reset device: %w", err)
	}
	fmt.Println("Done")
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "flashsend:", err)
		os.Exit(1)
	}
}

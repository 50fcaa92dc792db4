// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Swarm modem debug terminal with NMEA checksum calculation.
//
// Every line typed at the prompt is sent to the modem with its "*hh"
// checksum appended, and the modem's one line reply is printed. Type "help"
// for the command set and "exit" to quit.
//
// Run:
//
//	go run ./cmd/swarm_terminal -port /dev/ttyUSB0
//	go run ./cmd/swarm_terminal -mock
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/relabs-tech/swarm_terminal/internal/app"
	"github.com/relabs-tech/swarm_terminal/internal/config"
	"github.com/relabs-tech/swarm_terminal/internal/transport"
)

var (
	configPath = flag.String("config", "", "Path to configuration file (optional)")
	port       = flag.String("port", "", "Serial port the modem is on (default: the only port present)")
	baud       = flag.Int("baud", transport.DefaultBaudRate, "Serial baud rate")
	timeout    = flag.Duration("timeout", 0, "How long to wait for each reply (0 waits forever)")
	driver     = flag.String("driver", transport.DriverJacobsa, "Serial driver: jacobsa or bugst")
	mock       = flag.Bool("mock", false, "Talk to a simulated modem instead of a serial port")
	list       = flag.Bool("list", false, "List serial ports and exit")
)

// applyFlags overrides config values with the flags given on the command line.
func applyFlags(cfg *config.Config, set map[string]bool) {
	if set["port"] {
		cfg.SerialPort = *port
	}
	if set["baud"] {
		cfg.SerialBaudRate = *baud
	}
	if set["timeout"] {
		cfg.ResponseTimeout = *timeout
	}
	if set["driver"] {
		cfg.SerialDriver = *driver
	}
}

func main() {
	flag.Parse()

	if *list {
		ports, err := transport.ListPorts()
		if err != nil {
			log.Fatalf("fatal: %v", err)
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return
	}

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := *config.Get()

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	applyFlags(&cfg, set)

	log.Printf("starting swarm terminal (timeout %s)", durationOrForever(cfg.ResponseTimeout))

	if err := app.RunTerminal(&cfg, *mock, os.Stdin, os.Stdout); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func durationOrForever(d time.Duration) string {
	if d <= 0 {
		return "none"
	}
	return d.String()
}

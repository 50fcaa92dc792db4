// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package transport opens the serial link to the modem and reads it one line
// at a time.
package transport

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Port is the minimal surface the terminal needs from a serial port.
// Real ports and the in-memory mocks both satisfy it.
type Port interface {
	io.Reader
	io.Writer
	io.Closer
}

// Supported serial drivers.
const (
	DriverJacobsa = "jacobsa" // github.com/jacobsa/go-serial
	DriverBugst   = "bugst"   // go.bug.st/serial
)

// DefaultBaudRate is the Swarm M138 factory UART speed.
const DefaultBaudRate = 115200

// The jacobsa driver maps the read timeout onto termios VTIME, which only
// holds tenths of a second in a single byte.
const (
	minJacobsaTimeout = 100 * time.Millisecond
	maxJacobsaTimeout = 25500 * time.Millisecond
)

// Options describes how to open a serial port.
type Options struct {
	Path     string
	BaudRate int
	DataBits int
	StopBits int
	Parity   string // N, E or O
	Driver   string

	// ReadTimeout bounds how long a read waits for the device. Zero blocks
	// indefinitely.
	ReadTimeout time.Duration
}

// Normalize validates the options and applies defaults for any unset values.
func (o Options) Normalize() (Options, error) {
	opts := o

	if opts.BaudRate <= 0 {
		opts.BaudRate = DefaultBaudRate
	}

	if opts.DataBits == 0 {
		opts.DataBits = 8
	}
	if opts.DataBits < 5 || opts.DataBits > 8 {
		return opts, fmt.Errorf("invalid data bits %d: must be between 5 and 8", opts.DataBits)
	}

	if opts.StopBits == 0 {
		opts.StopBits = 1
	}
	if opts.StopBits != 1 && opts.StopBits != 2 {
		return opts, fmt.Errorf("invalid stop bits %d: supported values are 1 or 2", opts.StopBits)
	}

	parity := strings.TrimSpace(strings.ToUpper(opts.Parity))
	switch parity {
	case "", "N", "NONE":
		parity = "N"
	case "E", "EVEN":
		parity = "E"
	case "O", "ODD":
		parity = "O"
	default:
		return opts, fmt.Errorf("unsupported parity %q: expected N, E, or O", opts.Parity)
	}
	opts.Parity = parity

	driver := strings.TrimSpace(strings.ToLower(opts.Driver))
	if driver == "" {
		driver = DriverJacobsa
	}
	if driver != DriverJacobsa && driver != DriverBugst {
		return opts, fmt.Errorf("unsupported serial driver %q: expected %s or %s", opts.Driver, DriverJacobsa, DriverBugst)
	}
	opts.Driver = driver

	if opts.ReadTimeout < 0 {
		return opts, fmt.Errorf("invalid read timeout %s: must not be negative", opts.ReadTimeout)
	}
	if opts.Driver == DriverJacobsa && opts.ReadTimeout > 0 &&
		(opts.ReadTimeout < minJacobsaTimeout || opts.ReadTimeout > maxJacobsaTimeout) {
		return opts, fmt.Errorf("invalid read timeout %s: the %s driver supports %s to %s",
			opts.ReadTimeout, DriverJacobsa, minJacobsaTimeout, maxJacobsaTimeout)
	}

	return opts, nil
}

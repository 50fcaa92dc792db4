// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package transport

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	jacobsa "github.com/jacobsa/go-serial/serial"
	"go.bug.st/serial"
)

// Open opens the serial port described by opts with the selected driver.
func Open(opts Options) (Port, error) {
	opts, err := opts.Normalize()
	if err != nil {
		return nil, err
	}
	if opts.Path == "" {
		return nil, errors.New("serial port path is required")
	}

	switch opts.Driver {
	case DriverBugst:
		return openBugst(opts)
	default:
		return openJacobsa(opts)
	}
}

func openJacobsa(opts Options) (Port, error) {
	serialOpts := jacobsa.OpenOptions{
		PortName:        opts.Path,
		BaudRate:        uint(opts.BaudRate),
		DataBits:        uint(opts.DataBits),
		StopBits:        uint(opts.StopBits),
		MinimumReadSize: 1,
		ParityMode:      jacobsa.PARITY_NONE,
	}
	switch opts.Parity {
	case "E":
		serialOpts.ParityMode = jacobsa.PARITY_EVEN
	case "O":
		serialOpts.ParityMode = jacobsa.PARITY_ODD
	}

	if opts.ReadTimeout > 0 {
		serialOpts.MinimumReadSize = 0
		serialOpts.InterCharacterTimeout = uint(opts.ReadTimeout / time.Millisecond)
	}

	port, err := jacobsa.Open(serialOpts)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", opts.Path, err)
	}
	if opts.ReadTimeout > 0 {
		return newVtimePort(port, opts.ReadTimeout), nil
	}
	return port, nil
}

// vtimePort adapts a jacobsa port opened with a VTIME timeout. An expired
// timeout surfaces from the tty as a zero-length read, which os.File turns
// into io.EOF; report it as (0, nil) like the bugst driver does.
//
// A hung-up tty gives the same zero-length read, but right away instead of
// after the timeout. Empty reads that return in less than half the timeout
// are passed on as io.EOF so an unplugged modem ends the session.
type vtimePort struct {
	io.ReadWriteCloser
	timeout time.Duration
	now     func() time.Time
}

func newVtimePort(port io.ReadWriteCloser, timeout time.Duration) *vtimePort {
	return &vtimePort{ReadWriteCloser: port, timeout: timeout, now: time.Now}
}

func (p *vtimePort) Read(b []byte) (int, error) {
	start := p.now()
	n, err := p.ReadWriteCloser.Read(b)
	if n == 0 && errors.Is(err, io.EOF) {
		if p.now().Sub(start) < p.timeout/2 {
			return 0, io.EOF
		}
		return 0, nil
	}
	return n, err
}

func openBugst(opts Options) (Port, error) {
	mode := &serial.Mode{
		BaudRate: opts.BaudRate,
		DataBits: opts.DataBits,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	switch opts.Parity {
	case "E":
		mode.Parity = serial.EvenParity
	case "O":
		mode.Parity = serial.OddParity
	}
	if opts.StopBits == 2 {
		mode.StopBits = serial.TwoStopBits
	}

	port, err := serial.Open(opts.Path, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", opts.Path, err)
	}

	if opts.ReadTimeout > 0 {
		if err := port.SetReadTimeout(opts.ReadTimeout); err != nil {
			port.Close()
			return nil, fmt.Errorf("set read timeout on %s: %w", opts.Path, err)
		}
	}
	return port, nil
}

// portsList is swapped out in tests.
var portsList = serial.GetPortsList

// ListPorts returns the serial ports present on this machine.
func ListPorts() ([]string, error) {
	ports, err := portsList()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}
	return ports, nil
}

// Resolve returns path when set. Otherwise it picks the only serial port on
// the machine, failing when there is none or more than one to choose from.
func Resolve(path string) (string, error) {
	if path != "" {
		return path, nil
	}

	ports, err := ListPorts()
	if err != nil {
		return "", err
	}

	switch len(ports) {
	case 0:
		return "", errors.New("no serial ports found, pass one with -port")
	case 1:
		return ports[0], nil
	default:
		return "", fmt.Errorf("several serial ports found (%s), pass one with -port", strings.Join(ports, ", "))
	}
}

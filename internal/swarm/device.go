// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package swarm

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/relabs-tech/swarm_terminal/internal/sentence"
	"github.com/relabs-tech/swarm_terminal/internal/transport"
)

// Device is a simulated M138 modem usable as a transport.Port. Every line
// written to it is answered with one checksummed reply line, so the terminal
// can be exercised without hardware.
type Device struct {
	mu     sync.Mutex
	out    bytes.Buffer
	in     []byte
	closed bool

	// DeviceID and Name are reported by $CS.
	DeviceID string
	Name     string

	// Fix is reported by "$GN @".
	Fix string

	// Now is the clock reported by "$DT @".
	Now func() time.Time
}

// NewDevice returns a simulated modem with plausible defaults.
func NewDevice() *Device {
	return &Device{
		DeviceID: "0x1a2b3c",
		Name:     "M138",
		Fix:      "37.8921,-122.0155,77,89,2",
		Now:      time.Now,
	}
}

// Write accepts one or more '\n' terminated command lines.
func (d *Device) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return 0, transport.ErrPortClosed
	}

	d.in = append(d.in, p...)
	for {
		i := bytes.IndexByte(d.in, '\n')
		if i < 0 {
			break
		}
		line := strings.TrimRight(string(d.in[:i]), "\r")
		d.in = d.in[i+1:]

		reply, ok := d.reply(line)
		if !ok {
			continue
		}
		encoded, err := sentence.Encode(reply)
		if err != nil {
			return 0, err
		}
		d.out.WriteString(encoded + "\n")
	}
	return len(p), nil
}

// Read hands out queued replies. With nothing queued it behaves like a port
// whose read timeout expired.
func (d *Device) Read(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return 0, transport.ErrPortClosed
	}
	if d.out.Len() == 0 {
		return 0, nil
	}
	return d.out.Read(p)
}

func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return errors.New("device already closed")
	}
	d.closed = true
	return nil
}

// reply builds the unencoded answer to one command line. Lines that are not
// sentences at all get no answer, like on the real modem.
func (d *Device) reply(line string) (string, bool) {
	p, err := sentence.Split(line)
	if err != nil {
		return "", false
	}
	cmd, args := splitCommand(p.Payload)

	if err := sentence.Verify(line); err != nil {
		log.Printf("swarm sim: rejecting %q: %v", line, err)
		return fmt.Sprintf("$%s ERR,BADCHECKSUM", cmd), true
	}

	if _, ok := Lookup(cmd); !ok {
		return fmt.Sprintf("$%s ERR,BADCMD", cmd), true
	}

	switch cmd {
	case "CS":
		return fmt.Sprintf("$CS DI=%s,DN=%s", d.DeviceID, d.Name), true
	case "DT":
		if args == "@" {
			return fmt.Sprintf("$DT %s,V", d.Now().UTC().Format(dtLayout)), true
		}
	case "GN":
		if args == "@" {
			return "$GN " + d.Fix, true
		}
	case "TD":
		if args == "" {
			return "$TD ERR,NODATA", true
		}
	}
	return fmt.Sprintf("$%s OK", cmd), true
}

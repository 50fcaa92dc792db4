// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package swarm knows the command set of the Swarm M138 satellite modem and
// how to read its replies.
package swarm

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// Command is one entry of the modem's command set.
type Command struct {
	Code        string
	Description string
	Example     string
}

// Commands lists the M138 commands in the order the manual presents them.
var Commands = []Command{
	{"CS", "configuration settings (device id and name)", "$CS"},
	{"DT", "date/time: @ polls, a number sets the report rate", "$DT @"},
	{"FV", "firmware version", "$FV"},
	{"GJ", "GPS jamming/spoofing indication", "$GJ @"},
	{"GN", "geospatial info: @ polls, a number sets the report rate", "$GN @"},
	{"GP", "GPIO1 pin mode", "$GP ?"},
	{"GS", "GPS fix quality", "$GS @"},
	{"MM", "manage received messages", "$MM C=U"},
	{"MT", "manage messages queued for transmit", "$MT C=U"},
	{"PO", "power off", "$PO"},
	{"PW", "power status", "$PW @"},
	{"RS", "restart the modem", "$RS"},
	{"RT", "receive test: @ polls, a number sets the report rate", "$RT 10"},
	{"SL", "sleep for a number of seconds", "$SL S=60"},
	{"TD", "queue data for transmit", `$TD "hello"`},
}

// Lookup finds a command by its two letter code.
func Lookup(code string) (Command, bool) {
	for _, c := range Commands {
		if c.Code == code {
			return c, true
		}
	}
	return Command{}, false
}

// WriteHelp prints the command table.
func WriteHelp(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CMD\tEXAMPLE\tDESCRIPTION")
	for _, c := range Commands {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Code, c.Example, c.Description)
	}
	fmt.Fprintln(tw, "exit\t\tclose the port and quit")
	return tw.Flush()
}

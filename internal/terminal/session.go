// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package terminal runs the interactive request/response loop between an
// operator and the modem.
//
// The loop is strictly synchronous: one operator line in, one sentence out,
// one reply line back. The session owns its port and closes it exactly once,
// whichever way Run returns.
package terminal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/relabs-tech/swarm_terminal/internal/nmeadecode"
	"github.com/relabs-tech/swarm_terminal/internal/sentence"
	"github.com/relabs-tech/swarm_terminal/internal/swarm"
	"github.com/relabs-tech/swarm_terminal/internal/transcript"
	"github.com/relabs-tech/swarm_terminal/internal/transport"
)

const (
	ExitCommand = "exit"
	HelpCommand = "help"

	DefaultPrompt    = "Command: "
	DefaultHandshake = "$CS"
)

// State is where the session is in its request/response cycle.
type State int

const (
	AwaitingInput State = iota
	AwaitingResponse
	Terminated
)

func (s State) String() string {
	switch s {
	case AwaitingInput:
		return "awaiting-input"
	case AwaitingResponse:
		return "awaiting-response"
	case Terminated:
		return "terminated"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Session is one terminal run over one port.
type Session struct {
	port  transport.Port
	lines *transport.LineReader

	in  *bufio.Reader
	out io.Writer

	prompt         string
	handshake      string
	handshakeReply bool
	publisher      transcript.Publisher
	now            func() time.Time

	state State
}

// Option configures a Session.
type Option func(*Session)

// WithInput sets where operator lines come from. Defaults to os.Stdin.
func WithInput(r io.Reader) Option {
	return func(s *Session) { s.in = bufio.NewReader(r) }
}

// WithOutput sets where prompts and replies go. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(s *Session) { s.out = w }
}

func WithPrompt(prompt string) Option {
	return func(s *Session) { s.prompt = prompt }
}

// WithHandshake sets the sentence sent once at start. Empty disables it.
func WithHandshake(h string) Option {
	return func(s *Session) { s.handshake = h }
}

// WithHandshakeReply makes the session read and show one reply line after
// the handshake instead of sending it fire-and-forget.
func WithHandshakeReply(read bool) Option {
	return func(s *Session) { s.handshakeReply = read }
}

func WithPublisher(p transcript.Publisher) Option {
	return func(s *Session) { s.publisher = p }
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// New creates a session that takes ownership of port.
func New(port transport.Port, opts ...Option) *Session {
	s := &Session{
		port:      port,
		lines:     transport.NewLineReader(port),
		in:        bufio.NewReader(os.Stdin),
		out:       os.Stdout,
		prompt:    DefaultPrompt,
		handshake: DefaultHandshake,
		publisher: transcript.Nop{},
		now:       time.Now,
		state:     AwaitingInput,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State reports the current state.
func (s *Session) State() State {
	return s.state
}

// Run sends the handshake and then serves operator commands until "exit" or
// the end of operator input. Errors that only affect one command are shown
// to the operator and the loop carries on; a closed port or a broken input
// stream ends the session with an error.
func (s *Session) Run() (err error) {
	defer func() {
		s.state = Terminated
		if cerr := s.port.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close serial port: %w", cerr)
		}
	}()

	if err := s.sendHandshake(); err != nil {
		return err
	}

	for {
		s.state = AwaitingInput
		fmt.Fprint(s.out, s.prompt)

		line, err := s.readCommand()
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(s.out)
			log.Println("terminal: operator input closed")
			return nil
		}
		if err != nil {
			return fmt.Errorf("read operator input: %w", err)
		}

		switch strings.TrimSpace(line) {
		case "":
			continue
		case ExitCommand:
			return nil
		case HelpCommand:
			if err := swarm.WriteHelp(s.out); err != nil {
				return err
			}
			continue
		}

		if err := s.exchange(line); err != nil {
			return err
		}
	}
}

// readCommand returns the next operator line without its line ending. Other
// whitespace is kept since it is part of what gets checksummed and sent. A
// final line without a newline still counts.
func (s *Session) readCommand() (string, error) {
	line, err := s.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (s *Session) sendHandshake() error {
	if s.handshake == "" {
		return nil
	}

	encoded, err := sentence.Encode(s.handshake)
	if err != nil {
		return fmt.Errorf("handshake %q: %w", s.handshake, err)
	}
	if _, err := io.WriteString(s.port, encoded+"\n"); err != nil {
		return fmt.Errorf("send handshake: %w", err)
	}
	log.Printf("terminal: sent handshake %s", encoded)

	if !s.handshakeReply {
		return nil
	}

	s.state = AwaitingResponse
	reply, err := s.lines.ReadLine()
	if err != nil {
		if fatalReadError(err) {
			return fmt.Errorf("read handshake reply: %w", err)
		}
		fmt.Fprintf(s.out, "error: handshake: %v\n", err)
		return nil
	}
	fmt.Fprintln(s.out, reply)
	s.annotate(reply, &transcript.Exchange{})
	return nil
}

// exchange encodes and sends one command and shows the reply. It returns an
// error only when the session cannot go on.
func (s *Session) exchange(command string) error {
	ex := transcript.Exchange{Time: s.now(), Command: command}
	defer s.publish(&ex)

	encoded, err := sentence.Encode(command)
	if err != nil {
		ex.Error = err.Error()
		fmt.Fprintf(s.out, "error: %v, nothing sent\n", err)
		return nil
	}

	s.state = AwaitingResponse
	if _, err := io.WriteString(s.port, encoded+"\n"); err != nil {
		ex.Error = err.Error()
		fmt.Fprintf(s.out, "error: write %s: %v\n", encoded, err)
		return nil
	}
	ex.Sent = encoded
	fmt.Fprintf(s.out, "[SENT] %s\n", encoded)

	reply, err := s.lines.ReadLine()
	if err != nil {
		ex.Error = err.Error()
		if fatalReadError(err) {
			return fmt.Errorf("read reply: %w", err)
		}
		fmt.Fprintf(s.out, "error: %v\n", err)
		return nil
	}

	ex.Response = reply
	fmt.Fprintln(s.out, reply)
	s.annotate(reply, &ex)
	return nil
}

// annotate checks the reply checksum and prints a decoded summary when the
// reply is something we recognise.
func (s *Session) annotate(reply string, ex *transcript.Exchange) {
	switch err := sentence.Verify(reply); {
	case err == nil:
		ex.ChecksumOK = true
	case errors.Is(err, sentence.ErrNoDelimiter):
		// not a sentence, nothing to check
	default:
		fmt.Fprintf(s.out, "  ! %v\n", err)
	}

	if r, ok := swarm.Decode(reply); ok {
		ex.Summary = r.Summary()
	} else if d, ok := nmeadecode.Describe(reply); ok {
		ex.Summary = d
	}
	if ex.Summary != "" {
		fmt.Fprintf(s.out, "  = %s\n", ex.Summary)
	}
}

func (s *Session) publish(ex *transcript.Exchange) {
	if err := s.publisher.Publish(*ex); err != nil {
		log.Printf("terminal: transcript publish error: %v", err)
	}
}

// fatalReadError reports whether a failed reply read means the device is gone.
func fatalReadError(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, transport.ErrPortClosed) || errors.Is(err, os.ErrClosed)
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package sentence computes and checks the XOR checksum carried by
// NMEA-0183-style sentences such as the ones spoken by the Swarm M138 modem.
//
// A sentence looks like
//
//	<prefix><delimiter><payload>*<hh><trailer>
//
// where delimiter is '!' or '$', the payload runs up to the first '*', and hh
// is the XOR of every payload byte rendered as two hex digits. Anything in
// front of the delimiter is carried along but never checksummed.
package sentence

import (
	"errors"
	"fmt"
	"strings"

	nmea "github.com/adrianmo/go-nmea"
)

// Delimiters are the start-of-sentence characters. The first one found in a
// string, by index, starts the payload.
const Delimiters = "!$"

// ChecksumMarker separates the payload from the checksum digits.
const ChecksumMarker = '*'

var (
	// ErrNoDelimiter is returned when a string contains neither '!' nor '$'.
	ErrNoDelimiter = errors.New("sentence: no '!' or '$' delimiter found")

	// ErrNoChecksum is returned by Verify when a line carries no "*hh" field.
	ErrNoChecksum = errors.New("sentence: missing checksum field")
)

// MismatchError reports a checksum that does not match the payload.
type MismatchError struct {
	Want string // computed from the payload
	Got  string // as received
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("sentence: checksum mismatch: got %s, want %s", e.Got, e.Want)
}

// Parts is a sentence split into its fields.
type Parts struct {
	Prefix    string // anything before the delimiter
	Delimiter byte   // '!' or '$'
	Payload   string // between the delimiter and the first '*'
	HasMarker bool   // a '*' follows the payload
	Checksum  string // up to two characters after the '*'
	Trailer   string // whatever follows the checksum digits
}

// Split breaks line into its fields. Only ErrNoDelimiter is returned.
func Split(line string) (Parts, error) {
	start := strings.IndexAny(line, Delimiters)
	if start < 0 {
		return Parts{}, ErrNoDelimiter
	}

	p := Parts{
		Prefix:    line[:start],
		Delimiter: line[start],
	}

	rest := line[start+1:]
	end := strings.IndexByte(rest, ChecksumMarker)
	if end < 0 {
		p.Payload = rest
		return p, nil
	}

	p.Payload = rest[:end]
	p.HasMarker = true
	tail := rest[end+1:]
	n := min(2, len(tail))
	p.Checksum = tail[:n]
	p.Trailer = tail[n:]
	return p, nil
}

// Checksum returns the checksum of msg as two lowercase hex digits. It covers
// the bytes after the first delimiter up to, but not including, the first '*'
// (or the end of msg).
func Checksum(msg string) (string, error) {
	p, err := Split(msg)
	if err != nil {
		return "", err
	}
	return strings.ToLower(nmea.Checksum(p.Payload)), nil
}

// Encode appends "*hh" to msg, hh being the lowercase checksum of its payload.
// The whole of msg is kept verbatim, including anything before the delimiter
// and any existing '*' field, which the payload scan stops at.
func Encode(msg string) (string, error) {
	sum, err := Checksum(msg)
	if err != nil {
		return "", err
	}
	return msg + string(ChecksumMarker) + sum, nil
}

// Verify checks the checksum field of a received line. Hex digits are
// compared case-insensitively since devices differ in what they emit.
func Verify(line string) error {
	p, err := Split(line)
	if err != nil {
		return err
	}
	if !p.HasMarker || len(p.Checksum) < 2 {
		return ErrNoChecksum
	}

	want := nmea.Checksum(p.Payload)
	if !strings.EqualFold(want, p.Checksum) {
		return &MismatchError{Want: strings.ToLower(want), Got: p.Checksum}
	}
	return nil
}

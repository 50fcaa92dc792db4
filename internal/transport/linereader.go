package transport

import (
	"bytes"
	"errors"
	"io"
)

// ErrTimeout is returned by ReadLine when the port's read timeout expires
// before a full line arrives.
var ErrTimeout = errors.New("timed out waiting for a response line")

// LineReader splits the byte stream from a port into '\n' terminated lines.
//
// A read that returns no bytes and no error is how both drivers signal an
// expired read timeout. Partial data gathered up to that point is dropped.
type LineReader struct {
	r       io.Reader
	pending []byte
	chunk   []byte
}

// NewLineReader wraps r.
func NewLineReader(r io.Reader) *LineReader {
	return &LineReader{r: r, chunk: make([]byte, 256)}
}

// ReadLine blocks until a full line is available and returns it without the
// trailing "\n" or "\r\n". At end of stream an unterminated tail is returned
// as the last line, then io.EOF.
func (l *LineReader) ReadLine() (string, error) {
	for {
		if i := bytes.IndexByte(l.pending, '\n'); i >= 0 {
			line := l.pending[:i]
			l.pending = l.pending[i+1:]
			return string(bytes.TrimSuffix(line, []byte{'\r'})), nil
		}

		n, err := l.r.Read(l.chunk)
		if n > 0 {
			l.pending = append(l.pending, l.chunk[:n]...)
			continue
		}
		if err != nil {
			if errors.Is(err, io.EOF) && len(l.pending) > 0 {
				line := l.pending
				l.pending = nil
				return string(bytes.TrimSuffix(line, []byte{'\r'})), nil
			}
			return "", err
		}

		l.pending = nil
		return "", ErrTimeout
	}
}

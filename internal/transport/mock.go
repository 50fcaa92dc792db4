package transport

import (
	"bytes"
	"errors"
	"io"
	"sync"
)

// ErrPortClosed is returned by Mock once Close has been called.
var ErrPortClosed = errors.New("serial port closed")

// Mock is an in-memory Port with scripted reads. Each queued chunk is
// handed out by one Read call. When the queue is empty Read reports io.EOF,
// or an expired timeout if TimeoutWhenEmpty is set.
type Mock struct {
	mu sync.Mutex

	reads  [][]byte
	writes [][]byte

	// ReadError is returned by the next Read call if set
	ReadError error

	// WriteError is returned by the next Write call if set
	WriteError error

	// CloseError is returned by Close if set
	CloseError error

	// TimeoutWhenEmpty makes an empty read queue behave like an expired
	// read timeout instead of end of stream.
	TimeoutWhenEmpty bool

	closeCalls int
}

// NewMock returns a Mock that will serve the given chunks in order.
func NewMock(chunks ...string) *Mock {
	m := &Mock{}
	m.Feed(chunks...)
	return m
}

// Feed queues more data for Read.
func (m *Mock) Feed(chunks ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range chunks {
		m.reads = append(m.reads, []byte(c))
	}
}

func (m *Mock) Read(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closeCalls > 0 {
		return 0, ErrPortClosed
	}
	if m.ReadError != nil {
		err := m.ReadError
		m.ReadError = nil
		return 0, err
	}
	if len(m.reads) == 0 {
		if m.TimeoutWhenEmpty {
			return 0, nil
		}
		return 0, io.EOF
	}

	n := copy(p, m.reads[0])
	if n < len(m.reads[0]) {
		m.reads[0] = m.reads[0][n:]
	} else {
		m.reads = m.reads[1:]
	}
	return n, nil
}

func (m *Mock) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closeCalls > 0 {
		return 0, ErrPortClosed
	}
	if m.WriteError != nil {
		err := m.WriteError
		m.WriteError = nil
		return 0, err
	}
	m.writes = append(m.writes, bytes.Clone(p))
	return len(p), nil
}

// Close marks the port closed. Every call is counted.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeCalls++
	return m.CloseError
}

// Writes returns the payload of every successful Write call.
func (m *Mock) Writes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.writes))
	for i, w := range m.writes {
		out[i] = string(w)
	}
	return out
}

// CloseCalls reports how many times Close was called.
func (m *Mock) CloseCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeCalls
}

package transport

import (
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions_Normalize_Defaults(t *testing.T) {
	got, err := Options{}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, Options{
		BaudRate: 115200,
		DataBits: 8,
		StopBits: 1,
		Parity:   "N",
		Driver:   DriverJacobsa,
	}, got)
}

func TestOptions_Normalize_ExplicitValues(t *testing.T) {
	got, err := Options{
		Path:        "/dev/ttyUSB0",
		BaudRate:    9600,
		DataBits:    7,
		StopBits:    2,
		Parity:      "even",
		Driver:      "BUGST",
		ReadTimeout: 50 * time.Millisecond,
	}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", got.Path)
	assert.Equal(t, 9600, got.BaudRate)
	assert.Equal(t, 7, got.DataBits)
	assert.Equal(t, 2, got.StopBits)
	assert.Equal(t, "E", got.Parity)
	assert.Equal(t, DriverBugst, got.Driver)
	assert.Equal(t, 50*time.Millisecond, got.ReadTimeout)
}

func TestOptions_Normalize_Invalid(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want string
	}{
		{"data bits too low", Options{DataBits: 4}, "invalid data bits"},
		{"data bits too high", Options{DataBits: 9}, "invalid data bits"},
		{"stop bits", Options{StopBits: 3}, "invalid stop bits"},
		{"parity", Options{Parity: "M"}, "unsupported parity"},
		{"driver", Options{Driver: "tarm"}, "unsupported serial driver"},
		{"negative timeout", Options{ReadTimeout: -time.Second}, "must not be negative"},
		{"jacobsa timeout too short", Options{ReadTimeout: 10 * time.Millisecond}, "supports"},
		{"jacobsa timeout too long", Options{ReadTimeout: time.Minute}, "supports"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.opts.Normalize()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestOpen_Errors(t *testing.T) {
	_, err := Open(Options{})
	assert.EqualError(t, err, "serial port path is required")

	_, err = Open(Options{Path: "/dev/ttyUSB0", Parity: "X"})
	assert.ErrorContains(t, err, "unsupported parity")

	missing := filepath.Join(t.TempDir(), "no-such-tty")
	for _, driver := range []string{DriverJacobsa, DriverBugst} {
		_, err := Open(Options{Path: missing, Driver: driver})
		require.Error(t, err, driver)
		assert.Contains(t, err.Error(), missing, driver)
	}
}

func withPorts(t *testing.T, ports []string, err error) {
	t.Helper()
	orig := portsList
	portsList = func() ([]string, error) { return ports, err }
	t.Cleanup(func() { portsList = orig })
}

func TestResolve(t *testing.T) {
	got, err := Resolve("/dev/ttyAMA0")
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyAMA0", got)

	withPorts(t, []string{"/dev/ttyUSB0"}, nil)
	got, err = Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", got)

	withPorts(t, nil, nil)
	_, err = Resolve("")
	assert.ErrorContains(t, err, "no serial ports found")

	withPorts(t, []string{"/dev/ttyUSB0", "/dev/ttyUSB1"}, nil)
	_, err = Resolve("")
	assert.ErrorContains(t, err, "/dev/ttyUSB0, /dev/ttyUSB1")

	boom := errors.New("boom")
	withPorts(t, nil, boom)
	_, err = Resolve("")
	assert.ErrorIs(t, err, boom)
}

func TestLineReader(t *testing.T) {
	m := NewMock("$CS DI=0x1a2b3c,", "DN=M138*74\r\n$TD OK*34\n$RT", " OK*22")
	r := NewLineReader(m)

	line, err := r.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "$CS DI=0x1a2b3c,DN=M138*74", line)

	line, err = r.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "$TD OK*34", line)

	line, err = r.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "$RT OK*22", line)

	_, err = r.ReadLine()
	assert.ErrorIs(t, err, io.EOF)
}

func TestLineReader_Timeout(t *testing.T) {
	m := NewMock("$TD O")
	m.TimeoutWhenEmpty = true
	r := NewLineReader(m)

	_, err := r.ReadLine()
	assert.ErrorIs(t, err, ErrTimeout)

	// the partial line is not stitched onto the next response
	m.Feed("$PW OK*23\n")
	line, err := r.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "$PW OK*23", line)
}

func TestLineReader_ReadError(t *testing.T) {
	m := NewMock()
	m.ReadError = errors.New("device unplugged")
	_, err := NewLineReader(m).ReadLine()
	assert.EqualError(t, err, "device unplugged")
}

func TestMock(t *testing.T) {
	m := NewMock()
	n, err := m.Write([]byte("$CS*10\n"))
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	m.WriteError = errors.New("write failed")
	_, err = m.Write([]byte("$TD*00\n"))
	assert.EqualError(t, err, "write failed")

	assert.Equal(t, []string{"$CS*10\n"}, m.Writes())

	require.NoError(t, m.Close())
	assert.Equal(t, 1, m.CloseCalls())

	_, err = m.Write([]byte("x"))
	assert.ErrorIs(t, err, ErrPortClosed)
	_, err = m.Read(make([]byte, 4))
	assert.ErrorIs(t, err, ErrPortClosed)
}

// steppedClock advances by step on every call.
func steppedClock(step time.Duration) func() time.Time {
	t := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(step)
		return t
	}
}

func emptyPort() io.ReadWriteCloser {
	return struct {
		io.Reader
		io.Writer
		io.Closer
	}{NewMock(), io.Discard, io.NopCloser(nil)}
}

func TestVtimePort(t *testing.T) {
	tests := []struct {
		name    string
		elapsed time.Duration
		wantErr error
	}{
		{"expired timeout", time.Second, nil},
		{"hangup returns at once", time.Millisecond, io.EOF},
		{"just under half the timeout", 499 * time.Millisecond, io.EOF},
		{"half the timeout", 500 * time.Millisecond, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newVtimePort(emptyPort(), time.Second)
			p.now = steppedClock(tt.elapsed)

			n, err := p.Read(make([]byte, 8))
			assert.Equal(t, 0, n)
			assert.Equal(t, tt.wantErr, err)
		})
	}
}

func TestVtimePort_HangupEndsLineRead(t *testing.T) {
	p := newVtimePort(emptyPort(), time.Second)
	p.now = steppedClock(0)

	_, err := NewLineReader(p).ReadLine()
	assert.ErrorIs(t, err, io.EOF)
}

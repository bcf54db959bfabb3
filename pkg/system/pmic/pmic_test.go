//go:build linux

package pmic

import (
	"bytes"
	"log/slog"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2ctest"
)

func startOp() i2ctest.IO {
	return i2ctest.IO{Addr: Addr, W: []byte{RegControl, startConversion}}
}

func pollOp(status byte) i2ctest.IO {
	return i2ctest.IO{Addr: Addr, W: []byte{RegControl}, R: []byte{status}}
}

func dataOps(hi, lo byte) []i2ctest.IO {
	return []i2ctest.IO{
		{Addr: Addr, W: []byte{RegDataHi}, R: []byte{hi}},
		{Addr: Addr, W: []byte{RegDataLo}, R: []byte{lo}},
	}
}

// newTestReader returns a Reader replaying ops on every bus it opens.
func newTestReader(t *testing.T, ops ...i2ctest.IO) (*Reader, *i2ctest.Playback, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	pb := &i2ctest.Playback{Ops: ops, DontPanic: true}
	r := &Reader{
		PollInterval: time.Millisecond,
		Timeout:      3 * time.Millisecond,
		Open: func(name string) (i2c.BusCloser, error) {
			assert.Equal(t, "/dev/i2c-1", name)
			return pb, nil
		},
		Log: slog.New(slog.NewTextHandler(&logs, nil)),
	}
	return r, pb, &logs
}

func TestConvert(t *testing.T) {
	assert.InDelta(t, 2.497556, Convert(511), 1e-6)
	assert.InDelta(t, 5.0*511/1023, Convert(511), 1e-12)
	assert.InDelta(t, 5.0, Convert(1023), 1e-12)
	assert.Equal(t, 0.0, Convert(0))
	// only the low 10 bits are significant
	assert.Equal(t, Convert(1023), Convert(0xFFFF))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "conversion-started", ConversionStarted.String())
	assert.Equal(t, "polling", Polling.String())
	assert.Equal(t, "data-ready", DataReady.String())
	assert.Equal(t, "converted", Converted.String())
	assert.Equal(t, "state(9)", State(9).String())
}

func TestBusName(t *testing.T) {
	assert.Equal(t, "/dev/i2c-1", BusName(1))
	assert.Equal(t, "/dev/i2c-12", BusName(12))
}

func TestTransaction_Measure(t *testing.T) {
	ops := append([]i2ctest.IO{startOp(), pollOp(0x01), pollOp(0x00)}, dataOps(0x01, 0xFF)...)
	pb := &i2ctest.Playback{Ops: ops}
	tx := NewTransaction(&i2c.Dev{Addr: Addr, Bus: pb})
	require.Equal(t, Idle, tx.State())

	v, err := tx.Measure(time.Millisecond, 5)
	require.NoError(t, err)
	assert.InDelta(t, 5.0*511/1023, v, 1e-12)
	assert.Equal(t, uint16(511), tx.Raw())
	assert.Equal(t, Converted, tx.State())
	require.NoError(t, pb.Close())
}

func TestTransaction_OutOfOrder(t *testing.T) {
	tx := NewTransaction(&i2c.Dev{Addr: Addr, Bus: &i2ctest.Playback{}})

	err := tx.Wait(time.Millisecond, 1)
	require.ErrorIs(t, err, ErrState)

	_, err = tx.Fetch()
	require.ErrorIs(t, err, ErrState)
	assert.Equal(t, Idle, tx.State())
}

func TestTransaction_BusyTimeout(t *testing.T) {
	pb := &i2ctest.Playback{Ops: []i2ctest.IO{startOp(), pollOp(0x01), pollOp(0x01), pollOp(0x01)}}
	tx := NewTransaction(&i2c.Dev{Addr: Addr, Bus: pb})

	_, err := tx.Measure(time.Millisecond, 3)
	require.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, Polling, tx.State())
	require.NoError(t, pb.Close())
}

func TestTransaction_OtherStatusBitsIgnored(t *testing.T) {
	// only bit 0 means busy
	ops := append([]i2ctest.IO{startOp(), pollOp(0xFE)}, dataOps(0x03, 0xFF)...)
	pb := &i2ctest.Playback{Ops: ops}
	tx := NewTransaction(&i2c.Dev{Addr: Addr, Bus: pb})

	v, err := tx.Measure(time.Millisecond, 1)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, v, 1e-12)
}

func TestReader_Voltage(t *testing.T) {
	cases := []struct {
		name   string
		hi, lo byte
		want   float64
	}{
		{"zero", 0x00, 0x00, 0},
		{"mid", 0x01, 0xFF, 5.0 * 511 / 1023},
		{"full", 0x03, 0xFF, 5.0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ops := append([]i2ctest.IO{startOp(), pollOp(0x00)}, dataOps(tc.hi, tc.lo)...)
			r, pb, logs := newTestReader(t, ops...)

			assert.InDelta(t, tc.want, r.Voltage(1), 1e-9)
			assert.Equal(t, len(ops), pb.Count)
			assert.Empty(t, logs.String())
		})
	}
}

func TestReader_Voltage_Failures(t *testing.T) {
	full := append([]i2ctest.IO{startOp(), pollOp(0x00)}, dataOps(0x01, 0xFF)...)
	cases := []struct {
		name    string
		ops     []i2ctest.IO
		wantLog string
	}{
		// the playback runs dry at the step under test
		{"start_write", nil, ""},
		{"poll_read", full[:1], ""},
		{"data_high", full[:2], ""},
		{"data_low", full[:3], ""},
		{"busy_timeout", []i2ctest.IO{startOp(), pollOp(0x01), pollOp(0x01), pollOp(0x01)}, "battery adc stuck busy"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, pb, logs := newTestReader(t, tc.ops...)

			assert.Zero(t, r.Voltage(1))
			assert.Equal(t, len(tc.ops), pb.Count)
			if tc.wantLog == "" {
				assert.Empty(t, logs.String())
			} else {
				assert.Contains(t, logs.String(), tc.wantLog)
			}
		})
	}
}

func TestReader_Voltage_OpenFailure(t *testing.T) {
	var logs bytes.Buffer
	r := &Reader{
		Open: func(string) (i2c.BusCloser, error) {
			return nil, &os.PathError{Op: "open", Path: "/dev/i2c-7", Err: syscall.ENOENT}
		},
		Log: slog.New(slog.NewTextHandler(&logs, nil)),
	}
	assert.Zero(t, r.Voltage(7))
	out := logs.String()
	assert.Contains(t, out, "can't open i2c bus")
	assert.Contains(t, out, "/dev/i2c-7")
	assert.Contains(t, out, "errno=ENOENT")
}

func TestReader_Voltage_BadAddress(t *testing.T) {
	r, pb, logs := newTestReader(t)
	r.Addr = 0x80

	assert.Zero(t, r.Voltage(1))
	assert.Zero(t, pb.Count)
	assert.Contains(t, logs.String(), "i2c bind failed")
}

func TestReader_ClosesBus(t *testing.T) {
	closer := &closeCounter{Playback: &i2ctest.Playback{DontPanic: true}}
	r := &Reader{
		Open: func(string) (i2c.BusCloser, error) { return closer, nil },
		Log:  slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)),
	}
	for i := 0; i < 3; i++ {
		assert.Zero(t, r.Voltage(1))
	}
	assert.Equal(t, 3, closer.closed)
}

func TestReader_Polls(t *testing.T) {
	assert.Equal(t, 20, (&Reader{}).polls())
	assert.Equal(t, 1, (&Reader{PollInterval: time.Second, Timeout: time.Millisecond}).polls())
	assert.Equal(t, 10, (&Reader{PollInterval: 10 * time.Millisecond, Timeout: 100 * time.Millisecond}).polls())
}

type closeCounter struct {
	*i2ctest.Playback
	closed int
}

func (c *closeCounter) Close() error {
	c.closed++
	return c.Playback.Close()
}

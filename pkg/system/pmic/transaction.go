//go:build linux

package pmic

import (
	"encoding/binary"
	"fmt"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/mmr"
)

// Register map of the BD2613GW battery ADC.
const (
	RegControl = 0x72
	RegDataHi  = 0x80
	RegDataLo  = 0x81

	startConversion = 0x01
	busyBit         = 0x01
)

// FullScale is the voltage of the ADC's maximum code.
const FullScale = 5.0

const maxRaw = 1<<10 - 1

// State is the progress of a Transaction.
type State int

const (
	Idle State = iota
	ConversionStarted
	Polling
	DataReady
	Converted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case ConversionStarted:
		return "conversion-started"
	case Polling:
		return "polling"
	case DataReady:
		return "data-ready"
	case Converted:
		return "converted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Convert scales a raw 10-bit ADC code to volts.
func Convert(raw uint16) float64 {
	return FullScale * float64(raw&maxRaw) / maxRaw
}

// Transaction drives one ADC conversion through
// Idle -> ConversionStarted -> Polling -> DataReady -> Converted.
// It is not reusable; a failed step leaves it in the state it failed from.
type Transaction struct {
	dev   *mmr.Dev8
	state State
	raw   uint16
}

// NewTransaction binds a transaction to a register-addressed connection,
// typically an *i2c.Dev.
func NewTransaction(c conn.Conn) *Transaction {
	return &Transaction{dev: &mmr.Dev8{Conn: c, Order: binary.BigEndian}}
}

func (t *Transaction) State() State { return t.state }

// Raw returns the code read in the DataReady -> Converted step.
func (t *Transaction) Raw() uint16 { return t.raw }

func (t *Transaction) expect(s State) error {
	if t.state != s {
		return fmt.Errorf("%w: %s, want %s", ErrState, t.state, s)
	}
	return nil
}

// Start asks the ADC to sample the battery.
func (t *Transaction) Start() error {
	if err := t.expect(Idle); err != nil {
		return err
	}
	if err := t.dev.WriteUint8(RegControl, startConversion); err != nil {
		return fmt.Errorf("start conversion: %w", err)
	}
	t.state = ConversionStarted
	return nil
}

// Wait polls the control register until the busy bit clears. It reads the
// register at most polls times, sleeping interval between reads.
func (t *Transaction) Wait(interval time.Duration, polls int) error {
	if err := t.expect(ConversionStarted); err != nil {
		return err
	}
	t.state = Polling
	if polls < 1 {
		polls = 1
	}
	for n := 1; ; n++ {
		v, err := t.dev.ReadUint8(RegControl)
		if err != nil {
			return fmt.Errorf("poll control: %w", err)
		}
		if v&busyBit == 0 {
			break
		}
		if n >= polls {
			return fmt.Errorf("%w after %d polls", ErrBusy, n)
		}
		time.Sleep(interval)
	}
	t.state = DataReady
	return nil
}

// Fetch reads the result registers and returns the converted voltage.
func (t *Transaction) Fetch() (float64, error) {
	if err := t.expect(DataReady); err != nil {
		return 0, err
	}
	hi, err := t.dev.ReadUint8(RegDataHi)
	if err != nil {
		return 0, fmt.Errorf("read data high: %w", err)
	}
	lo, err := t.dev.ReadUint8(RegDataLo)
	if err != nil {
		return 0, fmt.Errorf("read data low: %w", err)
	}
	t.raw = (uint16(hi)<<8 | uint16(lo)) & maxRaw
	t.state = Converted
	return Convert(t.raw), nil
}

// Measure runs the whole transaction.
func (t *Transaction) Measure(interval time.Duration, polls int) (float64, error) {
	if err := t.Start(); err != nil {
		return 0, err
	}
	if err := t.Wait(interval, polls); err != nil {
		return 0, err
	}
	return t.Fetch()
}

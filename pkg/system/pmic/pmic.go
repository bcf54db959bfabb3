//go:build linux

package pmic

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ja7ad/powerlog/pkg/system/util"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
)

// Addr is the 7-bit I2C address of the PMIC.
const Addr = 0x6E

const (
	defaultPollInterval = 50 * time.Millisecond
	defaultTimeout      = time.Second
)

// Opener opens an I2C bus by name. i2creg.Open is the default; it needs
// host.Init to have registered the sysfs buses.
type Opener func(name string) (i2c.BusCloser, error)

// BusName returns the device node of I2C bus n.
func BusName(n int) string { return fmt.Sprintf("/dev/i2c-%d", n) }

// Reader samples the battery voltage. The zero value talks to the PMIC at
// Addr, polls every 50ms for up to a second and logs through slog.Default.
type Reader struct {
	Addr         uint16
	PollInterval time.Duration
	Timeout      time.Duration
	Open         Opener
	Log          *slog.Logger
}

func (r *Reader) logger() *slog.Logger {
	if r.Log == nil {
		return slog.Default()
	}
	return r.Log
}

func (r *Reader) open(name string) (i2c.BusCloser, error) {
	if r.Open == nil {
		return i2creg.Open(name)
	}
	return r.Open(name)
}

func (r *Reader) addr() uint16 {
	if r.Addr == 0 {
		return Addr
	}
	return r.Addr
}

func (r *Reader) pollInterval() time.Duration {
	if r.PollInterval <= 0 {
		return defaultPollInterval
	}
	return r.PollInterval
}

func (r *Reader) polls() int {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	n := int(timeout / r.pollInterval())
	if n < 1 {
		return 1
	}
	return n
}

// Voltage measures the battery voltage on the given bus. It returns 0 when
// the bus cannot be opened or any step of the register transaction fails.
func (r *Reader) Voltage(bus int) float64 {
	name := BusName(bus)
	log := r.logger()

	b, err := r.open(name)
	if err != nil {
		errno, code := util.Errno(err)
		log.Error("can't open i2c bus", "bus", name, "err", err, "errno", errno, "code", code)
		return 0
	}
	defer func() {
		if err := b.Close(); err != nil {
			log.Warn("close i2c bus", "bus", name, "err", err)
		}
	}()

	addr := r.addr()
	if addr > 0x7F {
		log.Error("i2c bind failed", "bus", name, "addr", fmt.Sprintf("%#x", addr), "err", ErrAddress)
		return 0
	}

	tx := NewTransaction(&i2c.Dev{Addr: addr, Bus: b})
	v, err := tx.Measure(r.pollInterval(), r.polls())
	if err != nil {
		if errors.Is(err, ErrBusy) {
			log.Warn("battery adc stuck busy", "bus", name, "err", err)
		}
		return 0
	}
	return v
}

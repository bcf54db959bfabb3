//go:build linux

package sampler

import (
	"time"

	"github.com/ja7ad/powerlog/pkg/system/rapl"
	"github.com/ja7ad/powerlog/pkg/types"
)

// Domain indexes into the per-domain arrays of State and Sample.
const (
	Pkg  = 0
	Core = 1
)

// Config holds the sampling parameters.
//   - Interval: pause after each sample
//   - Bus: I2C bus index of the PMIC
//   - Domains: energy counters, package first
type Config struct {
	Interval time.Duration
	Bus      int
	Domains  [2]rapl.Domain
}

// _defaultConfig samples the package and core RAPL domains once a second
// and reads the PMIC on /dev/i2c-1.
func _defaultConfig() *Config {
	return &Config{
		Interval: time.Second,
		Bus:      1,
		Domains:  [2]rapl.Domain{rapl.Package, rapl.Core},
	}
}

// State is carried from one sample to the next.
// A zero Prev entry means the domain has not been sampled yet.
type State struct {
	Prev  [2]types.Microjoules
	Start [2]types.Microjoules
	Max   [2]types.Microjoules // counter wrap value, 0 if unknown
	Last  time.Time
}

// Sample is the outcome of one iteration.
type Sample struct {
	At       time.Time
	Energy   [2]types.Microjoules
	DeltaSec float64
	Watts    [2]float64
	Voltage  float64
	TotalUJ  int64 // package energy since Init; negative after a counter reset
}

// Timestamp returns At in microseconds since the epoch.
func (s Sample) Timestamp() int64 { return s.At.UnixMicro() }

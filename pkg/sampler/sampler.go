//go:build linux

package sampler

import (
	"context"
	"log/slog"
	"time"

	"github.com/ja7ad/powerlog/pkg/system/rapl"
	"github.com/ja7ad/powerlog/pkg/system/util"
	"github.com/ja7ad/powerlog/pkg/types"
)

// EnergyReader returns the current energy count of a domain, 0 on failure.
type EnergyReader interface {
	Energy(d rapl.Domain) types.Microjoules
	MaxRange(d rapl.Domain) types.Microjoules
}

// VoltageReader returns the battery voltage seen on an I2C bus, 0 on failure.
type VoltageReader interface {
	Voltage(bus int) float64
}

// Reporter publishes one Sample.
type Reporter interface {
	Report(s Sample) error
}

// Sampler owns the sampling State and drives the read-compute-report loop.
type Sampler struct {
	cfg    *Config
	energy EnergyReader
	volt   VoltageReader
	out    Reporter
	now    func() time.Time
	log    *slog.Logger

	state State
	count int
}

// Option configures a Sampler.
type Option func(*Sampler)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Sampler) { s.now = now }
}

// WithLogger replaces slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sampler) { s.log = l }
}

// New creates a sampler with the given config.
// A nil cfg samples with defaults. Otherwise Bus is taken verbatim (bus 0
// exists) and a non-positive Interval or empty domain path keeps the default.
func New(cfg *Config, energy EnergyReader, volt VoltageReader, out Reporter, opts ...Option) *Sampler {
	merged := *_defaultConfig()
	if cfg != nil {
		merged.Bus = cfg.Bus
		if cfg.Interval > 0 {
			merged.Interval = cfg.Interval
		}
		if cfg.Domains[Pkg].Path != "" {
			merged.Domains[Pkg] = cfg.Domains[Pkg]
		}
		if cfg.Domains[Core].Path != "" {
			merged.Domains[Core] = cfg.Domains[Core]
		}
	}

	s := &Sampler{
		cfg:    &merged,
		energy: energy,
		volt:   volt,
		out:    out,
		now:    time.Now,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init records the baseline counts and the start time.
func (s *Sampler) Init() {
	for i, d := range s.cfg.Domains {
		s.state.Start[i] = s.energy.Energy(d)
		s.state.Max[i] = s.energy.MaxRange(d)
	}
	s.state.Last = s.now().Truncate(time.Microsecond)
}

// Step takes one sample, reports it and advances the state.
//
// Power for a domain is the counter delta over the elapsed time:
//
//	W = ΔµJ / (Δs * 1e6)
//
// and is 0 on the first sample of a domain (Prev == 0), on a failed read
// or when no time has elapsed.
func (s *Sampler) Step() Sample {
	var cur [2]types.Microjoules
	for i, d := range s.cfg.Domains {
		cur[i] = s.energy.Energy(d)
	}

	now := s.now().Truncate(time.Microsecond)
	dt := float64(now.UnixMicro()-s.state.Last.UnixMicro()) / 1e6

	smp := Sample{At: now, Energy: cur, DeltaSec: dt}
	for i := range cur {
		// 0 is a failed read, not a rollover to the bottom of the range
		if s.state.Prev[i] == 0 || cur[i] == 0 || dt <= 0 {
			continue
		}
		duj := util.DeltaWrap(cur[i].ToUint64(), s.state.Prev[i].ToUint64(), s.state.Max[i].ToUint64())
		smp.Watts[i] = util.SafeDiv(float64(duj), dt*1e6)
	}
	smp.Voltage = s.volt.Voltage(s.cfg.Bus)
	smp.TotalUJ = int64(cur[Pkg]) - int64(s.state.Start[Pkg])

	if s.out != nil {
		if err := s.out.Report(smp); err != nil {
			s.log.Warn("report sample", "err", err)
		}
	}

	s.state.Prev = cur
	s.state.Last = now
	s.count++
	return smp
}

// Run calls Init, then alternates Step with an Interval pause until ctx
// is done.
func (s *Sampler) Run(ctx context.Context) error {
	s.Init()

	t := time.NewTimer(s.cfg.Interval)
	t.Stop()
	defer t.Stop()
	for ctx.Err() == nil {
		s.Step()
		t.Reset(s.cfg.Interval)
		select {
		case <-ctx.Done():
		case <-t.C:
		}
	}
	return nil
}

// Interval returns the pause between samples.
func (s *Sampler) Interval() time.Duration { return s.cfg.Interval }

// State returns a copy of the current sampling state.
func (s *Sampler) State() State { return s.state }

// Count returns the number of samples taken.
func (s *Sampler) Count() int { return s.count }

// Consumed returns the package energy used since Init, as of the last sample.
func (s *Sampler) Consumed() types.Microjoules {
	if s.count == 0 {
		return 0
	}
	return types.ToMicrojoules(util.DeltaU64(s.state.Prev[Pkg].ToUint64(), s.state.Start[Pkg].ToUint64()))
}

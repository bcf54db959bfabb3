//go:build linux

package rapl

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ja7ad/powerlog/pkg/system/util"
	"github.com/ja7ad/powerlog/pkg/types"
)

// Root is the powercap zone of the first CPU package.
const Root = "/sys/devices/virtual/powercap/intel-rapl/intel-rapl:0"

// Domain is a power-accounting scope backed by its own energy_uj counter.
type Domain struct {
	Name string
	Path string
}

var (
	// Package covers the whole CPU package.
	Package = Domain{Name: "pkg", Path: filepath.Join(Root, "energy_uj")}
	// Core covers the cores subset of the package (PP0).
	Core = Domain{Name: "core", Path: filepath.Join(Root, "intel-rapl:0:0", "energy_uj")}
)

// RangePath returns the path of the counter's max_energy_range_uj sibling.
func (d Domain) RangePath() string {
	return filepath.Join(filepath.Dir(d.Path), "max_energy_range_uj")
}

// ReadEnergy parses a powercap counter file and returns its value.
//
// The file holds a single decimal µJ count followed by a newline.
// Open errors are returned unchanged so callers can inspect the errno;
// anything that is not an unsigned integer yields ErrParse.
func ReadEnergy(path string) (types.Microjoules, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return 0, fmt.Errorf("read %s: %w", path, err)
		}
		return 0, fmt.Errorf("%s: %w", path, ErrParse)
	}
	v, err := strconv.ParseUint(strings.TrimSpace(sc.Text()), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, ErrParse)
	}
	return types.ToMicrojoules(v), nil
}

// ReadMaxRange returns the value at which the domain's counter wraps to zero.
func ReadMaxRange(d Domain) (types.Microjoules, error) {
	v, err := ReadEnergy(d.RangePath())
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrNoRange, err)
	}
	return v, nil
}

// Reader reads energy counters and degrades every failure to a zero value.
// The zero Reader logs through slog.Default.
type Reader struct {
	Log *slog.Logger
}

func (r *Reader) logger() *slog.Logger {
	if r == nil || r.Log == nil {
		return slog.Default()
	}
	return r.Log
}

// Energy returns the current count of d, or 0 when the counter cannot be
// opened or parsed. Failures are logged with the path, reason and errno.
func (r *Reader) Energy(d Domain) types.Microjoules {
	v, err := ReadEnergy(d.Path)
	if err != nil {
		name, code := util.Errno(err)
		r.logger().Error("can't read energy counter",
			"domain", d.Name, "path", d.Path, "err", err, "errno", name, "code", code)
		return 0
	}
	return v
}

// MaxRange returns the wrap value of d, or 0 when it is unknown.
func (r *Reader) MaxRange(d Domain) types.Microjoules {
	v, err := ReadMaxRange(d)
	if err != nil {
		r.logger().Warn("energy range unavailable, counter rollover will read as reset",
			"domain", d.Name, "err", err)
		return 0
	}
	return v
}

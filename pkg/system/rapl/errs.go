//go:build linux

package rapl

import "errors"

var (
	// ErrParse indicates that an energy_uj file was empty or did not hold
	// a single unsigned decimal integer.
	ErrParse = errors.New("rapl: malformed energy counter")

	// ErrNoRange indicates that max_energy_range_uj could not be read.
	ErrNoRange = errors.New("rapl: no energy range")
)

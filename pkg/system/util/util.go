//go:build linux

package util

import (
	"errors"
	"syscall"

	"golang.org/x/sys/unix"
)

func DeltaU64(now, prev uint64) uint64 {
	if now >= prev {
		return now - prev
	}
	// counter wrapped or prev unset
	return 0
}

// DeltaWrap is DeltaU64 for a counter that rolls over at limit.
// With limit unknown (0) or prev beyond it, a decrease is treated as a reset.
func DeltaWrap(now, prev, limit uint64) uint64 {
	if now >= prev {
		return now - prev
	}
	if limit == 0 || prev > limit {
		return 0
	}
	return limit - prev + now
}

func SafeDiv(n, d float64) float64 {
	const eps = 1e-12
	if d > eps || d < -eps {
		return n / d
	}
	return 0
}

// Errno unwraps the platform error number carried by err, if any,
// and returns its symbolic name (ENOENT, EACCES, ...) and value.
func Errno(err error) (string, int) {
	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return "", 0
	}
	return unix.ErrnoName(errno), int(errno)
}

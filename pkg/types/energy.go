package types

import "fmt"

// Microjoules is a uint64 wrapper representing an energy counter value in µJ,
// the unit the powercap subsystem exposes in energy_uj.
type Microjoules uint64

// ToMicrojoules converts a raw counter value.
func ToMicrojoules(v uint64) Microjoules { return Microjoules(v) }

// ToUint64 returns the raw counter value.
func (u Microjoules) ToUint64() uint64 { return uint64(u) }

// Humanized returns a human-readable string with automatic unit (µJ, mJ, J, kJ, MJ).
func (u Microjoules) Humanized() string {
	v := float64(u)
	switch {
	case u >= 1e12:
		return fmt.Sprintf("%.2f MJ", v/1e12)
	case u >= 1e9:
		return fmt.Sprintf("%.2f kJ", v/1e9)
	case u >= 1e6:
		return fmt.Sprintf("%.2f J", v/1e6)
	case u >= 1e3:
		return fmt.Sprintf("%.2f mJ", v/1e3)
	default:
		return fmt.Sprintf("%d µJ", u)
	}
}

// Millijoules returns the energy in mJ.
func (u Microjoules) Millijoules() float64 { return float64(u) / 1e3 }

// Joules returns the energy in J.
func (u Microjoules) Joules() float64 { return float64(u) / 1e6 }

// WattHours returns the energy in Wh.
func (u Microjoules) WattHours() float64 { return float64(u) / 3.6e9 }

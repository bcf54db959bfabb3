// Package pmic reads the battery voltage ADC of a BD2613GW power management IC
// over I2C.
//
// A measurement is a short register transaction against the PMIC at 0x6E:
//
//   - write 0x01 to the control register 0x72 to start a conversion
//   - poll 0x72 every 50ms until bit 0 (busy) clears, bounded by a timeout
//   - read the high byte from 0x80 and the low byte from 0x81
//
// The 10-bit result is scaled to 0..5V. The bus is opened for every
// measurement and closed again before Voltage returns.
//
// Reader.Voltage reports every failure as 0V. Open, bind and timeout
// failures are logged; a failed register access is not.
package pmic

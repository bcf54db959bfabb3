//go:build linux

package pmic

import "errors"

var (
	// ErrAddress indicates that the peripheral address does not fit a
	// 7-bit I2C address.
	ErrAddress = errors.New("pmic: invalid i2c address")

	// ErrBusy indicates that the ADC kept its busy bit set for longer
	// than the poll timeout.
	ErrBusy = errors.New("pmic: conversion timed out")

	// ErrState indicates a transition attempted out of order.
	ErrState = errors.New("pmic: invalid transaction state")
)

// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package mbi5030

import (
	"errors"
	"fmt"
	"strings"
)

// Config is the value of the chip's configuration register.
//
// A Config is formed by OR-ing the constants below. The zero value selects
// the chip defaults - 16-bit normal mode PWM with automatic data sync,
// thermal protection off and missing clock shutdown on.
type Config uint16

// Configuration register fields.
const (
	PWM16Bit Config = 0x0000
	PWM12Bit Config = 0x2000

	PWMModeNormal   Config = 0x0000
	PWMModeScramble Config = 0x1000

	DataSyncAuto   Config = 0x0000
	DataSyncManual Config = 0x4000

	ThermalProtectionOff Config = 0x0000
	ThermalProtectionOn  Config = 0x0002

	MissingClockShutdownOn  Config = 0x0000
	MissingClockShutdownOff Config = 0x0001

	// ThermalError is set by the chip when it has overheated.
	//
	// It is read-only and is ignored when written.
	ThermalError Config = 0x8000
)

// MaxGain is the largest current gain that fits the 6-bit gain field.
const MaxGain = 0x3f

const (
	gainShift = 2
	gainMask  = Config(MaxGain << gainShift)
)

// Gain returns the current gain field.
func (c Config) Gain() uint8 {
	return uint8((c & gainMask) >> gainShift)
}

// Writable returns the config with the read-only bits cleared.
func (c Config) Writable() Config {
	return c &^ ThermalError
}

func (c Config) String() string {
	ff := []string{"pwm16"}
	if c&PWM12Bit != 0 {
		ff[0] = "pwm12"
	}
	if c&PWMModeScramble != 0 {
		ff = append(ff, "scramble")
	}
	if c&DataSyncManual != 0 {
		ff = append(ff, "sync-manual")
	}
	if c&ThermalProtectionOn != 0 {
		ff = append(ff, "thermal-protection")
	}
	if c&MissingClockShutdownOff != 0 {
		ff = append(ff, "no-missing-clock-shutdown")
	}
	if c&ThermalError != 0 {
		ff = append(ff, "thermal-error")
	}
	ff = append(ff, fmt.Sprintf("gain=%d", c.Gain()))
	return strings.Join(ff, " ")
}

// ErrorReport is the value of the chip's error status register.
//
// Bit n is set if output channel n is reported as open circuit.
type ErrorReport uint16

// Channel returns true if the channel is reported as faulty.
func (e ErrorReport) Channel(ch int) bool {
	if ch < 0 || ch >= Channels {
		return false
	}
	return e&(1<<uint(ch)) != 0
}

// Channels returns the faulty channels, in ascending order.
func (e ErrorReport) Channels() []int {
	cc := []int(nil)
	for ch := 0; ch < Channels; ch++ {
		if e.Channel(ch) {
			cc = append(cc, ch)
		}
	}
	return cc
}

// Register identifies a register that can be read back from the chip.
type Register int

const (
	// RegErrorStatus is the open circuit error status.
	RegErrorStatus Register = iota + 1

	// RegConfig is the configuration register.
	RegConfig
)

// ErrInvalidRegister indicates the register cannot be read back.
var ErrInvalidRegister = errors.New("invalid register")

func (r Register) String() string {
	switch r {
	case RegErrorStatus:
		return "error status"
	case RegConfig:
		return "config"
	}
	return fmt.Sprintf("register(%d)", int(r))
}

// Readback is a value read from a register.
type Readback struct {
	Register Register
	Value    uint16
}

// ErrorReport returns the value as an error report, or false if it was read
// from another register.
func (rb Readback) ErrorReport() (ErrorReport, bool) {
	return ErrorReport(rb.Value), rb.Register == RegErrorStatus
}

// Config returns the value as a configuration, or false if it was read from
// another register.
func (rb Readback) Config() (Config, bool) {
	return Config(rb.Value), rb.Register == RegConfig
}

// Gray12 converts a 12-bit grayscale value to the 16-bit word sent to a chip
// configured for 12-bit PWM.
//
// The chip ignores the four least significant bits in 12-bit mode.
func Gray12(v uint16) uint16 {
	return v << 4
}

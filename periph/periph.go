// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

// Package periph connects the mbi5030 driver to pins provided by periph.io.
//
// This allows the chip to be driven on platforms without the Linux GPIO
// character device, or from pins on expanders with periph.io drivers.
// The host must be initialised, e.g. with host.Init, before pins are looked
// up by name.
package periph

import (
	"errors"
	"fmt"

	"github.com/warthog618/go-mbi5030"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// Pin adapts a periph.io pin to the mbi5030.Pin interface.
type Pin struct {
	p gpio.PinIO
}

// SetValue drives the pin high for a non-zero value, else low.
func (p *Pin) SetValue(v int) error {
	return p.p.Out(gpio.Level(v != 0))
}

// Value samples the pin.
func (p *Pin) Value() (int, error) {
	if p.p.Read() == gpio.High {
		return 1, nil
	}
	return 0, nil
}

// Name returns the periph.io name of the pin.
func (p *Pin) Name() string {
	return p.p.Name()
}

// ErrNotFound indicates a named pin is not registered with periph.io.
var ErrNotFound = errors.New("pin not found")

// New configures the pins and binds them to their roles.
//
// CLK, LE and SDI are driven low. SDO is an input, pulled down so that an
// unconnected chip reads back as zero.
func New(clk, le, sdi, sdo gpio.PinIO) (mbi5030.Pins, error) {
	for _, p := range []gpio.PinIO{le, clk, sdi} {
		if err := p.Out(gpio.Low); err != nil {
			return mbi5030.Pins{}, fmt.Errorf("%s: %w", p, err)
		}
	}
	if err := sdo.In(gpio.PullDown, gpio.NoEdge); err != nil {
		return mbi5030.Pins{}, fmt.Errorf("%s: %w", sdo, err)
	}
	return mbi5030.Pins{
		Clk: &Pin{clk},
		Le:  &Pin{le},
		Sdi: &Pin{sdi},
		Sdo: &Pin{sdo},
	}, nil
}

// ByName looks up the named pins and binds them to their roles.
//
// Names are those understood by gpioreg.ByName, e.g. "GPIO17" or "17".
func ByName(clk, le, sdi, sdo string) (mbi5030.Pins, error) {
	pp := make([]gpio.PinIO, 0, 4)
	for _, n := range []string{clk, le, sdi, sdo} {
		p := gpioreg.ByName(n)
		if p == nil {
			return mbi5030.Pins{}, fmt.Errorf("%s: %w", n, ErrNotFound)
		}
		pp = append(pp, p)
	}
	return New(pp[0], pp[1], pp[2], pp[3])
}

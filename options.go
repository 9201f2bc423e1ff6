// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package mbi5030

import (
	"time"

	"github.com/rs/zerolog"
)

// Option specifies a construction option for the MBI5030.
type Option func(*MBI5030)

// WithTclk sets the clock period for the MBI5030.
//
// Note that this is the half-cycle period. The default is zero, so the clock
// runs as fast as the lines can be toggled.
func WithTclk(tclk time.Duration) Option {
	return func(d *MBI5030) {
		d.tclk = tclk
	}
}

// WithSettle sets the delay between enabling error detection and reading the
// error status.
func WithSettle(tset time.Duration) Option {
	return func(d *MBI5030) {
		d.tset = tset
	}
}

// WithLogger sets the logger used to trace protocol activity.
//
// By default nothing is logged.
func WithLogger(l zerolog.Logger) Option {
	return func(d *MBI5030) {
		d.log = l
	}
}

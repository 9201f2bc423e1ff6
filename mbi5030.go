// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

// Package mbi5030 provides a bit bashed device driver for the MBI5030
// 16-channel constant current LED driver.
//
// The chip is driven over four GPIO lines - CLK, LE, SDI and SDO. This is not
// SPI, though it looks similar. The meaning of each transfer is determined by
// the number of clock edges seen while LE is high.
package mbi5030

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/warthog618/go-gpiocdev"
)

// Channels is the number of output channels on the chip.
const Channels = 16

// Register select timing.
//
// These are the number of clock pulses issued by the register select
// sequences, not counting the final clock edge that is held high while LE
// falls.
const (
	// EnableErrorDetectionPulses is the number of pulses with LE high that
	// enable open circuit detection.
	EnableErrorDetectionPulses = 5

	// ErrorReportPulses is the number of pulses with LE high that select the
	// error status register for readback.
	ErrorReportPulses = 8

	// ConfigReadLeadPulses is the number of pulses with LE low that precede
	// the configuration read select.
	ConfigReadLeadPulses = 11

	// ConfigReadPulses is the number of pulses with LE high that select the
	// configuration register for readback.
	ConfigReadPulses = 4

	// DataLatchBits is the number of trailing bits of a word clocked with LE
	// high to latch that word into the chip's buffer.
	DataLatchBits = 1

	// GlobalLatchBits is the number of trailing bits of the final word clocked
	// with LE high to commit all buffered words to the outputs.
	GlobalLatchBits = 3

	// ConfigWriteLeadBits is the number of leading configuration bits clocked
	// with LE low. The remaining bits are clocked with LE high.
	ConfigWriteLeadBits = 5
)

// DefaultSettle is the delay after enabling error detection before the
// error status is stable.
const DefaultSettle = 64 * time.Microsecond

// Pin is a GPIO line driven or sampled by the driver.
//
// A *gpiocdev.Line satisfies Pin.
type Pin interface {
	SetValue(value int) error
	Value() (int, error)
}

// Pins binds the four lines used to talk to the chip.
//
// Sdi and Sdo are named from the chip's perspective, so Sdi is driven by the
// driver and Sdo is sampled.
type Pins struct {
	Clk Pin
	Le  Pin
	Sdi Pin
	Sdo Pin
}

// MBI5030 drives a connected MBI5030.
type MBI5030 struct {
	mu sync.Mutex
	p  Pins
	// lines requested by New, released by Close.
	ll []*gpiocdev.Line
	// time between clock edges (i.e. half the cycle time)
	tclk time.Duration
	// time to allow the error detection to settle
	tset   time.Duration
	log    zerolog.Logger
	closed bool
}

// ErrClosed indicates the driver is closed.
var ErrClosed = errors.New("closed")

// ErrInvalidGain indicates a current gain that does not fit the 6-bit field.
var ErrInvalidGain = errors.New("invalid current gain")

// New creates a MBI5030 connected to the lines of a GPIO chip.
//
// The CLK, LE and SDI lines are requested as outputs, initially low, and SDO
// as an input.
func New(c *gpiocdev.Chip, clk, le, sdi, sdo int, options ...Option) (*MBI5030, error) {
	var err error
	var ll []*gpiocdev.Line
	defer func() {
		if err != nil {
			for _, l := range ll {
				l.Close()
			}
		}
	}()
	var l *gpiocdev.Line
	for _, o := range []int{le, clk, sdi} {
		l, err = c.RequestLine(o, gpiocdev.AsOutput(0))
		if err != nil {
			return nil, err
		}
		ll = append(ll, l)
	}
	l, err = c.RequestLine(sdo, gpiocdev.AsInput)
	if err != nil {
		return nil, err
	}
	ll = append(ll, l)
	d := newMBI5030(Pins{Le: ll[0], Clk: ll[1], Sdi: ll[2], Sdo: ll[3]}, options)
	d.ll = ll
	return d, nil
}

// NewFromPins creates a MBI5030 connected to the given pins.
//
// The output pins must already be configured as outputs and Sdo as an input.
// They are driven to their idle state before returning.
func NewFromPins(p Pins, options ...Option) (*MBI5030, error) {
	d := newMBI5030(p, options)
	if err := d.Init(); err != nil {
		return nil, err
	}
	return d, nil
}

func newMBI5030(p Pins, options []Option) *MBI5030 {
	d := MBI5030{
		p:    p,
		tset: DefaultSettle,
		log:  zerolog.Nop(),
	}
	for _, option := range options {
		option(&d)
	}
	return &d
}

// Close releases all resources allocated by the driver.
func (d *MBI5030) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	d.closed = true
	for _, l := range d.ll {
		l.Close()
	}
	d.ll = nil
	return nil
}

// Init drives the output lines to their idle state - all low.
func (d *MBI5030) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	for _, p := range []Pin{d.p.Sdi, d.p.Clk, d.p.Le} {
		if err := p.SetValue(0); err != nil {
			return fmt.Errorf("init: %w", err)
		}
	}
	return nil
}

// Update writes the grayscale values to the chip and makes them live.
//
// The first fifteen words are each latched into the chip's buffers with a
// data-latch. The final word is sent with a global-latch that commits all
// sixteen channels to the outputs at once. If an error aborts the transfer
// before the global-latch the outputs retain their previous values, though
// the chip's buffers are indeterminate. Re-issuing the Update restores them.
func (d *MBI5030) Update(gs [Channels]uint16) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	if err := d.idle(); err != nil {
		return fmt.Errorf("update: %w", err)
	}
	for ch := 0; ch < Channels-1; ch++ {
		if err := d.writeWord(gs[ch], DataLatchBits); err != nil {
			d.idle()
			return fmt.Errorf("update ch%d: %w", ch, err)
		}
	}
	if err := d.writeWord(gs[Channels-1], GlobalLatchBits); err != nil {
		d.idle()
		return fmt.Errorf("update ch%d: %w", Channels-1, err)
	}
	d.log.Trace().Msg("global-latch")
	return nil
}

// ReadErrorReport enables error detection and reads back the error status.
//
// Bit n of the report is set if output channel n is open circuit.
func (d *MBI5030) ReadErrorReport() (ErrorReport, error) {
	rb, err := d.ReadRegister(RegErrorStatus)
	return ErrorReport(rb.Value), err
}

// ReadConfig reads back the configuration register.
func (d *MBI5030) ReadConfig() (Config, error) {
	rb, err := d.ReadRegister(RegConfig)
	return Config(rb.Value), err
}

// ReadRegister selects the register and reads back its value.
//
// The select sequence and the readback are performed under the one lock so
// the value is always that of the selected register.
func (d *MBI5030) ReadRegister(r Register) (Readback, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	rb := Readback{Register: r}
	if d.closed {
		return rb, ErrClosed
	}
	if r != RegErrorStatus && r != RegConfig {
		return rb, ErrInvalidRegister
	}
	err := d.idle()
	if err != nil {
		return rb, fmt.Errorf("select %s: %w", r, err)
	}
	switch r {
	case RegErrorStatus:
		err = d.enableErrorDetection()
		if err == nil {
			err = d.selectRegister(0, ErrorReportPulses)
		}
	case RegConfig:
		err = d.selectRegister(ConfigReadLeadPulses, ConfigReadPulses)
	}
	if err != nil {
		d.idle()
		return rb, fmt.Errorf("select %s: %w", r, err)
	}
	rb.Value, err = d.readRegister()
	if err != nil {
		d.idle()
		return rb, fmt.Errorf("read %s: %w", r, err)
	}
	d.log.Debug().Stringer("register", r).Uint16("value", rb.Value).Msg("readback")
	return rb, nil
}

// WriteConfig writes the configuration register.
//
// The mask is formed by OR-ing the configuration constants, e.g.
// PWM12Bit|PWMModeScramble. The current gain must be in the range 0-63 and is
// placed in bits 2-7.
func (d *MBI5030) WriteConfig(mask Config, gain uint8) error {
	if gain > MaxGain {
		return ErrInvalidGain
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	gm := uint16(gain) << gainShift
	v := uint16(mask) | gm
	d.log.Debug().
		Uint16("current-gain-mask", gm).
		Uint16("config-data", v).
		Msg("write config")
	if err := d.idle(); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := d.writeConfig(v); err != nil {
		d.idle()
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// writeWord clocks out a word MSB first, raising LE for the final lbits.
func (d *MBI5030) writeWord(w uint16, lbits int) error {
	for i := 15; i >= 0; i-- {
		if i == lbits-1 {
			if err := d.setLatch(1); err != nil {
				return err
			}
		}
		if err := d.clockOut(w >> uint(i) & 0x01); err != nil {
			return err
		}
	}
	return d.setLatch(0)
}

func (d *MBI5030) writeConfig(v uint16) error {
	for i := 15; i > 0; i-- {
		if i == 15-ConfigWriteLeadBits {
			if err := d.setLatch(1); err != nil {
				return err
			}
		}
		if err := d.clockOut(v >> uint(i) & 0x01); err != nil {
			return err
		}
	}
	// final bit is latched by the held clock
	if err := d.setData(v & 0x01); err != nil {
		return err
	}
	return d.holdClockReleaseLatch()
}

// enableErrorDetection starts open circuit detection and waits for the
// readings to settle.
func (d *MBI5030) enableErrorDetection() error {
	err := d.selectRegister(0, EnableErrorDetectionPulses)
	if err != nil {
		return err
	}
	time.Sleep(d.tset)
	return nil
}

// selectRegister issues lead pulses with LE low, then pulses with LE high
// followed by the held clock edge.
func (d *MBI5030) selectRegister(lead, pulses int) error {
	for i := 0; i < lead; i++ {
		if err := d.pulseClock(); err != nil {
			return err
		}
	}
	if err := d.setLatch(1); err != nil {
		return err
	}
	for i := 0; i < pulses; i++ {
		if err := d.pulseClock(); err != nil {
			return err
		}
	}
	return d.holdClockReleaseLatch()
}

// readRegister clocks in a 16-bit value from SDO, MSB first.
//
// The first bit is available on SDO immediately after the register select so
// there is no trailing clock after the final bit.
func (d *MBI5030) readRegister() (uint16, error) {
	var v uint16
	for i := 0; i < 16; i++ {
		if i != 0 {
			if err := d.pulseClock(); err != nil {
				return 0, err
			}
		}
		b, err := d.p.Sdo.Value()
		if err != nil {
			return 0, err
		}
		v = v << 1
		if b != 0 {
			v = v | 0x01
		}
	}
	return v, nil
}

// clockOut presents a data bit on SDI and clocks it into the chip.
func (d *MBI5030) clockOut(b uint16) error {
	if err := d.setData(b); err != nil {
		return err
	}
	return d.pulseClock()
}

func (d *MBI5030) setData(b uint16) error {
	return d.p.Sdi.SetValue(int(b & 0x01))
}

func (d *MBI5030) setLatch(v int) error {
	return d.p.Le.SetValue(v)
}

func (d *MBI5030) pulseClock() error {
	d.sleep()
	if err := d.p.Clk.SetValue(1); err != nil {
		return err
	}
	d.sleep()
	return d.p.Clk.SetValue(0)
}

// holdClockReleaseLatch raises the clock, drops LE while the clock is held
// high, then drops the clock.
func (d *MBI5030) holdClockReleaseLatch() error {
	d.sleep()
	if err := d.p.Clk.SetValue(1); err != nil {
		return err
	}
	d.sleep()
	if err := d.p.Le.SetValue(0); err != nil {
		return err
	}
	d.sleep()
	return d.p.Clk.SetValue(0)
}

// idle drives LE then CLK low, so a sequence aborted part way cannot leave
// LE high for the next.
//
// After a failure this is best effort and the error is ignored. Dropping LE
// executes whatever command the clock edges seen so far select.
func (d *MBI5030) idle() error {
	if err := d.p.Le.SetValue(0); err != nil {
		return err
	}
	return d.p.Clk.SetValue(0)
}

func (d *MBI5030) sleep() {
	if d.tclk > 0 {
		time.Sleep(d.tclk)
	}
}

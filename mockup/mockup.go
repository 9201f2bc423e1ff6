// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

// Package mockup provides a software model of an MBI5030 driven by the
// pins of the mbi5030 driver.
//
// This is intended for testing the mbi5030 driver, but could also be used for
// testing by users of their own code that drives the chip.
//
// The model decodes the same clock and latch edges as the chip: each rising
// clock edge shifts SDI into a 16-bit shift register, SDO presents the MSB of
// that register, and the falling edge of LE executes the command selected by
// the number of rising clock edges seen while LE was high.
package mockup

import (
	"errors"
	"sync"

	"github.com/warthog618/go-mbi5030"
)

// Commands, identified by the number of clock edges while LE is high.
const (
	cmdDataLatch   = 1
	cmdGlobalLatch = 3
	cmdReadConfig  = 5
	cmdEnableError = 6
	cmdReadError   = 9
	cmdWriteConfig = 11
)

// Edge is the state of the inputs captured on a rising clock edge.
type Edge struct {
	Latch int
	Data  int
}

// Chip represents a single mocked MBI5030.
type Chip struct {
	mu  sync.Mutex
	clk int
	le  int
	sdi int
	// shift register
	sr uint16
	// rising clock edges while LE high
	leEdges int
	buf     [mbi5030.Channels]uint16
	nbuf    int
	out     [mbi5030.Channels]uint16
	commits int
	config  mbi5030.Config
	thermal bool
	faults  uint16
	detect  bool
	edges   []Edge
	// clock edges before injected failure, or -1 if disabled.
	failAfter int
}

// ErrPermissionDenied indicates an attempt to drive the SDO line.
var ErrPermissionDenied = errors.New("permission denied")

// ErrInjected is the error returned by the clock once the failure set by
// FailAfter is triggered.
var ErrInjected = errors.New("injected failure")

// New creates a Chip in its power on state.
func New() *Chip {
	return &Chip{failAfter: -1}
}

// Pins returns the pins to connect to the driver.
func (c *Chip) Pins() mbi5030.Pins {
	return mbi5030.Pins{
		Clk: &pin{c, roleClk},
		Le:  &pin{c, roleLe},
		Sdi: &pin{c, roleSdi},
		Sdo: &pin{c, roleSdo},
	}
}

// Reset returns the chip to its power on state.
//
// Injected faults and failures are cleared.
func (c *Chip) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clk, c.le, c.sdi = 0, 0, 0
	c.sr = 0
	c.leEdges = 0
	c.buf = [mbi5030.Channels]uint16{}
	c.nbuf = 0
	c.out = [mbi5030.Channels]uint16{}
	c.commits = 0
	c.config = 0
	c.thermal = false
	c.faults = 0
	c.detect = false
	c.edges = nil
	c.failAfter = -1
}

// Outputs returns the grayscale values currently live on the outputs.
func (c *Chip) Outputs() [mbi5030.Channels]uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.out
}

// Commits returns the number of global-latches performed.
func (c *Chip) Commits() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.commits
}

// Buffered returns the number of words data-latched since the last
// global-latch.
//
// The buffer holds the fifteen most recently data-latched words, so the count
// saturates at fifteen.
func (c *Chip) Buffered() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nbuf
}

// Config returns the value of the configuration register, including the
// thermal error flag.
func (c *Chip) Config() mbi5030.Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readConfig()
}

// Edges returns the rising clock edges seen since the last ClearEdges.
func (c *Chip) Edges() []Edge {
	c.mu.Lock()
	defer c.mu.Unlock()
	ee := make([]Edge, len(c.edges))
	copy(ee, c.edges)
	return ee
}

// ClearEdges discards the recorded clock edges.
func (c *Chip) ClearEdges() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.edges = nil
}

// SetFaults sets the channels reported open circuit in the error status.
func (c *Chip) SetFaults(f uint16) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.faults = f
}

// SetThermalError sets the state of the thermal error flag.
func (c *Chip) SetThermalError(te bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.thermal = te
}

// FailAfter causes the clock line to fail once n further rising edges have
// been seen.
func (c *Chip) FailAfter(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failAfter = len(c.edges) + n
}

func (c *Chip) readConfig() mbi5030.Config {
	cfg := c.config
	if c.thermal {
		cfg |= mbi5030.ThermalError
	}
	return cfg
}

func (c *Chip) setClk(v int) error {
	v = level(v)
	if v == 1 && c.clk == 0 {
		if c.failAfter >= 0 && len(c.edges) >= c.failAfter {
			return ErrInjected
		}
		c.edges = append(c.edges, Edge{Latch: c.le, Data: c.sdi})
		c.sr = c.sr<<1 | uint16(c.sdi)
		if c.le == 1 {
			c.leEdges++
		}
	}
	c.clk = v
	return nil
}

func (c *Chip) setLe(v int) {
	v = level(v)
	switch {
	case v == 1 && c.le == 0:
		c.leEdges = 0
	case v == 0 && c.le == 1:
		c.execute(c.leEdges)
	}
	c.le = v
}

func (c *Chip) execute(cmd int) {
	switch cmd {
	case cmdDataLatch:
		// the most recent data-latched words are kept
		copy(c.buf[:mbi5030.Channels-2], c.buf[1:mbi5030.Channels-1])
		c.buf[mbi5030.Channels-2] = c.sr
		if c.nbuf < mbi5030.Channels-1 {
			c.nbuf++
		}
	case cmdGlobalLatch:
		c.buf[mbi5030.Channels-1] = c.sr
		c.out = c.buf
		c.commits++
		c.nbuf = 0
	case cmdReadConfig:
		c.sr = uint16(c.readConfig())
	case cmdEnableError:
		c.detect = true
	case cmdReadError:
		c.sr = 0
		if c.detect {
			c.sr = c.faults
		}
	case cmdWriteConfig:
		c.config = mbi5030.Config(c.sr).Writable()
	}
}

type role int

const (
	roleClk role = iota
	roleLe
	roleSdi
	roleSdo
)

type pin struct {
	c    *Chip
	role role
}

func (p *pin) SetValue(v int) error {
	c := p.c
	c.mu.Lock()
	defer c.mu.Unlock()
	switch p.role {
	case roleClk:
		return c.setClk(v)
	case roleLe:
		c.setLe(v)
	case roleSdi:
		c.sdi = level(v)
	default:
		return ErrPermissionDenied
	}
	return nil
}

func (p *pin) Value() (int, error) {
	c := p.c
	c.mu.Lock()
	defer c.mu.Unlock()
	switch p.role {
	case roleClk:
		return c.clk, nil
	case roleLe:
		return c.le, nil
	case roleSdi:
		return c.sdi, nil
	}
	return int(c.sr >> 15), nil
}

func level(v int) int {
	if v != 0 {
		return 1
	}
	return 0
}

// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package periph_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warthog618/go-mbi5030"
	"github.com/warthog618/go-mbi5030/periph"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

func TestNew(t *testing.T) {
	clk := &gpiotest.Pin{N: "CLK", Num: 1, L: gpio.High}
	le := &gpiotest.Pin{N: "LE", Num: 2, L: gpio.High}
	sdi := &gpiotest.Pin{N: "SDI", Num: 3, L: gpio.High}
	sdo := &gpiotest.Pin{N: "SDO", Num: 4}
	pp, err := periph.New(clk, le, sdi, sdo)
	require.Nil(t, err)
	assert.Equal(t, gpio.Low, clk.Read())
	assert.Equal(t, gpio.Low, le.Read())
	assert.Equal(t, gpio.Low, sdi.Read())
	assert.Equal(t, gpio.PullDown, sdo.P)

	err = pp.Sdi.SetValue(1)
	assert.Nil(t, err)
	assert.Equal(t, gpio.High, sdi.Read())
	v, err := pp.Sdi.Value()
	assert.Nil(t, err)
	assert.Equal(t, 1, v)
	err = pp.Sdi.SetValue(0)
	assert.Nil(t, err)
	v, err = pp.Sdi.Value()
	assert.Nil(t, err)
	assert.Equal(t, 0, v)

	sdo.L = gpio.High
	v, err = pp.Sdo.Value()
	assert.Nil(t, err)
	assert.Equal(t, 1, v)
}

func TestDriver(t *testing.T) {
	clk := &gpiotest.Pin{N: "CLK", Num: 1}
	le := &gpiotest.Pin{N: "LE", Num: 2}
	sdi := &gpiotest.Pin{N: "SDI", Num: 3}
	sdo := &gpiotest.Pin{N: "SDO", Num: 4}
	pp, err := periph.New(clk, le, sdi, sdo)
	require.Nil(t, err)
	d, err := mbi5030.NewFromPins(pp)
	require.Nil(t, err)

	err = d.Update([mbi5030.Channels]uint16{15: 0x0001})
	assert.Nil(t, err)
	assert.Equal(t, gpio.Low, clk.Read())
	assert.Equal(t, gpio.Low, le.Read())
	assert.Equal(t, gpio.High, sdi.Read())

	// SDO held high reads back as all ones
	sdo.L = gpio.High
	cfg, err := d.ReadConfig()
	assert.Nil(t, err)
	assert.Equal(t, mbi5030.Config(0xffff), cfg)
}

func TestByName(t *testing.T) {
	for i, n := range []string{"MBI_CLK", "MBI_LE", "MBI_SDI", "MBI_SDO"} {
		err := gpioreg.Register(&gpiotest.Pin{N: n, Num: 100 + i})
		require.Nil(t, err)
	}
	pp, err := periph.ByName("MBI_CLK", "MBI_LE", "MBI_SDI", "MBI_SDO")
	require.Nil(t, err)
	assert.Equal(t, "MBI_CLK", pp.Clk.(*periph.Pin).Name())
	assert.Equal(t, "MBI_SDO", pp.Sdo.(*periph.Pin).Name())

	_, err = periph.ByName("MBI_CLK", "MBI_LE", "MBI_NONE", "MBI_SDO")
	assert.True(t, errors.Is(err, periph.ErrNotFound))
}

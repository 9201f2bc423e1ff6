// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package main

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warthog618/go-gpiocdev/device/rpi"
	"github.com/warthog618/go-mbi5030"
)

func TestParseGrayscale(t *testing.T) {
	patterns := []struct {
		name   string
		args   []string
		fill   string
		gray12 bool
		gs     [mbi5030.Channels]uint16
		err    bool
	}{
		{"none", nil, "0", false, [mbi5030.Channels]uint16{}, false},
		{"fill", nil, "0xffff", false, [mbi5030.Channels]uint16{
			0xffff, 0xffff, 0xffff, 0xffff, 0xffff, 0xffff, 0xffff, 0xffff,
			0xffff, 0xffff, 0xffff, 0xffff, 0xffff, 0xffff, 0xffff, 0xffff}, false},
		{"bases", []string{"1", "0x10", "0o10", "0b11"}, "0", false,
			[mbi5030.Channels]uint16{1, 16, 8, 3}, false},
		{"ch7 ch8", []string{"0", "0", "0", "0", "0", "0", "0", "65535", "65535"}, "0", false,
			[mbi5030.Channels]uint16{7: 0xffff, 8: 0xffff}, false},
		{"gray12", []string{"4095", "1"}, "0", true,
			[mbi5030.Channels]uint16{0xfff0, 0x0010}, false},
		{"gray12 overflow", []string{"4096"}, "0", true, [mbi5030.Channels]uint16{}, true},
		{"overflow", []string{"65536"}, "0", false, [mbi5030.Channels]uint16{}, true},
		{"negative", []string{"-1"}, "0", false, [mbi5030.Channels]uint16{}, true},
		{"bad fill", nil, "x", false, [mbi5030.Channels]uint16{}, true},
		{"too many", make([]string, 17), "0", false, [mbi5030.Channels]uint16{}, true},
	}
	for _, p := range patterns {
		tf := func(t *testing.T) {
			gs, err := parseGrayscale(p.args, p.fill, p.gray12)
			if p.err {
				assert.NotNil(t, err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, p.gs, gs)
		}
		t.Run(p.name, tf)
	}
}

func TestParseLine(t *testing.T) {
	patterns := []struct {
		name   string
		offset int
		err    bool
	}{
		{"0", 0, false},
		{"42", 42, false},
		{"J8p29", rpi.J8p29, false},
		{"gpio17", rpi.GPIO17, false},
		{"J8p1", 0, true},
		{"sdo", 0, true},
		{"-1", 0, true},
	}
	for _, p := range patterns {
		o, err := parseLine(p.name)
		if p.err {
			assert.NotNil(t, err, p.name)
			continue
		}
		assert.Nil(t, err, p.name)
		assert.Equal(t, p.offset, o, p.name)
	}
	oo, err := parseLines("J8p31", "J8p33", "J8p29", "J8p35")
	assert.Nil(t, err)
	assert.Equal(t, []int{rpi.J8p31, rpi.J8p33, rpi.J8p29, rpi.J8p35}, oo)
	_, err = parseLines("J8p31", "bogus")
	assert.NotNil(t, err)
}

func TestFormatErrorReport(t *testing.T) {
	assert.Equal(t, "0x0000 open: none", formatErrorReport(0))
	assert.Equal(t, "0x0180 open: 7 8", formatErrorReport(0x0180))
}

func TestLoadConfig(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("clk", "", "")
	fs.Duration("tclk", 0, "")
	t.Setenv("MBI5030_CLK", "12")
	t.Setenv("MBI5030_LE", "22")

	err := fs.Parse([]string{"--clk", "J8p40", "--tclk", "2500ns"})
	require.Nil(t, err)
	c := loadConfig(fs)
	// flag over env
	assert.Equal(t, "J8p40", c.MustGet("clk").String())
	assert.Equal(t, 2500*time.Nanosecond, c.MustGet("tclk").Duration())
	// env over default
	assert.Equal(t, "22", c.MustGet("le").String())
	// default
	assert.Equal(t, "gpiochip0", c.MustGet("chip").String())
	assert.Equal(t, mbi5030.DefaultSettle, c.MustGet("settle").Duration())
	assert.Equal(t, "cdev", c.MustGet("backend").String())
}

func TestFlagGetter(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("config-file", "mbi5030.json", "")
	fs.Bool("verbose", false, "")
	g := flagGetter{fs}

	// defaults are not reported
	_, ok := g.Get("config.file")
	assert.False(t, ok)
	_, ok = g.Get("unknown")
	assert.False(t, ok)

	err := fs.Parse([]string{"--config-file", "other.json", "--verbose"})
	require.Nil(t, err)
	v, ok := g.Get("config.file")
	assert.True(t, ok)
	assert.Equal(t, "other.json", v)
	v, ok = g.Get("verbose")
	assert.True(t, ok)
	assert.Equal(t, "true", v)
}

func TestMockupBackend(t *testing.T) {
	rootCmd.SetArgs([]string{"--backend", "mockup", "--settle", "0s",
		"config", "set", "--gain", "31", "--pwm12", "--scramble", "--verify"})
	err := rootCmd.Execute()
	assert.Nil(t, err)

	rootCmd.SetArgs([]string{"--backend", "mockup", "update", "--fill", "0x8000", "1", "2"})
	err = rootCmd.Execute()
	assert.Nil(t, err)

	rootCmd.SetArgs([]string{"--backend", "bogus", "errors"})
	err = rootCmd.Execute()
	assert.NotNil(t, err)
}

// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warthog618/config"
	"github.com/warthog618/config/blob"
	"github.com/warthog618/config/blob/decoder/json"
	"github.com/warthog618/config/dict"
	"github.com/warthog618/config/env"
	"github.com/warthog618/config/pflag"
	"github.com/warthog618/go-gpiocdev"
	"github.com/warthog618/go-gpiocdev/device/rpi"
	"github.com/warthog618/go-mbi5030"
)

// Fade parameters for each PWM resolution.
const (
	stepsize12 = 16
	max12      = 4095
	delay12    = 2 * time.Millisecond

	stepsize16 = 128
	max16      = 65535
	delay16    = time.Millisecond
)

// This example fades all channels of an MBI5030 connected to the RPI by four
// data lines - CLK, LE, SDI and SDO - up and down until interrupted. The
// default pin assignments are defined in loadConfig, but can be altered via
// configuration (env, flag or config file).
// All pins other than SDO are outputs so do not run this example on a board
// where those pins serve other purposes.
func main() {
	cfg := loadConfig()
	c, err := gpiocdev.NewChip(cfg.MustGet("gpiochip").String(), gpiocdev.WithConsumer("mbi5030-fade"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "fade: %s\n", err)
		os.Exit(1)
	}
	d, err := mbi5030.New(
		c,
		cfg.MustGet("clk").Int(),
		cfg.MustGet("le").Int(),
		cfg.MustGet("sdi").Int(),
		cfg.MustGet("sdo").Int(),
		mbi5030.WithTclk(cfg.MustGet("tclk").Duration()))
	c.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fade: %s\n", err)
		os.Exit(1)
	}
	defer d.Close()

	pwm12 := cfg.MustGet("pwm12").Bool()
	mask := mbi5030.PWM16Bit
	step, top, delay := stepsize16, max16, delay16
	if pwm12 {
		mask = mbi5030.PWM12Bit
		step, top, delay = stepsize12, max12, delay12
	}
	err = d.WriteConfig(mask, uint8(cfg.MustGet("gain").Uint()))
	if err != nil {
		fmt.Fprintf(os.Stderr, "fade: %s\n", err)
		os.Exit(1)
	}

	sigdone := make(chan os.Signal, 1)
	signal.Notify(sigdone, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigdone)
	fmt.Println("fading - interrupt to exit...")
	v, dir := 0, step
	for {
		select {
		case <-sigdone:
			d.Update([mbi5030.Channels]uint16{})
			return
		case <-time.After(delay):
		}
		var gs [mbi5030.Channels]uint16
		for ch := range gs {
			if pwm12 {
				gs[ch] = mbi5030.Gray12(uint16(v))
			} else {
				gs[ch] = uint16(v)
			}
		}
		if err := d.Update(gs); err != nil {
			fmt.Printf("update error: %s\n", err)
			return
		}
		v += dir
		if v > top {
			v, dir = top, -step
		} else if v < 0 {
			v, dir = 0, step
		}
	}
}

func loadConfig() *config.Config {
	defaultConfig := map[string]interface{}{
		"gpiochip": "gpiochip0",
		"tclk":     "0s",
		"pwm12":    false,
		"gain":     0x3f,
		"sdi":      rpi.J8p29,
		"clk":      rpi.J8p31,
		"le":       rpi.J8p33,
		"sdo":      rpi.J8p35,
	}
	def := dict.New(dict.WithMap(defaultConfig))
	flags := []pflag.Flag{
		{Short: 'c', Name: "config-file"},
		{Short: 't', Name: "pwm12", Options: pflag.IsBool},
	}
	cfg := config.New(
		pflag.New(pflag.WithFlags(flags)),
		config.WithDefault(def))
	cfg.Append(env.New(env.WithEnvPrefix("FADE_")))
	cfg.Append(
		blob.NewConfigFile(cfg, "config.file", "fade.json", json.NewDecoder()))
	cfg = cfg.GetConfig("", config.WithMust())
	return cfg
}

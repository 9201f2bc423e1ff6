// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/warthog618/config"
	"github.com/warthog618/config/blob"
	"github.com/warthog618/config/blob/decoder/json"
	"github.com/warthog618/config/dict"
	"github.com/warthog618/config/env"
	"github.com/warthog618/go-gpiocdev"
	"github.com/warthog618/go-gpiocdev/device/rpi"
	"github.com/warthog618/go-mbi5030"
	"github.com/warthog618/go-mbi5030/mockup"
	"github.com/warthog618/go-mbi5030/periph"
	"periph.io/x/host/v3"
)

var defaultConfig = map[string]interface{}{
	"backend":     "cdev",
	"chip":        "gpiochip0",
	"config.file": "mbi5030.json",
	"tclk":        "0s",
	"settle":      mbi5030.DefaultSettle.String(),
	"verbose":     false,
	"sdi":         strconv.Itoa(rpi.J8p29),
	"clk":         strconv.Itoa(rpi.J8p31),
	"le":          strconv.Itoa(rpi.J8p33),
	"sdo":         strconv.Itoa(rpi.J8p35),
}

func loadConfig(fs *pflag.FlagSet) *config.Config {
	def := dict.New(dict.WithMap(defaultConfig))
	c := config.New(flagGetter{fs}, config.WithDefault(def))
	c.Append(env.New(env.WithEnvPrefix("MBI5030_")))
	c.Append(
		blob.NewConfigFile(c, "config.file", "mbi5030.json", json.NewDecoder()))
	return c
}

// flagGetter provides the flags explicitly set on the command line.
//
// Flag names map to keys by replacing '-' with '.'.
type flagGetter struct {
	fs *pflag.FlagSet
}

func (g flagGetter) Get(key string) (interface{}, bool) {
	f := g.fs.Lookup(strings.Replace(key, ".", "-", -1))
	if f == nil || !f.Changed {
		return nil, false
	}
	return f.Value.String(), true
}

// device is an open driver and whatever it is connected to.
type device struct {
	*mbi5030.MBI5030
	// set for the mockup backend
	mock *mockup.Chip
}

func openDevice(cfg *config.Config) (*device, error) {
	options := []mbi5030.Option{
		mbi5030.WithTclk(cfg.MustGet("tclk").Duration()),
		mbi5030.WithSettle(cfg.MustGet("settle").Duration()),
		mbi5030.WithLogger(log),
	}
	clk := cfg.MustGet("clk").String()
	le := cfg.MustGet("le").String()
	sdi := cfg.MustGet("sdi").String()
	sdo := cfg.MustGet("sdo").String()
	backend := cfg.MustGet("backend").String()
	log.Debug().
		Str("backend", backend).
		Str("clk", clk).
		Str("le", le).
		Str("sdi", sdi).
		Str("sdo", sdo).
		Msg("open")
	switch backend {
	case "cdev":
		oo, err := parseLines(clk, le, sdi, sdo)
		if err != nil {
			return nil, err
		}
		c, err := gpiocdev.NewChip(cfg.MustGet("chip").String(), gpiocdev.WithConsumer("mbi5030"))
		if err != nil {
			return nil, err
		}
		d, err := mbi5030.New(c, oo[0], oo[1], oo[2], oo[3], options...)
		c.Close()
		if err != nil {
			return nil, fmt.Errorf("error requesting GPIO lines: %w", err)
		}
		return &device{MBI5030: d}, nil
	case "periph":
		if _, err := host.Init(); err != nil {
			return nil, err
		}
		pp, err := periph.ByName(clk, le, sdi, sdo)
		if err != nil {
			return nil, err
		}
		d, err := mbi5030.NewFromPins(pp, options...)
		if err != nil {
			return nil, err
		}
		return &device{MBI5030: d}, nil
	case "mockup":
		m := mockup.New()
		d, err := mbi5030.NewFromPins(m.Pins(), options...)
		if err != nil {
			return nil, err
		}
		return &device{MBI5030: d, mock: m}, nil
	}
	return nil, fmt.Errorf("unknown backend '%s'", backend)
}

// Close closes the driver, reporting the state of the mockup if used.
func (d *device) Close() error {
	if d.mock != nil {
		log.Info().
			Int("edges", len(d.mock.Edges())).
			Int("commits", d.mock.Commits()).
			Str("config", d.mock.Config().String()).
			Msg("mockup")
	}
	return d.MBI5030.Close()
}

// parseLines converts line names to offsets.
func parseLines(names ...string) ([]int, error) {
	oo := []int(nil)
	for _, n := range names {
		o, err := parseLine(n)
		if err != nil {
			return nil, err
		}
		oo = append(oo, o)
	}
	return oo, nil
}

func parseLine(name string) (int, error) {
	if o, err := strconv.ParseUint(name, 10, 32); err == nil {
		return int(o), nil
	}
	o, err := rpi.Pin(name)
	if err != nil {
		return 0, fmt.Errorf("can't parse line '%s'", name)
	}
	return o, nil
}

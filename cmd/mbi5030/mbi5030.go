// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

// A utility to control an MBI5030 LED driver connected to GPIO lines.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/warthog618/config"
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringP("config-file", "c", "mbi5030.json", "read configuration from this JSON file")
	pf.StringP("backend", "B", "cdev", "the GPIO backend - cdev, periph or mockup")
	pf.String("chip", "gpiochip0", "the GPIO chip (cdev backend only)")
	pf.String("clk", "", "the CLK line")
	pf.String("le", "", "the LE line")
	pf.String("sdi", "", "the SDI line (driven by this utility)")
	pf.String("sdo", "", "the SDO line (read by this utility)")
	pf.Duration("tclk", 0, "the clock half-cycle period")
	pf.Duration("settle", 0, "the error detection settling time")
	pf.BoolP("verbose", "v", false, "log protocol activity")
	rootCmd.SetHelpTemplate(rootCmd.HelpTemplate() + extendedRootHelp)
}

var extendedRootHelp = `
Lines:
  Lines may be specified by offset, or for the cdev backend by Raspberry Pi
  pin name, such as J8p29 or GPIO5. For the periph backend any name known to
  periph.io may be used.

Configuration:
  Each flag may also be set in the environment, e.g. MBI5030_CLK, or in the
  config file. Flags take precedence over the environment, which takes
  precedence over the config file.
`

var (
	rootCmd = &cobra.Command{
		Use:               "mbi5030",
		Short:             "mbi5030 is a utility to control an MBI5030 LED driver",
		Long:              "mbi5030 is a utility to control an MBI5030 LED driver connected to GPIO lines",
		PersistentPreRunE: prerun,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cfg *config.Config
	log = zerolog.Nop()
)

func prerun(cmd *cobra.Command, args []string) error {
	cfg = loadConfig(cmd.Flags())
	lvl := zerolog.InfoLevel
	if cfg.MustGet("verbose").Bool() {
		lvl = zerolog.DebugLevel
	}
	log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(lvl).
		With().Timestamp().Str("cmd", cmd.Name()).Logger()
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "mbi5030: %s\n", err)
		os.Exit(1)
	}
}

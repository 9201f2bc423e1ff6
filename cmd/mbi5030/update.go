// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/warthog618/go-mbi5030"
)

func init() {
	updateCmd.Flags().StringVarP(&updateOpts.Fill, "fill", "f", "0", "the value for channels not specified")
	updateCmd.Flags().BoolVar(&updateOpts.Gray12, "gray12", false, "values are 12-bit (0-4095)")
	updateCmd.SetHelpTemplate(updateCmd.HelpTemplate() + extendedUpdateHelp)
	rootCmd.AddCommand(updateCmd)
}

var extendedUpdateHelp = `
Values:
  Values are for channels 0 upwards, so the first value is for channel 0.
  Values may be decimal, or hex (0x), octal (0o) or binary (0b) prefixed.
  Values are 16-bit (0-65535) unless --gray12 is set.
`

var (
	updateCmd = &cobra.Command{
		Use:                   "update [flags] [<value0> ... <value15>]",
		Short:                 "Set the grayscale values of the outputs",
		Long:                  `Write grayscale values for all channels and latch them to the outputs.`,
		Args:                  cobra.MaximumNArgs(mbi5030.Channels),
		RunE:                  update,
		DisableFlagsInUseLine: true,
	}
	updateOpts = struct {
		Fill   string
		Gray12 bool
	}{}
)

func update(cmd *cobra.Command, args []string) error {
	gs, err := parseGrayscale(args, updateOpts.Fill, updateOpts.Gray12)
	if err != nil {
		return err
	}
	d, err := openDevice(cfg)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Update(gs)
}

func parseGrayscale(args []string, fill string, gray12 bool) ([mbi5030.Channels]uint16, error) {
	var gs [mbi5030.Channels]uint16
	if len(args) > mbi5030.Channels {
		return gs, fmt.Errorf("too many values - %d channels", mbi5030.Channels)
	}
	fv, err := parseValue(fill, gray12)
	if err != nil {
		return gs, err
	}
	for ch := range gs {
		gs[ch] = fv
	}
	for ch, arg := range args {
		v, err := parseValue(arg, gray12)
		if err != nil {
			return gs, err
		}
		gs[ch] = v
	}
	return gs, nil
}

func parseValue(arg string, gray12 bool) (uint16, error) {
	bits := 16
	if gray12 {
		bits = 12
	}
	v, err := strconv.ParseUint(arg, 0, bits)
	if err != nil {
		return 0, fmt.Errorf("can't parse value '%s'", arg)
	}
	if gray12 {
		return mbi5030.Gray12(uint16(v)), nil
	}
	return uint16(v), nil
}

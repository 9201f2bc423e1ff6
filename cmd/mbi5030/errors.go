// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/warthog618/go-mbi5030"
)

func init() {
	rootCmd.AddCommand(errorsCmd)
}

var errorsCmd = &cobra.Command{
	Use:   "errors",
	Short: "Read the output error status",
	Long:  `Enable open circuit detection and report the channels found to be open circuit.`,
	Args:  cobra.NoArgs,
	RunE:  readErrors,
}

func readErrors(cmd *cobra.Command, args []string) error {
	d, err := openDevice(cfg)
	if err != nil {
		return err
	}
	defer d.Close()
	er, err := d.ReadErrorReport()
	if err != nil {
		return err
	}
	fmt.Println(formatErrorReport(er))
	return nil
}

func formatErrorReport(er mbi5030.ErrorReport) string {
	cc := er.Channels()
	if len(cc) == 0 {
		return fmt.Sprintf("0x%04x open: none", uint16(er))
	}
	s := fmt.Sprintf("0x%04x open:", uint16(er))
	for _, ch := range cc {
		s += fmt.Sprintf(" %d", ch)
	}
	return s
}

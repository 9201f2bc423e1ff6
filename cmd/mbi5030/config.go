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
	f := configSetCmd.Flags()
	f.Uint8VarP(&configOpts.Gain, "gain", "g", 0, "the current gain (0-63)")
	f.BoolVar(&configOpts.PWM12, "pwm12", false, "use 12-bit PWM")
	f.BoolVar(&configOpts.Scramble, "scramble", false, "use scrambled PWM")
	f.BoolVar(&configOpts.SyncManual, "sync-manual", false, "use manual data sync")
	f.BoolVar(&configOpts.ThermalProtection, "thermal-protection", false, "enable the thermal current limit")
	f.BoolVar(&configOpts.NoMissingClockShutdown, "no-missing-clock-shutdown", false, "disable shutdown on missing GCLK")
	f.BoolVar(&configOpts.Verify, "verify", false, "read back the configuration after writing")
	configSetCmd.MarkFlagRequired("gain")
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

var (
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Read or write the configuration register",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}
	configGetCmd = &cobra.Command{
		Use:   "get",
		Short: "Read the configuration register",
		Args:  cobra.NoArgs,
		RunE:  configGet,
	}
	configSetCmd = &cobra.Command{
		Use:   "set --gain <gain> [flags]",
		Short: "Write the configuration register",
		Long: `Write the configuration register.
Fields not set by flags are written with their default values.`,
		Args: cobra.NoArgs,
		RunE: configSet,
	}
	configOpts = struct {
		Gain                   uint8
		PWM12                  bool
		Scramble               bool
		SyncManual             bool
		ThermalProtection      bool
		NoMissingClockShutdown bool
		Verify                 bool
	}{}
)

func configGet(cmd *cobra.Command, args []string) error {
	d, err := openDevice(cfg)
	if err != nil {
		return err
	}
	defer d.Close()
	c, err := d.ReadConfig()
	if err != nil {
		return err
	}
	fmt.Printf("0x%04x %s\n", uint16(c), c)
	return nil
}

func configSet(cmd *cobra.Command, args []string) error {
	if configOpts.Gain > mbi5030.MaxGain {
		return fmt.Errorf("gain (%d) must be in the range 0-%d", configOpts.Gain, mbi5030.MaxGain)
	}
	mask := makeConfigMask()
	d, err := openDevice(cfg)
	if err != nil {
		return err
	}
	defer d.Close()
	err = d.WriteConfig(mask, configOpts.Gain)
	if err != nil {
		return err
	}
	if !configOpts.Verify {
		return nil
	}
	c, err := d.ReadConfig()
	if err != nil {
		return err
	}
	want := mask | mbi5030.Config(configOpts.Gain)<<2
	if c.Writable() != want {
		return fmt.Errorf("verify failed: wrote 0x%04x, read 0x%04x", uint16(want), uint16(c))
	}
	log.Info().Str("config", c.String()).Msg("verified")
	return nil
}

func makeConfigMask() mbi5030.Config {
	mask := mbi5030.PWM16Bit | mbi5030.PWMModeNormal | mbi5030.DataSyncAuto |
		mbi5030.ThermalProtectionOff | mbi5030.MissingClockShutdownOn
	if configOpts.PWM12 {
		mask |= mbi5030.PWM12Bit
	}
	if configOpts.Scramble {
		mask |= mbi5030.PWMModeScramble
	}
	if configOpts.SyncManual {
		mask |= mbi5030.DataSyncManual
	}
	if configOpts.ThermalProtection {
		mask |= mbi5030.ThermalProtectionOn
	}
	if configOpts.NoMissingClockShutdown {
		mask |= mbi5030.MissingClockShutdownOff
	}
	return mask
}

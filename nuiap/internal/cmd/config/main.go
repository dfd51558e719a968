// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/OpenNuvoton/NUC029FAE-BSP/fmc"
	"github.com/OpenNuvoton/NUC029FAE-BSP/iap"
	"github.com/OpenNuvoton/NUC029FAE-BSP/nuiap/internal/util"
	"github.com/OpenNuvoton/NUC029FAE-BSP/sim"
)

const Descr = "show or change the boot selection stored in a flash file"

func Main(cmd string, args []string) {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage:\n  %s [OPTIONS] FLASH.hex\nOptions:\n", cmd)
		fs.PrintDefaults()
	}
	devFile := fs.String(
		"device", "",
		"TOML `file` describing the flash layout (default NUC029FAE)",
	)
	boot := fs.String("boot", "", "select the boot `region`: aprom or ldrom")
	verbose := fs.Int("v", 0, "log verbosity `level`")
	fs.Parse(args)
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(1)
	}
	util.SetLogLevel(*verbose)
	cfg, err := setBoot(util.Device(*devFile), fs.Arg(0), *boot)
	util.FatalErr(fs.Arg(0), err)
	fmt.Printf("config0: 0x%08x\n", cfg[0])
	fmt.Printf("config1: 0x%08x\n", cfg[1])
	fmt.Printf("boot:    %v\n", fmc.BootSelectOf(cfg[0]))
}

func parseBoot(s string) (fmc.BootSelect, error) {
	switch strings.ToLower(s) {
	case "aprom":
		return fmc.BootAPROM, nil
	case "ldrom":
		return fmc.BootLDROM, nil
	}
	return 0, fmt.Errorf("bad boot region: %s", s)
}

// setBoot reads the flash file name and returns its configuration words. If
// boot is not empty the boot selection is changed to it and the file is
// rewritten if the configuration changed.
func setBoot(dev fmc.Device, name, boot string) (cfg [fmc.ConfigWords]uint32, err error) {
	m := sim.NewMachine(dev, nil, nil)
	if err = util.ReadFlash(m.Flash, name); err != nil {
		return cfg, err
	}

	c := iap.New(m.Dev, m.Flash, m.Core)
	if err = c.Open(); err != nil {
		return cfg, err
	}
	defer c.Close()
	if boot != "" {
		sel, err := parseBoot(boot)
		if err != nil {
			return cfg, err
		}
		changed, err := c.SetLoadOnBoot(sel, false)
		if err != nil {
			return cfg, err
		}
		if changed {
			if err = util.WriteFlash(m.Flash, name); err != nil {
				return cfg, err
			}
		}
	}
	return c.BootConfig()
}

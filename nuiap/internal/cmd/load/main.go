// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package load

import (
	"errors"
	"flag"
	"fmt"
	iofs "io/fs"
	"os"

	"github.com/golang/glog"

	"github.com/OpenNuvoton/NUC029FAE-BSP/firmware"
	"github.com/OpenNuvoton/NUC029FAE-BSP/fmc"
	"github.com/OpenNuvoton/NUC029FAE-BSP/iap"
	"github.com/OpenNuvoton/NUC029FAE-BSP/nuiap/internal/util"
	"github.com/OpenNuvoton/NUC029FAE-BSP/sim"
)

const Descr = "program a firmware image into APROM or LDROM of a flash file"

func Main(cmd string, args []string) {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage:\n  %s [OPTIONS] IMAGE FLASH.hex\nOptions:\n", cmd)
		fs.PrintDefaults()
	}
	devFile := fs.String(
		"device", "",
		"TOML `file` describing the flash layout (default NUC029FAE)",
	)
	base := fs.String(
		"base", "0x100000",
		"load `address` of a binary image",
	)
	quiet := fs.Bool("q", false, "do not print the progress")
	verbose := fs.Int("v", 0, "log verbosity `level`")
	fs.Parse(args)
	if fs.NArg() != 2 {
		fs.Usage()
		os.Exit(1)
	}
	util.SetLogLevel(*verbose)

	dev := util.Device(*devFile)
	addr, err := util.ParseAddr(*base)
	util.FatalErr("base", err)
	img, err := firmware.Load(fs.Arg(0), addr)
	util.FatalErr("", err)
	progress := util.LoadProgress
	if *quiet {
		progress = nil
	}
	err = program(dev, fs.Arg(1), img, progress)
	glog.Flush()
	util.FatalErr("load", err)
}

// program writes img to the region of the flash file name it is linked for.
// A missing flash file is created.
func program(dev fmc.Device, name string, img *firmware.Image, progress func(iap.Progress)) error {
	bs, ok := dev.Select(img.Base)
	if !ok {
		return fmt.Errorf("image base 0x%08x outside APROM and LDROM", img.Base)
	}
	r := dev.Region(bs)
	if img.Base != r.Base {
		return fmt.Errorf("image base 0x%08x is not the %s base", img.Base, r.Name)
	}

	m := sim.NewMachine(dev, nil, nil)
	err := util.ReadFlash(m.Flash, name)
	if errors.Is(err, iofs.ErrNotExist) {
		util.Warn("%s does not exist, starting with erased flash", name)
	} else if err != nil {
		return err
	}

	m.Core.UnlockReg()
	if err := m.Flash.Open(); err != nil {
		return err
	}
	u := fmc.UpdateAPROM
	if bs == fmc.BootLDROM {
		u = fmc.UpdateLDROM
	}
	m.Flash.EnableUpdate(u)
	err = iap.NewLoader(m.Flash, iap.WithProgress(progress)).Load(img, r)
	m.Flash.DisableUpdate(u)
	m.Flash.Close()
	m.Core.LockReg()
	if err != nil {
		return err
	}
	return util.WriteFlash(m.Flash, name)
}

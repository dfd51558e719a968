// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package run

import (
	"errors"
	"flag"
	"fmt"
	"io"
	iofs "io/fs"
	"os"

	"github.com/golang/glog"

	"github.com/OpenNuvoton/NUC029FAE-BSP/console"
	"github.com/OpenNuvoton/NUC029FAE-BSP/firmware"
	"github.com/OpenNuvoton/NUC029FAE-BSP/nuiap/internal/demo"
	"github.com/OpenNuvoton/NUC029FAE-BSP/nuiap/internal/util"
	"github.com/OpenNuvoton/NUC029FAE-BSP/sim"
)

const Descr = "run the FMC IAP sample on the simulated chip"

func Main(cmd string, args []string) {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage:\n  %s [OPTIONS]\nOptions:\n", cmd)
		fs.PrintDefaults()
	}
	devFile := fs.String(
		"device", "",
		"TOML `file` describing the flash layout (default NUC029FAE)",
	)
	flashFile := fs.String(
		"flash", "",
		"Intel HEX `file` with the flash content, read at start, written at exit",
	)
	imageFile := fs.String(
		"image", "",
		"firmware `file` (ELF, HEX or binary) loaded to LDROM instead of the built-in loader",
	)
	check := fs.Bool("check", false, "check the vectors of the target image before branching")
	verbose := fs.Int("v", 0, "log verbosity `level`")
	fs.Parse(args)
	if fs.NArg() != 0 {
		fs.Usage()
		os.Exit(1)
	}
	util.SetLogLevel(*verbose)

	dev := util.Device(*devFile)
	cfg := demo.Config{Check: *check}
	if *imageFile != "" {
		img, err := firmware.Load(*imageFile, dev.LDROM.Base)
		util.FatalErr("image", err)
		cfg.Image = img
	}

	restore, err := console.MakeRaw(os.Stdin)
	util.FatalErr("console", err)
	var out io.Writer = os.Stdout
	if console.IsTerminal(os.Stdin) {
		out = console.NewCRLFWriter(out)
	}
	m := demo.NewMachine(dev, os.Stdin, out, cfg)
	if *flashFile != "" {
		err := loadFlash(m.Flash, *flashFile)
		if err != nil {
			restore()
			util.FatalErr("flash", err)
		}
	}
	err = demo.Run(m)
	restore()
	fmt.Println()
	if *flashFile != "" {
		serr := util.WriteFlash(m.Flash, *flashFile)
		if serr != nil {
			glog.Flush()
			util.FatalErr("flash", serr)
		}
	}
	glog.Flush()
	util.FatalErr("run", err)
}

// loadFlash reads the flash file name. A missing file leaves flash erased.
func loadFlash(f *sim.Flash, name string) error {
	err := util.ReadFlash(f, name)
	if errors.Is(err, iofs.ErrNotExist) {
		util.Warn("%s does not exist, starting with erased flash", name)
		return nil
	}
	return err
}

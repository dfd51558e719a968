// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package info

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/OpenNuvoton/NUC029FAE-BSP/firmware"
	"github.com/OpenNuvoton/NUC029FAE-BSP/fmc"
	"github.com/OpenNuvoton/NUC029FAE-BSP/iap"
	"github.com/OpenNuvoton/NUC029FAE-BSP/nuiap/internal/util"
)

const Descr = "print the vectors of a firmware image and check them"

func Main(cmd string, args []string) {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage:\n  %s [OPTIONS] IMAGE\nOptions:\n", cmd)
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
	fs.Parse(args)
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(1)
	}
	dev := util.Device(*devFile)
	addr, err := util.ParseAddr(*base)
	util.FatalErr("base", err)
	img, err := firmware.Load(fs.Arg(0), addr)
	util.FatalErr("", err)

	util.Printf("base:  0x%08x\n", img.Base)
	util.Printf("size:  %d bytes (%#x)\n", img.Size(), img.Size())
	sp, entry, err := img.Vectors()
	util.FatalErr("vectors", err)
	util.Printf("sp:    0x%08x\n", sp)
	util.Printf("entry: 0x%08x\n", entry)

	r, err := check(dev, img)
	if r.Size != 0 {
		fmt.Printf("region: %v\n", r)
	}
	util.FatalErr("check", err)
	fmt.Println("check: ok")
}

// check returns the region img is linked for and an error if img does not fit
// in it or its vectors do not point into it.
func check(dev fmc.Device, img *firmware.Image) (fmc.Region, error) {
	bs, ok := dev.Select(img.Base)
	if !ok {
		return fmc.Region{}, fmt.Errorf("image base 0x%08x outside APROM and LDROM", img.Base)
	}
	r := dev.Region(bs)
	if img.Size() > r.Size {
		return r, fmt.Errorf("image does not fit in %s", r.Name)
	}
	sp, entry, err := img.Vectors()
	if err != nil {
		return r, err
	}
	if reason := iap.CheckVectors(dev)(r, sp, entry); reason != "" {
		return r, errors.New(reason)
	}
	return r, nil
}

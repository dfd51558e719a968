// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bin

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/OpenNuvoton/NUC029FAE-BSP/firmware"
	"github.com/OpenNuvoton/NUC029FAE-BSP/nuiap/internal/util"
)

const Descr = "convert an ELF or Intel HEX file to a binary image"

func Main(cmd string, args []string) {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(
			os.Stderr,
			"Usage:\n  %s [OPTIONS] [ELF|HEX [%s]]\nOptions:\n",
			cmd, strings.ToUpper(cmd),
		)
		fs.PrintDefaults()
	}
	inc := fs.String(
		"inc", "",
		"binary files to be included BIN1:ADDR1[,BIN2:ADDR2[,...]]",
	)
	pad := fs.Uint(
		"pad", 0xff,
		"pad `byte` used to fill gaps between sections",
	)
	fs.Parse(args)
	if fs.NArg() > 2 {
		fs.Usage()
		os.Exit(1)
	}
	in, out := util.InOutFiles(fs.Arg(0), ".elf", fs.Arg(1), ".bin")
	util.FatalErr("", convert(in, out, *inc, byte(*pad)))
}

// convert flattens the ELF or Intel HEX file in and the binaries described by
// inc into the binary file out.
func convert(in, out, inc string, pad byte) error {
	var sections firmware.Sections
	if strings.EqualFold(filepath.Ext(in), ".hex") {
		img, err := firmware.Load(in, 0)
		if err != nil {
			return err
		}
		sections = firmware.Sections{{Paddr: uint64(img.Base), Data: img.Data}}
	} else {
		var err error
		if sections, err = firmware.ReadELF(in); err != nil {
			return err
		}
	}
	if inc != "" {
		isec, err := firmware.ReadBins(inc)
		if err != nil {
			return err
		}
		sections = append(sections, isec...)
	}
	if len(sections) == 0 {
		return fmt.Errorf("%s: nothing to convert", in)
	}
	of, err := os.Create(out)
	if err != nil {
		return err
	}
	_, err = sections.Flatten(of, pad)
	if cerr := of.Close(); err == nil {
		err = cerr
	}
	return err
}

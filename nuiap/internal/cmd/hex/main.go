// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hex

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/OpenNuvoton/NUC029FAE-BSP/firmware"
	"github.com/OpenNuvoton/NUC029FAE-BSP/nuiap/internal/util"
)

const Descr = "convert an ELF or binary file to the Intel HEX format"

func Main(cmd string, args []string) {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(
			os.Stderr,
			"Usage:\n  %s [OPTIONS] [ELF|BIN [%s]]\nOptions:\n",
			cmd, strings.ToUpper(cmd),
		)
		fs.PrintDefaults()
	}
	base := fs.String(
		"base", "0x100000",
		"load `address` of a binary input file",
	)
	fs.Parse(args)
	if fs.NArg() > 2 {
		fs.Usage()
		os.Exit(1)
	}
	in, out := util.InOutFiles(fs.Arg(0), ".elf", fs.Arg(1), ".hex")
	if strings.EqualFold(filepath.Ext(in), ".hex") {
		util.Fatal("%s: input is already in the Intel HEX format", in)
	}
	addr, err := util.ParseAddr(*base)
	util.FatalErr("base", err)
	util.FatalErr("", convert(in, out, addr))
}

// convert writes the ELF or binary file in as the Intel HEX file out. A binary
// file is placed at base.
func convert(in, out string, base uint32) error {
	img, err := firmware.Load(in, base)
	if err != nil {
		return err
	}
	of, err := os.Create(out)
	if err != nil {
		return err
	}
	err = img.WriteHex(of)
	if cerr := of.Close(); err == nil {
		err = cerr
	}
	return err
}

// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"maps"
	"os"
	"slices"

	"github.com/OpenNuvoton/NUC029FAE-BSP/nuiap/internal/cmd/bin"
	"github.com/OpenNuvoton/NUC029FAE-BSP/nuiap/internal/cmd/config"
	"github.com/OpenNuvoton/NUC029FAE-BSP/nuiap/internal/cmd/hex"
	"github.com/OpenNuvoton/NUC029FAE-BSP/nuiap/internal/cmd/info"
	"github.com/OpenNuvoton/NUC029FAE-BSP/nuiap/internal/cmd/load"
	"github.com/OpenNuvoton/NUC029FAE-BSP/nuiap/internal/cmd/run"
)

type tool struct {
	descr string
	main  func(cmd string, args []string)
}

var tools = map[string]tool{
	"bin":    {bin.Descr, bin.Main},
	"config": {config.Descr, config.Main},
	"hex":    {hex.Descr, hex.Main},
	"info":   {info.Descr, info.Main},
	"load":   {load.Descr, load.Main},
	"run":    {run.Descr, run.Main},
}

func printToolList() {
	names := slices.Sorted(maps.Keys(tools))
	maxLen := 0
	for _, k := range names {
		if maxLen < len(k) {
			maxLen = len(k)
		}
	}
	uw := os.Stderr
	uw.WriteString("Usage:\n  nuiap COMMAND [ARGUMENTS]\n\n")
	uw.WriteString("Available commands:\n")
	for _, name := range names {
		fmt.Fprintf(uw, "  %*s  %s\n", maxLen, name, tools[name].descr)
	}
}

func main() {
	if len(os.Args) < 2 || os.Args[1] == "-h" {
		printToolList()
		return
	}
	tool, ok := tools[os.Args[1]]
	if !ok {
		printToolList()
		os.Exit(1)
	}
	tool.main(os.Args[1], os.Args[2:])
}

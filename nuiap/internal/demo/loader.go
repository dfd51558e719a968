// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package demo

import (
	"fmt"
	"io"

	"github.com/OpenNuvoton/NUC029FAE-BSP/console"
	"github.com/OpenNuvoton/NUC029FAE-BSP/iap"
	"github.com/OpenNuvoton/NUC029FAE-BSP/sim"
)

// Loader returns the program of the built-in LDROM image. It waits for a key
// and branches back to APROM.
func Loader(cfg Config) sim.Program {
	return func(m *sim.Machine) error {
		m.Core.EnableInterrupts()
		w := m.UART
		fmt.Fprintf(w, "\n\n%s FMC IAP Sample Code [LDROM code]\n", m.Dev.Name)

		c := iap.New(m.Dev, m.Flash, m.Core, options(m, cfg)...)
		if err := c.Open(); err != nil {
			return err
		}
		io.WriteString(w, "\n\nPress any key to branch to APROM...\n")
		b, err := m.UART.ReadByte()
		if err != nil {
			return err
		}
		if b == 0x03 || b == 0x04 {
			return console.ErrQuit
		}
		io.WriteString(w, "\n\nChange VECMAP and branch to APROM...\n")
		return c.ReturnToPrimary()
	}
}

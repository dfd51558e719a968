// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package demo

import (
	"errors"
	"fmt"
	"io"

	"github.com/OpenNuvoton/NUC029FAE-BSP/console"
	"github.com/OpenNuvoton/NUC029FAE-BSP/firmware"
	"github.com/OpenNuvoton/NUC029FAE-BSP/fmc"
	"github.com/OpenNuvoton/NUC029FAE-BSP/iap"
	"github.com/OpenNuvoton/NUC029FAE-BSP/sim"
)

// App returns the APROM application. It prints the chip information and runs
// the menu that loads the loader image to LDROM and branches to it.
func App(cfg Config) sim.Program {
	return func(m *sim.Machine) error {
		m.Core.EnableInterrupts()
		w := m.UART
		io.WriteString(w, "\n\n")
		console.Banner(w, m.Dev.Name+" FMC IAP Sample Code", "          [APROM code]")

		lr := &loadReport{w: w}
		opts := append(options(m, cfg), iap.WithProgress(lr.progress))
		c := iap.New(m.Dev, m.Flash, m.Core, opts...)
		if err := c.Open(); err != nil {
			return err
		}
		transferred, err := app(m, c, cfg.Image, lr)
		if transferred {
			return nil
		}
		c.Close()
		io.WriteString(w, "\nFMC Sample Code Completed.\n")
		return err
	}
}

// app returns true if it has transferred control to another program.
func app(m *sim.Machine, c *iap.Controller, img *firmware.Image, lr *loadReport) (bool, error) {
	w := m.UART
	changed, err := c.SetLoadOnBoot(fmc.BootAPROM, true)
	if err != nil {
		if errors.Is(err, iap.ErrConfigRead) {
			io.WriteString(w, "\nRead User Config failed!\n")
		}
		io.WriteString(w, "Failed to set IAP boot mode!\n")
		return false, err
	}
	if changed {
		// The chip resets to make the new configuration take effect.
		return true, nil
	}

	io.WriteString(w, "  Boot Mode ............................. ")
	if err := c.CheckBootSource(); err != nil {
		var bse *iap.BootSourceError
		if errors.As(err, &bse) {
			fmt.Fprintf(w, "[%v]\n", bse.Running)
			io.WriteString(w, "  WARNING: The driver sample code must execute in AP mode!\n")
		}
		return false, err
	}
	io.WriteString(w, "[APROM]\n")
	inf, err := c.Info()
	if err != nil {
		return false, err
	}
	fmt.Fprintf(w, "  Company ID ............................ [0x%08x]\n", inf.CID)
	fmt.Fprintf(w, "  Product ID ............................ [0x%08x]\n", inf.PID)
	fmt.Fprintf(w, "  User Config 0 ......................... [0x%08x]\n", inf.Config[0])
	fmt.Fprintf(w, "  User Config 1 ......................... [0x%08x]\n", inf.Config[1])

	transferred := false
	menu := console.Menu{
		Title: "Select",
		Items: []console.Item{
			{Key: '0', Label: "Load IAP code to LDROM", Action: func() error {
				lr.load(c, m.Dev.LDROM, img)
				return nil
			}},
			{Key: '1', Label: "Run IAP program (in LDROM)", Action: func() error {
				io.WriteString(w, "\n\nChange VECMAP and branch to LDROM...\n")
				if err := c.RunSecondary(); err != nil {
					fmt.Fprintf(w, "Branch to LDROM failed: %v\n", err)
					return nil
				}
				transferred = true
				return console.Stop
			}},
		},
	}
	err = menu.Run(m.UART, w)
	return transferred, err
}

// loadReport prints the progress of loading in the format of the sample.
type loadReport struct {
	w         io.Writer
	verifying bool
}

func (lr *loadReport) progress(p iap.Progress) {
	if p.Phase == "verify" && !lr.verifying {
		lr.verifying = true
		io.WriteString(lr.w, "OK.\nVerify ...")
	}
}

// load loads img to LDROM. Errors are reported on the console and the
// operator may select the option again.
func (lr *loadReport) load(c *iap.Controller, ldrom fmc.Region, img *firmware.Image) {
	w := lr.w
	lr.verifying = false
	fmt.Fprintf(w, "Program image to flash address 0x%x...", ldrom.Base)
	err := c.LoadSecondary(img)
	if err == nil {
		io.WriteString(w, "OK.\n")
		return
	}
	var ve *iap.VerifyError
	if errors.As(err, &ve) {
		fmt.Fprintf(w, "data mismatch on 0x%x, [0x%x], [0x%x]\n", ve.Addr, ve.Actual, ve.Expected)
	} else {
		fmt.Fprintf(w, "\n%v\n", err)
	}
	io.WriteString(w, "Load image to LDROM failed!\n")
}

// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package demo contains the firmware of the FMC IAP sample: the application
// that runs from APROM and the loader image it copies to LDROM. Both run on
// the simulated chip.
package demo

import (
	"errors"
	"io"

	"github.com/golang/glog"

	"github.com/OpenNuvoton/NUC029FAE-BSP/console"
	"github.com/OpenNuvoton/NUC029FAE-BSP/firmware"
	"github.com/OpenNuvoton/NUC029FAE-BSP/fmc"
	"github.com/OpenNuvoton/NUC029FAE-BSP/iap"
	"github.com/OpenNuvoton/NUC029FAE-BSP/sim"
)

// Offsets of the reset handler and the default exception handler from the
// beginning of the image (Thumb addresses).
const (
	resetHandler   = 0xc1
	defaultHandler = 0xc3
)

// AppEntry returns the entry point of the APROM application.
func AppEntry(dev fmc.Device) uint32 {
	return dev.APROM.Base + resetHandler
}

// LoaderEntry returns the entry point of the built-in LDROM loader.
func LoaderEntry(dev fmc.Device) uint32 {
	return dev.LDROM.Base + resetHandler
}

// Config configures the sample.
type Config struct {
	// Image is loaded to LDROM by the menu option 0. Nil means the built-in
	// loader image.
	Image *firmware.Image

	// Check enables the validation of the LDROM vectors before the branch.
	Check bool
}

// vectors returns a minimal vector table: the initial SP, the reset handler
// and the default handler for the remaining 14 system exceptions and 32
// interrupts.
func vectors(sp, entry uint32) []uint32 {
	w := make([]uint32, 48)
	w[0], w[1] = sp, entry
	for i := 2; i < len(w); i++ {
		w[i] = entry - resetHandler + defaultHandler
	}
	return w
}

// AppImage returns the image of the APROM application.
func AppImage(dev fmc.Device) *firmware.Image {
	return firmware.New(dev.APROM.Base, vectors(dev.SRAM.End(), AppEntry(dev))...)
}

// LoaderImage returns the built-in image of the LDROM loader. Its size is not
// a multiple of the page size.
func LoaderImage(dev fmc.Device) *firmware.Image {
	w := vectors(dev.SRAM.End(), LoaderEntry(dev))
	for i := uint32(0); i < 128; i++ {
		w = append(w, 0xbf00bf00|i)
	}
	return firmware.New(dev.LDROM.Base, w...)
}

// NewMachine returns the simulated chip with the sample programs installed.
// The UART receives from in and transmits to out.
func NewMachine(dev fmc.Device, in io.Reader, out io.Writer, cfg Config) *sim.Machine {
	m := sim.NewMachine(dev, in, out)
	if cfg.Image == nil {
		cfg.Image = LoaderImage(dev)
	}
	m.Install(AppEntry(dev), App(cfg))
	m.Install(LoaderEntry(dev), Loader(cfg))
	return m
}

// Run programs the application into an erased APROM and runs the machine
// until the console input ends.
func Run(m *sim.Machine) error {
	if m.Flash.Peek(m.Dev.APROM.Base+4) == fmc.Erased {
		glog.Info("demo: APROM erased, programming the application")
		img := AppImage(m.Dev)
		for off := uint32(0); off < img.Size(); off += 4 {
			m.Flash.Poke(m.Dev.APROM.Base+off, img.Word(off))
		}
	}
	err := m.Run()
	m.UART.WaitTxEmpty()
	if errors.Is(err, io.EOF) || errors.Is(err, console.ErrQuit) {
		return nil
	}
	return err
}

func options(m *sim.Machine, cfg Config) []iap.Option {
	opts := []iap.Option{iap.WithConsole(m.UART)}
	if cfg.Check {
		opts = append(opts, iap.WithImageCheck(iap.CheckVectors(m.Dev)))
	}
	return opts
}

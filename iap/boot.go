// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package iap

import (
	"fmt"

	"github.com/golang/glog"

	"github.com/OpenNuvoton/NUC029FAE-BSP/firmware"
	"github.com/OpenNuvoton/NUC029FAE-BSP/fmc"
)

// System is the part of the CPU and the system controller used by the
// handover.
type System interface {
	UnlockReg()
	LockReg()
	DisableInterrupts()
	EnableInterrupts()

	// SetMSP loads the main stack pointer.
	SetMSP(sp uint32)

	// Jump branches to entry. It never returns on hardware.
	Jump(entry uint32)

	// ChipReset resets the whole chip. It never returns on hardware.
	ChipReset()
}

// State tells which region supplies the running code.
type State uint8

const (
	RunningInPrimary State = iota
	RunningInSecondary
)

func (s State) String() string {
	switch s {
	case RunningInPrimary:
		return "RunningInPrimary"
	case RunningInSecondary:
		return "RunningInSecondary"
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// Controller arbitrates the flash regions of a device: it loads images into
// the region that does not run, hands the CPU over between the regions and
// selects the boot region.
type Controller struct {
	dev    fmc.Device
	fc     fmc.Controller
	sys    System
	cfg    config
	loader *Loader
}

func New(dev fmc.Device, fc fmc.Controller, sys System, opts ...Option) *Controller {
	c := &Controller{dev: dev, fc: fc, sys: sys, cfg: newConfig(opts)}
	c.loader = &Loader{fc: fc, cfg: c.cfg}
	return c
}

// Open unlocks the protected registers and enables the ISP function.
func (c *Controller) Open() (err error) {
	defer wrapErr("Open", &err)
	c.sys.UnlockReg()
	return c.fc.Open()
}

// Close disables the ISP function and locks the protected registers.
func (c *Controller) Close() {
	c.fc.Close()
	c.sys.LockReg()
}

// State returns the state derived from the vector map register.
func (c *Controller) State() (s State, err error) {
	defer wrapErr("State", &err)
	va, err := c.fc.VectorPageAddr()
	if err != nil {
		return 0, err
	}
	bs, ok := c.dev.Select(va)
	if !ok {
		return 0, fmt.Errorf("vector page 0x%08x outside flash", va)
	}
	if bs == fmc.BootLDROM {
		return RunningInSecondary, nil
	}
	return RunningInPrimary, nil
}

func (c *Controller) running() (fmc.BootSelect, error) {
	s, err := c.State()
	if err != nil {
		return 0, err
	}
	if s == RunningInSecondary {
		return fmc.BootLDROM, nil
	}
	return fmc.BootAPROM, nil
}

func (c *Controller) require(op string, want State) error {
	s, err := c.State()
	if err != nil {
		return err
	}
	if s != want {
		bs := fmc.BootAPROM
		if s == RunningInSecondary {
			bs = fmc.BootLDROM
		}
		return &BootSourceError{Op: op, Running: bs}
	}
	return nil
}

// CheckBootSource returns a *BootSourceError if the chip did not boot from
// APROM.
func (c *Controller) CheckBootSource() error {
	bs, err := c.fc.BootSource()
	if err != nil {
		return err
	}
	if bs != fmc.BootAPROM {
		return &BootSourceError{Op: "CheckBootSource", Running: bs}
	}
	return nil
}

// Load enables the update of the region selected by dst, loads img into it
// and disables the update. The running region is refused.
func (c *Controller) Load(img *firmware.Image, dst fmc.BootSelect) (err error) {
	defer wrapErr("Load", &err)
	running, err := c.running()
	if err != nil {
		return err
	}
	if dst == running {
		return ErrRunningRegion
	}
	u := fmc.UpdateAPROM
	if dst == fmc.BootLDROM {
		u = fmc.UpdateLDROM
	}
	c.fc.EnableUpdate(u)
	defer c.fc.DisableUpdate(u)
	return c.loader.Load(img, c.dev.Region(dst))
}

// LoadSecondary loads img into LDROM. It is allowed only when running in
// APROM.
func (c *Controller) LoadSecondary(img *firmware.Image) error {
	if err := c.require("LoadSecondary", RunningInPrimary); err != nil {
		return err
	}
	return c.Load(img, fmc.BootLDROM)
}

// RunSecondary hands the CPU over to the LDROM image. It is allowed only when
// running in APROM.
func (c *Controller) RunSecondary() error {
	if err := c.require("RunSecondary", RunningInPrimary); err != nil {
		return err
	}
	return c.Handover(c.dev.LDROM)
}

// ReturnToPrimary hands the CPU over to the APROM image. It is allowed only
// when running in LDROM.
func (c *Controller) ReturnToPrimary() error {
	if err := c.require("ReturnToPrimary", RunningInSecondary); err != nil {
		return err
	}
	return c.Handover(c.dev.APROM)
}

// Handover transfers control to the image in target: interrupts are disabled,
// the console is drained, the vector table is remapped to target, the main
// stack pointer is loaded from the first word of target and the CPU jumps to
// the address in the second word.
//
// On hardware Handover never returns if it succeeds. If it fails the
// interrupts are enabled again and the error is returned.
func (c *Controller) Handover(target fmc.Region) (err error) {
	defer wrapErr("Handover", &err)

	c.sys.DisableInterrupts()
	defer func() {
		if err != nil {
			c.sys.EnableInterrupts()
		}
	}()
	if c.cfg.console != nil {
		c.cfg.console.WaitTxEmpty()
	}
	sp, err := c.fc.Read(target.Base)
	if err != nil {
		return err
	}
	entry, err := c.fc.Read(target.Base + 4)
	if err != nil {
		return err
	}
	if c.cfg.check != nil {
		if reason := c.cfg.check(target, sp, entry); reason != "" {
			return &ImageError{target, sp, entry, reason}
		}
	}
	if err = c.fc.SetVectorPageAddr(target.Base); err != nil {
		return err
	}
	glog.V(1).Infof("iap: branch to %s: sp=0x%08x entry=0x%08x", target.Name, sp, entry)
	c.sys.SetMSP(sp)
	c.sys.Jump(entry)
	return nil
}

// BootConfig reads the user configuration words.
func (c *Controller) BootConfig() (cfg [fmc.ConfigWords]uint32, err error) {
	if err = c.fc.ReadConfig(cfg[:]); err != nil {
		glog.Errorf("iap: %v", err)
		err = fmt.Errorf("%w: %w", ErrConfigRead, err)
	}
	return
}

// SetLoadOnBoot selects the region the chip boots from after the next reset.
// Nothing is written if the configuration already selects sel. Otherwise, if
// reset is true, the chip is reset to make the new configuration take effect.
// On hardware a reset SetLoadOnBoot does not return.
func (c *Controller) SetLoadOnBoot(sel fmc.BootSelect, reset bool) (changed bool, err error) {
	cfg, err := c.BootConfig()
	if err != nil {
		return false, err
	}
	if fmc.BootSelectOf(cfg[0]) == sel {
		return false, nil
	}
	defer wrapErr("SetLoadOnBoot", &err)
	cfg[0] = fmc.WithBootSelect(cfg[0], sel)
	c.fc.EnableUpdate(fmc.UpdateConfig)
	err = c.fc.WriteConfig(cfg[:])
	c.fc.DisableUpdate(fmc.UpdateConfig)
	if err != nil {
		return false, err
	}
	glog.V(1).Infof("iap: boot from %v after reset (config0=0x%08x)", sel, cfg[0])
	if reset {
		c.sys.ChipReset()
	}
	return true, nil
}

// Info describes the chip.
type Info struct {
	CID    uint32
	PID    uint32
	Boot   fmc.BootSelect
	Config [fmc.ConfigWords]uint32
}

// Info reads the identification and configuration of the chip.
func (c *Controller) Info() (inf Info, err error) {
	if inf.Boot, err = c.fc.BootSource(); err != nil {
		return
	}
	if inf.CID, err = c.fc.ReadCID(); err != nil {
		return
	}
	if inf.PID, err = c.fc.ReadPID(); err != nil {
		return
	}
	inf.Config, err = c.BootConfig()
	return
}

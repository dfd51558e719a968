// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sim simulates a NUC029 microcontroller at the level the IAP code
// sees it: the flash memory controller, the processor core (interrupt mask,
// main stack pointer, vector map, reset) and the debug UART.
//
// Firmware is modeled by Go functions (programs) installed at entry
// addresses. The Machine boots from the region selected by the user
// configuration, reads the initial SP and the reset vector from flash and
// runs the program installed at that entry. Control transfers requested with
// Core.Jump and Core.ChipReset take effect when the running program returns.
package sim

import (
	"errors"
	"fmt"
	"io"

	"github.com/golang/glog"

	"github.com/OpenNuvoton/NUC029FAE-BSP/fmc"
)

// Program is the simulated firmware running at an entry address.
type Program func(m *Machine) error

// FaultError is returned by Run when control reaches an address without an
// installed program, i.e. the CPU would execute garbage.
type FaultError struct {
	PC, SP uint32
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("sim: hard fault: no code at 0x%08x (sp=0x%08x)", e.PC, e.SP)
}

// ErrTooManyTransfers is returned by Run after MaxTransfers transfers.
var ErrTooManyTransfers = errors.New("sim: too many control transfers")

type Machine struct {
	Dev   fmc.Device
	Core  *Core
	Flash *Flash
	UART  *UART

	// MaxTransfers limits the number of jumps and resets in one Run (0 means
	// no limit).
	MaxTransfers int

	programs map[uint32]Program
}

// NewMachine returns a machine with erased flash set to boot from APROM. The
// UART receives from in and transmits to out (both may be nil).
func NewMachine(dev fmc.Device, in io.Reader, out io.Writer) *Machine {
	core := NewCore()
	m := &Machine{
		Dev:      dev,
		Core:     core,
		Flash:    NewFlash(dev, core),
		UART:     newUART(core, in, out),
		programs: make(map[uint32]Program),
	}
	m.Flash.Poke(dev.ConfigBase, fmc.WithBootSelect(fmc.Erased, fmc.BootAPROM))
	return m
}

// Install installs the program p at the entry address.
func (m *Machine) Install(entry uint32, p Program) {
	m.programs[entry] = p
}

// Reset performs a chip reset: the boot source is latched from the
// configuration, the vector table is mapped to the boot region and SP and PC
// are loaded from its first two words.
func (m *Machine) Reset() {
	bs := m.Flash.reset()
	r := m.Dev.Region(bs)
	sp, pc := m.Flash.Peek(r.Base), m.Flash.Peek(r.Base+4)
	m.Core.reset(r.Base, sp, pc)
	glog.V(1).Infof("sim: reset: boot from %v sp=0x%08x pc=0x%08x", bs, sp, pc)
}

// Run resets the machine and runs programs until one of them returns without
// transferring control.
func (m *Machine) Run() error {
	m.Reset()
	for n := 0; ; n++ {
		if m.MaxTransfers > 0 && n > m.MaxTransfers {
			return ErrTooManyTransfers
		}
		pc := m.Core.PC()
		prog := m.programs[pc]
		if prog == nil {
			return &FaultError{PC: pc, SP: m.Core.MSP()}
		}
		m.Core.xfer = noTransfer
		err := prog(m)
		switch m.Core.xfer {
		case jumpTransfer:
			glog.V(1).Infof("sim: jump to 0x%08x", m.Core.PC())
			continue
		case resetTransfer:
			m.Reset()
			continue
		}
		return err
	}
}

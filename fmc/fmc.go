// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fmc describes the flash memory controller (FMC) of the NUC029
// family as seen by in-application programming code.
//
// The package does not touch hardware. It defines the Controller interface
// (the ISP command set: page erase, word program, word read, user
// configuration access, update enables and the vector-map command), the flash
// regions of a device and the bits of the user configuration words. Concrete
// controllers live elsewhere (see the sim package).
package fmc

// Erased is the value of an erased flash word.
const Erased uint32 = 0xffffffff

// ConfigWords is the number of user configuration words.
const ConfigWords = 2

// Update selects the flash areas that may be erased and programmed by ISP
// commands (ISPCON.APUEN, ISPCON.LDUEN, ISPCON.CFGUEN).
type Update uint8

const (
	UpdateAPROM Update = 1 << iota
	UpdateLDROM
	UpdateConfig
)

func (u Update) String() string {
	s := ""
	for _, n := range [...]struct {
		u    Update
		name string
	}{{UpdateAPROM, "APROM"}, {UpdateLDROM, "LDROM"}, {UpdateConfig, "CONFIG"}} {
		if u&n.u == 0 {
			continue
		}
		if s != "" {
			s += "|"
		}
		s += n.name
	}
	if s == "" {
		s = "none"
	}
	return s
}

// BootSelect selects the flash region the reset vector is fetched from.
type BootSelect uint8

const (
	BootAPROM BootSelect = iota
	BootLDROM
)

func (bs BootSelect) String() string {
	switch bs {
	case BootAPROM:
		return "APROM"
	case BootLDROM:
		return "LDROM"
	}
	return "BootSelect(?)"
}

// ConfigBootLDROM is the "boot from LDROM" selector in the user configuration
// word 0. The change takes effect after the next chip reset.
const ConfigBootLDROM uint32 = 1 << 6

// BootSelectOf decodes the boot selection from the configuration word 0.
func BootSelectOf(cfg0 uint32) BootSelect {
	if cfg0&ConfigBootLDROM != 0 {
		return BootLDROM
	}
	return BootAPROM
}

// WithBootSelect returns cfg0 patched to select bs. Other bits are preserved.
func WithBootSelect(cfg0 uint32, bs BootSelect) uint32 {
	if bs == BootLDROM {
		return cfg0 | ConfigBootLDROM
	}
	return cfg0 &^ ConfigBootLDROM
}

// Controller is the ISP command interface of the flash memory controller.
//
// All addresses are absolute. Erase works on whole pages, Write and Read on
// aligned 32-bit words. Erase and Write of a region fail unless its update
// is enabled.
type Controller interface {
	// Open enables the ISP function. Protected registers must be unlocked.
	Open() error
	// Close disables the ISP function.
	Close()

	Erase(addr uint32) error
	Write(addr, data uint32) error
	Read(addr uint32) (uint32, error)

	// ReadConfig reads len(cfg) user configuration words.
	ReadConfig(cfg []uint32) error
	// WriteConfig erases the configuration page and programs cfg into it.
	// UpdateConfig must be enabled.
	WriteConfig(cfg []uint32) error

	EnableUpdate(u Update)
	DisableUpdate(u Update)

	// BootSource returns the region the chip booted from after the last
	// reset (ISPCON.BS).
	BootSource() (BootSelect, error)

	// SetVectorPageAddr remaps the exception vector table to addr. Unlike the
	// boot selection in the configuration words it takes effect immediately.
	SetVectorPageAddr(addr uint32) error
	VectorPageAddr() (uint32, error)

	ReadCID() (uint32, error)
	ReadPID() (uint32, error)
}

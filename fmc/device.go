// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fmc

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Device describes the memory layout of a chip.
type Device struct {
	Name       string `toml:"name"`
	APROM      Region `toml:"aprom"`
	LDROM      Region `toml:"ldrom"`
	SRAM       Region `toml:"sram"`
	ConfigBase uint32 `toml:"config_base"`
	CID        uint32 `toml:"cid"`
	PID        uint32 `toml:"pid"`
}

const pageSize = 0x200

// NUC029FAE is the default device.
var NUC029FAE = Device{
	Name:       "NUC029FAE",
	APROM:      Region{Name: "APROM", Base: 0x00000000, Size: 0x4000, PageSize: pageSize},
	LDROM:      Region{Name: "LDROM", Base: 0x00100000, Size: 0x800, PageSize: pageSize},
	SRAM:       Region{Name: "SRAM", Base: 0x20000000, Size: 0x800},
	ConfigBase: 0x00300000,
	CID:        0xda,
	PID:        0x00012d00,
}

// Config returns the flash region holding the user configuration words.
func (d *Device) Config() Region {
	return Region{
		Name:     "CONFIG",
		Base:     d.ConfigBase,
		Size:     d.APROM.PageSize,
		PageSize: d.APROM.PageSize,
	}
}

// Region returns the flash region selected by bs.
func (d *Device) Region(bs BootSelect) Region {
	if bs == BootLDROM {
		return d.LDROM
	}
	return d.APROM
}

// Select returns the boot selection that corresponds to the flash region
// containing addr.
func (d *Device) Select(addr uint32) (BootSelect, bool) {
	switch {
	case d.APROM.Contains(addr):
		return BootAPROM, true
	case d.LDROM.Contains(addr):
		return BootLDROM, true
	}
	return 0, false
}

// Validate checks the flash regions and that no two regions overlap.
func (d *Device) Validate() error {
	flash := []Region{d.APROM, d.LDROM, d.Config()}
	for _, r := range flash {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("%s: %w", d.Name, err)
		}
	}
	all := append(flash, d.SRAM)
	for i, a := range all {
		for _, b := range all[i+1:] {
			if a.Overlaps(b) {
				return fmt.Errorf("%s: %v overlaps %v", d.Name, a, b)
			}
		}
	}
	return nil
}

// LoadDevice reads a TOML device description. Fields missing from the file
// keep their NUC029FAE values.
func LoadDevice(name string) (Device, error) {
	d := NUC029FAE
	if _, err := toml.DecodeFile(name, &d); err != nil {
		return Device{}, err
	}
	if err := d.Validate(); err != nil {
		return Device{}, err
	}
	return d, nil
}

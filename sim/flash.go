// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import (
	"encoding/binary"

	"github.com/OpenNuvoton/NUC029FAE-BSP/fmc"
)

type bank struct {
	fmc.Region
	update fmc.Update
	data   []byte
}

// JournalEntry records a flash modifying ISP command.
type JournalEntry struct {
	Op   string // OpErase, OpWrite or OpWriteConf
	Addr uint32
	Data uint32
}

// Flash is a memory-backed flash memory controller. It follows the NOR flash
// rules of the real part: erase sets a whole page to 0xff, programming can
// only clear bits.
type Flash struct {
	dev    fmc.Device
	core   *Core
	banks  []*bank
	open   bool
	update fmc.Update
	boot   fmc.BootSelect

	drop      map[uint32]bool
	fail      map[uint32]error
	configErr error

	// Journal lists every erase and program command in execution order.
	Journal []JournalEntry
}

var _ fmc.Controller = (*Flash)(nil)

// NewFlash returns an erased flash of the device dev. The protected register
// lock and the vector map are taken from core.
func NewFlash(dev fmc.Device, core *Core) *Flash {
	f := &Flash{dev: dev, core: core}
	for _, r := range []struct {
		r fmc.Region
		u fmc.Update
	}{
		{dev.APROM, fmc.UpdateAPROM},
		{dev.LDROM, fmc.UpdateLDROM},
		{dev.Config(), fmc.UpdateConfig},
	} {
		b := &bank{Region: r.r, update: r.u, data: make([]byte, r.r.Size)}
		for i := range b.data {
			b.data[i] = 0xff
		}
		f.banks = append(f.banks, b)
	}
	return f
}

func (f *Flash) bank(addr uint32) *bank {
	for _, b := range f.banks {
		if b.Contains(addr) {
			return b
		}
	}
	return nil
}

// Peek returns the flash word at addr bypassing the controller.
func (f *Flash) Peek(addr uint32) uint32 {
	b := f.bank(addr)
	if b == nil || addr%4 != 0 {
		return fmc.Erased
	}
	return binary.LittleEndian.Uint32(b.data[addr-b.Base:])
}

// Poke stores the word at addr bypassing the controller and the NOR rules.
func (f *Flash) Poke(addr, data uint32) {
	if b := f.bank(addr); b != nil && addr%4 == 0 {
		binary.LittleEndian.PutUint32(b.data[addr-b.Base:], data)
	}
}

// DropWrite makes the programming of the word at addr silently fail to latch.
func (f *Flash) DropWrite(addr uint32) {
	if f.drop == nil {
		f.drop = make(map[uint32]bool)
	}
	f.drop[addr] = true
}

// FailWrite makes the programming of the word at addr fail with err.
func (f *Flash) FailWrite(addr uint32, err error) {
	if f.fail == nil {
		f.fail = make(map[uint32]error)
	}
	f.fail[addr] = err
}

// FailConfigRead makes ReadConfig fail with err (nil clears the fault).
func (f *Flash) FailConfigRead(err error) {
	f.configErr = err
}

// Updates returns the update enable bits.
func (f *Flash) Updates() fmc.Update {
	return f.update
}

func (f *Flash) isp() error {
	if f.core.Locked() {
		return fmc.ErrLocked
	}
	if !f.open {
		return fmc.ErrNotOpen
	}
	return nil
}

func (f *Flash) Open() (err error) {
	defer fmc.WrapErr("Open", 0, &err)
	if f.core.Locked() {
		return fmc.ErrLocked
	}
	f.open = true
	return nil
}

func (f *Flash) Close() {
	if !f.core.Locked() {
		f.open = false
	}
}

func (f *Flash) Erase(addr uint32) (err error) {
	defer fmc.WrapErr("Erase", addr, &err)
	if err = f.isp(); err != nil {
		return
	}
	b := f.bank(addr)
	if b == nil {
		return fmc.ErrAddress
	}
	if (addr-b.Base)%b.PageSize != 0 {
		return fmc.ErrAlign
	}
	if f.update&b.update == 0 {
		return fmc.ErrUpdate
	}
	page := b.data[addr-b.Base:][:b.PageSize]
	for i := range page {
		page[i] = 0xff
	}
	f.Journal = append(f.Journal, JournalEntry{OpErase, addr, 0})
	f.core.record(OpErase, addr)
	return nil
}

func (f *Flash) Write(addr, data uint32) (err error) {
	defer fmc.WrapErr("Write", addr, &err)
	if err = f.isp(); err != nil {
		return
	}
	b := f.bank(addr)
	if b == nil {
		return fmc.ErrAddress
	}
	if addr%4 != 0 {
		return fmc.ErrAlign
	}
	if f.update&b.update == 0 {
		return fmc.ErrUpdate
	}
	if e := f.fail[addr]; e != nil {
		return e
	}
	f.Journal = append(f.Journal, JournalEntry{OpWrite, addr, data})
	f.core.record(OpWrite, addr)
	if f.drop[addr] {
		return nil
	}
	w := b.data[addr-b.Base:]
	binary.LittleEndian.PutUint32(w, binary.LittleEndian.Uint32(w)&data)
	return nil
}

func (f *Flash) Read(addr uint32) (data uint32, err error) {
	defer fmc.WrapErr("Read", addr, &err)
	if err = f.isp(); err != nil {
		return
	}
	if f.bank(addr) == nil {
		return 0, fmc.ErrAddress
	}
	if addr%4 != 0 {
		return 0, fmc.ErrAlign
	}
	return f.Peek(addr), nil
}

func (f *Flash) ReadConfig(cfg []uint32) (err error) {
	defer fmc.WrapErr("ReadConfig", f.dev.ConfigBase, &err)
	if err = f.isp(); err != nil {
		return
	}
	if len(cfg) == 0 || len(cfg) > fmc.ConfigWords {
		return fmc.ErrBadCount
	}
	if f.configErr != nil {
		return f.configErr
	}
	for i := range cfg {
		cfg[i] = f.Peek(f.dev.ConfigBase + uint32(i)*4)
	}
	return nil
}

func (f *Flash) WriteConfig(cfg []uint32) (err error) {
	defer fmc.WrapErr("WriteConfig", f.dev.ConfigBase, &err)
	if err = f.isp(); err != nil {
		return
	}
	if len(cfg) == 0 || len(cfg) > fmc.ConfigWords {
		return fmc.ErrBadCount
	}
	if f.update&fmc.UpdateConfig == 0 {
		return fmc.ErrUpdate
	}
	b := f.bank(f.dev.ConfigBase)
	for i := range b.data {
		b.data[i] = 0xff
	}
	for i, w := range cfg {
		binary.LittleEndian.PutUint32(b.data[4*i:], w)
		f.Journal = append(f.Journal, JournalEntry{OpWriteConf, b.Base + uint32(4*i), w})
	}
	f.core.record(OpWriteConf, cfg[0])
	return nil
}

// EnableUpdate sets the update enable bits. Like every protected register,
// ISPCON ignores writes while the registers are locked.
func (f *Flash) EnableUpdate(u fmc.Update) {
	if !f.core.Locked() {
		f.update |= u
	}
}

func (f *Flash) DisableUpdate(u fmc.Update) {
	if !f.core.Locked() {
		f.update &^= u
	}
}

func (f *Flash) BootSource() (bs fmc.BootSelect, err error) {
	defer fmc.WrapErr("BootSource", 0, &err)
	if !f.open {
		return 0, fmc.ErrNotOpen
	}
	return f.boot, nil
}

func (f *Flash) SetVectorPageAddr(addr uint32) (err error) {
	defer fmc.WrapErr("SetVectorPageAddr", addr, &err)
	if err = f.isp(); err != nil {
		return
	}
	b := f.bank(addr)
	if b == nil || b.update == fmc.UpdateConfig {
		return fmc.ErrAddress
	}
	if (addr-b.Base)%b.PageSize != 0 {
		return fmc.ErrAlign
	}
	f.core.setVectorBase(addr)
	return nil
}

func (f *Flash) VectorPageAddr() (uint32, error) {
	return f.core.VectorBase(), nil
}

func (f *Flash) ReadCID() (cid uint32, err error) {
	defer fmc.WrapErr("ReadCID", 0, &err)
	if err = f.isp(); err != nil {
		return
	}
	return f.dev.CID, nil
}

func (f *Flash) ReadPID() (pid uint32, err error) {
	defer fmc.WrapErr("ReadPID", 0, &err)
	if err = f.isp(); err != nil {
		return
	}
	return f.dev.PID, nil
}

// reset clears the controller state as a chip reset does. The boot source is
// latched from the configuration word 0.
func (f *Flash) reset() fmc.BootSelect {
	f.open = false
	f.update = 0
	f.boot = fmc.BootSelectOf(f.Peek(f.dev.ConfigBase))
	return f.boot
}

// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package iap

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenNuvoton/NUC029FAE-BSP/fmc"
	"github.com/OpenNuvoton/NUC029FAE-BSP/sim"
)

const (
	ldromSP    = 0x20000700
	ldromEntry = 0x00100041
	timerIRQ   = 8
)

func newController(t *testing.T, opts ...Option) (*sim.Machine, *Controller, *bytes.Buffer) {
	t.Helper()
	out := new(bytes.Buffer)
	m := sim.NewMachine(fmc.NUC029FAE, nil, out)
	m.Flash.Poke(0x00100000, ldromSP)
	m.Flash.Poke(0x00100004, ldromEntry)
	m.Flash.Poke(0x00000000, 0x20000800)
	m.Flash.Poke(0x00000004, 0x000000c1)
	c := New(m.Dev, m.Flash, m.Core, append([]Option{WithConsole(m.UART)}, opts...)...)
	require.NoError(t, c.Open())
	return m, c, out
}

func ops(trace []sim.Event) []string {
	var s []string
	for _, e := range trace {
		s = append(s, e.Op)
	}
	return s
}

func TestHandover(t *testing.T) {
	m, c, out := newController(t)
	handled := false
	m.Core.Handle(timerIRQ, func() { handled = true })
	m.Core.RaiseOn(sim.OpVecMap, timerIRQ)
	m.UART.Write([]byte("Change VECMAP and branch to LDROM...\n"))
	m.Core.ResetTrace()

	require.NoError(t, c.RunSecondary())

	assert.Equal(t, uint32(ldromSP), m.Core.MSP())
	assert.Equal(t, uint32(ldromEntry), m.Core.PC())
	assert.Equal(t, uint32(0x00100000), m.Core.VectorBase())
	assert.Equal(t, "Change VECMAP and branch to LDROM...\n", out.String())

	assert.Equal(t,
		[]string{sim.OpCPSID, sim.OpTxDrain, sim.OpVecMap, sim.OpMSP, sim.OpJump},
		ops(m.Core.Trace),
	)
	for _, e := range m.Core.Trace {
		assert.False(t, e.IRQEnabled, "%v", e)
	}
	assert.False(t, handled, "interrupt handler ran during the handover")
	assert.Equal(t, []int{timerIRQ}, m.Core.Pending())
}

func TestStateMachine(t *testing.T) {
	m, c, _ := newController(t)
	img := testImage(64)

	s, err := c.State()
	require.NoError(t, err)
	assert.Equal(t, RunningInPrimary, s)

	var bse *BootSourceError
	err = c.ReturnToPrimary()
	require.True(t, errors.As(err, &bse))
	assert.Equal(t, fmc.BootAPROM, bse.Running)
	assert.ErrorIs(t, c.Load(img, fmc.BootAPROM), ErrRunningRegion)

	require.NoError(t, c.RunSecondary())
	s, err = c.State()
	require.NoError(t, err)
	assert.Equal(t, RunningInSecondary, s)

	assert.True(t, errors.As(c.LoadSecondary(img), &bse))
	assert.Equal(t, fmc.BootLDROM, bse.Running)
	assert.True(t, errors.As(c.RunSecondary(), &bse))
	assert.ErrorIs(t, c.Load(img, fmc.BootLDROM), ErrRunningRegion)

	m.Core.EnableInterrupts()
	require.NoError(t, c.ReturnToPrimary())
	assert.Equal(t, uint32(0), m.Core.VectorBase())
	assert.Equal(t, uint32(0x20000800), m.Core.MSP())
	assert.Equal(t, uint32(0xc1), m.Core.PC())
}

func TestLoadSecondary(t *testing.T) {
	m, c, _ := newController(t)
	img := testImage(0x300)

	require.NoError(t, c.LoadSecondary(img))
	assert.Equal(t, fmc.Update(0), m.Flash.Updates())
	assert.Equal(t, img.Word(0x2fc), m.Flash.Peek(0x001002fc))
	assert.Equal(t, fmc.Erased, m.Flash.Peek(0x00100300))

	m.Flash.DropWrite(0x00100010)
	err := c.LoadSecondary(img)
	var ve *VerifyError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, uint32(0x00100010), ve.Addr)
	assert.Equal(t, fmc.Update(0), m.Flash.Updates())

	assert.ErrorIs(t, c.LoadSecondary(testImage(0x804)), ErrImageTooLarge)
}

func TestHandoverImageCheck(t *testing.T) {
	m, c, _ := newController(t, WithImageCheck(CheckVectors(fmc.NUC029FAE)))
	m.Flash.Poke(0x00100000, fmc.Erased)
	m.Flash.Poke(0x00100004, fmc.Erased)

	err := c.RunSecondary()
	var ie *ImageError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "region erased", ie.Reason)
	assert.True(t, m.Core.IRQEnabled())
	assert.Equal(t, uint32(0), m.Core.VectorBase())

	m.Flash.Poke(0x00100000, ldromSP)
	m.Flash.Poke(0x00100004, ldromEntry)
	require.NoError(t, c.RunSecondary())
}

func TestHandoverUnchecked(t *testing.T) {
	m, c, _ := newController(t)
	m.Flash.Poke(0x00100000, fmc.Erased)
	m.Flash.Poke(0x00100004, fmc.Erased)

	// No validation: the CPU jumps to whatever LDROM contains.
	require.NoError(t, c.RunSecondary())
	assert.Equal(t, fmc.Erased, m.Core.PC())
}

func TestHandoverReadFailure(t *testing.T) {
	m, c, _ := newController(t)
	c.Close()
	m.Core.UnlockReg()

	assert.ErrorIs(t, c.RunSecondary(), fmc.ErrNotOpen)
	assert.True(t, m.Core.IRQEnabled())
}

func TestCheckVectors(t *testing.T) {
	check := CheckVectors(fmc.NUC029FAE)
	ld := fmc.NUC029FAE.LDROM
	for _, tc := range []struct {
		sp, entry uint32
		reason    string
	}{
		{0x20000800, 0x00100041, ""},
		{0x20000400, 0x00100001, ""},
		{0xffffffff, 0xffffffff, "region erased"},
		{0x20000402, 0x00100041, "misaligned stack pointer"},
		{0x20000000, 0x00100041, "stack pointer outside SRAM"},
		{0x20000804, 0x00100041, "stack pointer outside SRAM"},
		{0x20000800, 0x00100040, "entry is not a Thumb address"},
		{0x20000800, 0x000000c1, "entry outside LDROM"},
	} {
		assert.Equal(t, tc.reason, check(ld, tc.sp, tc.entry), "sp=%#x entry=%#x", tc.sp, tc.entry)
	}
}

func count(trace []sim.Event, op string) int {
	n := 0
	for _, e := range trace {
		if e.Op == op {
			n++
		}
	}
	return n
}

func TestSetLoadOnBoot(t *testing.T) {
	m, c, _ := newController(t)
	cfg1 := m.Flash.Peek(m.Dev.ConfigBase + 4)

	changed, err := c.SetLoadOnBoot(fmc.BootLDROM, false)
	require.NoError(t, err)
	assert.True(t, changed)
	changed, err = c.SetLoadOnBoot(fmc.BootLDROM, false)
	require.NoError(t, err)
	assert.False(t, changed)

	assert.Equal(t, 1, count(m.Core.Trace, sim.OpWriteConf))
	assert.Equal(t, uint32(0xffffffff), m.Flash.Peek(m.Dev.ConfigBase))
	assert.Equal(t, cfg1, m.Flash.Peek(m.Dev.ConfigBase+4))
	assert.Equal(t, fmc.Update(0), m.Flash.Updates())
	assert.Zero(t, count(m.Core.Trace, sim.OpReset))

	changed, err = c.SetLoadOnBoot(fmc.BootAPROM, true)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, uint32(0xffffffbf), m.Flash.Peek(m.Dev.ConfigBase))
	assert.Equal(t, 1, count(m.Core.Trace, sim.OpReset))
}

func TestSetLoadOnBootConfigReadFailure(t *testing.T) {
	m, c, _ := newController(t)
	m.Flash.FailConfigRead(fmc.ErrISPFail)

	_, err := c.SetLoadOnBoot(fmc.BootLDROM, true)
	assert.ErrorIs(t, err, ErrConfigRead)
	assert.ErrorIs(t, err, fmc.ErrISPFail)
	assert.Zero(t, count(m.Core.Trace, sim.OpWriteConf))
	assert.Zero(t, count(m.Core.Trace, sim.OpReset))
}

func TestBootSource(t *testing.T) {
	m, c, _ := newController(t)
	require.NoError(t, c.CheckBootSource())

	m.Flash.Poke(m.Dev.ConfigBase, fmc.Erased)
	m.Reset()
	require.NoError(t, c.Open())
	var bse *BootSourceError
	require.True(t, errors.As(c.CheckBootSource(), &bse))
	assert.Equal(t, fmc.BootLDROM, bse.Running)

	s, err := c.State()
	require.NoError(t, err)
	assert.Equal(t, RunningInSecondary, s)
}

func TestInfo(t *testing.T) {
	_, c, _ := newController(t)
	inf, err := c.Info()
	require.NoError(t, err)
	assert.Equal(t, uint32(0xda), inf.CID)
	assert.Equal(t, uint32(0x00012d00), inf.PID)
	assert.Equal(t, fmc.BootAPROM, inf.Boot)
	assert.Equal(t, uint32(0xffffffbf), inf.Config[0])
}

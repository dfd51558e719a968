// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package demo

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenNuvoton/NUC029FAE-BSP/fmc"
	"github.com/OpenNuvoton/NUC029FAE-BSP/iap"
	"github.com/OpenNuvoton/NUC029FAE-BSP/sim"
)

var dev = fmc.NUC029FAE

func newMachine(input string, cfg Config) (*sim.Machine, *bytes.Buffer) {
	out := new(bytes.Buffer)
	m := NewMachine(dev, strings.NewReader(input), out, cfg)
	m.MaxTransfers = 16
	return m, out
}

func pokeImage(m *sim.Machine, base uint32, words []byte) {
	for off := 0; off+4 <= len(words); off += 4 {
		m.Flash.Poke(base+uint32(off), uint32(words[off])|uint32(words[off+1])<<8|
			uint32(words[off+2])<<16|uint32(words[off+3])<<24)
	}
}

func TestLoadAndRun(t *testing.T) {
	m, out := newMachine("01x", Config{})
	require.NoError(t, Run(m))

	s := out.String()
	for _, want := range []string{
		"| NUC029FAE FMC IAP Sample Code          |\n",
		"  Boot Mode ............................. [APROM]\n",
		"  Company ID ............................ [0x000000da]\n",
		"  Product ID ............................ [0x00012d00]\n",
		"  User Config 0 ......................... [0xffffffbf]\n",
		"Please select...0\nProgram image to flash address 0x100000...OK.\nVerify ...OK.\n",
		"Please select...1\n\n\nChange VECMAP and branch to LDROM...\n",
		"\n\nNUC029FAE FMC IAP Sample Code [LDROM code]\n",
		"Press any key to branch to APROM...\n",
		"\n\nChange VECMAP and branch to APROM...\n",
		"\nFMC Sample Code Completed.\n",
	} {
		assert.Contains(t, s, want)
	}
	// The application runs twice: after reset and after the return from LDROM.
	assert.Equal(t, 2, strings.Count(s, "[APROM code]"))

	img := LoaderImage(dev)
	for off := uint32(0); off < dev.LDROM.Size; off += 4 {
		require.Equal(t, img.Word(off), m.Flash.Peek(dev.LDROM.Base+off), "offset %#x", off)
	}
	assert.Equal(t, uint32(0), m.Core.VectorBase())
	assert.Equal(t, dev.SRAM.End(), m.Core.MSP())
}

func TestVerifyFailure(t *testing.T) {
	m, out := newMachine("0", Config{})
	m.Flash.DropWrite(dev.LDROM.Base + 0x80)
	require.NoError(t, Run(m))

	want := fmt.Sprintf(
		"Program image to flash address 0x100000...OK.\nVerify ..."+
			"data mismatch on 0x100080, [0xffffffff], [0x%x]\n"+
			"Load image to LDROM failed!\n",
		LoaderImage(dev).Word(0x80),
	)
	assert.Contains(t, out.String(), want)
	// The menu is shown again.
	assert.True(t, strings.HasSuffix(out.String(), "Please select...\nFMC Sample Code Completed.\n"))
}

func TestRunErasedLDROM(t *testing.T) {
	m, _ := newMachine("1", Config{})
	var fe *sim.FaultError
	require.True(t, errors.As(Run(m), &fe))
	assert.Equal(t, fmc.Erased, fe.PC)

	m, out := newMachine("1", Config{Check: true})
	require.NoError(t, Run(m))
	assert.Contains(t, out.String(), "Branch to LDROM failed: ")
	assert.Contains(t, out.String(), "region erased")
	assert.Equal(t, uint32(0), m.Core.VectorBase())
}

func TestBootFromLDROM(t *testing.T) {
	m, out := newMachine("k", Config{})
	pokeImage(m, dev.LDROM.Base, LoaderImage(dev).Data)
	m.Flash.Poke(dev.ConfigBase, fmc.Erased)
	require.NoError(t, Run(m))

	s := out.String()
	assert.True(t, strings.HasPrefix(s, "\n\nNUC029FAE FMC IAP Sample Code [LDROM code]\n"))
	// The application restores the APROM boot and resets the chip.
	assert.Equal(t, uint32(0xffffffbf), m.Flash.Peek(dev.ConfigBase))
	assert.Equal(t, 2, strings.Count(s, "[APROM code]"))
	assert.Contains(t, s, "  Boot Mode ............................. [APROM]\n")
}

func TestBootSourceGuard(t *testing.T) {
	m, out := newMachine("k", Config{})
	pokeImage(m, dev.LDROM.Base, LoaderImage(dev).Data)
	m.Flash.Poke(dev.ConfigBase, fmc.Erased)
	loader := Loader(Config{})
	m.Install(LoaderEntry(dev), func(m *sim.Machine) error {
		m.Flash.Poke(dev.ConfigBase, 0xffffffbf)
		return loader(m)
	})

	err := Run(m)
	var bse *iap.BootSourceError
	require.True(t, errors.As(err, &bse), "got %v", err)
	s := out.String()
	assert.Contains(t, s, "  Boot Mode ............................. [LDROM]\n")
	assert.Contains(t, s, "  WARNING: The driver sample code must execute in AP mode!\n")
	assert.True(t, strings.HasSuffix(s, "\nFMC Sample Code Completed.\n"))
}

func TestConfigReadFailure(t *testing.T) {
	m, out := newMachine("", Config{})
	m.Flash.FailConfigRead(fmc.ErrISPFail)
	assert.ErrorIs(t, Run(m), iap.ErrConfigRead)
	assert.Contains(t, out.String(), "\nRead User Config failed!\nFailed to set IAP boot mode!\n")
}

func TestImages(t *testing.T) {
	app := AppImage(dev)
	sp, entry, err := app.Vectors()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x20000800), sp)
	assert.Equal(t, uint32(0xc1), entry)

	ld := LoaderImage(dev)
	assert.NotZero(t, ld.Size()%dev.LDROM.PageSize)
	check := iap.CheckVectors(dev)
	sp, entry, _ = ld.Vectors()
	assert.Empty(t, check(dev.LDROM, sp, entry))
	assert.Equal(t, uint32(0x001000c3), ld.Word(8))
}

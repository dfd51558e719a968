// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fmc

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegion(t *testing.T) {
	assert := assert.New(t)

	r := Region{Name: "LDROM", Base: 0x100000, Size: 0x800, PageSize: 0x200}
	assert.NoError(r.Validate())
	assert.Equal(uint32(0x100800), r.End())
	assert.Equal(4, r.Pages())
	assert.Equal(uint32(0x100600), r.PageAddr(3))
	assert.True(r.Contains(0x100000))
	assert.True(r.Contains(0x1007fc))
	assert.False(r.Contains(0x100800))
	assert.False(r.Contains(0xffffc))

	assert.True(r.Overlaps(Region{Base: 0x1007fc, Size: 4}))
	assert.False(r.Overlaps(Region{Base: 0x100800, Size: 4}))
	assert.False(r.Overlaps(Region{Base: 0x100000}))
	assert.Equal("LDROM[0x00100000-0x00100800)", r.String())
}

func TestRegionValidate(t *testing.T) {
	tests := []struct {
		name string
		r    Region
	}{
		{"empty", Region{PageSize: 0x200}},
		{"no pages", Region{Size: 0x200}},
		{"odd page", Region{Size: 0x300, PageSize: 0x102}},
		{"partial page", Region{Size: 0x300, PageSize: 0x200}},
		{"misaligned", Region{Base: 0x100, Size: 0x200, PageSize: 0x200}},
		{"wraps", Region{Base: 0xfffffe00, Size: 0x400, PageSize: 0x200}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.r.Validate())
		})
	}
}

func TestBootSelect(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(BootLDROM, BootSelectOf(Erased))
	assert.Equal(BootAPROM, BootSelectOf(0xffffffbf))
	assert.Equal(uint32(0xffffffbf), WithBootSelect(Erased, BootAPROM))
	assert.Equal(uint32(0xffffffff), WithBootSelect(0xffffffbf, BootLDROM))
	assert.Equal(
		WithBootSelect(0x12345678, BootAPROM),
		WithBootSelect(WithBootSelect(0x12345678, BootAPROM), BootAPROM),
	)
	assert.Equal("LDROM", BootLDROM.String())
	assert.Equal("APROM|CONFIG", (UpdateAPROM | UpdateConfig).String())
	assert.Equal("none", Update(0).String())
}

func TestDevice(t *testing.T) {
	d := NUC029FAE
	require.NoError(t, d.Validate())
	assert.Equal(t, d.LDROM, d.Region(BootLDROM))
	assert.Equal(t, d.APROM, d.Region(BootAPROM))

	bs, ok := d.Select(0x100004)
	assert.True(t, ok)
	assert.Equal(t, BootLDROM, bs)
	_, ok = d.Select(d.ConfigBase)
	assert.False(t, ok)

	d.LDROM.Base = 0x3e00
	assert.ErrorContains(t, d.Validate(), "overlaps")
}

func TestLoadDevice(t *testing.T) {
	name := filepath.Join(t.TempDir(), "dev.toml")
	err := os.WriteFile(name, []byte(`
name = "NUC029LAN"

[aprom]
size = 0x10000

[ldrom]
size = 0x1000
`), 0o644)
	require.NoError(t, err)

	d, err := LoadDevice(name)
	require.NoError(t, err)
	assert.Equal(t, "NUC029LAN", d.Name)
	assert.Equal(t, uint32(0x10000), d.APROM.Size)
	assert.Equal(t, uint32(0x200), d.APROM.PageSize)
	assert.Equal(t, "LDROM", d.LDROM.Name)
	assert.Equal(t, uint32(0x100000), d.LDROM.Base)
	assert.Equal(t, uint32(0x1000), d.LDROM.Size)

	require.NoError(t, os.WriteFile(name, []byte("[ldrom]\nsize = 0x300\n"), 0o644))
	_, err = LoadDevice(name)
	assert.Error(t, err)
}

func TestError(t *testing.T) {
	op := func() (err error) {
		defer WrapErr("Write", 0x100080, &err)
		return ErrISPFail
	}
	err := op()
	var fe *Error
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, uint32(0x100080), fe.Addr)
	assert.ErrorIs(t, err, ErrISPFail)
	assert.Equal(t, "fmc: Write 0x00100080: ISP command failed", err.Error())

	ok := func() (err error) {
		defer WrapErr("Read", 0, &err)
		return nil
	}
	assert.NoError(t, ok())
}

// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bin

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenNuvoton/NUC029FAE-BSP/firmware"
)

func TestConvert(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "app.hex")
	inc := filepath.Join(dir, "tail.bin")
	out := filepath.Join(dir, "app.bin")

	f, err := os.Create(in)
	require.NoError(t, err)
	require.NoError(t, firmware.New(0x1000, 0x20000800, 0x10c1).WriteHex(f))
	require.NoError(t, f.Close())
	require.NoError(t, os.WriteFile(inc, []byte{1, 2}, 0o644))

	require.NoError(t, convert(in, out, inc+":0x100c", 0x00))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, []byte{
		0x00, 0x08, 0x00, 0x20, 0xc1, 0x10, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 1, 2,
	}, data)
}

func TestConvertErrors(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "app.bin")

	empty := filepath.Join(dir, "empty.hex")
	require.NoError(t, os.WriteFile(empty, []byte(":00000001FF\n"), 0o644))
	assert.ErrorContains(t, convert(empty, out, "", 0xff), "no data")

	in := filepath.Join(dir, "app.hex")
	f, err := os.Create(in)
	require.NoError(t, err)
	require.NoError(t, firmware.New(0x1000, 0x20000800).WriteHex(f))
	require.NoError(t, f.Close())
	assert.ErrorContains(t, convert(in, out, "tail.bin", 0xff), "bad 'tail.bin'")
}

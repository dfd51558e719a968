// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import (
	"fmt"
	"io"

	"github.com/marcinbor85/gohex"
)

// SaveHex writes the content of the whole flash (APROM, LDROM and the
// configuration page) in the Intel HEX format.
func (f *Flash) SaveHex(w io.Writer) error {
	mem := gohex.NewMemory()
	for _, b := range f.banks {
		if err := mem.AddBinary(b.Base, b.data); err != nil {
			return err
		}
	}
	return mem.DumpIntelHex(w, 16)
}

// LoadHex loads an Intel HEX file into flash. Every data segment must fit in
// one flash region. Flash not covered by the file is left unchanged.
func (f *Flash) LoadHex(r io.Reader) error {
	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(r); err != nil {
		return err
	}
	for _, s := range mem.GetDataSegments() {
		b := f.bank(s.Address)
		if b == nil || uint64(s.Address)+uint64(len(s.Data)) > uint64(b.End()) {
			return fmt.Errorf(
				"sim: segment 0x%08x+%#x outside flash", s.Address, len(s.Data),
			)
		}
		copy(b.data[s.Address-b.Base:], s.Data)
	}
	return nil
}

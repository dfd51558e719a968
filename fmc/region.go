// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fmc

import (
	"errors"
	"fmt"
)

// Region is a contiguous memory area. Flash regions have a non-zero PageSize
// (the erase granularity).
type Region struct {
	Name     string `toml:"name"`
	Base     uint32 `toml:"base"`
	Size     uint32 `toml:"size"`
	PageSize uint32 `toml:"page_size"`
}

// End returns the first address past the region.
func (r Region) End() uint32 {
	return r.Base + r.Size
}

func (r Region) Contains(addr uint32) bool {
	return addr >= r.Base && addr-r.Base < r.Size
}

// Overlaps reports whether r and o share at least one address.
func (r Region) Overlaps(o Region) bool {
	if r.Size == 0 || o.Size == 0 {
		return false
	}
	return r.Base < o.End() && o.Base < r.End()
}

// Pages returns the number of erase pages in the region.
func (r Region) Pages() int {
	if r.PageSize == 0 {
		return 0
	}
	return int(r.Size / r.PageSize)
}

// PageAddr returns the address of the i-th page.
func (r Region) PageAddr(i int) uint32 {
	return r.Base + uint32(i)*r.PageSize
}

// Validate checks that r is a usable flash region.
func (r Region) Validate() error {
	switch {
	case r.Size == 0:
		return fmt.Errorf("%s: empty region", r.Name)
	case r.PageSize == 0 || r.PageSize%4 != 0:
		return fmt.Errorf("%s: bad page size %#x", r.Name, r.PageSize)
	case r.Size%r.PageSize != 0:
		return fmt.Errorf(
			"%s: page size %#x does not divide size %#x",
			r.Name, r.PageSize, r.Size,
		)
	case r.Base%r.PageSize != 0:
		return fmt.Errorf("%s: base %#x not page aligned", r.Name, r.Base)
	case uint64(r.Base)+uint64(r.Size) > 1<<32:
		return errors.New(r.Name + ": region exceeds the address space")
	}
	return nil
}

func (r Region) String() string {
	return fmt.Sprintf("%s[0x%08x-0x%08x)", r.Name, r.Base, r.End())
}

// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package iap

import (
	"fmt"

	"github.com/golang/glog"

	"github.com/OpenNuvoton/NUC029FAE-BSP/firmware"
	"github.com/OpenNuvoton/NUC029FAE-BSP/fmc"
)

// Loader copies firmware images into flash regions.
type Loader struct {
	fc  fmc.Controller
	cfg config
}

func NewLoader(fc fmc.Controller, opts ...Option) *Loader {
	return &Loader{fc: fc, cfg: newConfig(opts)}
}

// Load programs img at the beginning of dst and verifies it.
//
// Every page of dst is erased, then the image words that fall in the page are
// programmed. The update of dst must be enabled by the caller. After
// programming the image is read back; the first differing word is reported
// as a *VerifyError. There are no retries. A failed Load leaves dst partially
// programmed.
func (l *Loader) Load(img *firmware.Image, dst fmc.Region) error {
	if err := dst.Validate(); err != nil {
		return err
	}
	size := img.Size()
	if size > dst.Size {
		return fmt.Errorf(
			"%w: %d > %d (%s)", ErrImageTooLarge, size, dst.Size, dst.Name,
		)
	}
	glog.V(1).Infof("iap: load %d bytes to %v", size, dst)

	total := int(dst.Size)
	for i, n := 0, dst.Pages(); i < n; i++ {
		page := dst.PageAddr(i)
		if err := l.fc.Erase(page); err != nil {
			return err
		}
		glog.V(2).Infof("iap: erased page 0x%08x", page)
		off := page - dst.Base
		end := min(off+dst.PageSize, size)
		for ; off < end; off += 4 {
			if err := l.fc.Write(dst.Base+off, img.Word(off)); err != nil {
				return err
			}
		}
		l.cfg.report("program", int(min(page-dst.Base+dst.PageSize, dst.Size)), total)
	}

	for off := uint32(0); off < size; off += 4 {
		addr := dst.Base + off
		got, err := l.fc.Read(addr)
		if err != nil {
			return err
		}
		if want := img.Word(off); got != want {
			glog.Warningf("iap: verify failed at 0x%08x", addr)
			return &VerifyError{Addr: addr, Expected: want, Actual: got}
		}
		if off%dst.PageSize == 0 {
			l.cfg.report("verify", int(off), int(size))
		}
	}
	l.cfg.report("done", int(size), int(size))
	glog.V(1).Infof("iap: %v verified", dst)
	return nil
}

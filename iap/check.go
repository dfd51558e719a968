// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package iap

import (
	"github.com/OpenNuvoton/NUC029FAE-BSP/fmc"
)

// CheckVectors returns a CheckFunc that accepts only plausible Cortex-M
// vectors: the initial SP must be word aligned and point into (or just past)
// the SRAM of dev, the entry must be a Thumb address inside the target
// region.
func CheckVectors(dev fmc.Device) CheckFunc {
	return func(target fmc.Region, sp, entry uint32) string {
		switch {
		case sp == fmc.Erased && entry == fmc.Erased:
			return "region erased"
		case sp%4 != 0:
			return "misaligned stack pointer"
		case sp <= dev.SRAM.Base || sp > dev.SRAM.End():
			return "stack pointer outside SRAM"
		case entry&1 == 0:
			return "entry is not a Thumb address"
		case !target.Contains(entry &^ 1):
			return "entry outside " + target.Name
		}
		return ""
	}
}

// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package util

import (
	"os"

	"github.com/OpenNuvoton/NUC029FAE-BSP/iap"
	"github.com/OpenNuvoton/NUC029FAE-BSP/sim"
)

// ReadFlash loads the Intel HEX file name into f.
func ReadFlash(f *sim.Flash, name string) error {
	r, err := os.Open(name)
	if err != nil {
		return err
	}
	defer r.Close()
	return f.LoadHex(r)
}

// WriteFlash writes the whole content of f to the Intel HEX file name.
func WriteFlash(f *sim.Flash, name string) error {
	w, err := os.Create(name)
	if err != nil {
		return err
	}
	err = f.SaveHex(w)
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	return err
}

// LoadProgress draws the progress of iap.Loader on stderr.
func LoadProgress(p iap.Progress) {
	if p.Total == 0 {
		return
	}
	switch p.Phase {
	case "program":
		Progress("Programming:", p.Done, p.Total, 1, "B")
	case "verify", "done":
		Progress("Verifying:  ", p.Done, p.Total, 1, "B")
	}
}

// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package console

import (
	"os"

	"github.com/golang/glog"
	"golang.org/x/term"
)

// IsTerminal reports whether f is connected to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// MakeRaw puts the terminal connected to f into raw mode so that menu keys
// are delivered without waiting for Enter. The returned function restores the
// previous state. If f is not a terminal MakeRaw does nothing.
func MakeRaw(f *os.File) (restore func(), err error) {
	fd := int(f.Fd())
	if !IsTerminal(f) {
		return func() {}, nil
	}
	old, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}
	glog.V(2).Infof("console: %s in raw mode", f.Name())
	return func() { _ = term.Restore(fd, old) }, nil
}

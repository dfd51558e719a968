// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package console implements the text user interface of the sample programs:
// boxed banners and single-key menus read from a serial console.
package console

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Width is the inner width of boxes.
const Width = 40

var rule = "+" + strings.Repeat("-", Width) + "+\n"

var (
	// ErrQuit is returned by Menu.Run when the user types Ctrl-C or Ctrl-D.
	ErrQuit = errors.New("console: quit")

	// Stop is used as a return value from Item.Action to end the menu loop.
	// Menu.Run returns nil in this case.
	Stop = errors.New("stop the menu")
)

func boxLine(w io.Writer, s string) {
	if len(s) > Width-1 {
		s = s[:Width-1]
	}
	fmt.Fprintf(w, "| %-*s|\n", Width-1, s)
}

// Banner prints lines in a box.
func Banner(w io.Writer, lines ...string) {
	io.WriteString(w, rule)
	for _, s := range lines {
		boxLine(w, s)
	}
	io.WriteString(w, rule)
}

// Center returns s centered in the box width.
func Center(s string) string {
	if n := (Width - 1 - len(s)) / 2; n > 0 {
		return strings.Repeat(" ", n) + s
	}
	return s
}

// Item is a menu entry selected by Key.
type Item struct {
	Key    byte
	Label  string
	Action func() error
}

// Menu is a single-key menu.
type Menu struct {
	Title string
	Items []Item
}

// Print prints the menu and the selection prompt.
func (m *Menu) Print(w io.Writer) {
	io.WriteString(w, "\n\n\n")
	Banner(w, Center(m.Title))
	for _, it := range m.Items {
		boxLine(w, fmt.Sprintf("[%c] %s", it.Key, it.Label))
	}
	io.WriteString(w, rule)
	io.WriteString(w, "Please select...")
}

// Run prints the menu, reads one key, echoes it and runs the selected Action.
// Unknown keys print the menu again. Run returns the first Action or read
// error, or nil if the Action returned Stop.
func (m *Menu) Run(in io.ByteReader, out io.Writer) error {
	for {
		m.Print(out)
		b, err := in.ReadByte()
		if err != nil {
			return err
		}
		if b == 0x03 || b == 0x04 {
			io.WriteString(out, "\n")
			return ErrQuit
		}
		fmt.Fprintf(out, "%c\n", b)
		for _, it := range m.Items {
			if it.Key != b {
				continue
			}
			if err := it.Action(); err != nil {
				if errors.Is(err, Stop) {
					return nil
				}
				return err
			}
			break
		}
	}
}

type crlfWriter struct {
	w io.Writer
}

// NewCRLFWriter returns a writer that translates "\n" to "\r\n", as needed by
// a terminal in raw mode.
func NewCRLFWriter(w io.Writer) io.Writer {
	return crlfWriter{w}
}

func (cw crlfWriter) Write(p []byte) (int, error) {
	if bytes.IndexByte(p, '\n') < 0 {
		return cw.w.Write(p)
	}
	_, err := cw.w.Write(bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n")))
	if err != nil {
		return 0, err
	}
	return len(p), nil
}

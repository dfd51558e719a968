// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import (
	"bufio"
	"io"
)

// UART is the debug console. Written bytes stay in the transmitter until
// WaitTxEmpty or a read drains them.
type UART struct {
	core *Core
	in   *bufio.Reader
	out  io.Writer
	tx   []byte
	err  error
}

func newUART(core *Core, in io.Reader, out io.Writer) *UART {
	if in == nil {
		in = eofReader{}
	}
	if out == nil {
		out = io.Discard
	}
	return &UART{core: core, in: bufio.NewReader(in), out: out}
}

type eofReader struct{}

func (eofReader) Read([]byte) (int, error) { return 0, io.EOF }

func (u *UART) Write(p []byte) (int, error) {
	if u.err != nil {
		return 0, u.err
	}
	u.tx = append(u.tx, p...)
	return len(p), nil
}

// Pending returns the number of bytes not yet transmitted.
func (u *UART) Pending() int {
	return len(u.tx)
}

func (u *UART) flush() {
	if len(u.tx) == 0 || u.err != nil {
		return
	}
	_, u.err = u.out.Write(u.tx)
	u.tx = u.tx[:0]
}

// WaitTxEmpty blocks until the transmitter is empty.
func (u *UART) WaitTxEmpty() {
	u.flush()
	u.core.record(OpTxDrain, 0)
}

// ReadByte receives one byte. The transmitter is drained first so that
// prompts are visible before the read blocks.
func (u *UART) ReadByte() (byte, error) {
	u.flush()
	return u.in.ReadByte()
}

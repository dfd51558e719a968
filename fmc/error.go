// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fmc

import (
	"errors"
	"fmt"
)

var (
	ErrNotOpen  = errors.New("ISP function disabled")
	ErrLocked   = errors.New("protected registers locked")
	ErrUpdate   = errors.New("update disabled")
	ErrAlign    = errors.New("misaligned address")
	ErrAddress  = errors.New("address out of range")
	ErrISPFail  = errors.New("ISP command failed")
	ErrBadCount = errors.New("bad number of configuration words")
)

// Error describes a failed ISP command.
type Error struct {
	Op   string
	Addr uint32
	Err  error
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Error() string {
	return fmt.Sprintf("fmc: %s 0x%08x: %v", e.Op, e.Addr, e.Err)
}

// WrapErr wraps *err in an *Error if *err is not nil. Use it as
//
//	defer fmc.WrapErr("Erase", addr, &err)
func WrapErr(op string, addr uint32, err *error) {
	if *err != nil {
		*err = &Error{op, addr, *err}
	}
}

// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package iap

import (
	"errors"
	"fmt"

	"github.com/OpenNuvoton/NUC029FAE-BSP/fmc"
)

var (
	ErrConfigRead    = errors.New("read user config failed")
	ErrImageTooLarge = errors.New("image larger than the destination region")
	ErrRunningRegion = errors.New("destination is the running region")
)

// VerifyError reports the first word that differs after programming.
type VerifyError struct {
	Addr     uint32
	Expected uint32
	Actual   uint32
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf(
		"data mismatch on 0x%08x, expected 0x%08x, read 0x%08x",
		e.Addr, e.Expected, e.Actual,
	)
}

// BootSourceError is returned when an operation is not allowed while the code
// runs from the Running region.
type BootSourceError struct {
	Op      string
	Running fmc.BootSelect
}

func (e *BootSourceError) Error() string {
	return fmt.Sprintf("%s: not allowed while running in %v", e.Op, e.Running)
}

// ImageError is returned by Handover when the image check rejects the target.
type ImageError struct {
	Region fmc.Region
	SP     uint32
	Entry  uint32
	Reason string
}

func (e *ImageError) Error() string {
	return fmt.Sprintf(
		"no valid image in %v (sp=0x%08x entry=0x%08x): %s",
		e.Region, e.SP, e.Entry, e.Reason,
	)
}

// Error wraps a flash controller failure of the IAP operation Op.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Error() string {
	return "iap: " + e.Op + ": " + e.Err.Error()
}

func wrapErr(op string, err *error) {
	if *err != nil {
		*err = &Error{op, *err}
	}
}

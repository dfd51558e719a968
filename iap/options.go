// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package iap

import (
	"github.com/OpenNuvoton/NUC029FAE-BSP/fmc"
)

// Progress describes the progress of a Loader.Load call.
type Progress struct {
	// Phase is "program", "verify" or "done".
	Phase string

	// Done and Total count bytes. Programming counts the erased pages of the
	// whole region, verification counts the image bytes.
	Done  int
	Total int
}

// Drainer is implemented by consoles that buffer output.
type Drainer interface {
	// WaitTxEmpty blocks until all buffered output has been sent.
	WaitTxEmpty()
}

// CheckFunc validates the vectors of the image in target before the
// handover jumps to it. A non-empty reason rejects the image.
type CheckFunc func(target fmc.Region, sp, entry uint32) (reason string)

type config struct {
	progress func(Progress)
	console  Drainer
	check    CheckFunc
}

// Option configures a Loader or a Controller.
type Option func(*config)

// WithProgress sets a function called during Load to report progress.
func WithProgress(f func(Progress)) Option {
	return func(c *config) {
		c.progress = f
	}
}

// WithConsole sets the console drained before the handover jump.
func WithConsole(d Drainer) Option {
	return func(c *config) {
		c.console = d
	}
}

// WithImageCheck enables the validation of the target image before the
// handover. There is no check by default: the handover jumps to whatever
// the target region contains.
func WithImageCheck(f CheckFunc) Option {
	return func(c *config) {
		c.check = f
	}
}

func newConfig(opts []Option) config {
	var c config
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func (c *config) report(phase string, done, total int) {
	if c.progress != nil {
		c.progress(Progress{phase, done, total})
	}
}

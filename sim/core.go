// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import (
	"fmt"

	"github.com/golang/glog"
)

// Event is a single entry of the instrumentation trace.
type Event struct {
	Op         string
	Arg        uint32
	IRQEnabled bool // interrupt state when the operation completed
}

func (e Event) String() string {
	irq := "irq-off"
	if e.IRQEnabled {
		irq = "irq-on"
	}
	return fmt.Sprintf("%s(%#x) %s", e.Op, e.Arg, irq)
}

// Trace operation names.
const (
	OpUnlock    = "UNLOCK"
	OpLock      = "LOCK"
	OpCPSID     = "CPSID"
	OpCPSIE     = "CPSIE"
	OpMSP       = "MSP"
	OpJump      = "JUMP"
	OpReset     = "RESET"
	OpIRQ       = "IRQ"
	OpVecMap    = "VECMAP"
	OpTxDrain   = "TXDRAIN"
	OpErase     = "ERASE"
	OpWrite     = "WRITE"
	OpWriteConf = "WRITECFG"
)

type transfer uint8

const (
	noTransfer transfer = iota
	jumpTransfer
	resetTransfer
)

// Core models the parts of a Cortex-M0 core and the SYS block that the IAP
// code touches: PRIMASK, MSP, the vector table base, the protected register
// lock and the interrupt lines.
type Core struct {
	irqEnabled bool
	locked     bool
	msp        uint32
	pc         uint32
	vtor       uint32
	xfer       transfer

	handlers map[int]func()
	pending  []int
	raiseOn  map[string][]int

	// Trace records every operation in the order of execution.
	Trace []Event
}

// NewCore returns a core in its reset state: interrupts enabled, protected
// registers locked.
func NewCore() *Core {
	return &Core{irqEnabled: true, locked: true}
}

func (c *Core) record(op string, arg uint32) {
	c.Trace = append(c.Trace, Event{op, arg, c.irqEnabled})
	glog.V(3).Infof("sim: %s(%#x)", op, arg)
	for _, irq := range c.raiseOn[op] {
		c.Raise(irq)
	}
}

// ResetTrace clears the trace.
func (c *Core) ResetTrace() {
	c.Trace = c.Trace[:0]
}

func (c *Core) UnlockReg() {
	c.locked = false
	c.record(OpUnlock, 0)
}

func (c *Core) LockReg() {
	c.locked = true
	c.record(OpLock, 0)
}

func (c *Core) Locked() bool {
	return c.locked
}

func (c *Core) DisableInterrupts() {
	c.irqEnabled = false
	c.record(OpCPSID, 0)
}

// EnableInterrupts unmasks interrupts and runs the handlers of the pending
// ones.
func (c *Core) EnableInterrupts() {
	c.irqEnabled = true
	c.record(OpCPSIE, 0)
	pending := c.pending
	c.pending = nil
	for _, irq := range pending {
		c.Raise(irq)
	}
}

func (c *Core) IRQEnabled() bool {
	return c.irqEnabled
}

func (c *Core) SetMSP(sp uint32) {
	c.msp = sp
	c.record(OpMSP, sp)
}

func (c *Core) MSP() uint32 {
	return c.msp
}

// Jump records the transfer of control to entry. A real core never returns
// from it; the Machine starts the program installed at entry once the current
// program returns.
func (c *Core) Jump(entry uint32) {
	c.pc = entry
	c.xfer = jumpTransfer
	c.record(OpJump, entry)
}

// ChipReset requests a chip reset. Like Jump it takes effect when the current
// program returns.
func (c *Core) ChipReset() {
	c.xfer = resetTransfer
	c.record(OpReset, 0)
}

// PC returns the address of the last control transfer.
func (c *Core) PC() uint32 {
	return c.pc
}

// VectorBase returns the current vector table base (VECMAP).
func (c *Core) VectorBase() uint32 {
	return c.vtor
}

func (c *Core) setVectorBase(addr uint32) {
	c.vtor = addr
	c.record(OpVecMap, addr)
}

// Handle registers the handler of the interrupt source irq.
func (c *Core) Handle(irq int, h func()) {
	if c.handlers == nil {
		c.handlers = make(map[int]func())
	}
	c.handlers[irq] = h
}

// Raise signals the interrupt source irq. The handler runs immediately if
// interrupts are enabled, otherwise the interrupt stays pending until
// EnableInterrupts.
func (c *Core) Raise(irq int) {
	if !c.irqEnabled {
		for _, p := range c.pending {
			if p == irq {
				return
			}
		}
		c.pending = append(c.pending, irq)
		return
	}
	h := c.handlers[irq]
	if h == nil {
		return
	}
	c.record(OpIRQ, uint32(irq))
	h()
}

// Pending returns the interrupts waiting for EnableInterrupts.
func (c *Core) Pending() []int {
	return c.pending
}

// RaiseOn arranges for irq to be raised right after every op operation.
func (c *Core) RaiseOn(op string, irq int) {
	if c.raiseOn == nil {
		c.raiseOn = make(map[string][]int)
	}
	c.raiseOn[op] = append(c.raiseOn[op], irq)
}

// reset puts the core in its reset state. The handlers, the trace and the
// RaiseOn hooks survive.
func (c *Core) reset(vtor, sp, pc uint32) {
	c.irqEnabled = true
	c.locked = true
	c.pending = nil
	c.xfer = noTransfer
	c.vtor = vtor
	c.msp = sp
	c.pc = pc
}

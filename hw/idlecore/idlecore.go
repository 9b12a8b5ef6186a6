// Package idlecore provides a Z80 core that never leaves HALT. It lets the
// machine run, render and play a snapshot without an instruction decoder:
// memory only changes through the host, and interrupts are accepted by a
// service routine returning at once.
package idlecore

import (
	"zxcore/hw/z80"
)

// Instruction timings.
const (
	haltTStates = 4  // HALT executes NOPs, one M1 cycle each
	im1TStates  = 13 // interrupt acknowledge and RST 38h
	im2TStates  = 19 // interrupt acknowledge and vector fetch
)

// Core is a CPU parked on HALT.
type Core struct {
	bus  z80.Bus
	regs z80.Registers
	ts   uint32

	intEnd uint32 // INT is low until this T-state
	intOn  bool
}

func New() *Core { return &Core{} }

func (c *Core) Attach(bus z80.Bus) { c.bus = bus }

func (c *Core) Reset(hard bool) {
	if hard {
		c.regs = z80.Registers{AF: 0xFFFF, SP: 0xFFFF}
	} else {
		c.regs.PC = 0
		c.regs.I, c.regs.R = 0, 0
		c.regs.IFF1, c.regs.IFF2 = false, false
		c.regs.IM = 0
	}
	c.regs.Halted = true
	c.intOn = false
}

func (c *Core) Step() uint32 {
	start := c.ts
	if c.intOn && c.ts < c.intEnd && c.regs.IFF1 {
		c.intOn = false
		c.incR()
		if c.regs.IM == 2 {
			c.bus.Contend(c.regs.IR(), im2TStates)
		} else {
			c.bus.Contend(c.regs.IR(), im1TStates)
		}
		return c.ts - start
	}
	c.incR()
	c.bus.Contend(c.regs.PC, haltTStates)
	return c.ts - start
}

func (c *Core) incR() {
	c.regs.R = c.regs.R&0x80 | (c.regs.R+1)&0x7F
}

func (c *Core) Interrupt(ts uint32) {
	c.intOn = true
	c.intEnd = c.ts + ts
}

func (c *Core) TStates() uint32          { return c.ts }
func (c *Core) SetTStates(ts uint32)     { c.ts = ts }
func (c *Core) AddTStates(ts uint32)     { c.ts += ts }
func (c *Core) Registers() z80.Registers { return c.regs }

func (c *Core) SetRegisters(regs z80.Registers) {
	c.regs = regs
	c.regs.Halted = true
}

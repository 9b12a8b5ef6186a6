// Package z80 defines the contract between the Spectrum machine and the Z80
// instruction interpreter driving it.
package z80

import "fmt"

// Flag register bits.
const (
	FlagC  = 0x01
	FlagN  = 0x02
	FlagPV = 0x04
	FlagH  = 0x10
	FlagZ  = 0x40
	FlagS  = 0x80
)

// Registers is the Z80 register file.
type Registers struct {
	AF, BC, DE, HL     uint16
	AF2, BC2, DE2, HL2 uint16 // alternate set
	IX, IY             uint16
	SP, PC             uint16
	I, R               uint8
	IFF1, IFF2         bool
	IM                 uint8
	Halted             bool
}

func (r *Registers) A() uint8 { return uint8(r.AF >> 8) }
func (r *Registers) F() uint8 { return uint8(r.AF) }

// IR is the value the CPU puts on the address bus during refresh.
func (r *Registers) IR() uint16 { return uint16(r.I)<<8 | uint16(r.R) }

func (r *Registers) SetA(v uint8) { r.AF = uint16(v)<<8 | r.AF&0xFF }
func (r *Registers) SetF(v uint8) { r.AF = r.AF&0xFF00 | uint16(v) }

func (r Registers) String() string {
	return fmt.Sprintf("AF=%04X BC=%04X DE=%04X HL=%04X AF'=%04X BC'=%04X DE'=%04X HL'=%04X "+
		"IX=%04X IY=%04X SP=%04X PC=%04X I=%02X R=%02X IFF=%t/%t IM=%d",
		r.AF, r.BC, r.DE, r.HL, r.AF2, r.BC2, r.DE2, r.HL2,
		r.IX, r.IY, r.SP, r.PC, r.I, r.R, r.IFF1, r.IFF2, r.IM)
}

// Bus is the machine as seen by the CPU. The bus owns the timing of memory
// and IO cycles: Contend advances the CPU clock by the cycle length plus any
// ULA delay, In and Out advance it by a whole IO cycle.
type Bus interface {
	// Read returns the byte at addr. It does not advance the clock.
	Read(addr uint16) uint8
	// Write stores val at addr. It does not advance the clock.
	Write(addr uint16, val uint8)
	// Contend charges a memory cycle of ts T-states at addr, including the
	// contention delay if addr is in contended memory.
	Contend(addr uint16, ts uint32)
	// In reads port, charging a full IO cycle.
	In(port uint16) uint8
	// Out writes val to port, charging a full IO cycle.
	Out(port uint16, val uint8)

	// Peek and Poke access memory without side effects nor timing.
	Peek(addr uint16) uint8
	Poke(addr uint16, val uint8)
}

// Core is a Z80 instruction interpreter.
type Core interface {
	// Attach connects the core to the bus. It is called once, before any
	// other method.
	Attach(bus Bus)

	// Reset resets the CPU. A hard reset also clears the register file.
	Reset(hard bool)

	// Step executes one instruction, accepting a pending interrupt first if
	// interrupts are enabled. It returns the T-states consumed, contention
	// included.
	Step() uint32

	// Interrupt raises the INT line for ts T-states from the current clock.
	Interrupt(ts uint32)

	// TStates returns the clock, in T-states since the start of the frame.
	TStates() uint32
	SetTStates(ts uint32)
	AddTStates(ts uint32)

	Registers() Registers
	SetRegisters(regs Registers)
}

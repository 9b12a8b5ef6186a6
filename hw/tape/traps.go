package tape

import (
	"zxcore/emu/log"
	"zxcore/hw/z80"
)

// ROM entry points of the tape routines.
const (
	LoadTrapAddr = 0x0556 // LD-BYTES
	SaveTrapAddr = 0x04C2 // SA-BYTES
)

// Memory is the side-effect free memory view used by the traps.
type Memory interface {
	Peek(addr uint16) uint8
	Poke(addr uint16, val uint8)
}

// ret emulates the RET ending the ROM routine.
func ret(regs *z80.Registers, mem Memory) {
	regs.PC = uint16(mem.Peek(regs.SP)) | uint16(mem.Peek(regs.SP+1))<<8
	regs.SP += 2
}

func setCarry(regs *z80.Registers, ok bool) {
	f := regs.F() &^ z80.FlagC
	if ok {
		f |= z80.FlagC
	}
	regs.SetF(f)
}

// LoadTrap serves the ROM LD-BYTES routine from the next tape block. On
// entry A holds the expected flag, IX the destination, DE the length and the
// carry is set to load, reset to verify. It returns false, leaving the
// registers untouched, when there is no block left to load.
func (t *Tape) LoadTrap(regs *z80.Registers, mem Memory) bool {
	if !t.Loaded() {
		return false
	}
	b := t.blocks[t.cur]
	t.cur++
	t.p = player{}

	load := regs.F()&z80.FlagC != 0
	if b.Flag() != regs.A() {
		log.ModTape.DebugZ("load trap: flag mismatch").
			Hex8("want", regs.A()).
			Hex8("got", b.Flag()).
			End()
		setCarry(regs, false)
		ret(regs, mem)
		return true
	}

	data := b.Payload()
	n := min(int(regs.DE), len(data))
	ok := true
	for i := range n {
		if load {
			mem.Poke(regs.IX, data[i])
		} else if mem.Peek(regs.IX) != data[i] {
			ok = false
		}
		regs.IX++
	}
	regs.DE -= uint16(n)
	ok = ok && regs.DE == 0 && b.Valid()

	log.ModTape.DebugZ("load trap").
		Hex8("flag", b.Flag()).
		Int("len", n).
		Bool("load", load).
		Bool("ok", ok).
		End()
	setCarry(regs, ok)
	ret(regs, mem)
	return true
}

// SaveTrap serves the ROM SA-BYTES routine: the DE bytes at IX are recorded
// as a block with flag A.
func (t *Tape) SaveTrap(regs *z80.Registers, mem Memory) {
	data := make([]byte, regs.DE)
	for i := range data {
		data[i] = mem.Peek(regs.IX)
		regs.IX++
	}
	t.recorded = append(t.recorded, NewBlock(regs.A(), data))
	log.ModTape.DebugZ("save trap").
		Hex8("flag", regs.A()).
		Int("len", len(data)).
		End()
	regs.DE = 0
	setCarry(regs, true)
	ret(regs, mem)
}

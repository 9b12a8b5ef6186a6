package tape

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"zxcore/hw/z80"
)

type ram [0x10000]uint8

func (m *ram) Peek(addr uint16) uint8      { return m[addr] }
func (m *ram) Poke(addr uint16, val uint8) { m[addr] = val }

func trapRegs(flag uint8, load bool) (z80.Registers, *ram) {
	mem := &ram{}
	mem[0xFF00], mem[0xFF01] = 0x34, 0x12
	regs := z80.Registers{IX: 0x8000, DE: 3, SP: 0xFF00, PC: LoadTrapAddr}
	regs.SetA(flag)
	if load {
		regs.SetF(z80.FlagC)
	}
	return regs, mem
}

func checkCarry(t *testing.T, regs z80.Registers, want bool) {
	t.Helper()
	if got := regs.F()&z80.FlagC != 0; got != want {
		t.Errorf("carry = %t, want %t", got, want)
	}
	if regs.PC != 0x1234 || regs.SP != 0xFF02 {
		t.Errorf("PC, SP = %04X, %04X, want 1234, FF02", regs.PC, regs.SP)
	}
}

func TestLoadTrap(t *testing.T) {
	var tp Tape
	if err := tp.Insert(Encode([]Block{NewBlock(0xFF, []byte{1, 2, 3})})); err != nil {
		t.Fatal(err)
	}
	regs, mem := trapRegs(0xFF, true)
	if !tp.LoadTrap(&regs, mem) {
		t.Fatal("LoadTrap() = false")
	}
	checkCarry(t, regs, true)
	if diff := cmp.Diff([]uint8{1, 2, 3}, mem[0x8000:0x8003]); diff != "" {
		t.Errorf("loaded bytes mismatch (-want +got):\n%s", diff)
	}
	if regs.IX != 0x8003 || regs.DE != 0 {
		t.Errorf("IX, DE = %04X, %04X, want 8003, 0000", regs.IX, regs.DE)
	}

	// Tape exhausted: the ROM runs normally.
	regs, mem = trapRegs(0xFF, true)
	if tp.LoadTrap(&regs, mem) {
		t.Errorf("LoadTrap() = true on exhausted tape")
	}
	if regs.PC != LoadTrapAddr {
		t.Errorf("registers modified on exhausted tape")
	}
}

func TestLoadTrapFlagMismatch(t *testing.T) {
	var tp Tape
	if err := tp.Insert(Encode([]Block{NewBlock(0x00, []byte{1, 2, 3})})); err != nil {
		t.Fatal(err)
	}
	regs, mem := trapRegs(0xFF, true)
	tp.LoadTrap(&regs, mem)
	checkCarry(t, regs, false)
	if mem[0x8000] != 0 {
		t.Errorf("memory written on flag mismatch")
	}
	if tp.Position() != 1 {
		t.Errorf("Position() = %d, want 1", tp.Position())
	}
}

func TestLoadTrapVerify(t *testing.T) {
	var tp Tape
	if err := tp.Insert(Encode([]Block{NewBlock(0xFF, []byte{1, 2, 3}), NewBlock(0xFF, []byte{1, 2, 3})})); err != nil {
		t.Fatal(err)
	}
	regs, mem := trapRegs(0xFF, false)
	mem[0x8000], mem[0x8001], mem[0x8002] = 1, 2, 3
	tp.LoadTrap(&regs, mem)
	checkCarry(t, regs, true)

	regs, mem = trapRegs(0xFF, false)
	mem[0x8000], mem[0x8001], mem[0x8002] = 1, 9, 3
	tp.LoadTrap(&regs, mem)
	checkCarry(t, regs, false)
	if mem[0x8001] != 9 {
		t.Errorf("verify modified memory")
	}
}

func TestSaveTrap(t *testing.T) {
	var tp Tape
	regs, mem := trapRegs(0xFF, false)
	mem[0x8000], mem[0x8001], mem[0x8002] = 7, 8, 9
	tp.SaveTrap(&regs, mem)
	checkCarry(t, regs, true)

	blocks, err := Parse(tp.Recorded())
	if err != nil {
		t.Fatal(err)
	}
	want := []Block{NewBlock(0xFF, []byte{7, 8, 9})}
	if diff := cmp.Diff(want, blocks); diff != "" {
		t.Errorf("recorded blocks mismatch (-want +got):\n%s", diff)
	}
}

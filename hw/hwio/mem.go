package hwio

import (
	"zxcore/emu/log"
	"zxcore/hw/hwdefs"
)

const BankSize = hwdefs.BankSize

// Bank is one 16K page of RAM or ROM.
type Bank struct {
	Name      string
	Data      *[BankSize]byte
	ReadOnly  bool
	Contended bool // shares the bus with the ULA
}

func NewBank(name string, ro, contended bool) Bank {
	return Bank{Name: name, Data: new([BankSize]byte), ReadOnly: ro, Contended: contended}
}

func (b Bank) Read8(addr uint16) uint8 {
	return b.Data[addr&(BankSize-1)]
}

// Write8 writes val unless the bank is read-only. It reports whether memory
// changed.
func (b Bank) Write8(addr uint16, val uint8) bool {
	if b.ReadOnly {
		log.ModMem.DebugZ("write to ROM").
			String("bank", b.Name).
			Hex16("addr", addr).
			Hex8("val", val).
			End()
		return false
	}
	b.Data[addr&(BankSize-1)] = val
	return true
}

// Poke writes val even to read-only banks.
func (b Bank) Poke(addr uint16, val uint8) {
	b.Data[addr&(BankSize-1)] = val
}

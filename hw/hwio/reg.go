package hwio

import (
	"fmt"

	"zxcore/emu/log"
)

type RWFlags uint8

const (
	ReadWriteFlag RWFlags = 0
	ReadOnlyFlag  RWFlags = (1 << iota)
	WriteOnlyFlag
)

// Reg8 is an 8-bit IO port latch. Bits set in RoMask keep their value on
// writes. Callbacks, when set, let the owning device observe or override
// accesses.
type Reg8 struct {
	Name   string
	Value  uint8
	RoMask uint8

	Flags   RWFlags
	ReadCb  func(port uint16, val uint8) uint8
	WriteCb func(old uint8, val uint8)
}

func (reg Reg8) String() string {
	s := fmt.Sprintf("%s{%02x", reg.Name, reg.Value)
	if reg.ReadCb != nil {
		s += ",r!"
	}
	if reg.WriteCb != nil {
		s += ",w!"
	}
	return s + "}"
}

// Write8 is a CPU write through port.
func (reg *Reg8) Write8(port uint16, val uint8) {
	if reg.Flags&ReadOnlyFlag != 0 {
		log.ModHwIo.DebugZ("write to readonly port").
			String("name", reg.Name).
			Hex16("port", port).
			Hex8("val", val).
			End()
		return
	}
	old := reg.Value
	reg.Value = (reg.Value & reg.RoMask) | (val &^ reg.RoMask)
	if reg.WriteCb != nil {
		reg.WriteCb(old, reg.Value)
	}
}

// Read8 is a CPU read through port. ok is false for write-only latches, in
// which case the caller decides what the bus reads.
func (reg *Reg8) Read8(port uint16) (val uint8, ok bool) {
	if reg.Flags&WriteOnlyFlag != 0 {
		return 0, false
	}
	if reg.ReadCb != nil {
		return reg.ReadCb(port, reg.Value), true
	}
	return reg.Value, true
}

// Set loads val without masking nor callbacks, for reset and state restore.
func (reg *Reg8) Set(val uint8) { reg.Value = val }

package hwio

import (
	"zxcore/emu/log"
)

// log accesses no device answers (verbose: software polls unattached ports
// all the time)
const logUnmapped = false

type decoder struct {
	mask, match uint16
	reg         *Reg8
}

// Table dispatches IO port accesses. Spectrum peripherals decode only a few
// address lines, so a port may select several latches: writes reach all of
// them and reads return the AND of their values, as on the real bus.
type Table struct {
	Name string

	decoders []decoder
}

func NewTable(name string) *Table {
	return &Table{Name: name}
}

func (t *Table) Reset() {
	t.decoders = t.decoders[:0]
}

// MapReg8 maps reg on the ports for which port&mask == match.
func (t *Table) MapReg8(mask, match uint16, reg *Reg8) {
	log.ModHwIo.DebugZ("mapping port").
		Hex16("mask", mask).
		Hex16("match", match).
		String("reg", reg.Name).
		String("bus", t.Name).
		End()
	t.decoders = append(t.decoders, decoder{mask: mask, match: match, reg: reg})
}

// Read8 reads port. ok is false when no readable latch decodes it, in which
// case the caller provides the floating bus value.
func (t *Table) Read8(port uint16) (val uint8, ok bool) {
	val = 0xFF
	for _, d := range t.decoders {
		if port&d.mask != d.match {
			continue
		}
		if v, rok := d.reg.Read8(port); rok {
			val &= v
			ok = true
		}
	}
	if !ok && logUnmapped {
		log.ModHwIo.DebugZ("unmapped Read8").
			String("name", t.Name).
			Hex16("port", port).
			End()
	}
	return val, ok
}

// Write8 writes val to all latches decoding port. It reports whether any
// did.
func (t *Table) Write8(port uint16, val uint8) bool {
	hit := false
	for _, d := range t.decoders {
		if port&d.mask == d.match {
			d.reg.Write8(port, val)
			hit = true
		}
	}
	if !hit && logUnmapped {
		log.ModHwIo.DebugZ("unmapped Write8").
			String("name", t.Name).
			Hex16("port", port).
			Hex8("val", val).
			End()
	}
	return hit
}

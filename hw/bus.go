package hw

import (
	"zxcore/hw/hwio"
	"zxcore/hw/ula"
)

// Port decoding, as port&mask == match.
const (
	ulaMask, ulaMatch           = 0x0001, 0x0000 // 0xFE
	pagingMask, pagingMatch     = 0x8002, 0x0000 // 0x7FFD
	aySelMask, aySelMatch       = 0xC002, 0xC000 // 0xFFFD
	ayDataMask, ayDataMatch     = 0xC002, 0x8000 // 0xBFFD
	kempstonMask, kempstonMatch = 0x00E0, 0x0000 // 0x1F
	specDrumMask, specDrumMatch = 0x00FF, 0x00DF
	fullMask                    = 0xFFFF
)

// ULA port bits.
const (
	ulaBorder = 0x07
	ulaMIC    = 0x08
	ulaEAR    = 0x10
	ulaEARIn  = 0x40
	ulaUnused = 0xA0 // always read as 1
)

// bus is the part of the CPU bus common to all models: memory access and
// contention, and the IO ports every model decodes.
type bus struct {
	s  *Spectrum
	io *hwio.Table

	ula         hwio.Reg8
	kempston    hwio.Reg8
	aySel       hwio.Reg8
	ayData      hwio.Reg8
	ulaPlusReg  hwio.Reg8
	ulaPlusData hwio.Reg8
	specDrum    hwio.Reg8

	ts  uint32 // frame T-state of the IO write being dispatched
	ear bool   // last EAR output
}

func newBus(s *Spectrum) *bus {
	b := &bus{s: s, io: hwio.NewTable("io")}

	b.ula = hwio.Reg8{
		Name:    "ula",
		WriteCb: func(_, val uint8) { b.writeULA(val) },
		ReadCb:  func(port uint16, _ uint8) uint8 { return b.readULA(port) },
	}
	b.io.MapReg8(ulaMask, ulaMatch, &b.ula)

	if s.cfg.Kempston {
		b.kempston = hwio.Reg8{
			Name:   "kempston",
			Flags:  hwio.ReadOnlyFlag,
			ReadCb: func(uint16, uint8) uint8 { return s.kb.Joystick() },
		}
		b.io.MapReg8(kempstonMask, kempstonMatch, &b.kempston)
	}

	if s.info.HasAY || s.cfg.Audio.AY {
		ay := s.mixer.AY
		b.aySel = hwio.Reg8{
			Name: "ay-select",
			WriteCb: func(_, val uint8) {
				s.syncAudio(b.ts)
				ay.SelectRegister(val)
			},
			ReadCb: func(uint16, uint8) uint8 {
				s.syncAudio(s.cpu.TStates())
				return ay.ReadData()
			},
		}
		b.ayData = hwio.Reg8{
			Name:  "ay-data",
			Flags: hwio.WriteOnlyFlag,
			WriteCb: func(_, val uint8) {
				s.syncAudio(b.ts)
				ay.WriteData(val)
			},
		}
		b.io.MapReg8(aySelMask, aySelMatch, &b.aySel)
		b.io.MapReg8(ayDataMask, ayDataMatch, &b.ayData)
	}

	plus := &s.display.ULAPlus
	b.ulaPlusReg = hwio.Reg8{
		Name:  "ulaplus-reg",
		Flags: hwio.WriteOnlyFlag,
		WriteCb: func(_, val uint8) {
			s.catchUpDisplay(b.ts + s.info.BorderDrawOffset)
			plus.WriteReg(val)
		},
	}
	b.ulaPlusData = hwio.Reg8{
		Name: "ulaplus-data",
		WriteCb: func(_, val uint8) {
			s.catchUpDisplay(b.ts + s.info.BorderDrawOffset)
			plus.WriteData(val)
		},
		ReadCb: func(uint16, uint8) uint8 { return plus.ReadData() },
	}
	b.io.MapReg8(fullMask, ula.ULAPlusRegPort, &b.ulaPlusReg)
	b.io.MapReg8(fullMask, ula.ULAPlusDataPort, &b.ulaPlusData)

	if s.cfg.Audio.SpecDrum {
		b.specDrum = hwio.Reg8{
			Name:  "specdrum",
			Flags: hwio.WriteOnlyFlag,
			WriteCb: func(_, val uint8) {
				s.syncAudio(b.ts)
				s.mixer.WriteSpecDrum(val)
			},
		}
		b.io.MapReg8(specDrumMask, specDrumMatch, &b.specDrum)
	}
	return b
}

func (b *bus) reset() {
	b.ula.Set(0)
	b.ear = false
}

func (b *bus) writeULA(val uint8) {
	s := b.s
	s.catchUpDisplay(b.ts + s.info.BorderDrawOffset)
	s.display.Border = val & ulaBorder

	s.syncAudio(b.ts)
	b.ear = val&ulaEAR != 0
	s.mixer.SetEar(b.ear, val&ulaMIC != 0)
}

func (b *bus) readULA(port uint16) uint8 {
	s := b.s
	val := s.kb.Read(uint8(port>>8)) | ulaUnused

	ear := b.ear
	if s.tape.Playing() {
		s.syncAudio(s.cpu.TStates())
		ear = s.tape.Level()
	}
	if ear {
		val |= ulaEARIn
	}
	return val
}

func (b *bus) Read(addr uint16) uint8 {
	val := b.s.mem.Read(addr)
	if b.s.dbg.watched(addr) {
		b.s.dbg.check(b.s, OpRead, addr, val)
	}
	return val
}

func (b *bus) Write(addr uint16, val uint8) {
	s := b.s
	if s.mem.ScreenWrite(addr) {
		s.catchUpDisplay(s.cpu.TStates() + s.info.PaperDrawOffset)
	}
	s.mem.Write(addr, val)
	if s.dbg.watched(addr) {
		s.dbg.check(s, OpWrite, addr, val)
	}
}

func (b *bus) Contend(addr uint16, ts uint32) {
	cpu := b.s.cpu
	if b.s.mem.Contended(addr) {
		ts += b.s.tables.MemDelay(cpu.TStates())
	}
	cpu.AddTStates(ts)
}

func (b *bus) Peek(addr uint16) uint8      { return b.s.mem.Read(addr) }
func (b *bus) Poke(addr uint16, val uint8) { b.s.mem.Poke(addr, val) }

// ioCycle charges a 4 T-states IO cycle on port, with its contention.
func (b *bus) ioCycle(port uint16) {
	s := b.s
	s.cpu.AddTStates(4 + s.tables.IODelay(port, s.mem.Contended(port), s.cpu.TStates()))
}

// in charges an IO cycle and reads port. Ports nothing decodes read the
// floating bus, as sampled on the last T-state of the cycle.
func (b *bus) in(port uint16) uint8 {
	b.ioCycle(port)
	if val, ok := b.io.Read8(port); ok {
		return val
	}
	s := b.s
	return s.tables.FloatingBus(s.cpu.TStates()-1, s.mem.Screen())
}

// out dispatches a port write, effective at the start of the IO cycle, then
// charges the cycle.
func (b *bus) out(port uint16, val uint8) {
	b.ts = b.s.cpu.TStates()
	b.io.Write8(port, val)
	b.ioCycle(port)
}

// bus48 is the 48K bus: a single memory map and no paging port.
type bus48 struct {
	*bus
}

func newBus48(s *Spectrum) *bus48 {
	return &bus48{bus: newBus(s)}
}

func (b *bus48) In(port uint16) uint8       { return b.in(port) }
func (b *bus48) Out(port uint16, val uint8) { b.out(port, val) }

// bus128 is the 128K bus, adding the paging port.
type bus128 struct {
	*bus
	paging hwio.Reg8
}

func newBus128(s *Spectrum) *bus128 {
	b := &bus128{bus: newBus(s)}
	b.paging = hwio.Reg8{
		Name:  "7ffd",
		Flags: hwio.WriteOnlyFlag,
		WriteCb: func(_, val uint8) {
			// The displayed bank may change.
			s.catchUpDisplay(b.ts + s.info.PaperDrawOffset)
			s.mem.writePaging(val)
		},
	}
	b.io.MapReg8(pagingMask, pagingMatch, &b.paging)
	return b
}

// In reads port. On the 128K, reading the paging port also writes the value
// on the bus to it.
func (b *bus128) In(port uint16) uint8 {
	val := b.in(port)
	if port&pagingMask == pagingMatch {
		b.s.mem.writePaging(val)
	}
	return val
}

func (b *bus128) Out(port uint16, val uint8) { b.out(port, val) }

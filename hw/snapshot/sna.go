package snapshot

import (
	"fmt"

	"zxcore/emu/log"
	"zxcore/hw/hwdefs"
)

const (
	snaHeaderLen  = 27
	sna48Len      = snaHeaderLen + 3*hwdefs.BankSize
	sna128Len     = sna48Len + 4 + 5*hwdefs.BankSize
	sna128LongLen = sna48Len + 4 + 6*hwdefs.BankSize
)

// SNA header offsets.
const (
	snaI    = 0
	snaHL2  = 1
	snaDE2  = 3
	snaBC2  = 5
	snaAF2  = 7
	snaHL   = 9
	snaDE   = 11
	snaBC   = 13
	snaIY   = 15
	snaIX   = 17
	snaIFF  = 19 // bit 2: IFF2
	snaR    = 20
	snaAF   = 21
	snaSP   = 23
	snaIM   = 25
	snaBord = 26
)

// bank order of the 3 first 16K blocks of a 128K SNA: the banks mapped at
// 0x4000 and 0x8000, then the one paged at 0xC000.
func sna128Order(paging uint8) []int {
	n := int(paging & 7)
	order := []int{5, 2, n}
	for b := range 8 {
		if b != 5 && b != 2 && b != n {
			order = append(order, b)
		}
	}
	return order
}

// DecodeSNA decodes a 48K or 128K SNA snapshot. On a 48K snapshot, PC is
// popped from the stack.
func DecodeSNA(buf []byte) (*State, error) {
	var s *State
	switch len(buf) {
	case sna48Len:
		s = NewState(hwdefs.ZX48K)
	case sna128Len, sna128LongLen:
		s = NewState(hwdefs.ZX128K)
	default:
		return nil, fmt.Errorf("%w: SNA image is %d bytes", ErrFormat, len(buf))
	}

	h := buf[:snaHeaderLen]
	r := &s.Regs
	r.I = h[snaI]
	r.HL2 = le16(h[snaHL2:])
	r.DE2 = le16(h[snaDE2:])
	r.BC2 = le16(h[snaBC2:])
	r.AF2 = le16(h[snaAF2:])
	r.HL = le16(h[snaHL:])
	r.DE = le16(h[snaDE:])
	r.BC = le16(h[snaBC:])
	r.IY = le16(h[snaIY:])
	r.IX = le16(h[snaIX:])
	r.IFF2 = h[snaIFF]&0x04 != 0
	r.IFF1 = r.IFF2
	r.R = h[snaR]
	r.AF = le16(h[snaAF:])
	r.SP = le16(h[snaSP:])
	r.IM = h[snaIM] & 3
	s.Border = h[snaBord] & 7

	mem := buf[snaHeaderLen:]
	if s.Model == hwdefs.ZX48K {
		for i := range 3 {
			copy(s.RAM[i], mem[i*hwdefs.BankSize:])
		}
		r.PC = uint16(s.peek48(r.SP)) | uint16(s.peek48(r.SP+1))<<8
		r.SP += 2
		log.ModSnap.DebugZ("decoded 48K SNA").Hex16("pc", r.PC).End()
		return s, nil
	}

	ext := mem[3*hwdefs.BankSize:]
	r.PC = le16(ext)
	s.Paging = ext[2]
	order := sna128Order(s.Paging)
	want := sna128Len
	if len(order) == 9 { // paged bank 2 or 5 is stored twice
		want = sna128LongLen
	}
	if len(buf) != want {
		return nil, fmt.Errorf("%w: 128K SNA with bank %d paged is %d bytes, want %d",
			ErrFormat, s.Paging&7, len(buf), want)
	}
	for i, b := range order[:3] {
		copy(s.RAM[b], mem[i*hwdefs.BankSize:])
	}
	rest := ext[4:]
	for i, b := range order[3:] {
		copy(s.RAM[b], rest[i*hwdefs.BankSize:])
	}
	log.ModSnap.DebugZ("decoded 128K SNA").Hex16("pc", r.PC).Hex8("7ffd", s.Paging).End()
	return s, nil
}

// peek48 reads RAM of a 48K state at a 16-bit address, 0 for ROM.
func (s *State) peek48(addr uint16) uint8 {
	if addr < 0x4000 {
		return 0
	}
	a := int(addr) - 0x4000
	return s.RAM[a/hwdefs.BankSize][a%hwdefs.BankSize]
}

func (s *State) poke48(addr uint16, v uint8) {
	if addr < 0x4000 {
		return
	}
	a := int(addr) - 0x4000
	s.RAM[a/hwdefs.BankSize][a%hwdefs.BankSize] = v
}

// EncodeSNA encodes s as an SNA snapshot. For 48K, PC is pushed on the
// stack of the encoded image; s is not modified.
func EncodeSNA(s *State) ([]byte, error) {
	if err := s.Check(); err != nil {
		return nil, err
	}

	r := s.Regs
	var ram [][]byte
	var buf []byte
	if s.Model == hwdefs.ZX48K {
		buf = make([]byte, sna48Len)
		cp := &State{RAM: make([][]byte, 3)}
		for i := range cp.RAM {
			cp.RAM[i] = append([]byte(nil), s.RAM[i]...)
		}
		r.SP -= 2
		cp.poke48(r.SP, uint8(r.PC))
		cp.poke48(r.SP+1, uint8(r.PC>>8))
		ram = cp.RAM
	} else {
		order := sna128Order(s.Paging)
		if len(order) == 9 {
			buf = make([]byte, sna128LongLen)
		} else {
			buf = make([]byte, sna128Len)
		}
		for _, b := range order {
			ram = append(ram, s.RAM[b])
		}
	}

	h := buf[:snaHeaderLen]
	h[snaI] = r.I
	putLE16(h[snaHL2:], r.HL2)
	putLE16(h[snaDE2:], r.DE2)
	putLE16(h[snaBC2:], r.BC2)
	putLE16(h[snaAF2:], r.AF2)
	putLE16(h[snaHL:], r.HL)
	putLE16(h[snaDE:], r.DE)
	putLE16(h[snaBC:], r.BC)
	putLE16(h[snaIY:], r.IY)
	putLE16(h[snaIX:], r.IX)
	if r.IFF2 {
		h[snaIFF] = 0x04
	}
	h[snaR] = r.R
	putLE16(h[snaAF:], r.AF)
	putLE16(h[snaSP:], r.SP)
	h[snaIM] = r.IM & 3
	h[snaBord] = s.Border & 7

	off := snaHeaderLen
	for i, b := range ram {
		if i == 3 {
			putLE16(buf[off:], r.PC)
			buf[off+2] = s.Paging
			buf[off+3] = 0 // TR-DOS not paged
			off += 4
		}
		off += copy(buf[off:], b)
	}
	return buf, nil
}

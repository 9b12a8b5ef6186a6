package snapshot

import (
	"bytes"
	"fmt"

	"zxcore/emu/log"
	"zxcore/hw/hwdefs"
)

const (
	z80v1HeaderLen = 30
	z80v2ExtraLen  = 23
	z80v3ExtraLen  = 54
	z80v3XExtraLen = 55 // v3 with the last 0x1FFD write

	rawBlockLen = 0xFFFF // block length marking an uncompressed 16K page
)

// Z80 header offsets.
const (
	z80A     = 0
	z80F     = 1
	z80BC    = 2
	z80HL    = 4
	z80PC    = 6
	z80SP    = 8
	z80I     = 10
	z80R     = 11
	z80Flags = 12 // bit 0: R bit 7, bits 1-3: border, bit 5: compressed (v1)
	z80DE    = 13
	z80BC2   = 15
	z80DE2   = 17
	z80HL2   = 19
	z80A2    = 21
	z80F2    = 22
	z80IY    = 23
	z80IX    = 25
	z80IFF1  = 27
	z80IFF2  = 28
	z80IM    = 29

	// extended header, v2 and v3
	z80ExtLen   = 30
	z80PC2      = 32
	z80HwMode   = 34
	z80Paging   = 35
	z80HwFlags  = 37 // bit 7: modified hardware
	z80AYSel    = 38
	z80AYRegs   = 39
	z80TsLow    = 55 // v3
	z80TsHigh   = 57 // v3
	z80v1EndMrk = "\x00\xED\xED\x00"
)

// hwMode maps the hardware byte of v2 and v3 headers to a model.
func hwMode(version int, mode uint8) (hwdefs.Model, bool) {
	if version == 2 {
		switch mode {
		case 0, 1: // 48K, 48K + Interface 1
			return hwdefs.ZX48K, true
		case 3, 4: // 128K, 128K + Interface 1
			return hwdefs.ZX128K, true
		}
		return 0, false
	}
	switch mode {
	case 0, 1, 3: // 48K, + Interface 1, + MGT
		return hwdefs.ZX48K, true
	case 4, 5, 6, 12: // 128K, + Interface 1, + MGT, +2
		return hwdefs.ZX128K, true
	}
	return 0, false
}

// z80Header parses the version and machine of a Z80 snapshot and returns
// the total header length.
func z80Header(buf []byte) (version int, model hwdefs.Model, hdrlen int, err error) {
	if len(buf) < z80v1HeaderLen {
		return 0, 0, 0, fmt.Errorf("%w: incomplete Z80 header", ErrFormat)
	}
	if le16(buf[z80PC:]) != 0 {
		return 1, hwdefs.ZX48K, z80v1HeaderLen, nil
	}
	if len(buf) < z80v1HeaderLen+2 {
		return 0, 0, 0, fmt.Errorf("%w: incomplete Z80 extended header", ErrFormat)
	}
	switch ext := int(le16(buf[z80ExtLen:])); ext {
	case z80v2ExtraLen:
		version = 2
	case z80v3ExtraLen, z80v3XExtraLen:
		version = 3
	default:
		return 0, 0, 0, fmt.Errorf("%w: unknown Z80 extended header length %d", ErrFormat, ext)
	}
	hdrlen = z80v1HeaderLen + 2 + int(le16(buf[z80ExtLen:]))
	if len(buf) < hdrlen {
		return 0, 0, 0, fmt.Errorf("%w: incomplete Z80 extended header", ErrFormat)
	}
	model, ok := hwMode(version, buf[z80HwMode])
	if !ok || buf[z80HwFlags]&0x80 != 0 {
		return 0, 0, 0, fmt.Errorf("%w: Z80 v%d hardware mode %d (flags %02X)",
			ErrUnsupportedHardware, version, buf[z80HwMode], buf[z80HwFlags])
	}
	return version, model, hdrlen, nil
}

// pageBank maps a Z80 memory page to a RAM bank index of model m.
func pageBank(m hwdefs.Model, page uint8) (int, bool) {
	if m == hwdefs.ZX48K {
		switch page {
		case 8:
			return 0, true
		case 4:
			return 1, true
		case 5:
			return 2, true
		}
		return 0, false
	}
	if page >= 3 && page <= 10 {
		return int(page) - 3, true
	}
	return 0, false
}

func bankPage(m hwdefs.Model, bank int) uint8 {
	if m == hwdefs.ZX48K {
		return [3]uint8{8, 4, 5}[bank]
	}
	return uint8(bank + 3)
}

// encodeTStates encodes ts the way v3 headers store it: a quarter-frame counter
// running down and a quarter index that is 3 during the first quarter.
func encodeTStates(ts, perFrame uint32) (low uint16, high uint8) {
	q := perFrame / 4
	ts %= perFrame
	return uint16(q - 1 - ts%q), uint8((ts/q + 3) % 4)
}

func decodeTStates(low uint16, high uint8, perFrame uint32) uint32 {
	q := perFrame / 4
	ts := uint32((high+1)%4)*q + (q - 1 - uint32(low)%q)
	return ts % perFrame
}

// DecodeZ80 decodes a Z80 snapshot of any version.
func DecodeZ80(buf []byte) (*State, error) {
	version, model, hdrlen, err := z80Header(buf)
	if err != nil {
		return nil, err
	}
	s := NewState(model)

	h := buf
	r := &s.Regs
	r.SetA(h[z80A])
	r.SetF(h[z80F])
	r.BC = le16(h[z80BC:])
	r.HL = le16(h[z80HL:])
	r.PC = le16(h[z80PC:])
	r.SP = le16(h[z80SP:])
	r.I = h[z80I]
	flags := h[z80Flags]
	if flags == 0xFF {
		flags = 1
	}
	r.R = h[z80R]&0x7F | flags<<7
	s.Border = flags >> 1 & 7
	r.DE = le16(h[z80DE:])
	r.BC2 = le16(h[z80BC2:])
	r.DE2 = le16(h[z80DE2:])
	r.HL2 = le16(h[z80HL2:])
	r.AF2 = uint16(h[z80A2])<<8 | uint16(h[z80F2])
	r.IY = le16(h[z80IY:])
	r.IX = le16(h[z80IX:])
	r.IFF1 = h[z80IFF1] != 0
	r.IFF2 = h[z80IFF2] != 0
	r.IM = h[z80IM] & 3

	if version == 1 {
		data := buf[hdrlen:]
		if flags&0x20 != 0 {
			data = bytes.TrimSuffix(data, []byte(z80v1EndMrk))
			if data, err = decompress(data, 3*hwdefs.BankSize); err != nil {
				return nil, err
			}
		} else if len(data) != 3*hwdefs.BankSize {
			return nil, fmt.Errorf("%w: uncompressed Z80 v1 memory is %d bytes", ErrFormat, len(data))
		}
		for i := range 3 {
			copy(s.RAM[i], data[i*hwdefs.BankSize:])
		}
		log.ModSnap.DebugZ("decoded Z80").Int("version", 1).Hex16("pc", r.PC).End()
		return s, nil
	}

	r.PC = le16(h[z80PC2:])
	info := hwdefs.Info(model)
	if info.HasPaging {
		s.Paging = h[z80Paging]
	}
	s.AYSelected = h[z80AYSel]
	copy(s.AY[:], h[z80AYRegs:z80AYRegs+NumAYRegisters])
	if version == 3 {
		s.TStates = decodeTStates(le16(h[z80TsLow:]), h[z80TsHigh], info.TsPerFrame)
	}

	loaded := make([]bool, len(s.RAM))
	for off := hdrlen; off < len(buf); {
		if len(buf) < off+3 {
			return nil, fmt.Errorf("%w: incomplete memory block header at offset %d", ErrFormat, off)
		}
		length := int(le16(buf[off:]))
		page := buf[off+2]
		off += 3

		var data []byte
		if length == rawBlockLen {
			if len(buf) < off+hwdefs.BankSize {
				return nil, fmt.Errorf("%w: incomplete page %d", ErrFormat, page)
			}
			data = buf[off : off+hwdefs.BankSize]
			off += hwdefs.BankSize
		} else {
			if len(buf) < off+length {
				return nil, fmt.Errorf("%w: incomplete page %d", ErrFormat, page)
			}
			if data, err = decompress(buf[off:off+length], hwdefs.BankSize); err != nil {
				return nil, fmt.Errorf("page %d: %w", page, err)
			}
			off += length
		}

		bank, ok := pageBank(model, page)
		if !ok {
			log.ModSnap.DebugZ("ignored page").Uint8("page", page).End()
			continue
		}
		copy(s.RAM[bank], data)
		loaded[bank] = true
		log.ModSnap.DebugZ("page").
			Uint8("page", page).
			Int("bank", bank).
			Bool("compressed", length != rawBlockLen).
			End()
	}
	for bank, ok := range loaded {
		if !ok {
			return nil, fmt.Errorf("%w: missing page %d", ErrFormat, bankPage(model, bank))
		}
	}

	log.ModSnap.DebugZ("decoded Z80").Int("version", version).Hex16("pc", r.PC).End()
	return s, nil
}

// EncodeZ80 encodes s as a version 3 Z80 snapshot. Each page is compressed
// unless compression makes it larger.
func EncodeZ80(s *State) ([]byte, error) {
	if err := s.Check(); err != nil {
		return nil, err
	}
	info := hwdefs.Info(s.Model)
	r := s.Regs

	buf := make([]byte, z80v1HeaderLen+2+z80v3ExtraLen)
	buf[z80A] = r.A()
	buf[z80F] = r.F()
	putLE16(buf[z80BC:], r.BC)
	putLE16(buf[z80HL:], r.HL)
	// PC stays zero, marking an extended header.
	putLE16(buf[z80SP:], r.SP)
	buf[z80I] = r.I
	buf[z80R] = r.R & 0x7F
	buf[z80Flags] = r.R>>7 | (s.Border&7)<<1
	putLE16(buf[z80DE:], r.DE)
	putLE16(buf[z80BC2:], r.BC2)
	putLE16(buf[z80DE2:], r.DE2)
	putLE16(buf[z80HL2:], r.HL2)
	buf[z80A2] = uint8(r.AF2 >> 8)
	buf[z80F2] = uint8(r.AF2)
	putLE16(buf[z80IY:], r.IY)
	putLE16(buf[z80IX:], r.IX)
	if r.IFF1 {
		buf[z80IFF1] = 1
	}
	if r.IFF2 {
		buf[z80IFF2] = 1
	}
	buf[z80IM] = r.IM & 3

	putLE16(buf[z80ExtLen:], z80v3ExtraLen)
	putLE16(buf[z80PC2:], r.PC)
	if s.Model == hwdefs.ZX128K {
		buf[z80HwMode] = 4
		buf[z80Paging] = s.Paging
	}
	buf[z80AYSel] = s.AYSelected
	copy(buf[z80AYRegs:], s.AY[:])
	low, high := encodeTStates(s.TStates, info.TsPerFrame)
	putLE16(buf[z80TsLow:], low)
	buf[z80TsHigh] = high

	for bank, data := range s.RAM {
		page := bankPage(s.Model, bank)
		if c := compress(data); len(c) < len(data) {
			buf = append(buf, uint8(len(c)), uint8(len(c)>>8), page)
			buf = append(buf, c...)
			continue
		}
		buf = append(buf, 0xFF, 0xFF, page)
		buf = append(buf, data...)
	}
	return buf, nil
}

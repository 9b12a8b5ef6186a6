package ula

import (
	"zxcore/emu/log"
)

// ULAPlus ports.
const (
	ULAPlusRegPort  = 0xBF3B
	ULAPlusDataPort = 0xFF3B
)

// ULAPlusGroup is the register group selected by bits 6-7 of the value
// written to the register port.
type ULAPlusGroup uint8

const (
	PaletteGroup ULAPlusGroup = 0
	ModeGroup    ULAPlusGroup = 1
)

// ULAPlus is the 64 colours palette extension.
type ULAPlus struct {
	Palette   [64]uint8 // GGGRRRBB
	PaletteOn bool
	Reg       uint8 // last value written to the register port

	rgba [64]RGBA
}

func (u *ULAPlus) Reset() {
	*u = ULAPlus{}
	u.refresh()
}

func (u *ULAPlus) Group() ULAPlusGroup { return ULAPlusGroup(u.Reg >> 6) }

func (u *ULAPlus) WriteReg(val uint8) {
	u.Reg = val
}

func (u *ULAPlus) WriteData(val uint8) {
	switch u.Group() {
	case PaletteGroup:
		idx := u.Reg & 0x3F
		u.Palette[idx] = val
		u.rgba[idx] = ulaPlusRGBA(val)
	case ModeGroup:
		u.PaletteOn = val&0x01 != 0
		log.ModULA.DebugZ("ULAplus mode").Bool("palette", u.PaletteOn).End()
	}
}

func (u *ULAPlus) ReadData() uint8 {
	switch u.Group() {
	case PaletteGroup:
		return u.Palette[u.Reg&0x3F]
	case ModeGroup:
		if u.PaletteOn {
			return 1
		}
	}
	return 0
}

// SetPalette restores the whole palette, e.g. from a saved state.
func (u *ULAPlus) SetPalette(pal [64]uint8) {
	u.Palette = pal
	u.refresh()
}

func (u *ULAPlus) refresh() {
	for i, v := range u.Palette {
		u.rgba[i] = ulaPlusRGBA(v)
	}
}

// colours returns ink and paper of attr in palette mode. Bits 6-7 of attr
// select one of the four 16 colours sub-palettes.
func (u *ULAPlus) colours(attr uint8) inkPaper {
	base := (attr >> 6) * 16
	return inkPaper{
		ink:   u.rgba[base+attr&7],
		paper: u.rgba[base+8+attr>>3&7],
	}
}

func (u *ULAPlus) border(c uint8) RGBA { return u.rgba[8+c&7] }

func expand3(c uint8) uint8 { return c<<5 | c<<2 | c>>1 }

func ulaPlusRGBA(v uint8) RGBA {
	g, r, b := v>>5, v>>2&7, v&3
	b = b<<1 | (b>>1 | b&1)
	return RGBA{expand3(r), expand3(g), expand3(b), 255}
}

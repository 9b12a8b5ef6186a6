package ula

import (
	"zxcore/hw/hwdefs"
)

// flashPeriod is the number of frames between two flash phase flips.
const flashPeriod = 16

// Display paints the video signal into an RGBA frame buffer. Two buffers are
// used: the back one is painted during the frame, the front one holds the
// last finished frame.
type Display struct {
	tables  *Tables
	clut    *clut
	ULAPlus ULAPlus

	front, back []byte
	pos         int    // write cursor in back, in bytes
	ts          uint32 // next frame T-state to process

	Border uint8
	frames uint32
}

func NewDisplay(t *Tables) *Display {
	size := t.Info.ScreenWidth() * t.Info.ScreenHeight() * 4
	d := &Display{
		tables: t,
		clut:   newCLUT(),
		front:  make([]byte, size),
		back:   make([]byte, size),
	}
	d.ULAPlus.Reset()
	return d
}

// Advance paints all the pixels the ULA outputs until frame T-state to.
func (d *Display) Advance(to uint32, screen *[hwdefs.BankSize]byte) {
	mi := &d.tables.Info
	to = min(to, mi.TsPerFrame)
	if d.ts >= to {
		return
	}

	flash := (d.frames / flashPeriod) & 1
	line, col := d.ts/mi.TsPerLine, d.ts%mi.TsPerLine
	for ; d.ts < to; d.ts++ {
		cell := d.tables.Display[line][col]
		switch cell.Action {
		case Border:
			var c RGBA
			if d.ULAPlus.PaletteOn {
				c = d.ULAPlus.border(d.Border)
			} else {
				c = BorderColour(d.Border)
			}
			d.fill(c)
		case Paper:
			attr := screen[cell.Attr]
			var cols inkPaper
			if d.ULAPlus.PaletteOn {
				cols = d.ULAPlus.colours(attr)
			} else {
				cols = d.clut[flash][attr]
			}
			d.paint(screen[cell.Bitmap], cols)
		}
		if col++; col == mi.TsPerLine {
			col = 0
			line++
		}
	}
}

func (d *Display) fill(c RGBA) {
	buf := d.back[d.pos : d.pos+8*4]
	for i := 0; i < len(buf); i += 4 {
		copy(buf[i:i+4], c[:])
	}
	d.pos += len(buf)
}

func (d *Display) paint(bitmap uint8, cols inkPaper) {
	buf := d.back[d.pos : d.pos+8*4]
	for i := range 8 {
		c := &cols.paper
		if bitmap&(0x80>>i) != 0 {
			c = &cols.ink
		}
		copy(buf[i*4:i*4+4], c[:])
	}
	d.pos += len(buf)
}

// EndFrame paints the rest of the frame, publishes it and rewinds the write
// cursor. It must be called exactly once per frame.
func (d *Display) EndFrame(screen *[hwdefs.BankSize]byte) {
	d.Advance(d.tables.Info.TsPerFrame, screen)
	d.front, d.back = d.back, d.front
	d.frames++
	d.Reset()
}

// Reset rewinds the write cursor to the top-left pixel.
func (d *Display) Reset() {
	d.pos = 0
	d.ts = 0
}

// Frame returns the last finished frame. It remains valid until the next call
// to EndFrame.
func (d *Display) Frame() []byte { return d.front }

// Cursor returns the write cursor position, in bytes, and the next frame
// T-state to process.
func (d *Display) Cursor() (pos int, ts uint32) { return d.pos, d.ts }

// FlashInverted reports whether flashing attributes currently swap ink and
// paper.
func (d *Display) FlashInverted() bool { return (d.frames/flashPeriod)&1 != 0 }

func (d *Display) Width() int  { return d.tables.Info.ScreenWidth() }
func (d *Display) Height() int { return d.tables.Info.ScreenHeight() }

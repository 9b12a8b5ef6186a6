// Package ula emulates the Spectrum ULA: contention, floating bus, and the
// video signal.
package ula

import (
	"zxcore/emu/log"
	"zxcore/hw/hwdefs"
)

//go:generate go tool stringer -type=Action

// Action is what the ULA does with the video signal at a given T-state.
type Action uint8

const (
	Retrace Action = iota // no pixel output
	Border                // 8 border pixels
	Paper                 // 8 pixels from one bitmap/attribute pair
)

// Cell is one entry of the display table.
type Cell struct {
	Action Action
	Bitmap uint16 // offset of the bitmap byte in screen memory
	Attr   uint16 // offset of the attribute byte in screen memory
}

const (
	idleBus  = 0xFFFF // floating bus entry outside of screen fetches
	attrBase = hwdefs.BitmapSize
)

// IO cycle contention patterns. C:n means the ULA may delay the cycle then it
// lasts n T-states, N:n means it lasts n T-states and is never delayed.
const (
	ioN1C3   = iota // high byte uncontended, even port: N:1, C:3
	ioC1C3          // high byte contended, even port: C:1, C:3
	ioC1x4          // high byte contended, odd port: C:1, C:1, C:1, C:1
	numIOPat        // high byte uncontended, odd port is N:4, no table needed
)

// Tables holds the per-T-state lookups of one machine configuration. They are
// built once and read-only afterwards.
type Tables struct {
	Info hwdefs.MachineInfo

	// Memory contention delay, indexed by frame T-state.
	MemContention []uint8

	// Total IO contention of a 4 T-states IO cycle starting at a frame
	// T-state, per contention pattern.
	IOContention [numIOPat][]uint8

	// Screen memory offset the ULA is fetching at each frame T-state, or
	// idleBus.
	FloatBus []uint16

	// Display is indexed by [line][column] of the frame raster.
	Display [][]Cell

	// LineAddr maps a paper line to the offset of its bitmap.
	LineAddr [hwdefs.PaperHeight]uint16
}

// NewTables builds the timing tables for mi.
func NewTables(mi hwdefs.MachineInfo) (*Tables, error) {
	if err := mi.Validate(); err != nil {
		return nil, err
	}

	t := &Tables{Info: mi}
	t.buildLineAddr()
	t.buildMemContention()
	t.buildIOContention()
	t.buildFloatBus()
	t.buildDisplay()

	log.ModULA.DebugZ("built timing tables").
		String("machine", mi.Name).
		Uint32("tsPerFrame", mi.TsPerFrame).
		Int("border", mi.BorderSize).
		End()
	return t, nil
}

func (t *Tables) buildLineAddr() {
	for y := range uint16(hwdefs.PaperHeight) {
		t.LineAddr[y] = (y&0xC0)<<5 | (y&0x07)<<8 | (y&0x38)<<2
	}
}

// paperCoords returns the paper line and column of ts, counted from origin,
// and whether the ULA is reading screen memory then.
func (t *Tables) paperCoords(ts, origin uint32) (line, col uint32, ok bool) {
	if ts < origin {
		return 0, 0, false
	}
	r := ts - origin
	line, col = r/t.Info.TsPerLine, r%t.Info.TsPerLine
	return line, col, line < hwdefs.PaperHeight && col < hwdefs.PaperWidth/2
}

func (t *Tables) buildMemContention() {
	t.MemContention = make([]uint8, t.Info.TsPerFrame)
	for ts := range t.Info.TsPerFrame {
		if _, col, ok := t.paperCoords(ts, t.Info.ContentionStart); ok {
			t.MemContention[ts] = t.Info.ContentionPattern[col%8]
		}
	}
}

func (t *Tables) buildIOContention() {
	frame := t.Info.TsPerFrame
	delay := func(ts uint32) uint32 { return uint32(t.MemContention[ts%frame]) }

	for pat := range numIOPat {
		t.IOContention[pat] = make([]uint8, frame)
	}
	for start := range frame {
		ts := start + 1
		ts += delay(ts)
		t.IOContention[ioN1C3][start] = uint8(ts + 3 - start - 4)

		ts = start + delay(start) + 1
		ts += delay(ts)
		t.IOContention[ioC1C3][start] = uint8(ts + 3 - start - 4)

		ts = start
		for range 4 {
			ts += delay(ts) + 1
		}
		t.IOContention[ioC1x4][start] = uint8(ts - start - 4)
	}
}

func (t *Tables) buildFloatBus() {
	t.FloatBus = make([]uint16, t.Info.TsPerFrame)
	for ts := range t.Info.TsPerFrame {
		t.FloatBus[ts] = idleBus
		line, col, ok := t.paperCoords(ts, t.Info.FloatBusStart)
		if !ok {
			continue
		}
		x := uint16(col/8) * 2
		bitmap := t.LineAddr[line] + x
		attr := attrBase + uint16(line/8)*32 + x
		switch col % 8 {
		case 0:
			t.FloatBus[ts] = bitmap
		case 1:
			t.FloatBus[ts] = attr
		case 2:
			t.FloatBus[ts] = bitmap + 1
		case 3:
			t.FloatBus[ts] = attr + 1
		}
	}
}

func (t *Tables) buildDisplay() {
	mi := &t.Info
	b := uint32(mi.BorderSize)
	width := uint32(mi.ScreenWidth()) / 2 // in T-states
	height := uint32(mi.ScreenHeight())
	origin := mi.DisplayOrigin()

	t.Display = make([][]Cell, mi.LinesPerFrame)
	for line := range mi.LinesPerFrame {
		row := make([]Cell, mi.TsPerLine)
		for col := range mi.TsPerLine {
			ts := line*mi.TsPerLine + col
			if ts < origin {
				continue
			}
			r := ts - origin
			vl, vc := r/mi.TsPerLine, r%mi.TsPerLine
			if vl >= height || vc >= width || vc%4 != 0 {
				continue
			}
			if vl < b || vl >= b+hwdefs.PaperHeight || vc < b/2 || vc >= b/2+hwdefs.PaperWidth/2 {
				row[col] = Cell{Action: Border}
				continue
			}
			y := vl - b
			x := uint16(vc-b/2) / 4
			row[col] = Cell{
				Action: Paper,
				Bitmap: t.LineAddr[y] + x,
				Attr:   attrBase + uint16(y/8)*32 + x,
			}
		}
		t.Display[line] = row
	}
}

// At returns the display cell of frame T-state ts.
func (t *Tables) At(ts uint32) Cell {
	return t.Display[ts/t.Info.TsPerLine][ts%t.Info.TsPerLine]
}

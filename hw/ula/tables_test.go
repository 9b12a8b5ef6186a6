package ula

import (
	"testing"

	"zxcore/hw/hwdefs"
)

func newTestTables(tb testing.TB, m hwdefs.Model) *Tables {
	tb.Helper()
	t, err := NewTables(hwdefs.Info(m))
	if err != nil {
		tb.Fatal(err)
	}
	return t
}

func TestLineAddr(t *testing.T) {
	tbl := newTestTables(t, hwdefs.ZX48K)
	tests := []struct {
		y    int
		want uint16
	}{
		{0, 0x0000},
		{1, 0x0100},
		{7, 0x0700},
		{8, 0x0020},
		{63, 0x07E0},
		{64, 0x0800},
		{191, 0x17E0},
	}
	for _, tt := range tests {
		if got := tbl.LineAddr[tt.y]; got != tt.want {
			t.Errorf("LineAddr[%d] = %04x, want %04x", tt.y, got, tt.want)
		}
	}
}

func TestMemContention48K(t *testing.T) {
	tbl := newTestTables(t, hwdefs.ZX48K)
	tests := []struct {
		ts   uint32
		want uint32
	}{
		{14334, 0},
		{14335, 6},
		{14336, 5},
		{14340, 1},
		{14341, 0},
		{14342, 0},
		{14343, 6},
		{14335 + 127, 0},
		{14335 + 128, 0},
		{14335 + 224, 6},
		{14335 + 191*224 + 120, 6},
		{14335 + 192*224, 0},
		{69888 + 14335, 6}, // wraps
	}
	for _, tt := range tests {
		if got := tbl.MemDelay(tt.ts); got != tt.want {
			t.Errorf("MemDelay(%d) = %d, want %d", tt.ts, got, tt.want)
		}
		if got := tbl.MemDelay(tt.ts); got != tt.want {
			t.Errorf("MemDelay(%d) second call = %d, want %d", tt.ts, got, tt.want)
		}
	}
}

func TestMemContention128K(t *testing.T) {
	tbl := newTestTables(t, hwdefs.ZX128K)
	if got := tbl.MemDelay(14361); got != 6 {
		t.Errorf("MemDelay(14361) = %d, want 6", got)
	}
	if got := tbl.MemDelay(14361 + 228); got != 6 {
		t.Errorf("MemDelay(14361+228) = %d, want 6", got)
	}
	if got := tbl.MemDelay(14360); got != 0 {
		t.Errorf("MemDelay(14360) = %d, want 0", got)
	}
}

func TestIODelay(t *testing.T) {
	tbl := newTestTables(t, hwdefs.ZX48K)
	tests := []struct {
		name      string
		port      uint16
		contended bool
		ts        uint32
		want      uint32
	}{
		{"uncontended odd", 0x80FF, false, 14335, 0},
		{"uncontended even", 0x80FE, false, 14334, 6},
		{"uncontended even idle", 0x80FE, false, 100, 0},
		{"contended even", 0x40FE, true, 14335, 6},
		{"contended even late", 0x40FE, true, 14337, 4},
		{"contended odd", 0x40FF, true, 14335, 6 + 6},
		{"contended odd idle", 0x40FF, true, 100, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tbl.IODelay(tt.port, tt.contended, tt.ts); got != tt.want {
				t.Errorf("IODelay(%04x, %t, %d) = %d, want %d", tt.port, tt.contended, tt.ts, got, tt.want)
			}
		})
	}
}

func TestFloatingBus(t *testing.T) {
	tbl := newTestTables(t, hwdefs.ZX48K)
	var screen [hwdefs.BankSize]byte
	screen[0x0000] = 0x11
	screen[0x1800] = 0x22
	screen[0x0001] = 0x33
	screen[0x1801] = 0x44
	screen[0x0002] = 0x55
	screen[0x0100] = 0x66

	tests := []struct {
		ts   uint32
		want uint8
	}{
		{14337, IdleBusValue},
		{14338, 0x11},
		{14339, 0x22},
		{14340, 0x33},
		{14341, 0x44},
		{14342, IdleBusValue},
		{14345, IdleBusValue},
		{14346, 0x55},
		{14338 + 224, 0x66},
		{14338 + 128, IdleBusValue},
		{0, IdleBusValue},
		{69887, IdleBusValue},
	}
	for _, tt := range tests {
		if got := tbl.FloatingBus(tt.ts, &screen); got != tt.want {
			t.Errorf("FloatingBus(%d) = %02x, want %02x", tt.ts, got, tt.want)
		}
	}
}

func TestDisplayTable(t *testing.T) {
	for _, m := range []hwdefs.Model{hwdefs.ZX48K, hwdefs.ZX128K} {
		for _, border := range []int{0, 32, 48} {
			mi := hwdefs.Info(m)
			mi.BorderSize = border
			tbl, err := NewTables(mi)
			if err != nil {
				t.Fatal(err)
			}

			var counts [3]int
			for _, row := range tbl.Display {
				for _, c := range row {
					counts[c.Action]++
				}
			}
			w, h := mi.ScreenWidth(), mi.ScreenHeight()
			if got, want := counts[Border]+counts[Paper], w*h/8; got != want {
				t.Errorf("%s border=%d: %d drawing cells, want %d", m, border, got, want)
			}
			if got, want := counts[Paper], hwdefs.PaperWidth*hwdefs.PaperHeight/8; got != want {
				t.Errorf("%s border=%d: %d paper cells, want %d", m, border, got, want)
			}

			first := tbl.At(mi.PaperStart())
			if first.Action != Paper || first.Bitmap != 0 || first.Attr != 0x1800 {
				t.Errorf("%s border=%d: first paper cell = %+v", m, border, first)
			}
		}
	}
}

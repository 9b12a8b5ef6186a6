package hwio_test

import (
	"testing"

	"zxcore/hw/hwio"
)

type testTable struct {
	t testing.TB
	*hwio.Table
	ULA    hwio.Reg8
	Paging hwio.Reg8
	Joy    hwio.Reg8
}

func newTestTable(tb testing.TB) *testTable {
	tbl := &testTable{t: tb, Table: hwio.NewTable("io")}
	tbl.ULA = hwio.Reg8{
		Name:   "ula",
		Value:  0xBF,
		ReadCb: func(port uint16, val uint8) uint8 { return val &^ uint8(port>>8&1) },
	}
	tbl.Paging = hwio.Reg8{Name: "7ffd", Flags: hwio.WriteOnlyFlag}
	tbl.Joy = hwio.Reg8{Name: "kempston", Value: 0x10, Flags: hwio.ReadOnlyFlag}

	tbl.MapReg8(0x0001, 0x0000, &tbl.ULA)
	tbl.MapReg8(0x8002, 0x0000, &tbl.Paging)
	tbl.MapReg8(0x00E0, 0x0000, &tbl.Joy)
	return tbl
}

func (tbl *testTable) wantRead8(port uint16, want uint8, wantok bool) {
	tbl.t.Helper()
	if got, ok := tbl.Read8(port); got != want || ok != wantok {
		tbl.t.Errorf("Read8(%04X) = %02X, %t, want %02X, %t", port, got, ok, want, wantok)
	}
}

func TestTableRead(t *testing.T) {
	tbl := newTestTable(t)

	tbl.wantRead8(0xFEFE, 0xBF, true)
	tbl.wantRead8(0xFFFE, 0xBE, true)
	tbl.wantRead8(0x001F, 0x10, true)
	// ULA and Kempston both decode port 0x1E.
	tbl.wantRead8(0x001E, 0x10, true)
	// Paging latch is write-only.
	tbl.wantRead8(0x7FFD, 0xFF, false)
}

func TestTableWrite(t *testing.T) {
	tbl := newTestTable(t)

	if !tbl.Write8(0x7FFD, 0x17) {
		t.Fatalf("Write8(7FFD) not decoded")
	}
	if tbl.Paging.Value != 0x17 {
		t.Errorf("paging = %02X, want 17", tbl.Paging.Value)
	}

	// 0x7FFC selects the ULA and the paging latch.
	tbl.Write8(0x7FFC, 0x02)
	if tbl.ULA.Value != 0x02 || tbl.Paging.Value != 0x02 {
		t.Errorf("ula, paging = %02X, %02X, want 02, 02", tbl.ULA.Value, tbl.Paging.Value)
	}

	if tbl.Write8(0xFFFF, 0) {
		t.Errorf("Write8(FFFF) decoded")
	}
}

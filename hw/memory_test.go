package hw

import (
	"errors"
	"testing"

	"zxcore/hw/hwdefs"
)

func newTestMemory(t *testing.T, m hwdefs.Model) *Memory {
	t.Helper()
	info := hwdefs.Info(m)
	rom := make([]byte, info.ROMSize)
	for i := range rom {
		rom[i] = uint8(i / hwdefs.BankSize) // ROM number
	}
	mem, err := newMemory(&info, rom)
	if err != nil {
		t.Fatal(err)
	}
	return mem
}

func TestMemoryROMSize(t *testing.T) {
	info := hwdefs.Info(hwdefs.ZX128K)
	if _, err := newMemory(&info, make([]byte, 0x4000)); !errors.Is(err, hwdefs.ErrInvalidConfig) {
		t.Errorf("err = %v, want ErrInvalidConfig", err)
	}
}

func TestMemoryWriteROM(t *testing.T) {
	mem := newTestMemory(t, hwdefs.ZX48K)
	if mem.Write(0x1000, 0x55) {
		t.Error("Write to ROM reported a change")
	}
	if got := mem.Read(0x1000); got != 0 {
		t.Errorf("ROM = %02X after Write, want 00", got)
	}
	mem.Poke(0x1000, 0x55)
	if got := mem.Read(0x1000); got != 0x55 {
		t.Errorf("ROM = %02X after Poke, want 55", got)
	}
}

func TestMemoryContended(t *testing.T) {
	tests := []struct {
		model  hwdefs.Model
		paging uint8
		want   [4]bool // per slot
	}{
		{hwdefs.ZX48K, 0, [4]bool{false, true, false, false}},
		{hwdefs.ZX128K, 0, [4]bool{false, true, false, false}},
		{hwdefs.ZX128K, 1, [4]bool{false, true, false, true}},
		{hwdefs.ZX128K, 4, [4]bool{false, true, false, false}},
		{hwdefs.ZX128K, 7, [4]bool{false, true, false, true}},
	}
	for _, tt := range tests {
		mem := newTestMemory(t, tt.model)
		mem.writePaging(tt.paging)
		for slot, want := range tt.want {
			if got := mem.Contended(uint16(slot) << 14); got != want {
				t.Errorf("%s paging %02X: slot %d contended = %t, want %t", tt.model, tt.paging, slot, got, want)
			}
		}
	}
}

func TestMemoryROMPaging(t *testing.T) {
	mem := newTestMemory(t, hwdefs.ZX128K)
	if got := mem.Read(0); got != 0 {
		t.Errorf("ROM at reset = %d, want 0", got)
	}
	mem.writePaging(pageROM)
	if got := mem.Read(0); got != 1 {
		t.Errorf("ROM = %d, want 1", got)
	}
	if !mem.BasicROM() {
		t.Error("BasicROM() = false")
	}
}

func TestMemoryScreenWrite(t *testing.T) {
	mem := newTestMemory(t, hwdefs.ZX128K)

	tests := []struct {
		paging uint8
		addr   uint16
		want   bool
	}{
		{0, 0x4000, true},
		{0, 0x5AFF, true},
		{0, 0x5B00, false},
		{0, 0xC000, false},
		{5, 0xC000, true}, // bank 5 seen twice
		{pageShadow | 7, 0xC000, true},
		{pageShadow | 7, 0x4000, false},
		{pageShadow, 0x4000, false},
	}
	for _, tt := range tests {
		mem.reset()
		mem.writePaging(tt.paging)
		if got := mem.ScreenWrite(tt.addr); got != tt.want {
			t.Errorf("paging %02X: ScreenWrite(%04X) = %t, want %t", tt.paging, tt.addr, got, tt.want)
		}
	}
}

func TestMemoryHardReset(t *testing.T) {
	mem := newTestMemory(t, hwdefs.ZX128K)
	for i := range mem.NumBanks() {
		mem.Bank(i)[100] = 0xEE
	}
	mem.clear()
	for i := range mem.NumBanks() {
		if mem.Bank(i)[100] != 0 {
			t.Errorf("bank %d not cleared", i)
		}
	}
}

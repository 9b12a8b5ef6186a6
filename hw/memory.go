package hw

import (
	"fmt"

	"zxcore/emu/log"
	"zxcore/hw/hwdefs"
	"zxcore/hw/hwio"
)

// 128K paging register (port 0x7FFD) bits.
const (
	pageRAMMask  = 0x07 // RAM bank at 0xC000
	pageShadow   = 0x08 // display bank 7 instead of 5
	pageROM      = 0x10 // 48K BASIC ROM
	pageLock     = 0x20 // ignore further writes until reset
	shadowScreen = 7
	normalScreen = 5
)

// Memory is the ROM and RAM of the machine, mapped in four 16K slots.
type Memory struct {
	rom []hwio.Bank
	ram []hwio.Bank

	slots  [4]hwio.Bank
	screen int // RAM bank displayed by the ULA

	paging  uint8
	paged   bool // machine has 128K paging
	locked  bool
	basicID int // ROM bank holding the 48K BASIC tape routines
}

func newMemory(mi *hwdefs.MachineInfo, rom []byte) (*Memory, error) {
	if len(rom) != mi.ROMSize {
		return nil, fmt.Errorf("%w: %s ROM is %d bytes, want %d", hwdefs.ErrInvalidConfig, mi.Name, len(rom), mi.ROMSize)
	}

	m := &Memory{paged: mi.HasPaging}
	for i := range mi.ROMSize / hwdefs.BankSize {
		b := hwio.NewBank(fmt.Sprintf("rom%d", i), true, false)
		copy(b.Data[:], rom[i*hwdefs.BankSize:])
		m.rom = append(m.rom, b)
	}
	for i := range mi.RAMBanks {
		// 48K: the first bank (0x4000) shares the bus with the ULA.
		// 128K: odd banks do.
		contended := i&1 == 1
		if !mi.HasPaging {
			contended = i == 0
		}
		m.ram = append(m.ram, hwio.NewBank(fmt.Sprintf("ram%d", i), false, contended))
	}
	m.basicID = len(m.rom) - 1
	m.reset()
	return m, nil
}

// reset restores the power-on mapping.
func (m *Memory) reset() {
	m.paging = 0
	m.locked = false
	if !m.paged {
		m.slots = [4]hwio.Bank{m.rom[0], m.ram[0], m.ram[1], m.ram[2]}
		m.screen = 0
		return
	}
	m.page(0)
}

// clear zeroes all RAM.
func (m *Memory) clear() {
	for _, b := range m.ram {
		clear(b.Data[:])
	}
}

// page applies a write to the paging register, regardless of the lock.
func (m *Memory) page(val uint8) {
	m.paging = val
	m.locked = val&pageLock != 0
	m.slots = [4]hwio.Bank{
		m.rom[int(val&pageROM)>>4],
		m.ram[5],
		m.ram[2],
		m.ram[val&pageRAMMask],
	}
	m.screen = normalScreen
	if val&pageShadow != 0 {
		m.screen = shadowScreen
	}
	log.ModMem.DebugZ("paging").
		Hex8("7ffd", val).
		String("rom", m.slots[0].Name).
		String("top", m.slots[3].Name).
		Bool("locked", m.locked).
		End()
}

// writePaging is a CPU write to the paging register.
func (m *Memory) writePaging(val uint8) {
	if !m.paged {
		return
	}
	if m.locked {
		log.ModMem.DebugZ("paging locked").Hex8("7ffd", val).End()
		return
	}
	m.page(val)
}

// Paging returns the last value written to the paging register.
func (m *Memory) Paging() uint8 { return m.paging }

func (m *Memory) Read(addr uint16) uint8 {
	return m.slots[addr>>14].Read8(addr)
}

// Write stores val at addr. It reports whether memory changed, that is
// whether addr is not ROM.
func (m *Memory) Write(addr uint16, val uint8) bool {
	return m.slots[addr>>14].Write8(addr, val)
}

// Poke writes val at addr, ROM included.
func (m *Memory) Poke(addr uint16, val uint8) {
	m.slots[addr>>14].Poke(addr, val)
}

// Contended reports whether addr currently maps to contended memory.
func (m *Memory) Contended(addr uint16) bool {
	return m.slots[addr>>14].Contended
}

// Screen returns the RAM bank displayed by the ULA.
func (m *Memory) Screen() *[hwdefs.BankSize]byte { return m.ram[m.screen].Data }

// ScreenWrite reports whether a write at addr modifies the displayed bitmap
// or attributes.
func (m *Memory) ScreenWrite(addr uint16) bool {
	s := m.slots[addr>>14]
	return s.Data == m.ram[m.screen].Data && addr&(hwdefs.BankSize-1) < hwdefs.ScreenSize
}

// BasicROM reports whether the ROM holding the 48K BASIC tape routines is
// paged in.
func (m *Memory) BasicROM() bool {
	return m.slots[0].Data == m.rom[m.basicID].Data
}

// Bank returns RAM bank i.
func (m *Memory) Bank(i int) *[hwdefs.BankSize]byte { return m.ram[i].Data }

// NumBanks returns the number of RAM banks.
func (m *Memory) NumBanks() int { return len(m.ram) }

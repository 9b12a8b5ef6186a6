package ula

import "zxcore/hw/hwdefs"

// MemDelay returns the T-states the ULA holds a contended memory access
// starting at frame T-state ts.
func (t *Tables) MemDelay(ts uint32) uint32 {
	return uint32(t.MemContention[ts%t.Info.TsPerFrame])
}

// IODelay returns the contention added to a 4 T-states IO cycle on port,
// starting at frame T-state ts. highContended tells whether the high byte of
// port, seen as an address, selects contended memory.
func (t *Tables) IODelay(port uint16, highContended bool, ts uint32) uint32 {
	var pat int
	switch {
	case !highContended && port&1 != 0:
		return 0
	case !highContended:
		pat = ioN1C3
	case port&1 == 0:
		pat = ioC1C3
	default:
		pat = ioC1x4
	}
	return uint32(t.IOContention[pat][ts%t.Info.TsPerFrame])
}

// IdleBusValue is what the floating bus reads while the ULA is not fetching.
const IdleBusValue = 0xFF

// FloatingBus returns the byte the ULA is fetching from screen at frame
// T-state ts.
func (t *Tables) FloatingBus(ts uint32, screen *[hwdefs.BankSize]byte) uint8 {
	off := t.FloatBus[ts%t.Info.TsPerFrame]
	if off == idleBus {
		return IdleBusValue
	}
	return screen[off]
}

package hw

import (
	"slices"

	"zxcore/emu/log"
	"zxcore/hw/hwio"
)

//go:generate go tool stringer -type=DebugOp

// DebugOp is a kind of CPU access a breakpoint watches. Values can be or'ed
// to watch several kinds.
type DebugOp uint8

const (
	OpRead DebugOp = 1 << iota
	OpWrite
	OpExec
)

// Breakpoint stops the machine when the CPU accesses Addr with one of Ops.
type Breakpoint struct {
	Addr    uint16
	Ops     DebugOp
	Enabled bool
}

// BreakpointEvent describes a breakpoint hit.
type BreakpointEvent struct {
	Op      DebugOp
	Addr    uint16
	Value   uint8 // byte read or written
	PC      uint16
	Frame   uint64
	TStates uint32
}

// DebugHook is called after the instruction that hit a breakpoint completes.
type DebugHook func(BreakpointEvent)

type debugger struct {
	// watch has a bit set for each address with an enabled breakpoint, so
	// that accesses elsewhere skip the scan.
	watch hwio.Bitset
	bps   []Breakpoint
	hook  DebugHook

	hit  bool
	last BreakpointEvent

	// skipExec lets the instruction of an exec breakpoint run when the
	// machine resumes.
	skipExec bool
}

func (d *debugger) watched(addr uint16) bool {
	return d.watch.Len() != 0 && d.watch.Test(addr)
}

func (d *debugger) rebuild() {
	d.watch.Reset()
	for _, bp := range d.bps {
		if bp.Enabled {
			d.watch.Set(bp.Addr)
		}
	}
}

// set adds or replaces the breakpoint at bp.Addr.
func (d *debugger) set(bp Breakpoint) {
	i := slices.IndexFunc(d.bps, func(b Breakpoint) bool { return b.Addr == bp.Addr })
	if i < 0 {
		d.bps = append(d.bps, bp)
	} else {
		d.bps[i] = bp
	}
	d.rebuild()
}

func (d *debugger) remove(addr uint16) bool {
	n := len(d.bps)
	d.bps = slices.DeleteFunc(d.bps, func(b Breakpoint) bool { return b.Addr == addr })
	d.rebuild()
	return len(d.bps) != n
}

// check records a hit if an enabled breakpoint at addr watches op.
func (d *debugger) check(s *Spectrum, op DebugOp, addr uint16, val uint8) bool {
	for _, bp := range d.bps {
		if bp.Addr != addr || !bp.Enabled || bp.Ops&op == 0 {
			continue
		}
		d.hit = true
		d.last = BreakpointEvent{
			Op:      op,
			Addr:    addr,
			Value:   val,
			PC:      s.pc,
			Frame:   s.frames,
			TStates: s.cpu.TStates(),
		}
		log.ModDbg.InfoZ("breakpoint hit").
			Stringer("op", op).
			Hex16("addr", addr).
			Hex8("val", val).
			Hex16("pc", s.pc).
			End()
		return true
	}
	return false
}

// notify calls the hook for a hit recorded during the last instruction.
func (d *debugger) notify() {
	if d.hit && d.hook != nil {
		d.hook(d.last)
	}
}

// AddBreakpoint sets an enabled breakpoint on addr.
func (s *Spectrum) AddBreakpoint(addr uint16, ops DebugOp) {
	s.dbg.set(Breakpoint{Addr: addr, Ops: ops, Enabled: true})
}

// SetBreakpoint adds or replaces a breakpoint.
func (s *Spectrum) SetBreakpoint(bp Breakpoint) { s.dbg.set(bp) }

// RemoveBreakpoint removes the breakpoint on addr, reporting whether there
// was one.
func (s *Spectrum) RemoveBreakpoint(addr uint16) bool { return s.dbg.remove(addr) }

// Breakpoints returns a copy of the breakpoint list.
func (s *Spectrum) Breakpoints() []Breakpoint { return slices.Clone(s.dbg.bps) }

// SetDebugHook sets the function called on breakpoint hits, nil to remove it.
func (s *Spectrum) SetDebugHook(hook DebugHook) { s.dbg.hook = hook }

// BreakpointHit returns the breakpoint hit during the last RunFrame or Step
// call, if any.
func (s *Spectrum) BreakpointHit() (BreakpointEvent, bool) {
	return s.dbg.last, s.dbg.hit
}

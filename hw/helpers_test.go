package hw

import (
	"os"
	"testing"

	"zxcore/emu/log"
	"zxcore/hw/hwdefs"
	"zxcore/hw/z80"
)

func TestMain(m *testing.M) {
	log.Disable()
	os.Exit(m.Run())
}

// op is one scripted instruction: it drives the bus like a real core
// would, the bus accounting for its T-states.
type op func(bus z80.Bus, regs *z80.Registers)

// fakeCore runs scripted instructions, then NOPs of nopLen T-states that
// advance PC.
type fakeCore struct {
	bus  z80.Bus
	regs z80.Registers
	ts   uint32

	prog   []op
	nopLen uint32

	ints []uint32 // T-state of each Interrupt call
}

func (c *fakeCore) Attach(bus z80.Bus) { c.bus = bus }

func (c *fakeCore) Reset(hard bool) {
	c.regs = z80.Registers{}
	c.ints = nil
}

func (c *fakeCore) Step() uint32 {
	start := c.ts
	if len(c.prog) > 0 {
		p := c.prog[0]
		c.prog = c.prog[1:]
		p(c.bus, &c.regs)
		return c.ts - start
	}
	c.bus.Contend(c.regs.PC, c.nopLen)
	c.regs.PC++
	return c.ts - start
}

func (c *fakeCore) Interrupt(ts uint32) { c.ints = append(c.ints, c.ts) }

func (c *fakeCore) TStates() uint32          { return c.ts }
func (c *fakeCore) SetTStates(ts uint32)     { c.ts = ts }
func (c *fakeCore) AddTStates(ts uint32)     { c.ts += ts }
func (c *fakeCore) Registers() z80.Registers { return c.regs }

func (c *fakeCore) SetRegisters(regs z80.Registers) { c.regs = regs }

func (c *fakeCore) run(prog ...op) { c.prog = append(c.prog, prog...) }

// out and in are 4 T-states IO instructions (the opcode fetch is not
// modelled).
func out(port uint16, val uint8) op {
	return func(bus z80.Bus, _ *z80.Registers) { bus.Out(port, val) }
}

func write(addr uint16, val uint8) op {
	return func(bus z80.Bus, _ *z80.Registers) {
		bus.Contend(addr, 3)
		bus.Write(addr, val)
	}
}

func read(addr uint16) op {
	return func(bus z80.Bus, _ *z80.Registers) {
		bus.Contend(addr, 3)
		bus.Read(addr)
	}
}

func withTraps(cfg *Config) { cfg.LoadTraps, cfg.SaveTraps = true, true }

func newTestMachine(tb testing.TB, m hwdefs.Model, tweak ...func(*Config)) (*Spectrum, *fakeCore) {
	tb.Helper()

	cfg := DefaultConfig()
	cfg.Model = m
	// NOPs run through the ROM routines, keep them untrapped.
	cfg.LoadTraps, cfg.SaveTraps = false, false
	for _, f := range tweak {
		f(&cfg)
	}
	rom := make([]byte, hwdefs.Info(m).ROMSize)
	core := &fakeCore{nopLen: 4}
	s, err := New(cfg, core, rom)
	if err != nil {
		tb.Fatal(err)
	}
	return s, core
}

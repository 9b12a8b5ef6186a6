package idlecore_test

import (
	"testing"

	"zxcore/emu/log"
	"zxcore/hw"
	"zxcore/hw/hwdefs"
	"zxcore/hw/idlecore"
	"zxcore/hw/z80"
)

func init() { log.Disable() }

func newMachine(t *testing.T, regs z80.Registers) (*hw.Spectrum, *idlecore.Core) {
	t.Helper()
	core := idlecore.New()
	s, err := hw.New(hw.DefaultConfig(), core, make([]byte, 0x4000))
	if err != nil {
		t.Fatal(err)
	}
	core.SetRegisters(regs)
	return s, core
}

func TestFrameTiming(t *testing.T) {
	tests := []struct {
		name string
		regs z80.Registers
		over uint32 // T-states run past the first frame
		r    uint32 // refresh cycles
	}{
		{"di", z80.Registers{}, 0, 69888 / 4},
		{"im1", z80.Registers{IM: 1, IFF1: true}, 1, 1 + 17469},
		{"im2", z80.Registers{IM: 2, IFF1: true}, 3, 1 + 17468},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, core := newMachine(t, tt.regs)
			s.RunFrame()
			if got := core.TStates(); got != tt.over {
				t.Errorf("TStates() = %d, want %d", got, tt.over)
			}
			if got, want := core.Registers().R, uint8(tt.r&0x7F); got != want {
				t.Errorf("R = %d, want %d", got, want)
			}
		})
	}
}

func TestHalted(t *testing.T) {
	core := idlecore.New()
	core.Reset(hwdefs.HardReset)
	regs := core.Registers()
	if !regs.Halted || regs.AF != 0xFFFF || regs.SP != 0xFFFF {
		t.Errorf("registers after hard reset: %v", regs)
	}

	core.SetRegisters(z80.Registers{PC: 0x8000, IM: 1})
	if !core.Registers().Halted {
		t.Error("SetRegisters cleared Halted")
	}
	core.Reset(hwdefs.SoftReset)
	if regs := core.Registers(); regs.PC != 0 || regs.IM != 0 {
		t.Errorf("registers after soft reset: %v", regs)
	}
}

func TestContendedHalt(t *testing.T) {
	s, core := newMachine(t, z80.Registers{PC: 0x4000})
	s.Pause()
	core.SetTStates(s.Info().ContentionStart)
	n, err := s.Step()
	if err != nil {
		t.Fatal(err)
	}
	if n != 4+6 {
		t.Errorf("HALT at 4000 took %d T-states, want 10", n)
	}
}

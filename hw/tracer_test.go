package hw

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"zxcore/hw/hwdefs"
	"zxcore/hw/z80"
)

func TestTraceFormat(t *testing.T) {
	want := []string{
		`0000  00 00 00 00  AF:0000 BC:0000 DE:0000 HL:0000 IX:0000 IY:0000 SP:0000 IR:0000 T:0     L:0`,
		`8000  3E 2A C9 00  AF:12C5 BC:1234 DE:5678 HL:9ABC IX:DEF0 IY:5C3A SP:FF4A IR:3F42 T:4     L:0`,
	}

	s, core := newTestMachine(t, hwdefs.ZX48K)
	var out bytes.Buffer
	s.SetTraceOutput(&out)

	s.Pause()
	s.Step()

	s.Bus().Write(0x8000, 0x3E)
	s.Bus().Write(0x8001, 0x2A)
	s.Bus().Write(0x8002, 0xC9)
	core.SetRegisters(z80.Registers{
		PC: 0x8000, AF: 0x12C5, BC: 0x1234, DE: 0x5678, HL: 0x9ABC,
		IX: 0xDEF0, IY: 0x5C3A, SP: 0xFF4A, I: 0x3F, R: 0x42,
	})
	s.Step()

	s.SetTraceOutput(nil)
	s.Step()

	wantstr := strings.Join(want, "\n") + "\n"
	if out.String() != wantstr {
		t.Fatalf("trace differs\ngot:\n%s\nwant:\n%s\n", out.String(), wantstr)
	}
}

func TestTraceLine(t *testing.T) {
	s, core := newTestMachine(t, hwdefs.ZX48K)
	var out bytes.Buffer
	s.SetTraceOutput(&out)

	core.SetTStates(3 * s.Info().TsPerLine)
	s.Pause()
	s.Step()
	if !strings.HasSuffix(out.String(), "T:672   L:3\n") {
		t.Errorf("trace line = %q, want line 3", out.String())
	}
}

func BenchmarkTraceFormat(b *testing.B) {
	s, _ := newTestMachine(b, hwdefs.ZX48K)
	tr := tracer{w: io.Discard}
	regs := z80.Registers{PC: 0xE052, AF: 0x0044, SP: 0xFF40}

	for b.Loop() {
		tr.write(s, &regs)
	}
}

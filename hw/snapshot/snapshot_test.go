package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"zxcore/hw/hwdefs"
	"zxcore/hw/z80"
)

func testRegs() z80.Registers {
	return z80.Registers{
		AF: 0x1122, BC: 0x3344, DE: 0x5566, HL: 0x7788,
		AF2: 0x99AA, BC2: 0xBBCC, DE2: 0xDDEE, HL2: 0xFF01,
		IX: 0x2345, IY: 0x5C3A, SP: 0x8000, PC: 0x1234,
		I: 0x3F, R: 0x85, IFF1: true, IFF2: true, IM: 1,
	}
}

// fillState fills RAM with a pattern mixing runs and noise.
func fillState(s *State) {
	for b, bank := range s.RAM {
		for i := range bank {
			switch {
			case i < 0x1000:
				bank[i] = 0
			case i < 0x1100:
				bank[i] = 0xED
			default:
				bank[i] = uint8(i*7 + b)
			}
		}
	}
}

func TestDecodeSNA48(t *testing.T) {
	buf := make([]byte, sna48Len)
	buf[snaI] = 0x3F
	putLE16(buf[snaHL:], 0x7788)
	buf[snaIFF] = 0x04
	buf[snaR] = 0x85
	putLE16(buf[snaAF:], 0x1122)
	putLE16(buf[snaSP:], 0x8000)
	buf[snaIM] = 1
	buf[snaBord] = 2
	image := buf[snaHeaderLen:]
	for i := range image {
		image[i] = uint8(i >> 3)
	}
	// PC on the stack.
	image[0x8000-0x4000] = 0x34
	image[0x8001-0x4000] = 0x12

	s, err := DecodeSNA(buf)
	if err != nil {
		t.Fatal(err)
	}
	if s.Model != hwdefs.ZX48K {
		t.Errorf("Model = %v, want %v", s.Model, hwdefs.ZX48K)
	}
	if s.Regs.PC != 0x1234 || s.Regs.SP != 0x8002 {
		t.Errorf("PC, SP = %04X, %04X, want 1234, 8002", s.Regs.PC, s.Regs.SP)
	}
	if !s.Regs.IFF1 || !s.Regs.IFF2 || s.Regs.IM != 1 || s.Border != 2 {
		t.Errorf("IFF=%t/%t IM=%d border=%d, want true/true 1 2", s.Regs.IFF1, s.Regs.IFF2, s.Regs.IM, s.Border)
	}
	ram := bytes.Join(s.RAM, nil)
	if !bytes.Equal(ram, image) {
		t.Errorf("RAM differs from SNA image")
	}

	enc, err := EncodeSNA(s)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(enc, buf) {
		t.Errorf("EncodeSNA(DecodeSNA(buf)) != buf")
	}
}

func TestSNA128RoundTrip(t *testing.T) {
	for _, paging := range []uint8{0x03, 0x15, 0x12} {
		s := NewState(hwdefs.ZX128K)
		fillState(s)
		s.Regs = testRegs()
		s.Paging = paging
		s.Border = 5

		buf, err := EncodeSNA(s)
		if err != nil {
			t.Fatal(err)
		}
		want := sna128Len
		if p := paging & 7; p == 2 || p == 5 {
			want = sna128LongLen
		}
		if len(buf) != want {
			t.Errorf("paging %02X: len = %d, want %d", paging, len(buf), want)
		}

		got, err := Decode(buf)
		if err != nil {
			t.Fatalf("paging %02X: %v", paging, err)
		}
		if diff := cmp.Diff(s, got); diff != "" {
			t.Errorf("paging %02X: state mismatch (-want +got):\n%s", paging, diff)
		}
	}
}

func TestSNABadLength(t *testing.T) {
	if _, err := DecodeSNA(make([]byte, sna48Len-1)); !errors.Is(err, ErrFormat) {
		t.Errorf("DecodeSNA() error = %v, want %v", err, ErrFormat)
	}

	// The long 128K variant is only valid with bank 2 or 5 paged.
	buf := make([]byte, sna128LongLen)
	buf[sna48Len+2] = 0x01
	if _, err := DecodeSNA(buf); !errors.Is(err, ErrFormat) {
		t.Errorf("DecodeSNA() error = %v, want %v", err, ErrFormat)
	}
}

func TestZ80RoundTrip(t *testing.T) {
	for _, m := range []hwdefs.Model{hwdefs.ZX48K, hwdefs.ZX128K} {
		t.Run(m.String(), func(t *testing.T) {
			s := NewState(m)
			fillState(s)
			s.Regs = testRegs()
			s.Border = 6
			s.AYSelected = 7
			s.AY[7] = 0x38
			s.AY[8] = 0x0F
			s.TStates = 12345
			if m == hwdefs.ZX128K {
				s.Paging = 0x17
			}

			buf, err := EncodeZ80(s)
			if err != nil {
				t.Fatal(err)
			}
			got, err := Decode(buf)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(s, got); diff != "" {
				t.Errorf("state mismatch (-want +got):\n%s", diff)
			}

			again, err := EncodeZ80(got)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(again, buf) {
				t.Errorf("EncodeZ80(DecodeZ80(buf)) != buf")
			}

			model, err := Peek(buf)
			if err != nil || model != m {
				t.Errorf("Peek() = %v, %v, want %v", model, err, m)
			}
		})
	}
}

func TestZ80FloatingAYSelection(t *testing.T) {
	s := NewState(hwdefs.ZX128K)
	s.AYSelected = 16

	buf, err := EncodeZ80(s)
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeZ80(buf)
	if err != nil {
		t.Fatal(err)
	}
	if got.AYSelected != 16 {
		t.Errorf("AYSelected = %d, want 16", got.AYSelected)
	}
}

func TestZ80Blocks(t *testing.T) {
	s := NewState(hwdefs.ZX48K)
	for i := range s.RAM[1] {
		s.RAM[1][i] = uint8(i * 7)
	}
	buf, err := EncodeZ80(s)
	if err != nil {
		t.Fatal(err)
	}

	off := z80v1HeaderLen + 2 + z80v3ExtraLen
	var lengths []uint16
	var pages []uint8
	for off < len(buf) {
		n := le16(buf[off:])
		lengths = append(lengths, n)
		pages = append(pages, buf[off+2])
		size := int(n)
		if n == rawBlockLen {
			size = hwdefs.BankSize
		}
		off += 3 + size
	}
	if diff := cmp.Diff([]uint8{8, 4, 5}, pages); diff != "" {
		t.Errorf("pages mismatch (-want +got):\n%s", diff)
	}
	// Zero pages are 64 full runs and a short one.
	want := []uint16{65 * 4, rawBlockLen, 65 * 4}
	if diff := cmp.Diff(want, lengths); diff != "" {
		t.Errorf("block lengths mismatch (-want +got):\n%s", diff)
	}
}

func TestZ80DecompressionMismatch(t *testing.T) {
	buf, err := EncodeZ80(NewState(hwdefs.ZX48K))
	if err != nil {
		t.Fatal(err)
	}
	// First run of the first page: 255 zeros becomes 254.
	first := z80v1HeaderLen + 2 + z80v3ExtraLen + 3
	if buf[first+2] != 0xFF {
		t.Fatalf("unexpected block content % X", buf[first:first+4])
	}
	buf[first+2] = 0xFE
	if _, err := DecodeZ80(buf); !errors.Is(err, ErrDecompressedLength) {
		t.Errorf("DecodeZ80() error = %v, want %v", err, ErrDecompressedLength)
	}

	// v1, compressed, expanding to 16 bytes only.
	v1 := make([]byte, z80v1HeaderLen)
	v1[z80PC] = 0x00
	v1[z80PC+1] = 0x80
	v1[z80Flags] = 0x20
	v1 = append(v1, 0xED, 0xED, 0x10, 0x00)
	v1 = append(v1, z80v1EndMrk...)
	if _, err := DecodeZ80(v1); !errors.Is(err, ErrDecompressedLength) {
		t.Errorf("DecodeZ80(v1) error = %v, want %v", err, ErrDecompressedLength)
	}
}

func TestZ80v1(t *testing.T) {
	mem := make([]byte, 3*hwdefs.BankSize)
	for i := range mem {
		mem[i] = uint8(i >> 8)
	}
	h := make([]byte, z80v1HeaderLen)
	h[z80A] = 0x11
	h[z80F] = 0x22
	putLE16(h[z80PC:], 0x8000)
	h[z80R] = 0x05
	h[z80Flags] = 0x20 | 3<<1 | 1
	h[z80IM] = 2

	buf := append(h, compress(mem)...)
	buf = append(buf, z80v1EndMrk...)
	s, err := DecodeZ80(buf)
	if err != nil {
		t.Fatal(err)
	}
	if s.Regs.AF != 0x1122 || s.Regs.PC != 0x8000 || s.Regs.R != 0x85 || s.Regs.IM != 2 || s.Border != 3 {
		t.Errorf("regs = %v border=%d", s.Regs, s.Border)
	}
	if !bytes.Equal(bytes.Join(s.RAM, nil), mem) {
		t.Errorf("RAM mismatch")
	}
}

func TestZ80UnsupportedHardware(t *testing.T) {
	buf, err := EncodeZ80(NewState(hwdefs.ZX128K))
	if err != nil {
		t.Fatal(err)
	}
	buf[z80HwMode] = 7 // +3
	if _, err := DecodeZ80(buf); !errors.Is(err, ErrUnsupportedHardware) {
		t.Errorf("DecodeZ80() error = %v, want %v", err, ErrUnsupportedHardware)
	}
	if _, err := Peek(buf); !errors.Is(err, ErrUnsupportedHardware) {
		t.Errorf("Peek() error = %v, want %v", err, ErrUnsupportedHardware)
	}

	buf[z80HwMode] = 12 // +2
	if model, err := Peek(buf); err != nil || model != hwdefs.ZX128K {
		t.Errorf("Peek(+2) = %v, %v, want %v", model, err, hwdefs.ZX128K)
	}
}

func TestZ80MissingPage(t *testing.T) {
	buf, err := EncodeZ80(NewState(hwdefs.ZX48K))
	if err != nil {
		t.Fatal(err)
	}
	// Drop the last page.
	buf = buf[:len(buf)-3-65*4]
	if _, err := DecodeZ80(buf); !errors.Is(err, ErrFormat) {
		t.Errorf("DecodeZ80() error = %v, want %v", err, ErrFormat)
	}
}

func TestRLE(t *testing.T) {
	tests := []struct {
		name      string
		raw, comp []byte
	}{
		{"short run", []byte{1, 1, 1, 1}, []byte{1, 1, 1, 1}},
		{"long run", []byte{1, 1, 1, 1, 1}, []byte{0xED, 0xED, 5, 1}},
		{"ED pair", []byte{0xED, 0xED}, []byte{0xED, 0xED, 2, 0xED}},
		{"lone ED", []byte{0xED, 0, 0, 0, 0, 0, 0}, []byte{0xED, 0, 0xED, 0xED, 5, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			comp := compress(tt.raw)
			if diff := cmp.Diff(tt.comp, comp); diff != "" {
				t.Errorf("compress mismatch (-want +got):\n%s", diff)
			}
			raw, err := decompress(comp, len(tt.raw))
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.raw, raw); diff != "" {
				t.Errorf("decompress mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTStatesEncoding(t *testing.T) {
	for _, m := range []hwdefs.Model{hwdefs.ZX48K, hwdefs.ZX128K} {
		per := hwdefs.Info(m).TsPerFrame
		for _, ts := range []uint32{0, 1, per/4 - 1, per / 4, per / 2, per - 1} {
			low, high := encodeTStates(ts, per)
			if got := decodeTStates(low, high, per); got != ts {
				t.Errorf("%v: decode(encode(%d)) = %d", m, ts, got)
			}
		}
		if _, high := encodeTStates(0, per); high != 3 {
			t.Errorf("%v: quarter index of ts 0 = %d, want 3", m, high)
		}
	}
}

func TestDetect(t *testing.T) {
	if _, err := Decode([]byte{1, 2, 3}); !errors.Is(err, ErrFormat) {
		t.Errorf("Decode() error = %v, want %v", err, ErrFormat)
	}
	if f, err := ParseFormat("Z80"); err != nil || f != FormatZ80 {
		t.Errorf("ParseFormat(Z80) = %v, %v", f, err)
	}
	if _, err := Encode(NewState(hwdefs.ZX48K), Format(9)); !errors.Is(err, ErrFormat) {
		t.Errorf("Encode() error = %v, want %v", err, ErrFormat)
	}
}

func TestMarshalJSON(t *testing.T) {
	s := NewState(hwdefs.ZX48K)
	s.Regs = testRegs()
	buf, err := s.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	if !json.Valid(buf) {
		t.Fatalf("invalid JSON: %s", buf)
	}
	for _, want := range []string{`"model":"48k"`, `"pc":4660`, `"iff1":true`} {
		if !strings.Contains(string(buf), want) {
			t.Errorf("JSON lacks %s: %s", want, buf)
		}
	}
}

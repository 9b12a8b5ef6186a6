// Package snapshot decodes and encodes the SNA and Z80 machine snapshot
// formats. Decoding produces a State which the machine applies as a whole.
package snapshot

import (
	"errors"
	"fmt"

	"zxcore/hw/hwdefs"
	"zxcore/hw/z80"
)

var (
	// ErrFormat reports bytes that match no known snapshot layout.
	ErrFormat = errors.New("unrecognized snapshot format")
	// ErrDecompressedLength reports a compressed memory block that does not
	// expand to its stated size.
	ErrDecompressedLength = errors.New("decompressed block length mismatch")
	// ErrUnsupportedHardware reports a snapshot of a machine that is not
	// emulated.
	ErrUnsupportedHardware = errors.New("unsupported hardware")
)

// NumAYRegisters is the size of the AY register file stored in snapshots.
const NumAYRegisters = 16

// State is a decoded machine snapshot.
type State struct {
	Model hwdefs.Model
	Regs  z80.Registers

	// RAM holds one 16K slice per RAM bank. 48K machines have 3 banks,
	// mapped at 0x4000, 0x8000 and 0xC000.
	RAM [][]byte

	Border uint8
	Paging uint8 // last write to port 0x7FFD

	AY         [NumAYRegisters]uint8
	AYSelected uint8

	TStates uint32
}

// NewState returns a zeroed state for model m.
func NewState(m hwdefs.Model) *State {
	s := &State{Model: m}
	s.RAM = make([][]byte, hwdefs.Info(m).RAMBanks)
	for i := range s.RAM {
		s.RAM[i] = make([]byte, hwdefs.BankSize)
	}
	return s
}

// Check verifies that the RAM of s matches its model.
func (s *State) Check() error {
	if want := hwdefs.Info(s.Model).RAMBanks; len(s.RAM) != want {
		return fmt.Errorf("%w: %s state has %d RAM banks, want %d", ErrFormat, s.Model, len(s.RAM), want)
	}
	for i, b := range s.RAM {
		if len(b) != hwdefs.BankSize {
			return fmt.Errorf("%w: RAM bank %d is %d bytes", ErrFormat, i, len(b))
		}
	}
	return nil
}

// Format identifies a snapshot encoding.
type Format uint8

const (
	FormatSNA Format = iota
	FormatZ80
)

func (f Format) String() string {
	switch f {
	case FormatSNA:
		return "sna"
	case FormatZ80:
		return "z80"
	}
	return fmt.Sprintf("Format(%d)", f)
}

// ParseFormat parses a format name, as in a file extension.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "sna", "SNA":
		return FormatSNA, nil
	case "z80", "Z80":
		return FormatZ80, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrFormat, s)
}

// Detect returns the format of buf. SNA images are recognized by their
// exact length, anything else long enough is assumed to be Z80.
func Detect(buf []byte) (Format, error) {
	switch len(buf) {
	case sna48Len, sna128Len, sna128LongLen:
		return FormatSNA, nil
	}
	if len(buf) >= z80v1HeaderLen {
		return FormatZ80, nil
	}
	return 0, fmt.Errorf("%w: %d bytes", ErrFormat, len(buf))
}

// Decode detects the format of buf and decodes it.
func Decode(buf []byte) (*State, error) {
	f, err := Detect(buf)
	if err != nil {
		return nil, err
	}
	if f == FormatSNA {
		return DecodeSNA(buf)
	}
	return DecodeZ80(buf)
}

// Encode encodes s in format f.
func Encode(s *State, f Format) ([]byte, error) {
	switch f {
	case FormatSNA:
		return EncodeSNA(s)
	case FormatZ80:
		return EncodeZ80(s)
	}
	return nil, fmt.Errorf("%w: %s", ErrFormat, f)
}

// Peek returns the model a snapshot requires, without decoding memory.
func Peek(buf []byte) (hwdefs.Model, error) {
	f, err := Detect(buf)
	if err != nil {
		return 0, err
	}
	if f == FormatSNA {
		if len(buf) == sna48Len {
			return hwdefs.ZX48K, nil
		}
		return hwdefs.ZX128K, nil
	}
	_, model, _, err := z80Header(buf)
	return model, err
}

func le16(b []byte) uint16 { return uint16(b[0]) | uint16(b[1])<<8 }

func putLE16(b []byte, v uint16) {
	b[0] = uint8(v)
	b[1] = uint8(v >> 8)
}

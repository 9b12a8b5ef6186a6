package hwdefs

import (
	"errors"
	"fmt"
	"strings"
)

//go:generate go tool stringer -type=Model -linecomment

// Model identifies an emulated Spectrum variant.
type Model uint8

const (
	ZX48K  Model = iota // 48k
	ZX128K              // 128k
)

const numModels = 2

// ParseModel returns the model named s ("48k", "128k").
func ParseModel(s string) (Model, error) {
	for m := range Model(numModels) {
		if strings.EqualFold(m.String(), s) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown machine model %q", ErrInvalidConfig, s)
}

func (m Model) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *Model) UnmarshalText(text []byte) error {
	mm, err := ParseModel(string(text))
	if err != nil {
		return err
	}
	*m = mm
	return nil
}

// Valid reports whether m is an emulated model.
func (m Model) Valid() bool { return m < numModels }

// Reset kinds. A hard reset also clears RAM, as a power cycle.
const (
	SoftReset = false
	HardReset = true
)

// Screen memory layout.
const (
	PaperWidth  = 256
	PaperHeight = 192
	BitmapSize  = 6144
	AttrSize    = 768
	ScreenSize  = BitmapSize + AttrSize

	BankSize = 0x4000

	MaxBorderSize     = 48
	DefaultBorderSize = 32
)

// ErrInvalidConfig is returned when a MachineInfo cannot produce usable timing
// tables.
var ErrInvalidConfig = errors.New("invalid machine configuration")

// MachineInfo holds the timing constants and capabilities of a machine model.
// It is immutable once the machine is built.
type MachineInfo struct {
	Model Model
	Name  string

	ClockHz       uint32
	IntLength     uint32 // T-states during which INT is held low
	TsPerFrame    uint32
	TsPerLine     uint32
	LinesPerFrame uint32

	// First contended T-state of the frame. The ULA fetches the first bitmap
	// byte one T-state later.
	ContentionStart uint32

	// T-state at which an IN observes the first bitmap byte on the floating bus.
	FloatBusStart uint32

	// Latency between a CPU write and the pixel it affects.
	BorderDrawOffset uint32
	PaperDrawOffset  uint32

	ContentionPattern [8]uint8

	ROMSize   int
	RAMBanks  int
	HasAY     bool
	HasPaging bool

	// Width in pixels of the emulated border on each side of the paper.
	BorderSize int
}

var machines = [numModels]MachineInfo{
	ZX48K: {
		Model:             ZX48K,
		Name:              "ZX Spectrum 48K",
		ClockHz:           3500000,
		IntLength:         32,
		TsPerFrame:        69888,
		TsPerLine:         224,
		LinesPerFrame:     312,
		ContentionStart:   14335,
		FloatBusStart:     14338,
		BorderDrawOffset:  10,
		PaperDrawOffset:   16,
		ContentionPattern: [8]uint8{6, 5, 4, 3, 2, 1, 0, 0},
		ROMSize:           0x4000,
		RAMBanks:          3,
		BorderSize:        DefaultBorderSize,
	},
	ZX128K: {
		Model:             ZX128K,
		Name:              "ZX Spectrum 128K",
		ClockHz:           3546900,
		IntLength:         36,
		TsPerFrame:        70908,
		TsPerLine:         228,
		LinesPerFrame:     311,
		ContentionStart:   14361,
		FloatBusStart:     14364,
		BorderDrawOffset:  12,
		PaperDrawOffset:   16,
		ContentionPattern: [8]uint8{6, 5, 4, 3, 2, 1, 0, 0},
		ROMSize:           0x8000,
		RAMBanks:          8,
		HasAY:             true,
		HasPaging:         true,
		BorderSize:        DefaultBorderSize,
	},
}

// Info returns the MachineInfo of model m, with the default border size.
func Info(m Model) MachineInfo {
	if m >= numModels {
		panic(fmt.Sprintf("unknown model %d", m))
	}
	return machines[m]
}

func (mi *MachineInfo) ScreenWidth() int  { return PaperWidth + 2*mi.BorderSize }
func (mi *MachineInfo) ScreenHeight() int { return PaperHeight + 2*mi.BorderSize }

// PaperStart is the T-state at which the first paper pixel is drawn.
func (mi *MachineInfo) PaperStart() uint32 { return mi.ContentionStart + 1 }

// DisplayOrigin is the T-state of the top-left pixel of the emulated border.
func (mi *MachineInfo) DisplayOrigin() uint32 {
	b := uint32(mi.BorderSize)
	return mi.PaperStart() - b*mi.TsPerLine - b/2
}

// FramesPerSecond is the frame rate derived from the CPU clock.
func (mi *MachineInfo) FramesPerSecond() float64 {
	return float64(mi.ClockHz) / float64(mi.TsPerFrame)
}

// Validate checks that timing tables built from mi are not degenerate.
func (mi *MachineInfo) Validate() error {
	errorf := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}

	switch {
	case mi.Model >= numModels:
		return errorf("unknown model %d", mi.Model)
	case mi.TsPerFrame == 0 || mi.TsPerLine == 0 || mi.LinesPerFrame == 0:
		return errorf("zero frame timing (%d T-states/frame, %d T-states/line, %d lines)",
			mi.TsPerFrame, mi.TsPerLine, mi.LinesPerFrame)
	case mi.TsPerLine*mi.LinesPerFrame != mi.TsPerFrame:
		return errorf("%d lines of %d T-states do not make a %d T-states frame",
			mi.LinesPerFrame, mi.TsPerLine, mi.TsPerFrame)
	case mi.ClockHz < mi.TsPerFrame:
		return errorf("clock %dHz is slower than one frame per second", mi.ClockHz)
	case mi.IntLength == 0 || mi.IntLength >= mi.TsPerFrame:
		return errorf("interrupt length %d out of range", mi.IntLength)
	case mi.BorderSize < 0 || mi.BorderSize > MaxBorderSize || mi.BorderSize%8 != 0:
		return errorf("border size %d must be a multiple of 8 in [0, %d]", mi.BorderSize, MaxBorderSize)
	case mi.TsPerLine < PaperWidth/2+uint32(mi.BorderSize):
		return errorf("%d T-states per line cannot hold a %dpx wide display", mi.TsPerLine, mi.ScreenWidth())
	case mi.ROMSize <= 0 || mi.ROMSize%BankSize != 0:
		return errorf("ROM size %d is not a multiple of %d", mi.ROMSize, BankSize)
	case mi.RAMBanks < 3:
		return errorf("%d RAM banks, need at least 3", mi.RAMBanks)
	case mi.HasPaging && mi.RAMBanks != 8:
		return errorf("paging requires 8 RAM banks, got %d", mi.RAMBanks)
	}

	b := uint32(mi.BorderSize)
	if mi.PaperStart() < b*mi.TsPerLine+b/2 {
		return errorf("top border of %d lines starts before the frame", b)
	}
	if end := mi.DisplayOrigin() + (2*b+PaperHeight)*mi.TsPerLine; end > mi.TsPerFrame {
		return errorf("display ends at T-state %d, after the end of the frame", end)
	}
	if mi.FloatBusStart < mi.ContentionStart {
		return errorf("floating bus starts before contention")
	}
	return nil
}

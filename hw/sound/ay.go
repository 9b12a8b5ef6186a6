// Package sound emulates the Spectrum audio sources: the beeper, the
// AY-3-8912 sound chip and the SpecDrum DAC.
package sound

import (
	"math"

	"zxcore/emu/log"
)

// AY registers.
const (
	ToneAFine = iota
	ToneACoarse
	ToneBFine
	ToneBCoarse
	ToneCFine
	ToneCCoarse
	NoisePeriod
	MixerControl
	AVolume
	BVolume
	CVolume
	EnvFine
	EnvCoarse
	EnvShape
	IOPortA
	IOPortB

	NumRegisters
)

// FloatingRegister is the slot selected by register numbers above 15.
const FloatingRegister = NumRegisters

// Writable bits of each register.
var regMasks = [NumRegisters]uint8{
	0xFF, 0x0F, 0xFF, 0x0F, 0xFF, 0x0F, // tone periods
	0x1F,             // noise period
	0xFF,             // mixer
	0x1F, 0x1F, 0x1F, // volumes
	0xFF, 0xFF, 0x0F, // envelope period, shape
	0xFF, 0xFF, // IO ports
}

// The AY is clocked at half the CPU speed and its generators count every 8 AY
// clocks.
const tsPerTick = 16

// floatingHalfLife is the number of T-states after which the value left on
// the data bus by the last write has lost half its charge.
const floatingHalfLife = 1 << 20

// AY emulates the AY-3-8912 programmable sound generator.
type AY struct {
	regs     [NumRegisters]uint8
	selected uint8

	tone  [3]tone
	noise noise
	env   envelope

	floating float64 // decaying value of the last written byte
	ticks    uint32  // T-states not yet converted into a tick

	volumes [16]float64
}

func NewAY() *AY {
	ay := &AY{}
	ay.buildVolumes()
	ay.Reset()
	return ay
}

// buildVolumes builds the logarithmic DAC table, 3dB per step.
func (ay *AY) buildVolumes() {
	v := 1.0
	for i := 15; i > 0; i-- {
		ay.volumes[i] = v
		v /= math.Sqrt2
	}
	ay.volumes[0] = 0
}

func (ay *AY) Reset() {
	clear(ay.regs[:])
	ay.selected = 0
	ay.floating = 0
	ay.ticks = 0
	for i := range ay.tone {
		ay.tone[i] = tone{period: 1}
	}
	ay.noise = noise{period: 1, lfsr: 1}
	ay.env = envelope{period: 1}
	ay.env.setShape(0)
}

// SelectRegister latches the register targeted by the next data access.
func (ay *AY) SelectRegister(reg uint8) {
	if reg >= NumRegisters {
		reg = FloatingRegister
	}
	ay.selected = reg
}

// Selected returns the latched register number, FloatingRegister if out of
// range.
func (ay *AY) Selected() uint8 { return ay.selected }

// WriteData writes val to the selected register.
func (ay *AY) WriteData(val uint8) {
	ay.floating = float64(val)
	if ay.selected == FloatingRegister {
		return
	}
	ay.writeReg(ay.selected, val)
}

func (ay *AY) writeReg(reg, val uint8) {
	val &= regMasks[reg]
	ay.regs[reg] = val

	switch reg {
	case ToneAFine, ToneACoarse, ToneBFine, ToneBCoarse, ToneCFine, ToneCCoarse:
		ch := reg / 2
		ay.tone[ch].setPeriod(uint16(ay.regs[ch*2+1])<<8 | uint16(ay.regs[ch*2]))
	case NoisePeriod:
		ay.noise.setPeriod(val)
	case EnvFine, EnvCoarse:
		ay.env.setPeriod(uint16(ay.regs[EnvCoarse])<<8 | uint16(ay.regs[EnvFine]))
	case EnvShape:
		ay.env.setShape(val)
		log.ModSound.DebugZ("AY envelope shape").Hex8("shape", val).End()
	}
}

// ReadData returns the selected register, or the decayed bus value when the
// floating slot is selected.
func (ay *AY) ReadData() uint8 {
	if ay.selected == FloatingRegister {
		return ay.Floating()
	}
	return ay.regs[ay.selected]
}

// Floating returns the current value of the floating register.
func (ay *AY) Floating() uint8 {
	return uint8(ay.floating)
}

// Registers returns a copy of the register file.
func (ay *AY) Registers() [NumRegisters]uint8 { return ay.regs }

// SetRegisters loads a register file, as when restoring a snapshot.
func (ay *AY) SetRegisters(regs [NumRegisters]uint8, selected uint8) {
	for reg, val := range regs {
		ay.writeReg(uint8(reg), val)
	}
	ay.SelectRegister(selected)
}

// Advance runs the chip for ts T-states. It reports whether the generators
// were clocked.
func (ay *AY) Advance(ts uint32) bool {
	ay.decay(ts)
	ticked := false
	for range ts {
		if ay.clock() {
			ticked = true
		}
	}
	return ticked
}

// decay discharges the floating register for ts T-states.
func (ay *AY) decay(ts uint32) {
	ay.floating *= math.Exp2(-float64(ts) / floatingHalfLife)
}

// clock advances the chip by one T-state.
func (ay *AY) clock() bool {
	if ay.ticks++; ay.ticks < tsPerTick {
		return false
	}
	ay.ticks = 0
	ay.tick()
	return true
}

func (ay *AY) tick() {
	for i := range ay.tone {
		ay.tone[i].tick()
	}
	ay.noise.tick()
	ay.env.tick()
}

// Levels returns the output of the three channels, in [0, 1].
func (ay *AY) Levels() (a, b, c float64) {
	return ay.level(0), ay.level(1), ay.level(2)
}

func (ay *AY) level(ch int) float64 {
	mixer := ay.regs[MixerControl]
	toneOff := mixer>>ch&1 != 0
	noiseOff := mixer>>(ch+3)&1 != 0
	if !(toneOff || ay.tone[ch].out) || !(noiseOff || ay.noise.out()) {
		return 0
	}

	vol := ay.regs[AVolume+ch]
	if vol&0x10 != 0 {
		return ay.volumes[ay.env.level()]
	}
	return ay.volumes[vol&0x0F]
}

type tone struct {
	period  uint16
	counter uint16
	out     bool
}

func (t *tone) setPeriod(p uint16) { t.period = max(p, 1) }

func (t *tone) tick() {
	if t.counter++; t.counter >= t.period {
		t.counter = 0
		t.out = !t.out
	}
}

// noise is a 17-bit LFSR shifted at half the tone rate.
type noise struct {
	period  uint16
	counter uint16
	lfsr    uint32
}

func (n *noise) setPeriod(p uint8) { n.period = max(uint16(p), 1) }

func (n *noise) tick() {
	if n.counter++; n.counter >= n.period*2 {
		n.counter = 0
		bit := (n.lfsr ^ n.lfsr>>3) & 1
		n.lfsr = n.lfsr>>1 | bit<<16
	}
}

func (n *noise) out() bool { return n.lfsr&1 != 0 }

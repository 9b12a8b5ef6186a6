package sound

import (
	"fmt"
	"math"

	"github.com/arl/blip"

	"zxcore/emu/log"
)

// StereoMode tells how the AY channels are spread between left and right.
type StereoMode string

const (
	Mono StereoMode = "mono"
	ABC  StereoMode = "abc"
	ACB  StereoMode = "acb"
)

// Config holds the mixer settings.
type Config struct {
	SampleRate   int
	BeeperGain   float64
	AYGain       float64
	SpecDrumGain float64
	AY           bool // mix the AY chip
	SpecDrum     bool // mix the SpecDrum DAC
	Stereo       StereoMode

	// BandLimited replaces level averaging with band-limited synthesis.
	BandLimited bool
}

func DefaultConfig() Config {
	return Config{
		SampleRate:   44100,
		BeeperGain:   0.4,
		AYGain:       0.4,
		SpecDrumGain: 0.3,
		AY:           true,
		Stereo:       ACB,
	}
}

// Beeper output levels, relative to a full EAR swing.
const (
	earLevel     = 1.0
	micLevel     = 0.25
	tapeLevel    = 0.2
	ringFrames   = 8 // frames of audio held in the ring buffer
	maxFrameSize = blip.MaxFrame
)

// Mixer combines the audio sources into an interleaved 16-bit stereo ring
// buffer, stepped by elapsed T-states.
type Mixer struct {
	cfg Config
	AY  *AY

	ear, mic, tape bool
	dac            uint8

	tsPerSample float64
	tsCounter   float64
	sumL, sumR  float64
	sumN        float64

	// Current output, recomputed when a source changes.
	curL, curR float64
	dirty      bool

	ring []int16
	idx  uint32

	// Band-limited mode.
	bufl, bufr   *blip.Buffer
	clock        uint64 // T-states since the last EndFrame
	prevL, prevR int32
	tmp          []int16
}

// NewMixer creates a mixer for a machine running at clockHz, with frames of
// tsPerFrame T-states.
func NewMixer(cfg Config, clockHz, tsPerFrame uint32) (*Mixer, error) {
	if cfg.SampleRate <= 0 || uint32(cfg.SampleRate) > clockHz {
		return nil, fmt.Errorf("invalid sample rate %d", cfg.SampleRate)
	}
	fps := float64(clockHz) / float64(tsPerFrame)
	perFrame := int(math.Ceil(float64(cfg.SampleRate) / fps))
	if perFrame > maxFrameSize {
		return nil, fmt.Errorf("sample rate %d too high", cfg.SampleRate)
	}

	m := &Mixer{
		cfg:         cfg,
		AY:          NewAY(),
		tsPerSample: float64(clockHz) / float64(cfg.SampleRate),
		ring:        make([]int16, perFrame*2*ringFrames),
		dirty:       true,
	}
	if cfg.BandLimited {
		m.bufl = blip.NewBuffer(maxFrameSize)
		m.bufr = blip.NewBuffer(maxFrameSize)
		m.bufl.SetRates(float64(clockHz), float64(cfg.SampleRate))
		m.bufr.SetRates(float64(clockHz), float64(cfg.SampleRate))
		m.tmp = make([]int16, maxFrameSize*2)
	}
	log.ModSound.DebugZ("mixer ready").
		Int("rate", cfg.SampleRate).
		Bool("bandlimited", cfg.BandLimited).
		Int("ring", len(m.ring)).
		End()
	return m, nil
}

func (m *Mixer) Reset() {
	m.AY.Reset()
	m.ear, m.mic, m.tape = false, false, false
	m.dac = 0x80
	m.tsCounter, m.sumL, m.sumR, m.sumN = 0, 0, 0, 0
	m.dirty = true
	clear(m.ring)
	m.idx = 0
	if m.cfg.BandLimited {
		m.bufl.Clear()
		m.bufr.Clear()
		m.clock = 0
		m.prevL, m.prevR = 0, 0
	}
}

func (m *Mixer) Config() Config { return m.cfg }

// SetEar sets the EAR and MIC outputs of the ULA.
func (m *Mixer) SetEar(ear, mic bool) {
	if ear != m.ear || mic != m.mic {
		m.ear, m.mic = ear, mic
		m.dirty = true
	}
}

// SetTapeLevel feeds the tape signal into the speaker.
func (m *Mixer) SetTapeLevel(on bool) {
	if on != m.tape {
		m.tape = on
		m.dirty = true
	}
}

// WriteSpecDrum writes the SpecDrum DAC, 0x80 is silence.
func (m *Mixer) WriteSpecDrum(val uint8) {
	m.dac = val
	m.dirty = true
}

// Advance runs the audio sources for ts T-states.
func (m *Mixer) Advance(ts uint32) {
	if ts == 0 {
		return
	}

	m.AY.decay(ts)
	for range ts {
		if m.cfg.AY && m.AY.clock() {
			m.dirty = true
		}
		if m.dirty {
			m.mix()
		}

		if m.cfg.BandLimited {
			m.addDeltas()
			continue
		}

		m.sumL += m.curL
		m.sumR += m.curR
		m.sumN++
		if m.tsCounter++; m.tsCounter >= m.tsPerSample {
			m.tsCounter -= m.tsPerSample
			m.push(m.sumL/m.sumN, m.sumR/m.sumN)
			m.sumL, m.sumR, m.sumN = 0, 0, 0
		}
	}
}

func (m *Mixer) addDeltas() {
	l, r := int32(m.curL*math.MaxInt16), int32(m.curR*math.MaxInt16)
	if l != m.prevL {
		m.bufl.AddDelta(m.clock, l-m.prevL)
		m.prevL = l
	}
	if r != m.prevR {
		m.bufr.AddDelta(m.clock, r-m.prevR)
		m.prevR = r
	}
	m.clock++
}

// EndFrame flushes the band-limited buffers into the ring buffer. It is a
// no-op in averaging mode.
func (m *Mixer) EndFrame() {
	if !m.cfg.BandLimited {
		return
	}
	m.bufl.EndFrame(int(m.clock))
	m.bufr.EndFrame(int(m.clock))
	m.clock = 0

	n := m.bufl.ReadSamples(m.tmp, maxFrameSize, blip.Stereo)
	m.bufr.ReadSamples(m.tmp[1:], maxFrameSize, blip.Stereo)
	for i := range n * 2 {
		m.ring[m.idx] = m.tmp[i]
		m.idx = (m.idx + 1) % uint32(len(m.ring))
	}
}

// mix recomputes the current output levels, in [-1, 1].
func (m *Mixer) mix() {
	m.dirty = false

	var beeper float64
	if m.ear {
		beeper += earLevel
	}
	if m.mic {
		beeper += micLevel
	}
	if m.tape {
		beeper += tapeLevel
	}
	beeper *= m.cfg.BeeperGain
	l, r := beeper, beeper

	if m.cfg.AY {
		a, b, c := m.AY.Levels()
		var al, ar float64
		switch m.cfg.Stereo {
		case ABC:
			al, ar = (a+b/2)/1.5, (c+b/2)/1.5
		case ACB:
			al, ar = (a+c/2)/1.5, (b+c/2)/1.5
		default:
			al = (a + b + c) / 3
			ar = al
		}
		l += al * m.cfg.AYGain
		r += ar * m.cfg.AYGain
	}

	if m.cfg.SpecDrum {
		d := (float64(m.dac) - 128) / 128 * m.cfg.SpecDrumGain
		l += d
		r += d
	}

	m.curL, m.curR = clamp(l), clamp(r)
}

func clamp(v float64) float64 { return max(-1, min(1, v)) }

func (m *Mixer) push(l, r float64) {
	m.ring[m.idx] = int16(l * math.MaxInt16)
	m.ring[m.idx+1] = int16(r * math.MaxInt16)
	m.idx = (m.idx + 2) % uint32(len(m.ring))
}

// Buffer returns the ring buffer of interleaved left/right samples.
func (m *Mixer) Buffer() []int16 { return m.ring }

// LastIndex returns the ring buffer write cursor: samples before it, up to
// the previous value returned, are new.
func (m *Mixer) LastIndex() uint32 { return m.idx }

// SamplesPerFrame returns the number of stereo samples one frame produces.
func (m *Mixer) SamplesPerFrame() int { return len(m.ring) / 2 / ringFrames }

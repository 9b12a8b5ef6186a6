package sound

import (
	"math"
	"testing"
)

const (
	testClock = 3500000
	testFrame = 69888
)

func newTestMixer(tb testing.TB, modify func(*Config)) *Mixer {
	tb.Helper()
	cfg := DefaultConfig()
	if modify != nil {
		modify(&cfg)
	}
	m, err := NewMixer(cfg, testClock, testFrame)
	if err != nil {
		tb.Fatal(err)
	}
	m.Reset()
	return m
}

func TestMixerSamplesPerFrame(t *testing.T) {
	m := newTestMixer(t, nil)
	m.Advance(testFrame)

	// 69888 T-states at 79.36 T-states per sample.
	if got, want := m.LastIndex(), uint32(880*2); got != want {
		t.Errorf("LastIndex() = %d, want %d", got, want)
	}
	if got, want := m.SamplesPerFrame(), 881; got != want {
		t.Errorf("SamplesPerFrame() = %d, want %d", got, want)
	}
}

func TestMixerRingWraps(t *testing.T) {
	m := newTestMixer(t, nil)
	size := uint32(len(m.Buffer()))
	var total uint32
	for range 3 * ringFrames {
		before := m.LastIndex()
		m.Advance(testFrame)
		after := m.LastIndex()
		if after >= size {
			t.Fatalf("LastIndex() = %d, beyond ring size %d", after, size)
		}
		total += (after + size - before) % size
	}
	if total%2 != 0 {
		t.Errorf("odd number of samples written: %d", total)
	}
}

func TestBeeperAveraging(t *testing.T) {
	m := newTestMixer(t, func(cfg *Config) { cfg.AY = false })
	full := int16(m.cfg.BeeperGain * math.MaxInt16)

	// 10 samples with the speaker up, then one sample half up.
	m.SetEar(true, false)
	m.Advance(uint32(m.tsPerSample*10) + 1)
	buf := m.Buffer()
	for i := range 20 {
		if buf[i] != full {
			t.Fatalf("sample %d = %d, want %d", i, buf[i], full)
		}
	}

	start := m.LastIndex()
	half := uint32(m.tsPerSample / 2)
	m.Advance(half)
	m.SetEar(false, false)
	m.Advance(uint32(m.tsPerSample))
	got := buf[start]
	if got <= 0 || got >= full {
		t.Errorf("averaged sample = %d, want in ]0, %d[", got, full)
	}
	if buf[start] != buf[start+1] {
		t.Errorf("beeper is not centered: left %d right %d", buf[start], buf[start+1])
	}
}

func TestSpecDrum(t *testing.T) {
	m := newTestMixer(t, func(cfg *Config) {
		cfg.AY = false
		cfg.SpecDrum = true
	})
	m.WriteSpecDrum(0x80)
	m.Advance(1000)
	if got := m.Buffer()[0]; got != 0 {
		t.Errorf("silent DAC sample = %d, want 0", got)
	}

	start := m.LastIndex()
	m.WriteSpecDrum(0xFF)
	m.Advance(1000)
	if got := m.Buffer()[start]; got <= 0 {
		t.Errorf("DAC sample = %d, want > 0", got)
	}
}

func TestBandLimited(t *testing.T) {
	m := newTestMixer(t, func(cfg *Config) { cfg.BandLimited = true })

	// 1kHz square wave on the beeper.
	const halfPeriod = testClock / 2000
	for ts := uint32(0); ts < testFrame; ts += halfPeriod {
		m.SetEar(ts/halfPeriod%2 == 0, false)
		m.Advance(min(halfPeriod, testFrame-ts))
	}
	if m.LastIndex() != 0 {
		t.Fatalf("samples written before EndFrame")
	}
	m.EndFrame()

	n := m.LastIndex()
	if n < 2*878 || n > 2*882 {
		t.Errorf("LastIndex() = %d after one frame, want about %d", n, 2*880)
	}
	nonzero := 0
	for _, s := range m.Buffer()[:n] {
		if s != 0 {
			nonzero++
		}
	}
	if nonzero == 0 {
		t.Errorf("band-limited output is silent")
	}
}

func TestNewMixerRejectsBadRate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SampleRate = 0
	if _, err := NewMixer(cfg, testClock, testFrame); err == nil {
		t.Errorf("NewMixer with rate 0 succeeded")
	}
}

package tape

import (
	"zxcore/emu/log"
)

// Pulse lengths, in T-states.
const (
	PilotPulse  = 2168
	HeaderPilot = 8063 // pilot pulses before a header block
	DataPilot   = 3223 // pilot pulses before a data block
	Sync1Pulse  = 667
	Sync2Pulse  = 735
	ZeroPulse   = 855
	OnePulse    = 1710
	PauseLength = 3500000 // 1s of silence after each block
)

type playState uint8

const (
	statePilot playState = iota
	stateSync1
	stateSync2
	stateData
	statePause
)

// player turns blocks into EAR pulses.
type player struct {
	playing bool
	level   bool

	state    playState
	pulses   int    // pilot pulses left
	pulseLen uint32 // length of the current pulse
	elapsed  uint32 // T-states spent in the current pulse

	pos  int   // byte position in the block
	mask uint8 // bit being played
	half bool  // second pulse of the bit
}

// Tape is a cassette loaded in the deck. It plays blocks as an EAR signal,
// serves the ROM load trap and records blocks from the save trap.
type Tape struct {
	blocks   []Block
	cur      int // next block to play or load
	recorded []Block

	p player
}

// Insert loads a TAP image, replacing the current tape.
func (t *Tape) Insert(buf []byte) error {
	blocks, err := Parse(buf)
	if err != nil {
		return err
	}
	t.blocks = blocks
	t.Rewind()
	log.ModTape.InfoZ("tape inserted").Int("blocks", len(blocks)).End()
	return nil
}

// Eject removes the tape.
func (t *Tape) Eject() {
	t.blocks = nil
	t.Rewind()
}

// Loaded reports whether a tape with blocks left is in the deck.
func (t *Tape) Loaded() bool { return t.cur < len(t.blocks) }

func (t *Tape) Blocks() []Block { return t.blocks }

// Position returns the index of the next block.
func (t *Tape) Position() int { return t.cur }

func (t *Tape) Rewind() {
	t.cur = 0
	t.p = player{}
}

func (t *Tape) Play() {
	if !t.Loaded() {
		return
	}
	t.p.playing = true
	t.startBlock()
	log.ModTape.DebugZ("play").Int("block", t.cur).End()
}

func (t *Tape) Stop() {
	t.p.playing = false
	t.p.level = false
}

func (t *Tape) Playing() bool { return t.p.playing }

// Level returns the EAR input level.
func (t *Tape) Level() bool { return t.p.level }

func (t *Tape) startBlock() {
	if !t.Loaded() {
		t.Stop()
		log.ModTape.DebugZ("end of tape").End()
		return
	}
	t.p.state = statePilot
	t.p.pulses = DataPilot
	if t.blocks[t.cur].Flag() < 0x80 {
		t.p.pulses = HeaderPilot
	}
	t.p.pulseLen = PilotPulse
	t.p.elapsed = 0
}

// Advance plays ts T-states of tape.
func (t *Tape) Advance(ts uint32) {
	if !t.p.playing {
		return
	}
	t.p.elapsed += ts
	for t.p.playing && t.p.elapsed >= t.p.pulseLen {
		t.p.elapsed -= t.p.pulseLen
		t.nextPulse()
	}
}

func (t *Tape) bitPulse() uint32 {
	if t.blocks[t.cur][t.p.pos]&t.p.mask != 0 {
		return OnePulse
	}
	return ZeroPulse
}

// nextPulse toggles the signal and moves to the next pulse.
func (t *Tape) nextPulse() {
	p := &t.p
	switch p.state {
	case statePilot:
		if p.pulses--; p.pulses == 0 {
			p.state, p.pulseLen = stateSync1, Sync1Pulse
		}
	case stateSync1:
		p.state, p.pulseLen = stateSync2, Sync2Pulse
	case stateSync2:
		p.state, p.pos, p.mask, p.half = stateData, 0, 0x80, false
		p.pulseLen = t.bitPulse()
	case stateData:
		if p.half = !p.half; !p.half {
			if p.mask >>= 1; p.mask == 0 {
				p.mask = 0x80
				p.pos++
			}
		}
		if p.pos == len(t.blocks[t.cur]) {
			p.state, p.pulseLen, p.level = statePause, PauseLength, false
			return
		}
		p.pulseLen = t.bitPulse()
	case statePause:
		t.cur++
		t.startBlock()
		return
	}
	p.level = !p.level
}

// Recorded returns the blocks saved through the save trap, as a TAP image.
func (t *Tape) Recorded() []byte { return Encode(t.recorded) }

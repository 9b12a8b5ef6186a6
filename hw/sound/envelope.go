package sound

// Envelope shape bits.
const (
	envHold      = 0x01
	envAlternate = 0x02
	envAttack    = 0x04
	envContinue  = 0x08
)

// envelope generates a 16 steps volume ramp, repeated or held according to
// the shape register.
type envelope struct {
	period  uint16
	counter uint32
	shape   uint8

	step      uint8 // position in the current ramp, 0-15
	attack    bool  // current ramp goes up
	holding   bool
	holdLevel uint8
}

func (e *envelope) setPeriod(p uint16) { e.period = max(p, 1) }

// setShape restarts the envelope.
func (e *envelope) setShape(shape uint8) {
	e.shape = shape & 0x0F
	e.counter = 0
	e.step = 0
	e.holding = false
	e.attack = e.shape&envAttack != 0
}

func (e *envelope) level() uint8 {
	switch {
	case e.holding:
		return e.holdLevel
	case e.attack:
		return e.step
	default:
		return 15 - e.step
	}
}

// tick advances the envelope. A step lasts twice the tone period unit.
func (e *envelope) tick() {
	if e.holding {
		return
	}
	if e.counter++; e.counter < uint32(e.period)*2 {
		return
	}
	e.counter = 0
	if e.step++; e.step < 16 {
		return
	}

	switch {
	case e.shape&envContinue == 0:
		e.hold(0)
	case e.shape&envHold != 0:
		var lvl uint8
		if e.attack {
			lvl = 15
		}
		if e.shape&envAlternate != 0 {
			lvl ^= 15
		}
		e.hold(lvl)
	default:
		if e.shape&envAlternate != 0 {
			e.attack = !e.attack
		}
		e.step = 0
	}
}

func (e *envelope) hold(lvl uint8) {
	e.holding = true
	e.holdLevel = lvl
}

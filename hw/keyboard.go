package hw

// Key is a key of the Spectrum keyboard, a composite key typed with several
// matrix keys, or a Kempston joystick input.
type Key uint8

// Matrix keys, in half-row order. Half-row r is selected by address line
// A(8+r) low when reading port 0xFE; key k of the half-row drives bit k.
const (
	KeyCapsShift Key = iota
	KeyZ
	KeyX
	KeyC
	KeyV

	KeyA
	KeyS
	KeyD
	KeyF
	KeyG

	KeyQ
	KeyW
	KeyE
	KeyR
	KeyT

	Key1
	Key2
	Key3
	Key4
	Key5

	Key0
	Key9
	Key8
	Key7
	Key6

	KeyP
	KeyO
	KeyI
	KeyU
	KeyY

	KeyEnter
	KeyL
	KeyK
	KeyJ
	KeyH

	KeySpace
	KeySymbolShift
	KeyM
	KeyN
	KeyB

	numMatrixKeys
)

// Composite keys of host keyboards.
const (
	KeyBackspace Key = iota + numMatrixKeys
	KeyLeft
	KeyDown
	KeyUp
	KeyRight
	KeyComma
	KeyPeriod
	KeySemicolon
	KeyQuote
	KeyMinus
	KeyEquals
	KeyPlus
	KeySlash
	KeyEscape

	numKeys
)

// Kempston joystick inputs.
const (
	KeyJoyRight Key = iota + numKeys
	KeyJoyLeft
	KeyJoyDown
	KeyJoyUp
	KeyJoyFire
)

var composite = [numKeys - numMatrixKeys][2]Key{
	KeyBackspace - numMatrixKeys: {KeyCapsShift, Key0},
	KeyLeft - numMatrixKeys:      {KeyCapsShift, Key5},
	KeyDown - numMatrixKeys:      {KeyCapsShift, Key6},
	KeyUp - numMatrixKeys:        {KeyCapsShift, Key7},
	KeyRight - numMatrixKeys:     {KeyCapsShift, Key8},
	KeyComma - numMatrixKeys:     {KeySymbolShift, KeyN},
	KeyPeriod - numMatrixKeys:    {KeySymbolShift, KeyM},
	KeySemicolon - numMatrixKeys: {KeySymbolShift, KeyO},
	KeyQuote - numMatrixKeys:     {KeySymbolShift, KeyP},
	KeyMinus - numMatrixKeys:     {KeySymbolShift, KeyJ},
	KeyEquals - numMatrixKeys:    {KeySymbolShift, KeyL},
	KeyPlus - numMatrixKeys:      {KeySymbolShift, KeyK},
	KeySlash - numMatrixKeys:     {KeySymbolShift, KeyV},
	KeyEscape - numMatrixKeys:    {KeyCapsShift, KeySpace},
}

// ModifierFlags is the state of the host keyboard modifiers.
type ModifierFlags uint8

const (
	ModShift ModifierFlags = 1 << iota
	ModCtrl
	ModAlt
	ModCapsLock
)

// capsLockFrames is how long a Caps Lock toggle holds CAPS SHIFT+2.
const capsLockFrames = 3

// Keyboard is the 8x5 key matrix and the Kempston joystick.
type Keyboard struct {
	// presses per matrix key, composite keys overlap with plain ones.
	pressed [numMatrixKeys]uint8

	mods     ModifierFlags
	capsLock int // frames left of the Caps Lock press

	joy uint8
}

func (kb *Keyboard) Reset() { *kb = Keyboard{} }

func (kb *Keyboard) press(k Key, down bool) {
	if down {
		kb.pressed[k]++
	} else if kb.pressed[k] > 0 {
		kb.pressed[k]--
	}
}

func (kb *Keyboard) set(k Key, down bool) {
	switch {
	case k < numMatrixKeys:
		kb.press(k, down)
	case k < numKeys:
		for _, mk := range composite[k-numMatrixKeys] {
			kb.press(mk, down)
		}
	case k <= KeyJoyFire:
		bit := uint8(1) << (k - KeyJoyRight)
		if down {
			kb.joy |= bit
		} else {
			kb.joy &^= bit
		}
	}
}

func (kb *Keyboard) KeyDown(k Key) { kb.set(k, true) }
func (kb *Keyboard) KeyUp(k Key)   { kb.set(k, false) }

// FlagsChanged maps the host modifiers: Shift is CAPS SHIFT, Ctrl and Alt are
// SYMBOL SHIFT, toggling Caps Lock types CAPS SHIFT+2.
func (kb *Keyboard) FlagsChanged(flags ModifierFlags) {
	changed := kb.mods ^ flags
	if changed&ModShift != 0 {
		kb.set(KeyCapsShift, flags&ModShift != 0)
	}
	wasSym := kb.mods&(ModCtrl|ModAlt) != 0
	if isSym := flags&(ModCtrl|ModAlt) != 0; isSym != wasSym {
		kb.set(KeySymbolShift, isSym)
	}
	if changed&ModCapsLock != 0 && kb.capsLock == 0 {
		kb.set(KeyCapsShift, true)
		kb.set(Key2, true)
		kb.capsLock = capsLockFrames
	}
	kb.mods = flags
}

// EndFrame releases timed key presses.
func (kb *Keyboard) EndFrame() {
	if kb.capsLock == 0 {
		return
	}
	if kb.capsLock--; kb.capsLock == 0 {
		kb.set(KeyCapsShift, false)
		kb.set(Key2, false)
	}
}

// Read returns the bits 0-4 of port 0xFE for the half-rows selected by the
// low bits of addrHigh, active low.
func (kb *Keyboard) Read(addrHigh uint8) uint8 {
	val := uint8(0x1F)
	for row := range 8 {
		if addrHigh&(1<<row) != 0 {
			continue
		}
		for bit := range 5 {
			if kb.pressed[row*5+bit] != 0 {
				val &^= 1 << bit
			}
		}
	}
	return val
}

// Joystick returns the Kempston port value, active high.
func (kb *Keyboard) Joystick() uint8 { return kb.joy }

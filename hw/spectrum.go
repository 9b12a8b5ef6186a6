// Package hw emulates the ZX Spectrum hardware around an external Z80 core:
// the bus, memory paging, ULA timing, display, sound, tape and keyboard.
package hw

import (
	"errors"
	"fmt"
	"io"

	"zxcore/emu/log"
	"zxcore/hw/hwdefs"
	"zxcore/hw/snapshot"
	"zxcore/hw/sound"
	"zxcore/hw/tape"
	"zxcore/hw/ula"
	"zxcore/hw/z80"
)

// ErrNotPaused is returned by Step while the machine is running.
var ErrNotPaused = errors.New("machine is not paused")

// Config selects the machine and its peripherals.
type Config struct {
	Model      hwdefs.Model
	BorderSize int // pixels, multiple of 8
	Audio      sound.Config
	Kempston   bool
	LoadTraps  bool // serve the ROM loader from the tape
	SaveTraps  bool // record the ROM saver output
}

// DefaultConfig is a 48K with a 32 pixels border and tape traps.
func DefaultConfig() Config {
	return Config{
		Model:      hwdefs.ZX48K,
		BorderSize: hwdefs.DefaultBorderSize,
		Audio:      sound.DefaultConfig(),
		Kempston:   true,
		LoadTraps:  true,
		SaveTraps:  true,
	}
}

// Spectrum is the machine: it drives the CPU core frame by frame and
// produces the video and audio output.
type Spectrum struct {
	cfg  Config
	info hwdefs.MachineInfo

	cpu z80.Core
	bus z80.Bus
	io  *bus

	mem     *Memory
	tables  *ula.Tables
	display *ula.Display
	mixer   *sound.Mixer
	tape    tape.Tape
	kb      Keyboard
	dbg     debugger
	tracer  *tracer

	state     RunState
	frames    uint64
	pc        uint16 // address of the instruction being executed
	intRaised bool   // INT raised in the current frame
	audioTs   uint32 // frame T-state the audio is generated up to

	loadTrapHit bool
	saveTrapHit bool
}

// New builds a machine running core, with the given ROM image.
func New(cfg Config, core z80.Core, rom []byte) (*Spectrum, error) {
	if !cfg.Model.Valid() {
		return nil, fmt.Errorf("%w: unknown model %d", hwdefs.ErrInvalidConfig, cfg.Model)
	}
	info := hwdefs.Info(cfg.Model)
	info.BorderSize = cfg.BorderSize

	tables, err := ula.NewTables(info)
	if err != nil {
		return nil, err
	}
	mem, err := newMemory(&info, rom)
	if err != nil {
		return nil, err
	}
	mixer, err := sound.NewMixer(cfg.Audio, info.ClockHz, info.TsPerFrame)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", hwdefs.ErrInvalidConfig, err)
	}

	s := &Spectrum{
		cfg:     cfg,
		info:    info,
		cpu:     core,
		mem:     mem,
		tables:  tables,
		display: ula.NewDisplay(tables),
		mixer:   mixer,
	}
	if info.HasPaging {
		b := newBus128(s)
		s.bus, s.io = b, b.bus
	} else {
		b := newBus48(s)
		s.bus, s.io = b, b.bus
	}
	core.Attach(s.bus)
	s.Reset(hwdefs.HardReset)

	log.ModEmu.InfoZ("machine ready").
		String("model", info.Name).
		Int("width", info.ScreenWidth()).
		Int("height", info.ScreenHeight()).
		End()
	return s, nil
}

// Reset resets the machine. A hard reset also clears RAM and the ULAPlus
// palette. The run state is kept.
func (s *Spectrum) Reset(hard bool) {
	if hard {
		s.mem.clear()
		s.display.ULAPlus.Reset()
	}
	s.mem.reset()
	s.io.reset()
	s.cpu.Reset(hard)
	s.cpu.SetTStates(0)
	s.display.Reset()
	s.display.Border = 0
	s.mixer.Reset()
	s.tape.Stop()

	s.intRaised = false
	s.audioTs = 0
	s.dbg.hit = false
	s.dbg.skipExec = false
	log.ModEmu.InfoZ("reset").Bool("hard", hard).End()
}

func (s *Spectrum) Info() hwdefs.MachineInfo { return s.info }
func (s *Spectrum) Config() Config           { return s.cfg }
func (s *Spectrum) CPU() z80.Core            { return s.cpu }
func (s *Spectrum) Bus() z80.Bus             { return s.bus }
func (s *Spectrum) Memory() *Memory          { return s.mem }
func (s *Spectrum) Keyboard() *Keyboard      { return &s.kb }
func (s *Spectrum) Tape() *tape.Tape         { return &s.tape }
func (s *Spectrum) Mixer() *sound.Mixer      { return s.mixer }
func (s *Spectrum) Display() *ula.Display    { return s.display }
func (s *Spectrum) Frames() uint64           { return s.frames }

func (s *Spectrum) State() RunState { return s.state }

// Pause freezes a running machine.
func (s *Spectrum) Pause() {
	if s.state == Running {
		s.state = Paused
		log.ModEmu.InfoZ("paused").End()
	}
}

// Resume lets a paused machine run.
func (s *Spectrum) Resume() {
	if s.state != Running {
		s.state = Running
		log.ModEmu.InfoZ("resumed").End()
	}
}

// SetLoadTraps enables instant loading through the ROM loader trap.
func (s *Spectrum) SetLoadTraps(on bool) { s.cfg.LoadTraps = on }

// LoadTrapTriggered reports whether the last RunFrame or Step call served
// the ROM loader from the tape.
func (s *Spectrum) LoadTrapTriggered() bool { return s.loadTrapHit }

// SaveTrapTriggered reports whether the last RunFrame or Step call recorded
// a block from the ROM saver.
func (s *Spectrum) SaveTrapTriggered() bool { return s.saveTrapHit }

// SetTraceOutput writes one line per executed instruction to w, nil stops
// tracing.
func (s *Spectrum) SetTraceOutput(w io.Writer) {
	if w == nil {
		s.tracer = nil
		return
	}
	s.tracer = &tracer{w: w}
}

func (s *Spectrum) beginCall() {
	s.loadTrapHit, s.saveTrapHit = false, false
	s.dbg.hit = false
}

// RunFrame runs the machine up to the end of the current frame. It returns
// false when the machine is not running, or when a breakpoint was hit, in
// which case the machine pauses mid-frame.
func (s *Spectrum) RunFrame() bool {
	if s.state != Running {
		return false
	}
	s.beginCall()
	for {
		_, end := s.runInstruction()
		if s.dbg.hit {
			s.state = Paused
			s.dbg.notify()
			return false
		}
		if end {
			return true
		}
	}
}

// Step executes a single instruction of a paused machine and returns the
// T-states it took. The frame ends only if the instruction crosses its end.
func (s *Spectrum) Step() (uint32, error) {
	if s.state == Running {
		return 0, ErrNotPaused
	}
	s.state = Stepping
	s.beginCall()
	s.dbg.skipExec = true
	n, _ := s.runInstruction()
	s.dbg.notify()
	return n, nil
}

// traps handles the ROM tape routines. It reports whether it replaced the
// execution of the instruction at regs.PC.
func (s *Spectrum) traps(regs *z80.Registers) bool {
	if !s.mem.BasicROM() {
		return false
	}
	mem := trapMemory{s.mem}
	switch {
	case regs.PC == tape.LoadTrapAddr && s.cfg.LoadTraps:
		if !s.tape.LoadTrap(regs, mem) {
			return false
		}
		s.loadTrapHit = true
	case regs.PC == tape.SaveTrapAddr && s.cfg.SaveTraps:
		s.tape.SaveTrap(regs, mem)
		s.saveTrapHit = true
	default:
		return false
	}
	s.cpu.SetRegisters(*regs)
	return true
}

// runInstruction executes one instruction, or one tape trap. It reports
// whether the frame ended.
func (s *Spectrum) runInstruction() (ts uint32, frameEnd bool) {
	cpu := s.cpu
	if now := cpu.TStates(); !s.intRaised && now < s.info.IntLength {
		cpu.Interrupt(s.info.IntLength - now)
		s.intRaised = true
	}

	// A pending skip covers this instruction only, whatever runs it.
	skipExec := s.dbg.skipExec
	s.dbg.skipExec = false
	if s.cfg.LoadTraps || s.cfg.SaveTraps || s.dbg.watch.Len() != 0 || s.tracer != nil {
		regs := cpu.Registers()
		s.pc = regs.PC
		if !skipExec && s.dbg.watched(regs.PC) && s.dbg.check(s, OpExec, regs.PC, s.mem.Read(regs.PC)) {
			s.dbg.skipExec = true
			return 0, false
		}
		if s.traps(&regs) {
			return 0, false
		}
		if s.tracer != nil {
			s.tracer.write(s, &regs)
		}
	}

	ts = cpu.Step()
	now := cpu.TStates()
	if now < s.info.TsPerFrame {
		s.display.Advance(now, s.mem.Screen())
		s.syncAudio(now)
		return ts, false
	}
	s.endFrame()
	return ts, true
}

// endFrame publishes the frame and rewinds the counters, keeping the
// T-states the last instruction ran past the frame end.
func (s *Spectrum) endFrame() {
	perFrame := s.info.TsPerFrame
	s.display.EndFrame(s.mem.Screen())
	s.syncAudio(perFrame)
	s.mixer.EndFrame()
	s.kb.EndFrame()

	over := s.cpu.TStates() - perFrame
	s.cpu.SetTStates(over)
	s.audioTs = 0
	s.intRaised = false
	s.frames++
	s.syncAudio(over)
}

// catchUpDisplay paints the display up to frame T-state ts, before a change
// of what it shows.
func (s *Spectrum) catchUpDisplay(ts uint32) {
	s.display.Advance(ts, s.mem.Screen())
}

// syncAudio runs the tape and the audio sources up to frame T-state ts.
func (s *Spectrum) syncAudio(ts uint32) {
	if ts <= s.audioTs {
		return
	}
	n := ts - s.audioTs
	s.audioTs = ts
	if s.tape.Playing() {
		s.tape.Advance(n)
		s.mixer.SetTapeLevel(s.tape.Level())
	} else {
		s.mixer.SetTapeLevel(false)
	}
	s.mixer.Advance(n)
}

// ScreenBuffer returns the last complete RGBA frame.
func (s *Spectrum) ScreenBuffer() []byte { return s.display.Frame() }

func (s *Spectrum) ScreenSize() (w, h int) { return s.display.Width(), s.display.Height() }

// AudioBuffer returns the interleaved stereo ring buffer.
func (s *Spectrum) AudioBuffer() []int16 { return s.mixer.Buffer() }

// LastAudioBufferIndex returns the audio ring buffer write position.
func (s *Spectrum) LastAudioBufferIndex() uint32 { return s.mixer.LastIndex() }

// Snapshot captures the machine state.
func (s *Spectrum) Snapshot() *snapshot.State {
	st := snapshot.NewState(s.info.Model)
	for i := range st.RAM {
		copy(st.RAM[i], s.mem.Bank(i)[:])
	}
	st.Regs = s.cpu.Registers()
	st.Border = s.display.Border
	st.Paging = s.mem.Paging()
	st.AY = s.mixer.AY.Registers()
	st.AYSelected = s.mixer.AY.Selected()
	st.TStates = s.cpu.TStates()
	return st
}

// ApplyState restores a snapshot. The machine is left untouched when an
// error is returned.
func (s *Spectrum) ApplyState(st *snapshot.State) error {
	if st.Model != s.info.Model {
		return fmt.Errorf("%w: %s snapshot on a %s machine", snapshot.ErrUnsupportedHardware, st.Model, s.info.Model)
	}
	if err := st.Check(); err != nil {
		return err
	}

	for i, b := range st.RAM {
		copy(s.mem.Bank(i)[:], b)
	}
	if s.info.HasPaging {
		s.mem.page(st.Paging)
	}
	s.io.ula.Set(st.Border & ulaBorder)
	s.display.Border = st.Border & ulaBorder
	s.mixer.AY.SetRegisters(st.AY, st.AYSelected)
	s.cpu.SetRegisters(st.Regs)

	ts := st.TStates % s.info.TsPerFrame
	s.cpu.SetTStates(ts)
	s.display.Reset()
	s.display.Advance(ts, s.mem.Screen())
	s.audioTs = ts
	// The snapshot was taken after this frame interrupt.
	s.intRaised = true
	s.dbg.hit = false
	s.dbg.skipExec = false

	log.ModSnap.InfoZ("state restored").
		Stringer("model", st.Model).
		Hex16("pc", st.Regs.PC).
		Uint32("ts", ts).
		End()
	return nil
}

// AddLogContext implements log.Context.
func (s *Spectrum) AddLogContext(e *log.EntryZ) {
	e.Uint("frame", uint(s.frames))
	e.Uint32("ts", s.cpu.TStates())
}

// trapMemory is the memory seen by the tape traps: writes to ROM are lost.
type trapMemory struct{ m *Memory }

func (t trapMemory) Peek(addr uint16) uint8      { return t.m.Read(addr) }
func (t trapMemory) Poke(addr uint16, val uint8) { t.m.Write(addr, val) }

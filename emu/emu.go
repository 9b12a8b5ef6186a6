// Package emu is the host side of the Spectrum engine: it builds the machine
// from a configuration and exposes the operations a front-end drives it with.
package emu

import (
	"fmt"
	"slices"
	"sync/atomic"

	"zxcore/emu/log"
	"zxcore/hw"
	"zxcore/hw/snapshot"
	"zxcore/hw/z80"
)

// Output receives the generated frames.
type Output interface {
	// EndFrame is called once per frame with the finished RGBA frame and the
	// interleaved stereo samples produced since the previous call. Both are
	// only valid during the call.
	EndFrame(video []byte, audio []int16) error
}

type Emulator struct {
	ZX  *hw.Spectrum
	cfg Config

	// Set from any goroutine to make Run return.
	quit atomic.Bool

	audioIdx uint32 // audio ring position already handed to the output
	audioBuf []int16
}

// New powers up a machine running core with the given ROM image.
func New(cfg Config, core z80.Core, rom []byte) (*Emulator, error) {
	cfg.Check()
	zx, err := hw.New(cfg.hwConfig(), core, rom)
	if err != nil {
		return nil, fmt.Errorf("power up failed: %w", err)
	}

	// CPU execution trace setup.
	if cfg.TraceOut != nil {
		zx.SetTraceOutput(cfg.TraceOut)
	}
	log.AddContext(zx)

	return &Emulator{ZX: zx, cfg: cfg}, nil
}

// Close releases the trace output.
func (e *Emulator) Close() error {
	log.RemoveContext(e.ZX)
	if e.cfg.TraceOut != nil {
		e.ZX.SetTraceOutput(nil)
		return e.cfg.TraceOut.Close()
	}
	return nil
}

func (e *Emulator) Config() Config { return e.cfg }

func (e *Emulator) Reset(hard bool) {
	e.ZX.Reset(hard)
	e.audioIdx = 0
}

func (e *Emulator) Pause()             { e.ZX.Pause() }
func (e *Emulator) Resume()            { e.ZX.Resume() }
func (e *Emulator) State() hw.RunState { return e.ZX.State() }

// GenerateFrame runs the machine to the end of the frame. It returns false
// when the machine is paused, or stopped on a breakpoint.
func (e *Emulator) GenerateFrame() bool { return e.ZX.RunFrame() }

// Step executes one instruction of a paused machine.
func (e *Emulator) Step() (uint32, error) { return e.ZX.Step() }

// Stop makes Run return after the current frame. It is safe to call from any
// goroutine.
func (e *Emulator) Stop() { e.quit.Store(true) }

// Run generates frames into out, until n frames are done (n <= 0 runs until
// Stop is called), the machine stops on a breakpoint or out fails. It returns
// the number of frames generated.
func (e *Emulator) Run(n int, out Output) (int, error) {
	e.quit.Store(false)
	done := 0
	for n <= 0 || done < n {
		if e.quit.Load() {
			break
		}
		if !e.GenerateFrame() {
			if ev, ok := e.BreakpointHit(); ok {
				log.ModEmu.InfoZ("Emulation stopped on breakpoint").
					Stringer("op", ev.Op).
					Hex16("addr", ev.Addr).
					End()
			}
			break
		}
		done++
		if err := out.EndFrame(e.ScreenBuffer(), e.newSamples()); err != nil {
			return done, err
		}
	}
	log.ModEmu.InfoZ("Emulation loop exited").Int("frames", done).End()
	return done, nil
}

// newSamples returns the audio produced since the last call.
func (e *Emulator) newSamples() []int16 {
	ring := e.AudioBuffer()
	last := e.LastAudioBufferIndex()
	switch {
	case last == e.audioIdx:
		e.audioBuf = e.audioBuf[:0]
	case last > e.audioIdx:
		e.audioBuf = append(e.audioBuf[:0], ring[e.audioIdx:last]...)
	default:
		e.audioBuf = slices.Concat(e.audioBuf[:0], ring[e.audioIdx:], ring[:last])
	}
	e.audioIdx = last
	return e.audioBuf
}

func (e *Emulator) KeyDown(k hw.Key)                    { e.ZX.Keyboard().KeyDown(k) }
func (e *Emulator) KeyUp(k hw.Key)                      { e.ZX.Keyboard().KeyUp(k) }
func (e *Emulator) FlagsChanged(flags hw.ModifierFlags) { e.ZX.Keyboard().FlagsChanged(flags) }

func (e *Emulator) AddBreakpoint(addr uint16, ops hw.DebugOp) { e.ZX.AddBreakpoint(addr, ops) }
func (e *Emulator) RemoveBreakpoint(addr uint16) bool         { return e.ZX.RemoveBreakpoint(addr) }
func (e *Emulator) SetDebugHook(hook hw.DebugHook)            { e.ZX.SetDebugHook(hook) }

func (e *Emulator) BreakpointHit() (hw.BreakpointEvent, bool) { return e.ZX.BreakpointHit() }

func (e *Emulator) ScreenBuffer() []byte         { return e.ZX.ScreenBuffer() }
func (e *Emulator) ScreenSize() (w, h int)       { return e.ZX.ScreenSize() }
func (e *Emulator) AudioBuffer() []int16         { return e.ZX.AudioBuffer() }
func (e *Emulator) LastAudioBufferIndex() uint32 { return e.ZX.LastAudioBufferIndex() }
func (e *Emulator) SampleRate() int              { return e.cfg.Audio.SampleRate }

func (e *Emulator) FramesPerSecond() float64 {
	info := e.ZX.Info()
	return info.FramesPerSecond()
}

// LoadSnapshot decodes a SNA or Z80 snapshot and applies it. The machine is
// left untouched on error.
func (e *Emulator) LoadSnapshot(buf []byte) error {
	st, err := snapshot.Decode(buf)
	if err != nil {
		return err
	}
	if err := e.ZX.ApplyState(st); err != nil {
		return err
	}
	log.ModEmu.InfoZ("Snapshot loaded").Stringer("model", st.Model).End()
	return nil
}

func (e *Emulator) SaveSNA() ([]byte, error) { return e.save(snapshot.FormatSNA) }
func (e *Emulator) SaveZ80() ([]byte, error) { return e.save(snapshot.FormatZ80) }

func (e *Emulator) save(f snapshot.Format) ([]byte, error) {
	buf, err := snapshot.Encode(e.ZX.Snapshot(), f)
	if err != nil {
		log.ModEmu.WarnZ("Failed to save state").Stringer("format", f).Error("err", err).End()
		return nil, err
	}
	return buf, nil
}

// InsertTape loads a TAP image, rewound and stopped.
func (e *Emulator) InsertTape(buf []byte) error {
	if err := e.ZX.Tape().Insert(buf); err != nil {
		return err
	}
	log.ModEmu.InfoZ("Tape inserted").Int("blocks", len(e.ZX.Tape().Blocks())).End()
	return nil
}

func (e *Emulator) PlayTape() { e.ZX.Tape().Play() }
func (e *Emulator) StopTape() { e.ZX.Tape().Stop() }

// RecordedTape returns the blocks saved by the ROM, as a TAP image.
func (e *Emulator) RecordedTape() []byte { return e.ZX.Tape().Recorded() }

func (e *Emulator) SetInstantLoad(on bool) {
	e.cfg.Tape.InstantLoad = on
	e.ZX.SetLoadTraps(on)
}

func (e *Emulator) LoadTrapTriggered() bool { return e.ZX.LoadTrapTriggered() }
func (e *Emulator) SaveTrapTriggered() bool { return e.ZX.SaveTrapTriggered() }

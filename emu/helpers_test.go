package emu

import (
	"os"
	"testing"

	"zxcore/emu/log"
	"zxcore/hw/hwdefs"
	"zxcore/hw/idlecore"
)

func TestMain(m *testing.M) {
	log.Disable()
	os.Exit(m.Run())
}

func newTestEmulator(tb testing.TB, cfg Config) *Emulator {
	tb.Helper()

	rom := make([]byte, hwdefs.Info(cfg.Machine.Model).ROMSize)
	e, err := New(cfg, idlecore.New(), rom)
	if err != nil {
		tb.Fatal(err)
	}
	tb.Cleanup(func() { e.Close() })
	return e
}

// frameRecorder is an Output keeping counts of what it receives.
type frameRecorder struct {
	frames  int
	samples int
	video   []byte

	stopAfter int
	e         *Emulator
}

func (r *frameRecorder) EndFrame(video []byte, audio []int16) error {
	r.frames++
	r.samples += len(audio)
	r.video = append(r.video[:0], video...)
	if r.stopAfter != 0 && r.frames == r.stopAfter {
		r.e.Stop()
	}
	return nil
}

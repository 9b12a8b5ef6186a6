package log

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

type frameContext struct{ frame uint }

func (c *frameContext) AddLogContext(e *EntryZ) { e.Uint("frame", c.frame) }

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(&bytes.Buffer{})
		modDebugMask = 0
	})
	return &buf
}

func TestEntryZ(t *testing.T) {
	buf := captureOutput(t)
	EnableDebugModules(ModSnap.Mask())

	ctx := &frameContext{frame: 12}
	AddContext(ctx)
	defer RemoveContext(ctx)

	ModSnap.DebugZ("page").
		Hex8("page", 0x2A).
		Hex16("addr", 0xC000).
		Bool("compressed", true).
		Error("err", errors.New("boom")).
		End()

	out := buf.String()
	for _, want := range []string{"msg=page", "_mod=snap", "page=2a", "addr=c000", "compressed=true", "err=boom", "frame=12"} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q: %s", want, out)
		}
	}
}

func TestEntryZDisabled(t *testing.T) {
	buf := captureOutput(t)

	if e := ModTape.DebugZ("pulse"); e != nil {
		t.Errorf("DebugZ() = %v for a disabled module, want nil", e)
	}
	// Builders accept the nil entry.
	ModTape.DebugZ("pulse").Int("n", 3).End()
	if buf.Len() != 0 {
		t.Errorf("disabled module wrote %q", buf.String())
	}

	ModTape.Warnf("tape %s", "stopped")
	if !strings.Contains(buf.String(), "tape stopped") {
		t.Errorf("warning not written: %q", buf.String())
	}
}

func TestModuleByName(t *testing.T) {
	for _, name := range ModuleNames() {
		if _, ok := ModuleByName(name); !ok {
			t.Errorf("ModuleByName(%q) failed", name)
		}
	}
	if _, ok := ModuleByName("ppu"); ok {
		t.Errorf("ModuleByName(ppu) succeeded")
	}
}

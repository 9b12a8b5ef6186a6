package main

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/go-faster/jx"
	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"zxcore/emu"
	"zxcore/emu/log"
	"zxcore/hw"
	"zxcore/hw/hwdefs"
	"zxcore/hw/idlecore"
	"zxcore/hw/snapshot"
	"zxcore/hw/tape"
)

// runConfig loads the emulator configuration and plugs the trace output.
func runConfig(cli CLI) emu.Config {
	cfg := emu.LoadConfigOrDefault(cli.Config)
	if cli.Trace != nil {
		cfg.TraceOut = cli.Trace
	}
	return cfg
}

func infoMain(args Info, w io.Writer) error {
	type info struct {
		path   string
		format snapshot.Format
		state  *snapshot.State
	}
	var infos []info
	for _, path := range args.Paths {
		buf, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		f, err := snapshot.Detect(buf)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		st, err := snapshot.Decode(buf)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		infos = append(infos, info{path, f, st})
	}

	if args.JSON {
		e := jx.GetEncoder()
		defer jx.PutEncoder(e)
		e.SetIdent(2)
		e.ArrStart()
		for _, inf := range infos {
			e.ObjStart()
			e.FieldStart("file")
			e.Str(inf.path)
			e.FieldStart("format")
			e.Str(inf.format.String())
			e.FieldStart("state")
			inf.state.EncodeJSON(e)
			e.ObjEnd()
		}
		e.ArrEnd()
		_, err := fmt.Fprintln(w, e.String())
		return err
	}

	for _, inf := range infos {
		st := inf.state
		fmt.Fprintf(w, "%s\n", inf.path)
		fmt.Fprintf(w, "  format:    %s\n", inf.format)
		fmt.Fprintf(w, "  model:     %s\n", st.Model)
		fmt.Fprintf(w, "  registers: %s\n", st.Regs)
		fmt.Fprintf(w, "  border:    %d\n", st.Border)
		if st.Model == hwdefs.ZX128K {
			fmt.Fprintf(w, "  paging:    0x%02X\n", st.Paging)
		}
		fmt.Fprintf(w, "  tstates:   %d\n", st.TStates)
	}
	return nil
}

func convertMain(args Convert) error {
	to, err := snapshot.ParseFormat(args.To)
	if err != nil {
		return err
	}

	if args.Stdout {
		if len(args.Paths) != 1 {
			return errors.New("--stdout requires a single snapshot")
		}
		if term.IsTerminal(int(os.Stdout.Fd())) {
			return errors.New("refusing to write a binary snapshot to a terminal")
		}
		buf, err := convert(args.Paths[0], to)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(buf)
		return err
	}

	if err := os.MkdirAll(args.OutDir, 0755); err != nil {
		return err
	}

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for _, path := range args.Paths {
		g.Go(func() error {
			buf, err := convert(path, to)
			if err != nil {
				return err
			}
			base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			dst := filepath.Join(args.OutDir, base+"."+to.String())
			if err := os.WriteFile(dst, buf, 0644); err != nil {
				return err
			}
			log.ModSnap.InfoZ("converted").String("src", path).String("dst", dst).End()
			return nil
		})
	}
	return g.Wait()
}

func convert(path string, to snapshot.Format) ([]byte, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	st, err := snapshot.Decode(buf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	out, err := snapshot.Encode(st, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}

// loadSnapshot builds an emulator for the model of the snapshot at path, and
// loads it.
func loadSnapshot(path, romPath string, cfg emu.Config) (*emu.Emulator, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	model, err := snapshot.Peek(buf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Machine.Model = model

	rom := make([]byte, hwdefs.Info(model).ROMSize)
	if romPath != "" {
		if rom, err = os.ReadFile(romPath); err != nil {
			return nil, err
		}
	}

	e, err := emu.New(cfg, idlecore.New(), rom)
	if err != nil {
		return nil, err
	}
	if err := e.LoadSnapshot(buf); err != nil {
		e.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return e, nil
}

// discard is an Output ignoring frames.
type discard struct{}

func (discard) EndFrame([]byte, []int16) error { return nil }

func screenshotMain(args Screenshot, cfg emu.Config) error {
	if args.Scale < 1 {
		return fmt.Errorf("invalid scale %d", args.Scale)
	}
	e, err := loadSnapshot(args.Path, args.ROM, cfg)
	if err != nil {
		return err
	}
	defer e.Close()

	if _, err := e.Run(max(args.Frames, 1), discard{}); err != nil {
		return err
	}

	var img image.Image = e.ZX.Screenshot()
	if args.Scale > 1 {
		b := img.Bounds()
		dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*args.Scale, b.Dy()*args.Scale))
		draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
		img = dst
	}
	if err := hw.SaveAsPNG(img, args.Out); err != nil {
		return err
	}
	log.ModEmu.InfoZ("screenshot saved").String("path", args.Out).End()
	return nil
}

func recordMain(args Record, cfg emu.Config) error {
	e, err := loadSnapshot(args.Path, args.ROM, cfg)
	if err != nil {
		return err
	}
	defer e.Close()

	f, err := os.Create(args.Out)
	if err != nil {
		return err
	}
	defer f.Close()

	ww := emu.NewWAVWriter(f, e.SampleRate())
	if _, err := e.Run(args.Frames, ww); err != nil {
		return err
	}
	if err := ww.Close(); err != nil {
		return err
	}
	log.ModEmu.InfoZ("audio recorded").
		String("path", args.Out).
		Int("samples", ww.Samples()).
		End()
	return f.Close()
}

func tapeInfoMain(args TapeInfo, w io.Writer) error {
	buf, err := os.ReadFile(args.Path)
	if err != nil {
		return err
	}
	var img tape.Image
	if _, err := img.ReadFrom(bytes.NewReader(buf)); err != nil {
		return fmt.Errorf("%s: %w", args.Path, err)
	}
	img.PrintInfos(w)
	return nil
}

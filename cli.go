package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"zxcore/emu/log"
)

type mode byte

const (
	infoMode       mode = iota // Show snapshot infos
	convertMode                // Convert snapshots
	screenshotMode             // Render a snapshot to PNG
	recordMode                 // Render a snapshot audio to WAV
	tapeInfoMode               // List TAP blocks
	versionMode                // Show zxcore version
)

type (
	CLI struct {
		Info       Info       `cmd:"" help:"Show snapshot infos."`
		Convert    Convert    `cmd:"" help:"Convert snapshots between SNA and Z80 formats."`
		Screenshot Screenshot `cmd:"" help:"Run a snapshot and save the screen as PNG."`
		Record     Record     `cmd:"" help:"Run a snapshot and record its audio as WAV."`
		TapeInfo   TapeInfo   `cmd:"" help:"List the blocks of a TAP file." name:"tape-info"`
		Version    Version    `cmd:"" help:"Show zxcore version."`

		Log    logModMask `help:"${log_help}" placeholder:"mod0,mod1,..."`
		Config string     `help:"${config_help}" type:"path" placeholder:"FILE"`
		Trace  *outfile   `name:"trace" help:"Write CPU trace log." placeholder:"FILE|stdout|stderr"`

		mode mode
	}

	Info struct {
		Paths []string `arg:"" name:"/path/to/snapshot" type:"existingfile"`
		JSON  bool     `name:"json" help:"Output JSON."`
	}

	Convert struct {
		Paths  []string `arg:"" name:"/path/to/snapshot" type:"existingfile"`
		To     string   `name:"to" help:"Output format." enum:"sna,z80" required:""`
		OutDir string   `name:"outdir" help:"Output directory." type:"path" default:"."`
		Stdout bool     `name:"stdout" help:"${stdout_help}"`
	}

	Screenshot struct {
		Path   string `arg:"" name:"/path/to/snapshot" type:"existingfile"`
		Out    string `name:"out" help:"PNG file to write." type:"path" required:""`
		Scale  int    `name:"scale" help:"Scale factor." default:"1"`
		Frames int    `name:"frames" help:"Frames to run before capture." default:"1"`
		ROM    string `name:"rom" help:"${rom_help}" type:"existingfile"`
	}

	Record struct {
		Path   string `arg:"" name:"/path/to/snapshot" type:"existingfile"`
		Out    string `name:"out" help:"WAV file to write." type:"path" required:""`
		Frames int    `name:"frames" help:"Frames to record." default:"250"`
		ROM    string `name:"rom" help:"${rom_help}" type:"existingfile"`
	}

	TapeInfo struct {
		Path string `arg:"" name:"/path/to/tap" type:"existingfile"`
	}

	Version struct{}
)

var vars = kong.Vars{
	"log_help":    "Enable logging for specified modules.",
	"config_help": "Configuration file. (default: user config directory)",
	"stdout_help": "Write the converted snapshot to stdout. (single snapshot, not on a terminal)",
	"rom_help":    "ROM image. (default: blank ROM, the snapshot is run on a halted CPU)",
}

func parseArgs(args []string) CLI {
	var cfg CLI
	parser, err := kong.New(&cfg,
		kong.Name("zxcore"),
		kong.Description("ZX Spectrum 48K/128K machine tools."),
		kong.UsageOnError(),
		kong.Help(printHelp),
		vars)
	if err != nil {
		panic(err)
	}

	ctx, err := parser.Parse(args)
	checkf(err, "failed to parse command line")
	checkf(ctx.Error, "failed to parse command line")

	switch cmd := ctx.Command(); {
	case strings.HasPrefix(cmd, "info"):
		cfg.mode = infoMode
	case strings.HasPrefix(cmd, "convert"):
		cfg.mode = convertMode
	case strings.HasPrefix(cmd, "screenshot"):
		cfg.mode = screenshotMode
	case strings.HasPrefix(cmd, "record"):
		cfg.mode = recordMode
	case strings.HasPrefix(cmd, "tape-info"):
		cfg.mode = tapeInfoMode
	default:
		cfg.mode = versionMode
	}
	return cfg
}

func printHelp(options kong.HelpOptions, ctx *kong.Context) error {
	if err := kong.DefaultHelpPrinter(options, ctx); err != nil {
		return err
	}
	if ctx.Command() == "" {
		loggingHelp := `
Log modules:
  The --log flag accepts a comma-separated list of modules.

  Valid log modules are:
%s

  As a special case, the following values are accepted:
    - no                     Disable all logging.
    - all                    Enable all logs.
`
		var strs []string
		for _, m := range log.ModuleNames() {
			strs = append(strs, "    - "+m)
		}

		fmt.Fprintf(os.Stderr, loggingHelp, strings.Join(strs, "\n"))
	}

	return nil
}

type logModMask log.ModuleMask

// Decode decodes a comma-separated list of module names into a module mask.
//
// Implements kong.MapperValue interface.
func (lm logModMask) Decode(ctx *kong.DecodeContext) error {
	nolog := false
	allLogs := false

	tok := ctx.Scan.Pop()
	for _, v := range strings.Split(tok.Value.(string), ",") {
		switch v {
		case "all":
			allLogs = true
		case "no":
			nolog = true
		default:
			mod, ok := log.ModuleByName(v)
			if !ok {
				return fmt.Errorf("unknown log module %s", v)
			}
			lm |= logModMask(mod.Mask())
		}
	}

	if nolog {
		if allLogs {
			return fmt.Errorf("cannot use 'all' and 'no' together")
		}
		if lm != 0 {
			return fmt.Errorf("cannot combine 'no' with other log modules")
		}
		log.Disable()
		return nil
	}

	if allLogs {
		lm = logModMask(log.ModuleMaskAll)
	}

	log.EnableDebugModules(log.ModuleMask(lm))
	return nil
}

type outfile struct {
	w     io.Writer
	name  string
	close func() error
}

// Decode decodes FILE|stdout|stderr into an io.WriteCloser
// that writes to that file.
//
// Implements kong.MapperValue interface.
func (f *outfile) Decode(ctx *kong.DecodeContext) error {
	tok := ctx.Scan.Pop()
	f.name = tok.Value.(string)
	f.close = func() error { return nil }

	switch f.name {
	case "stdout":
		f.w = os.Stdout
	case "stderr":
		f.w = os.Stderr
	default:
		fd, err := os.Create(f.name)
		if err != nil {
			return err
		}
		f.w = fd
		f.close = fd.Close
	}
	return nil
}

func (f *outfile) String() string              { return f.name }
func (f *outfile) Write(p []byte) (int, error) { return f.w.Write(p) }
func (f *outfile) Close() error                { return f.close() }

func checkf(err error, format string, args ...any) {
	if err == nil {
		return
	}
	fatalf(format+".\n"+err.Error(), args...)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "fatal error:")
	fmt.Fprintf(os.Stderr, "\n\t%s\n", fmt.Sprintf(format, args...))
	os.Exit(1)
}

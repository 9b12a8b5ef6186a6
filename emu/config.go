package emu

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"

	"zxcore/emu/log"
	"zxcore/hw"
	"zxcore/hw/hwdefs"
	"zxcore/hw/sound"
)

type Config struct {
	Machine MachineConfig `toml:"machine"`
	Audio   AudioConfig   `toml:"audio"`
	Tape    TapeConfig    `toml:"tape"`
	Input   InputConfig   `toml:"input"`

	TraceOut io.WriteCloser `toml:"-"`
}

type MachineConfig struct {
	Model      hwdefs.Model `toml:"model"`
	BorderSize int          `toml:"border_size"`
}

func (mcfg *MachineConfig) Check() {
	if !mcfg.Model.Valid() {
		log.ModEmu.Warnf("Invalid machine model %d, fallback to %s", mcfg.Model, hwdefs.ZX48K)
		mcfg.Model = hwdefs.ZX48K
	}
	if mcfg.BorderSize < 0 || mcfg.BorderSize > hwdefs.MaxBorderSize || mcfg.BorderSize%8 != 0 {
		log.ModEmu.Warnf("Invalid border size %d, fallback to %d", mcfg.BorderSize, hwdefs.DefaultBorderSize)
		mcfg.BorderSize = hwdefs.DefaultBorderSize
	}
}

type AudioConfig struct {
	SampleRate   int     `toml:"sample_rate"`
	BeeperGain   float64 `toml:"beeper_gain"`
	AYGain       float64 `toml:"ay_gain"`
	SpecDrumGain float64 `toml:"specdrum_gain"`
	AY           bool    `toml:"ay"`
	SpecDrum     bool    `toml:"specdrum"`
	Stereo       string  `toml:"stereo"`
	BandLimited  bool    `toml:"band_limited"`
}

const (
	minSampleRate = 8000
	maxSampleRate = 96000
)

func (acfg *AudioConfig) Check() {
	def := sound.DefaultConfig()
	if acfg.SampleRate < minSampleRate || acfg.SampleRate > maxSampleRate {
		log.ModEmu.Warnf("Invalid sample rate %d, fallback to %d", acfg.SampleRate, def.SampleRate)
		acfg.SampleRate = def.SampleRate
	}
	gain := func(name string, g *float64) {
		if *g < 0 || *g > 1 {
			log.ModEmu.Warnf("%s gain %.2f out of [0, 1], clamped", name, *g)
			*g = max(0, min(1, *g))
		}
	}
	gain("Beeper", &acfg.BeeperGain)
	gain("AY", &acfg.AYGain)
	gain("SpecDrum", &acfg.SpecDrumGain)

	switch sound.StereoMode(acfg.Stereo) {
	case sound.Mono, sound.ABC, sound.ACB:
	default:
		log.ModEmu.Warnf("Invalid stereo mode %q, fallback to %q", acfg.Stereo, def.Stereo)
		acfg.Stereo = string(def.Stereo)
	}
}

type TapeConfig struct {
	// InstantLoad serves the ROM loader straight from the tape.
	InstantLoad bool `toml:"instant_load"`
	SaveTraps   bool `toml:"save_traps"`
}

type InputConfig struct {
	Kempston bool `toml:"kempston"`
}

// DefaultConfig returns the configuration of a stock 48K.
func DefaultConfig() Config {
	hcfg := hw.DefaultConfig()
	return Config{
		Machine: MachineConfig{
			Model:      hcfg.Model,
			BorderSize: hcfg.BorderSize,
		},
		Audio: AudioConfig{
			SampleRate:   hcfg.Audio.SampleRate,
			BeeperGain:   hcfg.Audio.BeeperGain,
			AYGain:       hcfg.Audio.AYGain,
			SpecDrumGain: hcfg.Audio.SpecDrumGain,
			AY:           hcfg.Audio.AY,
			SpecDrum:     hcfg.Audio.SpecDrum,
			Stereo:       string(hcfg.Audio.Stereo),
			BandLimited:  hcfg.Audio.BandLimited,
		},
		Tape: TapeConfig{
			InstantLoad: hcfg.LoadTraps,
			SaveTraps:   hcfg.SaveTraps,
		},
		Input: InputConfig{
			Kempston: hcfg.Kempston,
		},
	}
}

// Check replaces invalid values with their defaults.
func (cfg *Config) Check() {
	cfg.Machine.Check()
	cfg.Audio.Check()
}

func (cfg *Config) hwConfig() hw.Config {
	return hw.Config{
		Model:      cfg.Machine.Model,
		BorderSize: cfg.Machine.BorderSize,
		Audio: sound.Config{
			SampleRate:   cfg.Audio.SampleRate,
			BeeperGain:   cfg.Audio.BeeperGain,
			AYGain:       cfg.Audio.AYGain,
			SpecDrumGain: cfg.Audio.SpecDrumGain,
			AY:           cfg.Audio.AY,
			SpecDrum:     cfg.Audio.SpecDrum,
			Stereo:       sound.StereoMode(cfg.Audio.Stereo),
			BandLimited:  cfg.Audio.BandLimited,
		},
		Kempston:  cfg.Input.Kempston,
		LoadTraps: cfg.Tape.InstantLoad,
		SaveTraps: cfg.Tape.SaveTraps,
	}
}

// ConfigDir returns the zxcore directory under the user configuration
// directory, creating it if needed.
var ConfigDir = sync.OnceValue(func() string {
	base, err := os.UserConfigDir()
	if err != nil {
		log.ModEmu.Fatalf("failed to locate the user config directory: %v", err)
	}
	dir := filepath.Join(base, "zxcore")
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.ModEmu.Fatalf("failed to create directory %s: %v", dir, err)
	}
	return dir
})

const cfgFilename = "config.toml"

// ConfigPath returns the path of the default configuration file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), cfgFilename)
}

// LoadConfigOrDefault loads the configuration at path, or from the zxcore
// config directory if path is empty. Missing settings take their default
// value, and so does the whole configuration if the file can't be read.
func LoadConfigOrDefault(path string) Config {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()
	md, err := toml.DecodeFile(path, &cfg)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.ModEmu.InfoZ("No config file, using defaults").String("path", path).End()
		return DefaultConfig()
	case err != nil:
		log.ModEmu.WarnZ("Failed to load config, using defaults").
			String("path", path).
			Error("err", err).
			End()
		return DefaultConfig()
	}
	for _, key := range md.Undecoded() {
		log.ModEmu.Warnf("Unknown config key %q in %s", key.String(), path)
	}
	cfg.Check()
	return cfg
}

// SaveConfig writes cfg at path, or into the zxcore config directory if path
// is empty.
func SaveConfig(cfg Config, path string) error {
	if path == "" {
		path = ConfigPath()
	}
	buf, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0644)
}

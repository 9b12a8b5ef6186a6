package main

import (
	"fmt"
	"os"
	"runtime/debug"
)

func main() {
	cfg := parseArgs(os.Args[1:])

	switch cfg.mode {
	case infoMode:
		checkf(infoMain(cfg.Info, os.Stdout), "info failed")
	case convertMode:
		checkf(convertMain(cfg.Convert), "conversion failed")
	case screenshotMode:
		checkf(screenshotMain(cfg.Screenshot, runConfig(cfg)), "screenshot failed")
	case recordMode:
		checkf(recordMain(cfg.Record, runConfig(cfg)), "recording failed")
	case tapeInfoMode:
		checkf(tapeInfoMain(cfg.TapeInfo, os.Stdout), "failed to read tape")
	case versionMode:
		fmt.Println("zxcore", version())
	}
}

func version() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok || bi.Main.Version == "" {
		return "(devel)"
	}
	return bi.Main.Version
}

package config

// This file defines the CLI flags shared by every subcommand and applies them
// over a loaded Config. Flags only override a value when the user passed
// them, so YAML values and DefaultConfig() hold otherwise.

import (
	"github.com/urfave/cli/v3"
)

// Flag names.
const (
	FlagConfig      = "config"
	FlagSeed        = "seed"
	FlagThreads     = "threads"
	FlagDevice      = "device"
	FlagDeviceID    = "device-id"
	FlagBackend     = "backend"
	FlagFFmpeg      = "ffmpeg"
	FlagFFprobe     = "ffprobe"
	FlagExactCount  = "exact-count"
	FlagInitialFill = "initial-fill"
	FlagVerbose     = "verbose"
	FlagColor       = "color"
	FlagNoColor     = "no-color"
	FlagLog         = "log"
)

// Flags returns the global flag set. They are attached to the root command
// so every subcommand sees them.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: FlagConfig, Aliases: []string{"c"}, Usage: "YAML config file (general/base/context/decode/log sections)"},
		&cli.Int64Flag{Name: FlagSeed, Usage: "Random seed for shuffling and augmentation"},
		&cli.IntFlag{Name: FlagThreads, Aliases: []string{"j"}, Usage: "Worker threads for probing and decoding"},
		&cli.StringFlag{Name: FlagDevice, Usage: "Decode device: gpu | cpu"},
		&cli.IntFlag{Name: FlagDeviceID, Usage: "GPU ordinal"},
		&cli.StringFlag{Name: FlagBackend, Aliases: []string{"b"}, Usage: "Decode backend: ffmpeg | gstreamer | opencv"},
		&cli.StringFlag{Name: FlagFFmpeg, Usage: "ffmpeg binary"},
		&cli.StringFlag{Name: FlagFFprobe, Usage: "ffprobe binary"},
		&cli.BoolFlag{Name: FlagExactCount, Usage: "Decode every file to count frames"},
		&cli.IntFlag{Name: FlagInitialFill, Usage: "Shuffle reservoir size"},
		&cli.BoolFlag{Name: FlagVerbose, Aliases: []string{"v"}, Usage: "Verbose output"},
		&cli.BoolFlag{Name: FlagColor, Usage: "Force colored logs"},
		&cli.BoolFlag{Name: FlagNoColor, Usage: "Disable colored logs"},
		&cli.StringFlag{Name: FlagLog, Aliases: []string{"l"}, Usage: "Append logs to file"},
	}
}

// FromCommand builds the effective Config for cmd: defaults, then the
// --config file if given, then any flags the user set. The result is
// validated.
func FromCommand(cmd *cli.Command) (Config, error) {
	cfg := DefaultConfig()
	if path := cmd.String(FlagConfig); path != "" {
		loaded, err := Load(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	applyFlags(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyFlags copies explicitly set flags into cfg. --no-color wins over
// --color when both are given.
func applyFlags(cmd *cli.Command, cfg *Config) {
	if cmd.IsSet(FlagSeed) {
		cfg.General.Seed = cmd.Int64(FlagSeed)
	}
	if cmd.IsSet(FlagThreads) {
		cfg.General.NumThreads = cmd.Int(FlagThreads)
	}
	if cmd.IsSet(FlagDevice) {
		cfg.General.Device = Device(cmd.String(FlagDevice))
	}
	if cmd.IsSet(FlagDeviceID) {
		cfg.General.DeviceID = cmd.Int(FlagDeviceID)
	}
	if cmd.IsSet(FlagInitialFill) {
		cfg.General.InitialFill = cmd.Int(FlagInitialFill)
	}
	if cmd.IsSet(FlagBackend) {
		cfg.Decode.Backend = Backend(cmd.String(FlagBackend))
	}
	if cmd.IsSet(FlagFFmpeg) {
		cfg.Decode.FFmpegPath = cmd.String(FlagFFmpeg)
	}
	if cmd.IsSet(FlagFFprobe) {
		cfg.Decode.FFprobePath = cmd.String(FlagFFprobe)
	}
	if cmd.Bool(FlagExactCount) {
		cfg.Decode.ExactFrameCount = true
	}
	if cmd.Bool(FlagVerbose) {
		cfg.Log.Verbose = true
	}
	if cmd.IsSet(FlagLog) {
		cfg.Log.File = cmd.String(FlagLog)
	}
	switch {
	case cmd.Bool(FlagNoColor):
		cfg.Log.Color = ColorNever
	case cmd.Bool(FlagColor):
		cfg.Log.Color = ColorAlways
	}
}

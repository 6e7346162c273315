// Package config holds runtime configuration: defaults, YAML loading, CLI
// flag overrides, and validation. The section layout mirrors the global
// loader config shared with the training code (general, base, context), plus
// the decode and log sections used only by this module.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// --- Enum types for validated string fields ---

// Device selects where decoding runs.
type Device string

const (
	DeviceGPU Device = "gpu" // Hardware-accelerated decode (default, falls back to cpu).
	DeviceCPU Device = "cpu" // Software decode.
)

// Backend selects the decode runtime.
type Backend string

const (
	BackendFFmpeg    Backend = "ffmpeg"    // ffmpeg subprocess (default, always available).
	BackendGStreamer Backend = "gstreamer" // go-gst pipeline; requires the gst build tag.
	BackendOpenCV    Backend = "opencv"    // gocv VideoCapture; requires the gocv build tag.
)

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stderr is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// ConfigurationError reports a missing or invalid configuration key. Key is
// the dotted YAML path (e.g. "context.train.batch_size").
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Key, e.Reason)
}

// Invalid returns a *ConfigurationError for key.
func Invalid(key, format string, args ...any) error {
	return &ConfigurationError{Key: key, Reason: fmt.Sprintf(format, args...)}
}

// --- Sections ---

// General holds settings shared by every pipeline.
type General struct {
	Seed        int64  `yaml:"seed"`
	NumThreads  int    `yaml:"num_threads"`
	DeviceID    int    `yaml:"device_id"`
	Device      Device `yaml:"device"`
	InitialFill int    `yaml:"initial_fill"` // Shuffle reservoir size.
}

// Sequence holds a single sequence_length key.
type Sequence struct {
	SequenceLength int `yaml:"sequence_length"`
}

// Base holds the single-frame model settings.
type Base struct {
	Train   Sequence `yaml:"train"`
	Predict Sequence `yaml:"predict"`
}

// ContextTrain holds the context model training settings.
type ContextTrain struct {
	BatchSize            int  `yaml:"batch_size"`
	ConsecutiveSequences bool `yaml:"consecutive_sequences"`
}

// ContextPredict holds the context model inference settings.
type ContextPredict struct {
	BatchSize int `yaml:"batch_size"`
}

// Context holds the five-frame context model settings.
type Context struct {
	Train   ContextTrain   `yaml:"train"`
	Predict ContextPredict `yaml:"predict"`
}

// Decode holds decode-backend and normalization settings.
type Decode struct {
	Backend         Backend    `yaml:"backend"`
	FFmpegPath      string     `yaml:"ffmpeg_path"`
	FFprobePath     string     `yaml:"ffprobe_path"`
	ExactFrameCount bool       `yaml:"exact_frame_count"` // Always decode to count frames.
	Mean            [3]float32 `yaml:"mean"`
	Std             [3]float32 `yaml:"std"`
}

// Log holds console and file logging settings.
type Log struct {
	Verbose bool      `yaml:"verbose"`
	Color   ColorMode `yaml:"color"`
	File    string    `yaml:"file"` // Optional plain-text log file.
}

// Config holds all runtime settings. It is populated by [DefaultConfig],
// optionally overlaid by [Load], then by CLI flags, before being passed (by
// pointer) to packages that need it.
type Config struct {
	General General `yaml:"general"`
	Base    Base    `yaml:"base"`
	Context Context `yaml:"context"`
	Decode  Decode  `yaml:"decode"`
	Log     Log     `yaml:"log"`
}

// ImageNet channel statistics used for normalization by default.
var (
	DefaultMean = [3]float32{0.485, 0.456, 0.406}
	DefaultStd  = [3]float32{0.229, 0.224, 0.225}
)

// DefaultConfig returns a Config with the defaults used by the training
// configs that ship with the model code.
func DefaultConfig() Config {
	return Config{
		General: General{
			Seed:        123456,
			NumThreads:  4,
			DeviceID:    0,
			Device:      DeviceGPU,
			InitialFill: 16,
		},
		Base: Base{
			Train:   Sequence{SequenceLength: 16},
			Predict: Sequence{SequenceLength: 96},
		},
		Context: Context{
			Train:   ContextTrain{BatchSize: 16, ConsecutiveSequences: false},
			Predict: ContextPredict{BatchSize: 96},
		},
		Decode: Decode{
			Backend:     BackendFFmpeg,
			FFmpegPath:  "ffmpeg",
			FFprobePath: "ffprobe",
			Mean:        DefaultMean,
			Std:         DefaultStd,
		},
		Log: Log{Color: ColorAuto},
	}
}

// Load reads a YAML file and overlays it on [DefaultConfig]. Keys absent
// from the file keep their defaults. The result is validated.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks enum fields and the general section. Branch-specific keys
// (sequence lengths, batch sizes) are checked when a pipeline is built,
// since only the requested branch needs them.
func (c *Config) Validate() error {
	switch c.General.Device {
	case DeviceGPU, DeviceCPU:
		// valid
	default:
		return Invalid("general.device", "invalid device %q (use 'gpu' or 'cpu')", c.General.Device)
	}

	switch c.Decode.Backend {
	case BackendFFmpeg, BackendGStreamer, BackendOpenCV:
		// valid
	default:
		return Invalid("decode.backend", "invalid backend %q (use 'ffmpeg', 'gstreamer' or 'opencv')", c.Decode.Backend)
	}

	switch c.Log.Color {
	case ColorAuto, ColorAlways, ColorNever:
		// valid
	default:
		return Invalid("log.color", "invalid color mode %q (use 'auto', 'always' or 'never')", c.Log.Color)
	}

	if c.General.NumThreads <= 0 {
		return Invalid("general.num_threads", "must be positive, got %d", c.General.NumThreads)
	}
	if c.General.DeviceID < 0 {
		return Invalid("general.device_id", "must not be negative, got %d", c.General.DeviceID)
	}
	if c.General.InitialFill <= 0 {
		return Invalid("general.initial_fill", "must be positive, got %d", c.General.InitialFill)
	}
	for i, s := range c.Decode.Std {
		if s <= 0 {
			return Invalid("decode.std", "channel %d must be positive, got %g", i, s)
		}
	}
	return nil
}

// IsConfigurationError reports whether err wraps a *ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

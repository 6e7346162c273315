// Package check provides system diagnostics (the check command), the
// pre-flight dependency validation (CheckDeps) for ffmpeg and ffprobe, and
// decode device resolution.
package check

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/backmassage/posefeed/internal/config"
	"github.com/backmassage/posefeed/internal/gst"
	"github.com/backmassage/posefeed/internal/opencv"
)

// Sentinel errors returned by CheckDeps when a required tool is missing.
var (
	ErrFfmpegNotFound  = errors.New("ffmpeg not found on PATH")
	ErrFfprobeNotFound = errors.New("ffprobe not found on PATH")
)

// deviceGlobs match CUDA and VAAPI device nodes.
var deviceGlobs = []string{"/dev/nvidia[0-9]*", "/dev/dri/renderD*"}

// CheckDeps verifies that the configured ffmpeg and ffprobe binaries can be
// found. Returns a sentinel error on failure.
func CheckDeps(cfg *config.Config) error {
	if _, err := exec.LookPath(cfg.Decode.FFmpegPath); err != nil {
		return ErrFfmpegNotFound
	}
	if _, err := exec.LookPath(cfg.Decode.FFprobePath); err != nil {
		return ErrFfprobeNotFound
	}
	return nil
}

// GPUDevices returns the CUDA and VAAPI device nodes present on this host.
func GPUDevices() []string {
	var devs []string
	for _, pattern := range deviceGlobs {
		matches, _ := filepath.Glob(pattern)
		for _, m := range matches {
			if _, err := os.Stat(m); err == nil {
				devs = append(devs, m)
			}
		}
	}
	return devs
}

// ResolveDevice returns requested unless it is gpu and no GPU device node
// exists, in which case it warns and returns cpu.
func ResolveDevice(requested config.Device, log *slog.Logger) config.Device {
	if requested != config.DeviceGPU {
		return requested
	}
	if len(GPUDevices()) > 0 {
		return config.DeviceGPU
	}
	if log == nil {
		log = slog.Default()
	}
	log.Warn("no GPU device found, decoding on cpu")
	return config.DeviceCPU
}

// RunCheck reports tool versions, hardware decode support, GPU devices and
// compiled-in backends. It is informational only and does not stop on
// failure.
func RunCheck(ctx context.Context, cfg *config.Config, log *slog.Logger) {
	log.Info("=== System Check ===")
	checkTool(ctx, log, "ffmpeg", cfg.Decode.FFmpegPath)
	checkTool(ctx, log, "ffprobe", cfg.Decode.FFprobePath)
	checkHWAccels(ctx, log, cfg.Decode.FFmpegPath)

	if devs := GPUDevices(); len(devs) > 0 {
		log.Info("GPU devices", "devices", strings.Join(devs, ", "))
	} else {
		log.Warn("no GPU device found; gpu decode will fall back to cpu")
	}
	checkBackends(log)
}

// checkTool verifies bin is on PATH and logs its version string.
func checkTool(ctx context.Context, log *slog.Logger, name, bin string) {
	if _, err := exec.LookPath(bin); err != nil {
		log.Error(name+" not found", "bin", bin)
		return
	}
	out, err := exec.CommandContext(ctx, bin, "-version").Output()
	if err != nil {
		log.Warn(name+" found but -version failed", "err", err)
		return
	}
	log.Info(name, "version", firstLine(string(out)))
}

// checkHWAccels lists the hardware decode methods ffmpeg was built with.
func checkHWAccels(ctx context.Context, log *slog.Logger, bin string) {
	out, err := exec.CommandContext(ctx, bin, "-hide_banner", "-hwaccels").Output()
	if err != nil {
		log.Warn("could not list hwaccels", "err", err)
		return
	}
	methods := parseHWAccels(string(out))
	if len(methods) == 0 {
		log.Warn("ffmpeg has no hardware decode methods")
		return
	}
	log.Info("ffmpeg hwaccels", "methods", strings.Join(methods, ", "))
}

func checkBackends(log *slog.Logger) {
	log.Info("decode backend available", "backend", config.BackendFFmpeg)
	if d, err := gst.New(log); err == nil {
		d.Close()
		log.Info("decode backend available", "backend", config.BackendGStreamer)
	} else {
		log.Warn("decode backend unavailable", "backend", config.BackendGStreamer, "err", err)
	}
	if d, err := opencv.New(log); err == nil {
		d.Close()
		log.Info("decode backend available", "backend", config.BackendOpenCV)
	} else {
		log.Warn("decode backend unavailable", "backend", config.BackendOpenCV, "err", err)
	}
}

// parseHWAccels extracts method names from `ffmpeg -hwaccels` output,
// which is a header line followed by one method per line.
func parseHWAccels(out string) []string {
	var methods []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasSuffix(line, ":") {
			continue
		}
		methods = append(methods, line)
	}
	return methods
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i > 0 {
		return s[:i]
	}
	return s
}

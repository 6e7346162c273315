package check

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/backmassage/posefeed/internal/config"
)

func withDeviceGlobs(t *testing.T, globs ...string) {
	t.Helper()
	old := deviceGlobs
	deviceGlobs = globs
	t.Cleanup(func() { deviceGlobs = old })
}

func TestResolveDevice(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	withDeviceGlobs(t, filepath.Join(dir, "renderD*"))
	if got := ResolveDevice(config.DeviceGPU, log); got != config.DeviceCPU {
		t.Errorf("no devices: got %s, want cpu", got)
	}
	if !bytes.Contains(buf.Bytes(), []byte("no GPU device found")) {
		t.Errorf("missing fallback warning in %q", buf.String())
	}

	if err := os.WriteFile(filepath.Join(dir, "renderD128"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if got := ResolveDevice(config.DeviceGPU, log); got != config.DeviceGPU {
		t.Errorf("with device: got %s, want gpu", got)
	}
	if got := ResolveDevice(config.DeviceCPU, log); got != config.DeviceCPU {
		t.Errorf("cpu request: got %s, want cpu", got)
	}
}

func TestGPUDevices(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"nvidia0", "nvidiactl", "renderD128"} {
		os.WriteFile(filepath.Join(dir, name), nil, 0o644)
	}
	withDeviceGlobs(t, filepath.Join(dir, "nvidia[0-9]*"), filepath.Join(dir, "renderD*"))
	got := GPUDevices()
	want := []string{filepath.Join(dir, "nvidia0"), filepath.Join(dir, "renderD128")}
	if !slices.Equal(got, want) {
		t.Errorf("GPUDevices() = %v, want %v", got, want)
	}
}

func TestCheckDeps_Missing(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Decode.FFmpegPath = filepath.Join(t.TempDir(), "no-ffmpeg")
	if err := CheckDeps(&cfg); !errors.Is(err, ErrFfmpegNotFound) {
		t.Errorf("CheckDeps() = %v, want ErrFfmpegNotFound", err)
	}
}

func TestParseHWAccels(t *testing.T) {
	out := "Hardware acceleration methods:\nvdpau\ncuda\nvaapi\n\n"
	if got, want := parseHWAccels(out), []string{"vdpau", "cuda", "vaapi"}; !slices.Equal(got, want) {
		t.Errorf("parseHWAccels() = %v, want %v", got, want)
	}
}

package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/backmassage/posefeed/internal/config"
)

func TestNewLogger_NoFile(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Log.Color = config.ColorNever
	l, err := newLogger(&cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()
	l.Info("test message", "frames", 10)
}

func TestNewLogger_WithFile(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Log.Color = config.ColorNever
	cfg.Log.File = filepath.Join(dir, "logs", "posefeed.log")
	l, err := newLogger(&cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	l.With("source", "abc").Info("to file", "batches", 3)
	l.Debug("hidden")
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(cfg.Log.File)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"level=INFO", `msg="to file"`, "batches=3", "source=abc"} {
		if !bytes.Contains(b, []byte(want)) {
			t.Errorf("log file missing %q: %s", want, b)
		}
	}
	if bytes.Contains(b, []byte("hidden")) {
		t.Errorf("debug record written without verbose: %s", b)
	}
}

func TestNewLogger_VerboseWritesDebug(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Log.Color = config.ColorNever
	cfg.Log.Verbose = true
	cfg.Log.File = filepath.Join(t.TempDir(), "debug.log")
	l, err := newLogger(&cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	l.Debug("pull", "batch", 1)
	l.Close()
	b, _ := os.ReadFile(cfg.Log.File)
	if !bytes.Contains(b, []byte("level=DEBUG")) {
		t.Errorf("verbose log missing debug record: %s", b)
	}
}

func TestClose_Idempotent(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Log.File = filepath.Join(t.TempDir(), "x.log")
	l, err := newLogger(&cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
	if err := l.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
}

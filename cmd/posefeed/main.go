// Command posefeed is the CLI for the posefeed video batch loader.
//
// It counts frames, prints the resolved pipeline plan for a stage and model,
// dry-iterates batch sources to report shapes and throughput, and runs
// system diagnostics.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/backmassage/posefeed/internal/check"
	"github.com/backmassage/posefeed/internal/config"
	"github.com/backmassage/posefeed/internal/display"
	"github.com/backmassage/posefeed/internal/logging"
)

// version and commit are injected at build time via -ldflags.
var (
	version = "0.3.0"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Cancel on SIGINT/SIGTERM so running decoders are killed between
	// batches instead of leaving ffmpeg children behind.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:    "posefeed",
		Usage:   "Turn videos into normalized batches for pose-estimation models",
		Version: fmt.Sprintf("%s (%s)", version, commit),
		Flags:   config.Flags(),
		Commands: []*cli.Command{
			countCommand(),
			planCommand(),
			runCommand(),
			checkCommand(),
		},
	}
	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "posefeed: %v\n", err)
		return 1
	}
	return 0
}

// setup builds the effective config and logger for a command. The logger
// must be closed by the caller.
func setup(cmd *cli.Command) (*config.Config, *logging.Logger, error) {
	cfg, err := config.FromCommand(cmd)
	if err != nil {
		return nil, nil, err
	}
	log, err := logging.NewLogger(&cfg)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Log.Verbose {
		display.PrintBanner(os.Stderr, version)
	}
	return &cfg, log, nil
}

// setupWithDeps is setup plus the ffmpeg/ffprobe presence check needed by
// every command that touches video files.
func setupWithDeps(cmd *cli.Command) (*config.Config, *logging.Logger, error) {
	cfg, log, err := setup(cmd)
	if err != nil {
		return nil, nil, err
	}
	if err := check.CheckDeps(cfg); err != nil {
		log.Close()
		return nil, nil, cli.Exit(err.Error(), 1)
	}
	return cfg, log, nil
}

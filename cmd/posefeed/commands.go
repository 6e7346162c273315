package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/backmassage/posefeed/internal/check"
	"github.com/backmassage/posefeed/internal/config"
	"github.com/backmassage/posefeed/internal/display"
	"github.com/backmassage/posefeed/internal/loader"
	"github.com/backmassage/posefeed/internal/logging"
	"github.com/backmassage/posefeed/internal/pipeline"
	"github.com/backmassage/posefeed/internal/planner"
	"github.com/backmassage/posefeed/internal/probe"
)

const (
	flagDir    = "dir"
	flagStage  = "stage"
	flagModel  = "model"
	flagAug    = "aug"
	flagHeight = "height"
	flagWidth  = "width"
	flagEpochs = "epochs"
)

var dirFlag = &cli.StringFlag{Name: flagDir, Aliases: []string{"d"}, Usage: "Use every video under this directory"}

// selectionFlags choose the batch source shape for plan and run.
func selectionFlags() []cli.Flag {
	return []cli.Flag{
		dirFlag,
		&cli.StringFlag{Name: flagStage, Aliases: []string{"s"}, Value: string(planner.StageTrain), Usage: "train | predict"},
		&cli.StringFlag{Name: flagModel, Aliases: []string{"m"}, Value: string(planner.ModelBase), Usage: "base | context"},
		&cli.StringFlag{Name: flagAug, Aliases: []string{"a"}, Value: string(planner.AugDefault), Usage: "default | dlc | dlc-light | none"},
		&cli.IntFlag{Name: flagHeight, Usage: "Resize height (0 keeps source size)"},
		&cli.IntFlag{Name: flagWidth, Usage: "Resize width (0 keeps source size)"},
	}
}

// videoPaths returns the positional arguments plus everything Discover finds
// under --dir.
func videoPaths(cmd *cli.Command) ([]string, error) {
	paths := cmd.Args().Slice()
	if dir := cmd.String(flagDir); dir != "" {
		found, err := pipeline.Discover(dir)
		if err != nil {
			return nil, fmt.Errorf("discover %s: %w", dir, err)
		}
		paths = append(paths, found...)
	}
	if len(paths) == 0 {
		return nil, cli.Exit("no videos given (pass paths or --dir)", 2)
	}
	return paths, nil
}

func countCommand() *cli.Command {
	return &cli.Command{
		Name:      "count",
		Usage:     "Count the frames of each video",
		ArgsUsage: "[video ...]",
		Flags:     []cli.Flag{dirFlag},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, log, err := setupWithDeps(cmd)
			if err != nil {
				return err
			}
			defer log.Close()
			paths, err := videoPaths(cmd)
			if err != nil {
				return err
			}
			counts, err := probe.CountFrames(ctx, paths, probe.CountOptions{
				Prober:  probe.NewProber(probe.ExecRunner(cfg.Decode.FFprobePath)),
				Exact:   cfg.Decode.ExactFrameCount,
				Workers: cfg.General.NumThreads,
				Logger:  log.Logger,
			})
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "FRAMES\tSOURCE\tSIZE\tFPS\tCODEC\tPATH")
			for _, v := range counts.Videos {
				fmt.Fprintf(tw, "%d\t%s\t%dx%d\t%.3f\t%s\t%s\n", v.Frames, v.Source, v.Width, v.Height, v.FrameRate, v.Codec, v.Path)
			}
			fmt.Fprintf(tw, "%d\t\t\t\t\ttotal (%d videos)\n", counts.Total, len(counts.Videos))
			return tw.Flush()
		},
	}
}

// openSource parses the selection flags and builds a batch source.
func openSource(ctx context.Context, cmd *cli.Command, cfg *config.Config, log *logging.Logger) (*loader.BatchSource, error) {
	stage, err := planner.ParseStage(cmd.String(flagStage))
	if err != nil {
		return nil, cli.Exit(err.Error(), 2)
	}
	model, err := planner.ParseModelType(cmd.String(flagModel))
	if err != nil {
		return nil, cli.Exit(err.Error(), 2)
	}
	aug, err := planner.ParseAugMode(cmd.String(flagAug))
	if err != nil {
		return nil, cli.Exit(err.Error(), 2)
	}
	paths, err := videoPaths(cmd)
	if err != nil {
		return nil, err
	}
	videos, err := loader.NewVideoSet(paths...)
	if err != nil {
		return nil, err
	}
	return loader.MakeBatchSource(ctx, loader.Request{
		Stage:        stage,
		Model:        model,
		Videos:       videos,
		Resize:       planner.Dims{Height: cmd.Int(flagHeight), Width: cmd.Int(flagWidth)},
		Config:       cfg,
		Augmentation: aug,
	}, loader.WithLogger(log.Logger))
}

func planCommand() *cli.Command {
	return &cli.Command{
		Name:      "plan",
		Usage:     "Print the pipeline spec, iteration settings and op graph",
		ArgsUsage: "[video ...]",
		Flags:     selectionFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, log, err := setupWithDeps(cmd)
			if err != nil {
				return err
			}
			defer log.Close()
			src, err := openSource(ctx, cmd, cfg, log)
			if err != nil {
				return err
			}
			defer src.Close()

			s, it := src.Spec, src.IterSpec
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			row := func(k string, v any) { fmt.Fprintf(tw, "%s\t%v\n", k, v) }
			row("source", src.ID)
			row("stage/model", fmt.Sprintf("%s/%s", s.Stage, s.Model))
			row("videos", len(src.Counts.Videos))
			row("frames", src.Counts.Total)
			row("sequence_length", s.SequenceLength)
			row("step", s.Step)
			row("batch_size", s.BatchSize)
			row("shuffle", s.RandomShuffle)
			row("pad_last_batch", s.PadLastBatch)
			row("augmentation", s.Augmentation)
			row("device", fmt.Sprintf("%s:%d", s.Device, s.DeviceID))
			row("decoder", src.Decoder)
			row("iterations", it.NumIters)
			row("last_batch", it.LastBatchPolicy)
			row("reset", it.ResetPolicy)
			row("graph", src.Description)
			return tw.Flush()
		},
	}
}

func runCommand() *cli.Command {
	flags := append(selectionFlags(),
		&cli.IntFlag{Name: flagEpochs, Aliases: []string{"e"}, Value: 1, Usage: "Epochs to iterate"})
	return &cli.Command{
		Name:      "run",
		Usage:     "Iterate a batch source and report shapes and throughput",
		ArgsUsage: "[video ...]",
		Flags:     flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, log, err := setupWithDeps(cmd)
			if err != nil {
				return err
			}
			defer log.Close()
			src, err := openSource(ctx, cmd, cfg, log)
			if err != nil {
				return err
			}
			defer src.Close()

			stats, err := loader.Run(ctx, src, cmd.Int(flagEpochs), log.Logger)
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			ps := src.Stats()
			for _, shape := range stats.Shapes {
				log.Info("batch shape", "shape", display.FormatShape(shape), "size", display.FormatBytes(display.TensorBytes(shape)))
			}
			log.Info("summary",
				"epochs", stats.Epochs,
				"batches", stats.Batches,
				"frames", ps.FramesDecoded,
				"padded", ps.FramesPadded,
				"gomlx", display.FormatBytes(stats.Elements*4),
				"throughput", display.FormatRate(ps.FramesDecoded, ps.Elapsed, "frames"),
				"elapsed", stats.Elapsed.Round(time.Millisecond))
			return nil
		},
	}
}

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "Report decode tools, hardware acceleration and backends",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, log, err := setup(cmd)
			if err != nil {
				return err
			}
			defer log.Close()
			check.RunCheck(ctx, cfg, log.Logger)
			if err := check.CheckDeps(cfg); err != nil {
				return cli.Exit(err.Error(), 1)
			}
			return nil
		},
	}
}

package loader

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/backmassage/posefeed/internal/planner"
)

// RunStats summarizes a dry iteration over a BatchSource.
type RunStats struct {
	Epochs   int
	Batches  int
	Shapes   [][]int // Distinct gomlx batch shapes in first-seen order.
	Elements int64   // float32 values handed to gomlx.
	Elapsed  time.Duration
}

// Run pulls epochs full epochs from src, handing every batch to gomlx the
// way a training loop would, and logs one line per epoch. For
// manual-reset sources each epoch ends at ErrExhausted and is followed by a
// Reset; auto-reset sources are pulled Len times per epoch. It stops early
// when ctx is cancelled.
func Run(ctx context.Context, src *BatchSource, epochs int, log *slog.Logger) (RunStats, error) {
	if log == nil {
		log = slog.Default()
	}
	var stats RunStats
	began := time.Now()
	for e := 0; e < epochs; e++ {
		if err := ctx.Err(); err != nil {
			log.Warn("interrupted", "epoch", e)
			stats.Elapsed = time.Since(began)
			return stats, err
		}
		n, err := runEpoch(ctx, src, &stats)
		if err != nil {
			stats.Elapsed = time.Since(began)
			return stats, err
		}
		stats.Epochs++
		log.Info("epoch done", "epoch", e+1, "batches", n, "of", src.Len())
		if src.ResetPolicy() == planner.ResetManual {
			src.Reset()
		}
	}
	stats.Elapsed = time.Since(began)
	return stats, nil
}

func runEpoch(ctx context.Context, src *BatchSource, stats *RunStats) (int, error) {
	n := 0
	for n < src.Len() {
		b, err := src.Next(ctx)
		if errors.Is(err, ErrExhausted) {
			break
		}
		if err != nil {
			return n, err
		}
		n++
		stats.Batches++
		g := b.Gomlx()
		shape := g.Shape()
		if !slices.ContainsFunc(stats.Shapes, func(s []int) bool { return slices.Equal(s, shape.Dimensions) }) {
			stats.Shapes = append(stats.Shapes, slices.Clone(shape.Dimensions))
		}
		stats.Elements += int64(shape.Size())
		g.FinalizeAll()
	}
	return n, nil
}

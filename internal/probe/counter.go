package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"golang.org/x/sync/errgroup"
)

// ErrNoVideoStream is wrapped by VideoUnreadableError when a file has no
// decodable (non cover-art) video stream.
var ErrNoVideoStream = errors.New("no video stream")

// VideoUnreadableError reports a file that could not be opened or probed.
// It aborts the whole count; there is no retry.
type VideoUnreadableError struct {
	Path string
	Err  error
}

func (e *VideoUnreadableError) Error() string {
	return fmt.Sprintf("unreadable video %s: %v", e.Path, e.Err)
}

func (e *VideoUnreadableError) Unwrap() error { return e.Err }

// CountOptions tunes [CountFrames].
type CountOptions struct {
	Prober  *Prober      // Defaults to NewProber(nil).
	Exact   bool         // Decode every file instead of trusting nb_frames.
	Workers int          // Concurrent probes; <= 0 means one.
	Logger  *slog.Logger // Defaults to slog.Default().
}

// CountFrames probes every path and returns per-file frame counts in input
// order plus their total. Any unreadable path fails the call with a
// *VideoUnreadableError.
func CountFrames(ctx context.Context, paths []string, opts CountOptions) (FrameCounts, error) {
	if opts.Prober == nil {
		opts.Prober = NewProber(nil)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}

	videos := make([]VideoInfo, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		g.Go(func() error {
			info, err := countOne(gctx, opts, path)
			if err != nil {
				return err
			}
			videos[i] = info
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return FrameCounts{}, err
	}

	fc := FrameCounts{Videos: videos}
	for _, v := range videos {
		fc.Total += v.Frames
	}
	return fc, nil
}

func countOne(ctx context.Context, opts CountOptions, path string) (VideoInfo, error) {
	pr, err := opts.Prober.Probe(ctx, path)
	if err != nil {
		return VideoInfo{}, &VideoUnreadableError{Path: path, Err: err}
	}
	if pr.PrimaryVideo == nil {
		return VideoInfo{}, &VideoUnreadableError{Path: path, Err: ErrNoVideoStream}
	}
	vs := pr.PrimaryVideo
	info := VideoInfo{
		Path:      path,
		Codec:     vs.Codec,
		Width:     vs.Width,
		Height:    vs.Height,
		FrameRate: pr.FrameRate(),
		Duration:  pr.Duration(),
		Frames:    int(vs.NbFrames),
		Source:    CountMetadata,
	}
	if info.Frames > 0 && !opts.Exact {
		return info, nil
	}

	n, err := opts.Prober.CountDecoded(ctx, path)
	if err != nil {
		return VideoInfo{}, &VideoUnreadableError{Path: path, Err: err}
	}
	if n > 0 {
		info.Frames, info.Source = int(n), CountDecoded
		return info, nil
	}

	est := int(math.Round(info.Duration * info.FrameRate))
	if est <= 0 {
		return VideoInfo{}, &VideoUnreadableError{Path: path, Err: errors.New("no frames could be counted")}
	}
	opts.Logger.Warn("frame count estimated from duration",
		"path", path, "duration", info.Duration, "fps", info.FrameRate, "frames", est)
	info.Frames, info.Source = est, CountEstimated
	return info, nil
}

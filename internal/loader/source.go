package loader

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/backmassage/posefeed/internal/check"
	"github.com/backmassage/posefeed/internal/config"
	"github.com/backmassage/posefeed/internal/decode"
	"github.com/backmassage/posefeed/internal/ffmpeg"
	"github.com/backmassage/posefeed/internal/gst"
	"github.com/backmassage/posefeed/internal/opencv"
	"github.com/backmassage/posefeed/internal/pipeline"
	"github.com/backmassage/posefeed/internal/planner"
	"github.com/backmassage/posefeed/internal/probe"
)

// Request selects what a BatchSource produces.
type Request struct {
	Stage        planner.Stage
	Model        planner.ModelType
	Videos       VideoSet
	Resize       planner.Dims // Zero keeps the source size.
	Config       *config.Config
	Augmentation planner.AugMode
}

type options struct {
	log    *slog.Logger
	dec    decode.Decoder
	runner probe.Runner
}

// Option customizes MakeBatchSource.
type Option func(*options)

// WithLogger sets the logger; the default is slog.Default().
func WithLogger(log *slog.Logger) Option { return func(o *options) { o.log = log } }

// WithDecoder replaces the configured decode backend. The source takes
// ownership and closes it.
func WithDecoder(d decode.Decoder) Option { return func(o *options) { o.dec = d } }

// WithProber replaces the ffprobe subprocess used for frame counting.
func WithProber(run probe.Runner) Option { return func(o *options) { o.runner = run } }

// BatchSource is an Iterator plus everything that was resolved to build it.
// Close releases the decode backend.
type BatchSource struct {
	*Iterator

	ID          uuid.UUID
	Spec        planner.PipelineSpec
	IterSpec    planner.IterSpec
	Counts      probe.FrameCounts
	Description pipeline.Description
	Decoder     string // Name of the decode backend in use.

	pipe      *pipeline.Pipeline
	dec       decode.Decoder
	closeOnce sync.Once
	closeErr  error
}

// MakeBatchSource counts the frames of req.Videos, plans the pipeline for
// (req.Stage, req.Model), opens a decode backend and returns a ready
// BatchSource. Any error aborts construction and releases the decoder.
func MakeBatchSource(ctx context.Context, req Request, opts ...Option) (*BatchSource, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = slog.Default()
	}
	fail := func(err error) (*BatchSource, error) {
		if o.dec != nil {
			err = errors.Join(err, o.dec.Close())
		}
		return nil, err
	}
	cfg := req.Config
	if cfg == nil {
		return fail(config.Invalid("config", "missing"))
	}
	if err := cfg.Validate(); err != nil {
		return fail(err)
	}
	if req.Videos.Len() == 0 {
		return fail(config.Invalid("videos", "at least one video is required"))
	}

	runner := o.runner
	if runner == nil {
		runner = probe.ExecRunner(cfg.Decode.FFprobePath)
	}
	counts, err := probe.CountFrames(ctx, req.Videos.Paths(), probe.CountOptions{
		Prober:  probe.NewProber(runner),
		Exact:   cfg.Decode.ExactFrameCount,
		Workers: cfg.General.NumThreads,
		Logger:  o.log,
	})
	if err != nil {
		return fail(err)
	}

	spec, err := planner.BuildSpec(req.Stage, req.Model, req.Resize, cfg, req.Augmentation)
	if err != nil {
		return fail(err)
	}
	spec.Device = check.ResolveDevice(spec.Device, o.log)

	if o.dec == nil {
		o.dec = openDecoder(cfg, spec, o.log)
	}
	dec := o.dec
	src, err := build(spec, counts, dec, o.log)
	if err != nil {
		return fail(err)
	}
	o.log.Info("batch source ready",
		"id", src.ID, "spec", spec.String(), "videos", len(counts.Videos),
		"frames", counts.Total, "iters", src.IterSpec.NumIters, "decoder", dec.Name())
	o.log.Debug("pipeline graph", "id", src.ID, "graph", src.Description.String())
	return src, nil
}

func build(spec planner.PipelineSpec, counts probe.FrameCounts, dec decode.Decoder, log *slog.Logger) (*BatchSource, error) {
	pipe, err := pipeline.New(spec, counts, dec, log)
	if err != nil {
		return nil, err
	}
	iter, err := planner.BuildIterSpec(spec, counts.Total)
	if err != nil {
		return nil, err
	}
	return &BatchSource{
		Iterator:    NewIterator(pipe, spec, iter, log),
		ID:          uuid.New(),
		Spec:        spec,
		IterSpec:    iter,
		Counts:      counts,
		Description: pipe.Description(),
		Decoder:     dec.Name(),
		pipe:        pipe,
		dec:         dec,
	}, nil
}

// openDecoder returns the configured backend, falling back to ffmpeg with a
// warning when the backend was not compiled in.
func openDecoder(cfg *config.Config, spec planner.PipelineSpec, log *slog.Logger) decode.Decoder {
	switch cfg.Decode.Backend {
	case config.BackendGStreamer:
		d, err := gst.New(log)
		if err == nil {
			return d
		}
		log.Warn("gstreamer backend unavailable, using ffmpeg", "err", err)
	case config.BackendOpenCV:
		d, err := opencv.New(log)
		if err == nil {
			return d
		}
		log.Warn("opencv backend unavailable, using ffmpeg", "err", err)
	}
	return ffmpeg.NewDecoder(ffmpeg.Options{
		Bin:      cfg.Decode.FFmpegPath,
		HWAccel:  spec.Device == config.DeviceGPU,
		DeviceID: spec.DeviceID,
		Verbose:  cfg.Log.Verbose,
	}, log)
}

// Stats returns the pipeline counters.
func (s *BatchSource) Stats() pipeline.Stats { return s.pipe.Stats() }

// Close releases the decode backend. It is safe to call more than once.
func (s *BatchSource) Close() error {
	s.closeOnce.Do(func() { s.closeErr = s.dec.Close() })
	return s.closeErr
}

package pipeline

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/backmassage/posefeed/internal/augment"
	"github.com/backmassage/posefeed/internal/decode"
	"github.com/backmassage/posefeed/internal/planner"
	"github.com/backmassage/posefeed/internal/probe"
	"github.com/backmassage/posefeed/internal/tensor"
)

var (
	// ErrShortSequence is returned when a decoder yields fewer frames than
	// a sequence needs and the spec does not pad sequences.
	ErrShortSequence = errors.New("short sequence")

	// ErrMixedDims is returned when a batch mixes frame sizes and no resize
	// was requested.
	ErrMixedDims = errors.New("mixed frame sizes in batch without resize")
)

// RawBatch is one pull of the pipeline. X has shape
// (batch, sequence, 3, height, width). Transforms holds one record per
// sample. Only the first Valid samples are real; the rest repeat the last
// real sample to fill a padded final batch.
type RawBatch struct {
	X          *tensor.Tensor
	Transforms []augment.Transform
	Valid      int
	Samples    []Sample
}

// Pipeline executes a Description against a decoder. Calls to Next are
// synchronous; work inside one call runs on up to NumThreads goroutines.
// The decoder is owned by the caller.
type Pipeline struct {
	spec    planner.PipelineSpec
	counts  probe.FrameCounts
	dec     decode.Decoder
	log     *slog.Logger
	desc    Description
	reader  *Reader
	sampler *augment.Sampler
	stats   Stats
}

// New validates spec and builds a pipeline over the counted videos.
func New(spec planner.PipelineSpec, counts probe.FrameCounts, dec decode.Decoder, log *slog.Logger) (*Pipeline, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if dec == nil {
		return nil, errors.New("pipeline: nil decoder")
	}
	if len(counts.Videos) == 0 {
		return nil, errors.New("pipeline: no videos")
	}
	if log == nil {
		log = slog.Default()
	}
	p := &Pipeline{
		spec:    spec,
		counts:  counts,
		dec:     dec,
		log:     log,
		desc:    Describe(spec, len(counts.Videos)),
		reader:  NewReader(spec, counts),
		sampler: augment.NewSampler(spec.Seed, spec.Augmentation.Perturbs()),
	}
	log.Debug("pipeline built", "graph", p.desc.String(), "samples", p.reader.Len(), "decoder", dec.Name())
	return p, nil
}

// Description returns the op graph.
func (p *Pipeline) Description() Description { return p.desc }

// Samples returns the number of samples in one pass.
func (p *Pipeline) Samples() int { return p.reader.Len() }

// Stats returns the counters accumulated since construction.
func (p *Pipeline) Stats() Stats { return p.stats }

// Reset rewinds to the start of a new pass.
func (p *Pipeline) Reset() { p.reader.Reset() }

// outDims returns the frame size for a sample of file i.
func (p *Pipeline) outDims(i int) (w, h int) {
	if !p.spec.Resize.IsZero() {
		return p.spec.Resize.Width, p.spec.Resize.Height
	}
	v := p.counts.Videos[i]
	return v.Width, v.Height
}

// Next decodes, augments and normalizes the next batch. It returns io.EOF
// at the end of a pass.
func (p *Pipeline) Next(ctx context.Context) (RawBatch, error) {
	samples, valid, ok := p.reader.Next()
	if !ok {
		return RawBatch{}, io.EOF
	}
	began := time.Now()

	w, h := p.outDims(samples[0].File)
	for _, s := range samples[1:] {
		if sw, sh := p.outDims(s.File); sw != w || sh != h {
			return RawBatch{}, fmt.Errorf("pipeline: %w: %dx%d and %dx%d (%s)", ErrMixedDims, w, h, sw, sh, s.Path)
		}
	}

	// Draw in sample order so results do not depend on scheduling.
	params := make([]augment.Params, len(samples))
	for i := range params {
		params[i] = p.sampler.Next()
	}

	seq := p.spec.SequenceLength
	x := tensor.New(len(samples), seq, augment.Channels, h, w)
	transforms := make([]augment.Transform, len(samples))
	decoded := make([]int, len(samples))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(p.spec.NumThreads, 1))
	for _, group := range groupByFile(samples) {
		g.Go(func() error {
			for _, i := range group {
				n, tr, err := p.process(gctx, samples[i], params[i], w, h, x.Index(i))
				if err != nil {
					return err
				}
				decoded[i], transforms[i] = n, tr
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return RawBatch{}, err
	}

	p.stats.Batches++
	p.stats.Samples += int64(valid)
	for _, n := range decoded {
		p.stats.FramesDecoded += int64(n)
		p.stats.FramesPadded += int64(seq - n)
	}
	p.stats.Elapsed += time.Since(began)

	return RawBatch{X: x, Transforms: transforms, Valid: valid, Samples: samples}, nil
}

// groupByFile returns sample indexes grouped by file, each group in
// ascending start order. A group runs on one worker so a streaming decoder
// sees its reads in file order instead of restarting on every inversion.
func groupByFile(samples []Sample) [][]int {
	pos := make(map[int]int)
	var groups [][]int
	for i, s := range samples {
		g, ok := pos[s.File]
		if !ok {
			g = len(groups)
			pos[s.File] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], i)
	}
	for _, g := range groups {
		slices.SortStableFunc(g, func(a, b int) int { return cmp.Compare(samples[a].Start, samples[b].Start) })
	}
	return groups
}

// process fills dst (sequence, 3, h, w) for one sample and returns the
// number of frames the decoder produced.
func (p *Pipeline) process(ctx context.Context, s Sample, params augment.Params, w, h int, dst *tensor.Tensor) (int, augment.Transform, error) {
	v := p.counts.Videos[s.File]
	req := decode.Request{
		Path:      s.Path,
		Start:     s.Start,
		Count:     p.spec.SequenceLength,
		SrcWidth:  v.Width,
		SrcHeight: v.Height,
		FrameRate: v.FrameRate,
	}
	if !p.spec.Resize.IsZero() {
		req.Width, req.Height = w, h
	}
	clip, err := p.dec.Decode(ctx, req)
	if err != nil {
		return 0, augment.Transform{}, err
	}
	if len(clip.Frames) > 0 && (clip.Width != w || clip.Height != h) {
		return 0, augment.Transform{}, fmt.Errorf("pipeline: %s decoded at %dx%d, want %dx%d", s.Path, clip.Width, clip.Height, w, h)
	}
	n := len(clip.Frames)
	if n < p.spec.SequenceLength && !p.spec.PadSequences {
		return 0, augment.Transform{}, fmt.Errorf("pipeline: %s frame %d: %w (%d of %d)", s.Path, s.Start, ErrShortSequence, n, p.spec.SequenceLength)
	}

	frames := make([]augment.Frame, p.spec.SequenceLength)
	for f := range frames {
		if f >= n {
			frames[f] = augment.NewFrame(w, h)
			continue
		}
		frames[f], err = augment.FromRGB24(w, h, clip.Frames[f])
		if err != nil {
			return 0, augment.Transform{}, fmt.Errorf("pipeline: %s frame %d: %w", s.Path, s.Start+f, err)
		}
	}

	frames, tr := augment.Apply(frames, params)
	for f, frame := range frames {
		augment.Normalize(dst.Index(f).Data, frame, p.spec.Mean, p.spec.Std)
	}
	return n, tr, nil
}

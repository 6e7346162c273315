package pipeline

import (
	"math/rand/v2"

	"github.com/backmassage/posefeed/internal/planner"
	"github.com/backmassage/posefeed/internal/probe"
)

// Sample is one sequence to read: SequenceLength frames of one file from
// Start. Sequences never span files.
type Sample struct {
	File  int // Index into the counted video list.
	Path  string
	Start int
}

// Reader enumerates the samples of one pass and groups them into batches.
// It is not safe for concurrent use.
type Reader struct {
	batch        int
	shuffle      bool
	fill         int
	padLastBatch bool

	samples []Sample
	rng     *rand.Rand
	order   []int
	pos     int
}

// NewReader indexes every file of counts under spec's sequence settings and
// prepares the first pass.
func NewReader(spec planner.PipelineSpec, counts probe.FrameCounts) *Reader {
	r := &Reader{
		batch:        max(spec.BatchSize, 1),
		shuffle:      spec.RandomShuffle,
		fill:         max(spec.InitialFill, 1),
		padLastBatch: spec.PadLastBatch,
		rng:          rand.New(rand.NewPCG(uint64(spec.Seed), 1)),
	}
	for i, v := range counts.Videos {
		for _, start := range sequenceStarts(v.Frames, spec.SequenceLength, spec.Step, spec.PadSequences) {
			r.samples = append(r.samples, Sample{File: i, Path: v.Path, Start: start})
		}
	}
	r.Reset()
	return r
}

// sequenceStarts lists the start frames of a file: 0, step, 2*step, ...
// A start is kept when a full sequence fits, or when pad is set and at
// least one frame remains.
func sequenceStarts(frames, seq, step int, pad bool) []int {
	if step <= 0 {
		return nil
	}
	var starts []int
	for s := 0; s < frames; s += step {
		if s+seq > frames && !pad {
			break
		}
		starts = append(starts, s)
	}
	return starts
}

// Len returns the number of samples in one pass.
func (r *Reader) Len() int { return len(r.samples) }

// Reset starts a new pass. With shuffling the order is redrawn from the
// same stream, so a pass differs from the previous one but the sequence of
// passes is reproducible for a given seed.
func (r *Reader) Reset() {
	r.pos = 0
	if r.shuffle {
		r.order = reservoirOrder(len(r.samples), r.fill, r.rng)
		return
	}
	if r.order == nil {
		r.order = make([]int, len(r.samples))
		for i := range r.order {
			r.order[i] = i
		}
	}
}

// reservoirOrder permutes 0..n-1 the way a streaming shuffle buffer does:
// the buffer holds up to fill indices, each output is a uniform pick from
// it, and the pick's slot is refilled from the stream.
func reservoirOrder(n, fill int, rng *rand.Rand) []int {
	order := make([]int, 0, n)
	buf := make([]int, 0, fill)
	next := 0
	for ; next < n && len(buf) < fill; next++ {
		buf = append(buf, next)
	}
	for len(buf) > 0 {
		j := rng.IntN(len(buf))
		order = append(order, buf[j])
		if next < n {
			buf[j] = next
			next++
			continue
		}
		buf[j] = buf[len(buf)-1]
		buf = buf[:len(buf)-1]
	}
	return order
}

// Next returns the next batch and how many of its samples are real. When
// the pass ends with a short batch it is either returned short or filled
// by repeating its last sample, depending on PadLastBatch. ok is false once
// the pass is exhausted.
func (r *Reader) Next() (batch []Sample, valid int, ok bool) {
	if r.pos >= len(r.order) {
		return nil, 0, false
	}
	end := min(r.pos+r.batch, len(r.order))
	batch = make([]Sample, 0, r.batch)
	for _, idx := range r.order[r.pos:end] {
		batch = append(batch, r.samples[idx])
	}
	r.pos = end
	valid = len(batch)
	if r.padLastBatch {
		for len(batch) < r.batch {
			batch = append(batch, batch[valid-1])
		}
	}
	return batch, valid, true
}

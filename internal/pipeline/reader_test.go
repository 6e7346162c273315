package pipeline

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/backmassage/posefeed/internal/planner"
	"github.com/backmassage/posefeed/internal/probe"
)

func TestSequenceStarts(t *testing.T) {
	tests := []struct {
		name              string
		frames, seq, step int
		pad               bool
		want              []int
	}{
		{"disjoint no pad", 10, 4, 4, false, []int{0, 4}},
		{"disjoint pad", 10, 4, 4, true, []int{0, 4, 8}},
		{"exact fit", 8, 4, 4, true, []int{0, 4}},
		{"windows pad", 7, 5, 1, true, []int{0, 1, 2, 3, 4, 5, 6}},
		{"windows no pad", 7, 5, 1, false, []int{0, 1, 2}},
		{"too short no pad", 3, 5, 5, false, nil},
		{"empty", 0, 5, 5, true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sequenceStarts(tt.frames, tt.seq, tt.step, tt.pad)
			if !slices.Equal(got, tt.want) {
				t.Errorf("sequenceStarts(%d, %d, %d, %v) = %v, want %v", tt.frames, tt.seq, tt.step, tt.pad, got, tt.want)
			}
		})
	}
}

func TestReservoirOrder_Permutation(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 1))
	for _, n := range []int{0, 1, 7, 100} {
		order := reservoirOrder(n, 16, rng)
		sorted := slices.Clone(order)
		slices.Sort(sorted)
		for i, v := range sorted {
			if v != i {
				t.Fatalf("n=%d: order %v is not a permutation", n, order)
			}
		}
		if len(order) != n {
			t.Fatalf("n=%d: got %d entries", n, len(order))
		}
	}
}

func TestReservoirOrder_FillOneIsSequential(t *testing.T) {
	order := reservoirOrder(5, 1, rand.New(rand.NewPCG(3, 1)))
	if want := []int{0, 1, 2, 3, 4}; !slices.Equal(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func counts(videos ...probe.VideoInfo) probe.FrameCounts {
	fc := probe.FrameCounts{Videos: videos}
	for _, v := range videos {
		fc.Total += v.Frames
	}
	return fc
}

func video(path string, frames int) probe.VideoInfo {
	return probe.VideoInfo{Path: path, Width: 4, Height: 2, Frames: frames}
}

func starts(batch []Sample) []int {
	out := make([]int, len(batch))
	for i, s := range batch {
		out[i] = s.Start
	}
	return out
}

func TestReader_SequentialPadLastBatch(t *testing.T) {
	spec := planner.PipelineSpec{SequenceLength: 5, Step: 1, BatchSize: 4, PadSequences: true, PadLastBatch: true}
	r := NewReader(spec, counts(video("/v/a.mp4", 10)))
	if r.Len() != 10 {
		t.Fatalf("Len() = %d, want 10", r.Len())
	}

	wantStarts := [][]int{{0, 1, 2, 3}, {4, 5, 6, 7}, {8, 9, 9, 9}}
	wantValid := []int{4, 4, 2}
	for i := range wantStarts {
		batch, valid, ok := r.Next()
		if !ok {
			t.Fatalf("batch %d: pass ended early", i)
		}
		if got := starts(batch); !slices.Equal(got, wantStarts[i]) || valid != wantValid[i] {
			t.Errorf("batch %d = %v valid %d, want %v valid %d", i, got, valid, wantStarts[i], wantValid[i])
		}
	}
	if _, _, ok := r.Next(); ok {
		t.Error("pass did not end")
	}

	r.Reset()
	if batch, _, ok := r.Next(); !ok || batch[0].Start != 0 {
		t.Error("Reset did not rewind")
	}
}

func TestReader_ShortLastBatchWithoutPadding(t *testing.T) {
	spec := planner.PipelineSpec{SequenceLength: 5, Step: 5, BatchSize: 2, PadSequences: true}
	r := NewReader(spec, counts(video("/v/a.mp4", 12)))
	r.Next()
	batch, valid, ok := r.Next()
	if !ok || len(batch) != 1 || valid != 1 || batch[0].Start != 10 {
		t.Errorf("last batch = %v valid %d ok %v", starts(batch), valid, ok)
	}
}

func TestReader_SequencesNeverSpanFiles(t *testing.T) {
	spec := planner.PipelineSpec{SequenceLength: 4, Step: 4, BatchSize: 1, PadSequences: true}
	r := NewReader(spec, counts(video("/v/a.mp4", 6), video("/v/b.mp4", 3)))
	var got []Sample
	for {
		batch, _, ok := r.Next()
		if !ok {
			break
		}
		got = append(got, batch...)
	}
	want := []Sample{
		{File: 0, Path: "/v/a.mp4", Start: 0},
		{File: 0, Path: "/v/a.mp4", Start: 4},
		{File: 1, Path: "/v/b.mp4", Start: 0},
	}
	if !slices.Equal(got, want) {
		t.Errorf("samples = %v, want %v", got, want)
	}
}

func drain(r *Reader) []Sample {
	var out []Sample
	for {
		batch, _, ok := r.Next()
		if !ok {
			return out
		}
		out = append(out, batch...)
	}
}

func TestReader_ShuffleIsReproducible(t *testing.T) {
	spec := planner.PipelineSpec{SequenceLength: 2, Step: 2, BatchSize: 1, PadSequences: true, RandomShuffle: true, Seed: 42, InitialFill: 8}
	fc := counts(video("/v/a.mp4", 40), video("/v/b.mp4", 40))
	a, b := NewReader(spec, fc), NewReader(spec, fc)

	first := drain(a)
	if !slices.Equal(first, drain(b)) {
		t.Fatal("equal seeds gave different first passes")
	}
	a.Reset()
	b.Reset()
	second := drain(a)
	if !slices.Equal(second, drain(b)) {
		t.Fatal("equal seeds gave different second passes")
	}
	if slices.Equal(first, second) {
		t.Error("second pass repeated the first order")
	}
	if len(first) != 40 {
		t.Errorf("pass has %d samples, want 40", len(first))
	}
}

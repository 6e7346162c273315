package pipeline

import (
	"fmt"
	"strings"

	"github.com/backmassage/posefeed/internal/planner"
)

// Op is one node of a pipeline description.
type Op interface {
	Name() string
	String() string
}

// ReadOp reads fixed-length frame sequences from the file list.
type ReadOp struct {
	Label          string
	Files          int
	SequenceLength int
	Step           int
	Shuffle        bool
	Seed           int64
	InitialFill    int
	PadSequences   bool
	PadLastBatch   bool
}

func (o ReadOp) Name() string { return o.Label }

func (o ReadOp) String() string {
	s := fmt.Sprintf("%s(files=%d seq=%d step=%d", o.Label, o.Files, o.SequenceLength, o.Step)
	if o.Shuffle {
		s += fmt.Sprintf(" shuffle seed=%d fill=%d", o.Seed, o.InitialFill)
	}
	if o.PadSequences {
		s += " pad_seq"
	}
	if o.PadLastBatch {
		s += " pad_batch"
	}
	return s + ")"
}

// ResizeOp rescales every frame to a fixed size.
type ResizeOp struct{ Size planner.Dims }

func (ResizeOp) Name() string     { return "resize" }
func (o ResizeOp) String() string { return "resize(" + o.Size.String() + ")" }

// AugmentOp applies the random geometric and photometric policy.
type AugmentOp struct{ Mode planner.AugMode }

func (AugmentOp) Name() string     { return "augment" }
func (o AugmentOp) String() string { return "augment(" + string(o.Mode) + ")" }

// NormalizeOp scales to [0, 1], standardizes per channel and lays frames
// out channel-first.
type NormalizeOp struct {
	Mean, Std [3]float32
	Layout    string
}

func (NormalizeOp) Name() string     { return "normalize" }
func (o NormalizeOp) String() string { return "normalize(" + o.Layout + ")" }

// Description is the ordered op graph of a pipeline.
type Description struct {
	Ops []Op
}

// Describe builds the op graph for spec over files input files.
func Describe(spec planner.PipelineSpec, files int) Description {
	ops := []Op{ReadOp{
		Label:          spec.ReaderName,
		Files:          files,
		SequenceLength: spec.SequenceLength,
		Step:           spec.Step,
		Shuffle:        spec.RandomShuffle,
		Seed:           spec.Seed,
		InitialFill:    spec.InitialFill,
		PadSequences:   spec.PadSequences,
		PadLastBatch:   spec.PadLastBatch,
	}}
	if !spec.Resize.IsZero() {
		ops = append(ops, ResizeOp{Size: spec.Resize})
	}
	if spec.Augmentation.Perturbs() {
		ops = append(ops, AugmentOp{Mode: spec.Augmentation})
	}
	ops = append(ops, NormalizeOp{Mean: spec.Mean, Std: spec.Std, Layout: "FCHW"})
	return Description{Ops: ops}
}

// Has reports whether the graph contains an op with the given name.
func (d Description) Has(name string) bool {
	for _, op := range d.Ops {
		if op.Name() == name {
			return true
		}
	}
	return false
}

func (d Description) String() string {
	parts := make([]string, len(d.Ops))
	for i, op := range d.Ops {
		parts[i] = op.String()
	}
	return strings.Join(parts, " -> ")
}

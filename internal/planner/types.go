package planner

import (
	"fmt"

	"github.com/backmassage/posefeed/internal/config"
)

// Stage selects between training and inference behavior.
type Stage string

const (
	StageTrain   Stage = "train"
	StagePredict Stage = "predict"
)

// ModelType selects the network family the batches feed.
type ModelType string

const (
	ModelBase    ModelType = "base"    // Single-frame model.
	ModelContext ModelType = "context" // Five-frame temporal window model.
)

// AugMode selects the augmentation policy.
type AugMode string

const (
	AugDefault  AugMode = "default"   // No perturbation.
	AugDLC      AugMode = "dlc"       // Rotate/scale, brightness/contrast, shot noise.
	AugDLCLight AugMode = "dlc-light" // Same draws as dlc.
	AugNone     AugMode = "none"      // No perturbation.
)

// Perturbs reports whether the mode applies random augmentation.
func (a AugMode) Perturbs() bool { return a == AugDLC || a == AugDLCLight }

// ParseStage validates a stage name.
func ParseStage(s string) (Stage, error) {
	switch Stage(s) {
	case StageTrain, StagePredict:
		return Stage(s), nil
	}
	return "", fmt.Errorf("invalid stage %q (use 'train' or 'predict')", s)
}

// ParseModelType validates a model type name.
func ParseModelType(s string) (ModelType, error) {
	switch ModelType(s) {
	case ModelBase, ModelContext:
		return ModelType(s), nil
	}
	return "", fmt.Errorf("invalid model type %q (use 'base' or 'context')", s)
}

// ParseAugMode validates an augmentation mode name. Empty means default.
func ParseAugMode(s string) (AugMode, error) {
	switch AugMode(s) {
	case "":
		return AugDefault, nil
	case AugDefault, AugDLC, AugDLCLight, AugNone:
		return AugMode(s), nil
	}
	return "", fmt.Errorf("invalid augmentation %q (use 'default', 'dlc', 'dlc-light' or 'none')", s)
}

// Dims is a frame size in pixels. The zero value means "keep source size".
type Dims struct {
	Height int
	Width  int
}

// IsZero reports whether no resize was requested.
func (d Dims) IsZero() bool { return d.Height == 0 && d.Width == 0 }

func (d Dims) String() string { return fmt.Sprintf("%dx%d", d.Height, d.Width) }

// ContextWindow is the fixed temporal window of the context model.
const ContextWindow = 5

// ReaderName names the reader op in every pipeline description.
const ReaderName = "reader"

// PipelineSpec is the full, immutable description of one batch source.
type PipelineSpec struct {
	Stage Stage
	Model ModelType

	// Reader.
	SequenceLength int
	Step           int
	BatchSize      int
	RandomShuffle  bool
	Seed           int64
	InitialFill    int
	PadSequences   bool
	PadLastBatch   bool
	ReaderName     string

	// Transform chain.
	Resize       Dims
	Mean         [3]float32
	Std          [3]float32
	Augmentation AugMode

	// Execution.
	Device     config.Device
	DeviceID   int
	NumThreads int

	// ContextSuccessive is set for context/train when consecutive
	// sequences are read as one long sequence instead of a batch of
	// independent windows.
	ContextSuccessive bool
}

// String summarizes the spec on one line for logs.
func (s PipelineSpec) String() string {
	return fmt.Sprintf("%s/%s seq=%d step=%d batch=%d shuffle=%t pad_seq=%t pad_batch=%t aug=%s",
		s.Stage, s.Model, s.SequenceLength, s.Step, s.BatchSize,
		s.RandomShuffle, s.PadSequences, s.PadLastBatch, s.Augmentation)
}

// LastBatchPolicy controls what the iterator does with a padded final batch.
type LastBatchPolicy string

const (
	LastBatchPartial LastBatchPolicy = "partial" // Drop padding; the last batch may be short.
	LastBatchFill    LastBatchPolicy = "fill"    // Keep padding; every batch is full.
)

// ResetPolicy controls iterator behavior at the end of an epoch.
type ResetPolicy string

const (
	ResetAuto   ResetPolicy = "auto"   // Transparently start the next epoch.
	ResetManual ResetPolicy = "manual" // Signal exhaustion until Reset is called.
)

// IterSpec holds the iterator settings paired with a PipelineSpec.
type IterSpec struct {
	NumIters          int
	LastBatchPolicy   LastBatchPolicy
	ResetPolicy       ResetPolicy
	ContextSuccessive bool
	OutputMap         []string
}

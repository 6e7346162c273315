package planner

import (
	"errors"
	"fmt"

	"github.com/backmassage/posefeed/internal/config"
)

// UnsupportedSteppingError reports a step that is neither 1 (overlapping
// windows) nor equal to the sequence length (disjoint windows).
type UnsupportedSteppingError struct {
	Step           int
	SequenceLength int
}

func (e *UnsupportedSteppingError) Error() string {
	return fmt.Sprintf("unsupported stepping: step=%d with sequence_length=%d (step must be 1 or equal to sequence_length)",
		e.Step, e.SequenceLength)
}

// BuildSpec produces the PipelineSpec for (stage, model) from cfg. This is
// the central policy table:
//
//	train/base      seq=base.train.sequence_length   step=seq batch=1  shuffle
//	predict/base    seq=base.predict.sequence_length step=seq batch=1
//	predict/context seq=5 step=1 batch=context.predict.batch_size pad_last_batch
//	train/context   consecutive: seq=context.train.batch_size step=seq batch=1 shuffle
//	                independent: seq=5 step=5 batch=context.train.batch_size shuffle
//
// Augmentation applies only to train stages; predict always uses
// [AugDefault]. Only keys the requested branch reads are validated.
func BuildSpec(stage Stage, model ModelType, resize Dims, cfg *config.Config, aug AugMode) (PipelineSpec, error) {
	if cfg == nil {
		return PipelineSpec{}, errors.New("planner: nil config")
	}
	if err := cfg.Validate(); err != nil {
		return PipelineSpec{}, err
	}
	if err := validateResize(resize); err != nil {
		return PipelineSpec{}, err
	}
	if aug == "" {
		aug = AugDefault
	}
	if _, err := ParseAugMode(string(aug)); err != nil {
		return PipelineSpec{}, config.Invalid("augmentation", "%v", err)
	}

	g := cfg.General
	spec := PipelineSpec{
		Stage:        stage,
		Model:        model,
		Seed:         g.Seed,
		InitialFill:  g.InitialFill,
		PadSequences: true,
		ReaderName:   ReaderName,
		Resize:       resize,
		Mean:         cfg.Decode.Mean,
		Std:          cfg.Decode.Std,
		Augmentation: aug,
		Device:       g.Device,
		DeviceID:     g.DeviceID,
		NumThreads:   g.NumThreads,
	}

	switch {
	case stage == StageTrain && model == ModelBase:
		n, err := positive("base.train.sequence_length", cfg.Base.Train.SequenceLength)
		if err != nil {
			return PipelineSpec{}, err
		}
		spec.SequenceLength, spec.Step, spec.BatchSize = n, n, 1
		spec.RandomShuffle = true

	case stage == StagePredict && model == ModelBase:
		n, err := positive("base.predict.sequence_length", cfg.Base.Predict.SequenceLength)
		if err != nil {
			return PipelineSpec{}, err
		}
		spec.SequenceLength, spec.Step, spec.BatchSize = n, n, 1

	case stage == StagePredict && model == ModelContext:
		b, err := positive("context.predict.batch_size", cfg.Context.Predict.BatchSize)
		if err != nil {
			return PipelineSpec{}, err
		}
		spec.SequenceLength, spec.Step, spec.BatchSize = ContextWindow, 1, b
		spec.PadLastBatch = true

	case stage == StageTrain && model == ModelContext:
		b, err := positive("context.train.batch_size", cfg.Context.Train.BatchSize)
		if err != nil {
			return PipelineSpec{}, err
		}
		spec.RandomShuffle = true
		if cfg.Context.Train.ConsecutiveSequences {
			spec.SequenceLength, spec.Step, spec.BatchSize = b, b, 1
			spec.ContextSuccessive = true
		} else {
			spec.SequenceLength, spec.Step, spec.BatchSize = ContextWindow, ContextWindow, b
		}

	default:
		return PipelineSpec{}, fmt.Errorf("planner: unknown stage/model %q/%q", stage, model)
	}

	if stage == StagePredict {
		spec.Augmentation = AugDefault
	}
	if err := spec.Validate(); err != nil {
		return PipelineSpec{}, err
	}
	return spec, nil
}

// Validate enforces the stepping invariant: step == 1 or step == sequence
// length. Sizes must be positive.
func (s PipelineSpec) Validate() error {
	if s.SequenceLength <= 0 {
		return config.Invalid("sequence_length", "must be positive, got %d", s.SequenceLength)
	}
	if s.BatchSize <= 0 {
		return config.Invalid("batch_size", "must be positive, got %d", s.BatchSize)
	}
	if s.Step != 1 && s.Step != s.SequenceLength {
		return &UnsupportedSteppingError{Step: s.Step, SequenceLength: s.SequenceLength}
	}
	return nil
}

func positive(key string, v int) (int, error) {
	if v <= 0 {
		return 0, config.Invalid(key, "must be positive, got %d", v)
	}
	return v, nil
}

func validateResize(d Dims) error {
	if d.IsZero() {
		return nil
	}
	if d.Height <= 0 || d.Width <= 0 {
		return config.Invalid("resize", "height and width must both be positive, got %s", d)
	}
	return nil
}

package planner

// NumIters returns the number of batches in one epoch over totalFrames:
//
//	base:                  ceil(total / sequence_length)
//	context, step 1:       ceil(total / batch_size)
//	context, step == seq:  floor(total / (batch_size * sequence_length))
//
// The floor in the last case drops a trailing partial batch of windows.
func NumIters(spec PipelineSpec, totalFrames int) (int, error) {
	if err := spec.Validate(); err != nil {
		return 0, err
	}
	if totalFrames <= 0 {
		return 0, nil
	}
	if spec.Model == ModelBase {
		return ceilDiv(totalFrames, spec.SequenceLength), nil
	}
	switch spec.Step {
	case 1:
		return ceilDiv(totalFrames, spec.BatchSize), nil
	case spec.SequenceLength:
		return totalFrames / (spec.BatchSize * spec.SequenceLength), nil
	}
	return 0, &UnsupportedSteppingError{Step: spec.Step, SequenceLength: spec.SequenceLength}
}

// BuildIterSpec pairs spec with its iterator settings:
//
//	train/base      partial, auto reset
//	predict/base    fill,    manual reset
//	train/context   partial, auto reset
//	predict/context partial, manual reset
func BuildIterSpec(spec PipelineSpec, totalFrames int) (IterSpec, error) {
	n, err := NumIters(spec, totalFrames)
	if err != nil {
		return IterSpec{}, err
	}
	is := IterSpec{
		NumIters:          n,
		LastBatchPolicy:   LastBatchPartial,
		ResetPolicy:       ResetAuto,
		ContextSuccessive: spec.ContextSuccessive,
		OutputMap:         []string{"x", "transform"},
	}
	if spec.Stage == StagePredict {
		is.ResetPolicy = ResetManual
		if spec.Model == ModelBase {
			is.LastBatchPolicy = LastBatchFill
		}
	}
	return is, nil
}

func ceilDiv(a, b int) int { return (a + b - 1) / b }

package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/gomlx/gomlx/pkg/core/tensors"

	"github.com/backmassage/posefeed/internal/augment"
	"github.com/backmassage/posefeed/internal/pipeline"
	"github.com/backmassage/posefeed/internal/planner"
	"github.com/backmassage/posefeed/internal/tensor"
)

// ErrExhausted is returned by Next when a manual-reset source has delivered
// its epoch, or when the source has no batches at all. It is a control
// signal, not a failure.
var ErrExhausted = errors.New("loader: batch source exhausted")

// Batch is one model-ready batch. X is (sequence, 3, H, W) with a single
// transform record for base models and successive context training, and
// (batch, sequence, 3, H, W) with one record per window otherwise.
type Batch struct {
	X          *tensor.Tensor
	Transforms []augment.Transform
}

// Gomlx copies X into a gomlx tensor for GoMLX training loops. The caller
// owns the result and should FinalizeAll it when done.
func (b Batch) Gomlx() *tensors.Tensor { return b.X.Gomlx() }

// Source is the raw batch stream an Iterator wraps.
type Source interface {
	Next(ctx context.Context) (pipeline.RawBatch, error)
	Reset()
}

// Iterator delivers exactly IterSpec.NumIters batches per epoch.
type Iterator struct {
	src  Source
	spec planner.PipelineSpec
	iter planner.IterSpec
	log  *slog.Logger

	pulls int
	epoch int
}

// NewIterator wraps src with the reshaping and reset behavior of spec and
// iter.
func NewIterator(src Source, spec planner.PipelineSpec, iter planner.IterSpec, log *slog.Logger) *Iterator {
	if log == nil {
		log = slog.Default()
	}
	return &Iterator{src: src, spec: spec, iter: iter, log: log}
}

// Len returns the number of batches per epoch.
func (it *Iterator) Len() int { return it.iter.NumIters }

// Epoch returns the number of completed automatic resets.
func (it *Iterator) Epoch() int { return it.epoch }

// ResetPolicy returns the end-of-epoch behavior.
func (it *Iterator) ResetPolicy() planner.ResetPolicy { return it.iter.ResetPolicy }

// Reset restarts the underlying pipeline and the pull counter.
func (it *Iterator) Reset() {
	it.src.Reset()
	it.pulls = 0
}

func (it *Iterator) nextEpoch() {
	it.Reset()
	it.epoch++
	it.log.Debug("epoch reset", "epoch", it.epoch)
}

// Next returns the next batch. Under auto reset it rolls into a new epoch
// after Len pulls or when the pipeline runs dry; under manual reset it
// returns ErrExhausted in both cases until Reset is called.
func (it *Iterator) Next(ctx context.Context) (Batch, error) {
	if it.iter.NumIters <= 0 {
		return Batch{}, ErrExhausted
	}
	auto := it.iter.ResetPolicy == planner.ResetAuto
	if it.pulls >= it.iter.NumIters {
		if !auto {
			return Batch{}, ErrExhausted
		}
		it.nextEpoch()
	}

	raw, err := it.src.Next(ctx)
	if errors.Is(err, io.EOF) {
		if !auto {
			it.pulls = it.iter.NumIters
			return Batch{}, ErrExhausted
		}
		it.nextEpoch()
		raw, err = it.src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return Batch{}, ErrExhausted
		}
	}
	if err != nil {
		return Batch{}, err
	}
	it.pulls++
	return it.reshape(raw)
}

// reshape adapts a raw (batch, seq, 3, H, W) pull to the model's layout.
func (it *Iterator) reshape(raw pipeline.RawBatch) (Batch, error) {
	x, transforms := raw.X, raw.Transforms
	if it.iter.LastBatchPolicy == planner.LastBatchPartial && raw.Valid < x.Dim(0) {
		x = x.Narrow(raw.Valid)
		transforms = transforms[:raw.Valid]
	}
	if it.spec.Model == planner.ModelBase || it.iter.ContextSuccessive {
		sq, err := x.Squeeze()
		if err != nil {
			return Batch{}, fmt.Errorf("loader: %w", err)
		}
		return Batch{X: sq, Transforms: transforms[:1]}, nil
	}
	return Batch{X: x, Transforms: transforms}, nil
}

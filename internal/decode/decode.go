// Package decode defines the contract between the batch pipeline and the
// video decode runtimes (ffmpeg, GStreamer, OpenCV). A backend reads a run
// of consecutive frames from one file, optionally resized, as packed 8-bit
// RGB.
package decode

import (
	"context"
	"errors"
)

// ErrBackendUnavailable is returned by constructors of backends that were
// not compiled into this binary (see the gst and gocv build tags).
var ErrBackendUnavailable = errors.New("decode backend unavailable in this build")

// Request asks for Count frames of Path starting at frame Start. Width and
// Height select the output size; zero means the source size, given by
// SrcWidth and SrcHeight. FrameRate, when known, lets a backend seek by
// time instead of decoding up to Start.
type Request struct {
	Path      string
	Start     int
	Count     int
	Width     int
	Height    int
	SrcWidth  int
	SrcHeight int
	FrameRate float64
}

// OutDims returns the output frame size.
func (r Request) OutDims() (w, h int) {
	if r.Width > 0 && r.Height > 0 {
		return r.Width, r.Height
	}
	return r.SrcWidth, r.SrcHeight
}

// Resized reports whether the output size differs from the source size.
func (r Request) Resized() bool {
	w, h := r.OutDims()
	return w != r.SrcWidth || h != r.SrcHeight
}

// Clip is the result of a Request. Frames holds packed RGB rows
// (Width*Height*3 bytes each) and may be shorter than the requested count
// at the end of a file. Frame buffers are read-only; backends may share
// them between overlapping clips.
type Clip struct {
	Width  int
	Height int
	Frames [][]byte
}

// Decoder is a decode runtime. Decode is safe for concurrent use.
type Decoder interface {
	Name() string
	Decode(ctx context.Context, req Request) (Clip, error)
	Close() error
}

//go:build gocv

// Package opencv is the OpenCV decode backend, built on gocv. It is
// compiled only with the gocv build tag because it links against OpenCV
// through cgo.
package opencv

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"

	"gocv.io/x/gocv"

	"github.com/backmassage/posefeed/internal/decode"
)

// Decoder keeps one VideoCapture per file. Sequential reads continue from
// the current position; any other start seeks with CAP_PROP_POS_FRAMES.
type Decoder struct {
	log *slog.Logger

	mu       sync.Mutex
	captures map[string]*capture
	closed   bool
}

type capture struct {
	mu   sync.Mutex
	src  *gocv.VideoCapture
	raw  gocv.Mat
	rgb  gocv.Mat
	out  gocv.Mat
	next int
}

// New returns a Decoder.
func New(log *slog.Logger) (*Decoder, error) {
	if log == nil {
		log = slog.Default()
	}
	return &Decoder{log: log, captures: make(map[string]*capture)}, nil
}

// Name implements decode.Decoder.
func (d *Decoder) Name() string { return "opencv" }

func (d *Decoder) capture(path string) (*capture, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, errors.New("opencv: decoder closed")
	}
	if c, ok := d.captures[path]; ok {
		return c, nil
	}
	src, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("opencv: open %s: %w", path, err)
	}
	c := &capture{src: src, raw: gocv.NewMat(), rgb: gocv.NewMat(), out: gocv.NewMat()}
	d.captures[path] = c
	return c, nil
}

// Decode implements decode.Decoder.
func (d *Decoder) Decode(ctx context.Context, req decode.Request) (decode.Clip, error) {
	w, h := req.OutDims()
	if req.Count <= 0 || w <= 0 || h <= 0 {
		return decode.Clip{}, fmt.Errorf("opencv: invalid request for %s", req.Path)
	}
	c, err := d.capture(req.Path)
	if err != nil {
		return decode.Clip{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.next != req.Start {
		d.log.Debug("opencv seek", "path", req.Path, "from", c.next, "to", req.Start)
		c.src.Set(gocv.VideoCapturePosFrames, float64(req.Start))
		c.next = req.Start
	}

	clip := decode.Clip{Width: w, Height: h}
	for len(clip.Frames) < req.Count {
		if err := ctx.Err(); err != nil {
			return decode.Clip{}, err
		}
		if ok := c.src.Read(&c.raw); !ok || c.raw.Empty() {
			break
		}
		c.next++
		gocv.CvtColor(c.raw, &c.rgb, gocv.ColorBGRToRGB)
		frame := c.rgb
		if req.Resized() {
			gocv.Resize(c.rgb, &c.out, image.Pt(w, h), 0, 0, gocv.InterpolationLinear)
			frame = c.out
		}
		clip.Frames = append(clip.Frames, frame.ToBytes())
	}
	return clip, nil
}

func (c *capture) close() error {
	return errors.Join(c.src.Close(), c.raw.Close(), c.rgb.Close(), c.out.Close())
}

// Close implements decode.Decoder.
func (d *Decoder) Close() error {
	d.mu.Lock()
	captures := d.captures
	d.captures, d.closed = nil, true
	d.mu.Unlock()
	var errs []error
	for _, c := range captures {
		c.mu.Lock()
		errs = append(errs, c.close())
		c.mu.Unlock()
	}
	return errors.Join(errs...)
}

//go:build gst

// Package gst is the GStreamer decode backend. It is compiled only with the
// gst build tag because it links against libgstreamer through cgo.
package gst

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"

	"github.com/backmassage/posefeed/internal/decode"
)

// Decoder reads frames through a filesrc ! decodebin ! appsink pipeline,
// one pipeline per file. Reads that continue where the previous one ended
// reuse the running pipeline; anything else rebuilds it.
type Decoder struct {
	log *slog.Logger

	mu       sync.Mutex
	sessions map[string]*session
	closed   bool
}

type session struct {
	mu       sync.Mutex
	pipeline *gst.Pipeline
	sink     *app.Sink
	w, h     int
	next     int
	eof      bool
}

// New initializes GStreamer and returns a Decoder.
func New(log *slog.Logger) (*Decoder, error) {
	if log == nil {
		log = slog.Default()
	}
	gst.Init(nil)
	return &Decoder{log: log, sessions: make(map[string]*session)}, nil
}

// Name implements decode.Decoder.
func (d *Decoder) Name() string { return "gstreamer" }

func pipelineString(path string, w, h int) string {
	return fmt.Sprintf("filesrc location=%q ! decodebin ! videoconvert ! videoscale ! "+
		"video/x-raw,format=RGB,width=%d,height=%d ! appsink name=sink sync=false", path, w, h)
}

// Decode implements decode.Decoder.
func (d *Decoder) Decode(ctx context.Context, req decode.Request) (decode.Clip, error) {
	w, h := req.OutDims()
	if req.Count <= 0 || w <= 0 || h <= 0 {
		return decode.Clip{}, fmt.Errorf("gst: invalid request for %s", req.Path)
	}
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return decode.Clip{}, errors.New("gst: decoder closed")
	}
	s, ok := d.sessions[req.Path]
	if !ok {
		s = &session{}
		d.sessions[req.Path] = s
	}
	d.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pipeline == nil || s.w != w || s.h != h || req.Start < s.next {
		if err := s.open(req.Path, w, h); err != nil {
			return decode.Clip{}, err
		}
		d.log.Debug("gst pipeline started", "path", req.Path, "start", req.Start)
	}

	clip := decode.Clip{Width: w, Height: h}
	for len(clip.Frames) < req.Count && !s.eof {
		if err := ctx.Err(); err != nil {
			s.close()
			return decode.Clip{}, err
		}
		frame, err := s.pull()
		if err != nil {
			s.close()
			return decode.Clip{}, fmt.Errorf("gst: %s frame %d: %w", req.Path, s.next, err)
		}
		if frame == nil {
			break
		}
		if s.next >= req.Start {
			clip.Frames = append(clip.Frames, frame)
		}
		s.next++
	}
	return clip, nil
}

func (s *session) open(path string, w, h int) error {
	s.close()
	pipeline, sink, err := startPipeline(pipelineString(path, w, h))
	if err != nil {
		return fmt.Errorf("gst: %s: %w", path, err)
	}
	s.pipeline, s.sink = pipeline, sink
	s.w, s.h, s.next, s.eof = w, h, 0, false
	return nil
}

// releasePipeline stops a pipeline that will not be handed to a session.
var releasePipeline = func(p *gst.Pipeline) { p.SetState(gst.StateNull) }

// startPipeline parses desc, finds its appsink named "sink" and sets it
// playing. The pipeline is released on every failure after it was built.
func startPipeline(desc string) (*gst.Pipeline, *app.Sink, error) {
	pipeline, err := gst.NewPipelineFromString(desc)
	if err != nil {
		return nil, nil, fmt.Errorf("build pipeline: %w", err)
	}
	elem, err := pipeline.GetElementByName("sink")
	if err != nil {
		releasePipeline(pipeline)
		return nil, nil, fmt.Errorf("appsink missing: %w", err)
	}
	if err := pipeline.SetState(gst.StatePlaying); err != nil {
		releasePipeline(pipeline)
		return nil, nil, fmt.Errorf("start pipeline: %w", err)
	}
	return pipeline, app.SinkFromElement(elem), nil
}

// pull returns the next frame as tightly packed RGB, or nil at end of
// stream.
func (s *session) pull() ([]byte, error) {
	sample := s.sink.PullSample()
	if sample == nil {
		if s.sink.IsEOS() {
			s.eof = true
			return nil, nil
		}
		return nil, errors.New("pipeline stopped before end of stream")
	}
	buffer := sample.GetBuffer()
	if buffer == nil {
		return nil, errors.New("sample without buffer")
	}
	data := buffer.Map(gst.MapRead).Bytes()
	defer buffer.Unmap()
	return pack(data, s.w, s.h)
}

// pack copies a mapped RGB buffer, dropping the row padding GStreamer adds
// to align each row to 4 bytes.
func pack(data []byte, w, h int) ([]byte, error) {
	row := w * 3
	if h == 0 || len(data) < row*h {
		return nil, fmt.Errorf("buffer is %d bytes, want at least %d", len(data), row*h)
	}
	stride := len(data) / h
	out := make([]byte, row*h)
	for y := 0; y < h; y++ {
		copy(out[y*row:(y+1)*row], data[y*stride:y*stride+row])
	}
	return out, nil
}

func (s *session) close() {
	if s.pipeline != nil {
		s.pipeline.SetState(gst.StateNull)
	}
	s.pipeline, s.sink = nil, nil
	s.next, s.eof = 0, false
}

// Close implements decode.Decoder.
func (d *Decoder) Close() error {
	d.mu.Lock()
	sessions := d.sessions
	d.sessions, d.closed = nil, true
	d.mu.Unlock()
	for _, s := range sessions {
		s.mu.Lock()
		s.close()
		s.mu.Unlock()
	}
	return nil
}

package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/backmassage/posefeed/internal/decode"
)

// maxSkip is how far ahead of a running process a request may start before
// the process is restarted at the new position instead of read through.
const maxSkip = 64

// Decoder is the ffmpeg decode backend.
type Decoder struct {
	opts     Options
	log      *slog.Logger
	fallback *FallbackState

	mu       sync.Mutex
	sessions map[string]*session
	closed   bool
}

// NewDecoder returns a Decoder. Hardware decode is attempted first when
// opts.HWAccel is set.
func NewDecoder(opts Options, log *slog.Logger) *Decoder {
	if log == nil {
		log = slog.Default()
	}
	return &Decoder{
		opts:     opts,
		log:      log,
		fallback: NewFallbackState(opts.HWAccel),
		sessions: make(map[string]*session),
	}
}

// Name implements decode.Decoder.
func (d *Decoder) Name() string { return "ffmpeg" }

// HWAccel reports whether hardware decode is still in use.
func (d *Decoder) HWAccel() bool { return d.fallback.HWAccel() }

// session is the decode state of one file: a running process positioned at
// frame next, and the frames already read from bufStart onwards
// (next == bufStart + len(buf)).
type session struct {
	mu       sync.Mutex
	proc     *process
	hw       bool
	w, h     int
	next     int
	bufStart int
	buf      [][]byte
	eof      bool
}

func (d *Decoder) session(path string) (*session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, errors.New("ffmpeg: decoder closed")
	}
	s, ok := d.sessions[path]
	if !ok {
		s = &session{}
		d.sessions[path] = s
	}
	return s, nil
}

// Decode implements decode.Decoder.
func (d *Decoder) Decode(ctx context.Context, req decode.Request) (decode.Clip, error) {
	if req.Count <= 0 {
		return decode.Clip{}, fmt.Errorf("ffmpeg: invalid frame count %d", req.Count)
	}
	w, h := req.OutDims()
	if w <= 0 || h <= 0 {
		return decode.Clip{}, fmt.Errorf("ffmpeg: unknown frame size for %s", req.Path)
	}
	s, err := d.session(req.Path)
	if err != nil {
		return decode.Clip{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.proc == nil || s.w != w || s.h != h || req.Start < s.bufStart || req.Start > s.next+maxSkip {
		if err := d.restart(s, req, w, h); err != nil {
			return decode.Clip{}, err
		}
	}
	s.trim(req.Start)

	frameSize := w * h * 3
	for len(s.buf) < req.Start-s.bufStart+req.Count && !s.eof {
		buf := make([]byte, frameSize)
		err := s.proc.readFrame(ctx, buf)
		if err == nil {
			s.next++
			if s.next > req.Start {
				s.buf = append(s.buf, buf)
			} else {
				s.bufStart = s.next
			}
			continue
		}
		if ctx.Err() != nil {
			s.reset()
			return decode.Clip{}, ctx.Err()
		}
		if err := d.finish(s, req, err); err != nil {
			if errors.Is(err, errRetry) {
				if err := d.restart(s, req, w, h); err != nil {
					return decode.Clip{}, err
				}
				continue
			}
			return decode.Clip{}, err
		}
	}

	clip := decode.Clip{Width: w, Height: h}
	from := req.Start - s.bufStart
	to := min(from+req.Count, len(s.buf))
	if from < to {
		clip.Frames = append(clip.Frames, s.buf[from:to]...)
	}
	return clip, nil
}

var errRetry = errors.New("retry")

// finish handles the end of a process's output. A clean exit marks the
// file as fully read; a failed hardware run falls back to software and
// asks for a restart; anything else is a DecodeError.
func (d *Decoder) finish(s *session, req decode.Request, readErr error) error {
	waitErr := s.proc.wait()
	if waitErr == nil && errors.Is(readErr, io.EOF) {
		s.eof = true
		return nil
	}
	stderr := s.proc.stderr.String()
	kind := Classify(stderr)
	if s.hw && errors.Is(kind, ErrHWAccel) {
		if d.fallback.Advance(kind) == FallbackSoftware {
			d.log.Warn("hardware decode failed, falling back to software", "path", req.Path, "stderr", lastLine(stderr))
		}
		s.reset()
		return errRetry
	}
	s.reset()
	err := waitErr
	if err == nil {
		err = readErr
	}
	if !exitErr(waitErr) && errors.Is(readErr, io.ErrUnexpectedEOF) {
		kind = ErrCorruptInput
	}
	return &DecodeError{Path: req.Path, Start: req.Start, Kind: kind, Stderr: stderr, Err: err}
}

// restart kills any running process and starts a new one at req.Start.
func (d *Decoder) restart(s *session, req decode.Request, w, h int) error {
	s.reset()
	hw := d.fallback.HWAccel()
	opts := d.opts
	opts.HWAccel = hw
	argv := Build(opts, Args{
		Path:      req.Path,
		Start:     req.Start,
		Width:     w,
		Height:    h,
		Scale:     req.Resized(),
		FrameRate: req.FrameRate,
	})
	d.log.Debug("ffmpeg start", "path", req.Path, "start", req.Start, "hwaccel", hw)
	p, err := start(argv)
	if err != nil {
		return &DecodeError{Path: req.Path, Start: req.Start, Kind: ErrFFmpeg, Err: err}
	}
	s.proc, s.hw, s.w, s.h = p, hw, w, h
	s.next, s.bufStart = req.Start, req.Start
	return nil
}

// trim drops buffered frames before start.
func (s *session) trim(start int) {
	if start <= s.bufStart {
		return
	}
	drop := min(start-s.bufStart, len(s.buf))
	s.buf = s.buf[drop:]
	s.bufStart += drop
}

// reset kills the process and forgets all buffered state.
func (s *session) reset() {
	if s.proc != nil {
		s.proc.kill()
	}
	s.proc, s.buf, s.eof = nil, nil, false
	s.next, s.bufStart = 0, 0
}

// Close implements decode.Decoder. It kills every running process.
func (d *Decoder) Close() error {
	d.mu.Lock()
	sessions := d.sessions
	d.sessions = nil
	d.closed = true
	d.mu.Unlock()
	for _, s := range sessions {
		s.mu.Lock()
		s.reset()
		s.mu.Unlock()
	}
	return nil
}

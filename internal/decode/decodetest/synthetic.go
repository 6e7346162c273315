// Package decodetest provides an in-memory decode.Decoder for tests of the
// packages above the decode backends.
package decodetest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/backmassage/posefeed/internal/decode"
)

// Synthetic is an in-memory decode.Decoder that renders deterministic
// frames for a fixed set of files. Every sample of frame i of file f
// equals byte(i), except the green channel which holds byte(f).
type Synthetic struct {
	Files  []string
	Frames map[string]int // Frame count per path.
	Width  int
	Height int

	calls  atomic.Int64
	mu     sync.Mutex
	closed bool
}

// Name implements decode.Decoder.
func (s *Synthetic) Name() string { return "synthetic" }

// Calls returns the number of Decode calls served.
func (s *Synthetic) Calls() int64 { return s.calls.Load() }

// Closed reports whether Close was called.
func (s *Synthetic) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Decode implements decode.Decoder.
func (s *Synthetic) Decode(ctx context.Context, req decode.Request) (decode.Clip, error) {
	if err := ctx.Err(); err != nil {
		return decode.Clip{}, err
	}
	s.calls.Add(1)
	n, ok := s.Frames[req.Path]
	if !ok {
		return decode.Clip{}, fmt.Errorf("synthetic: unknown file %s", req.Path)
	}
	fileIdx := 0
	for i, f := range s.Files {
		if f == req.Path {
			fileIdx = i
		}
	}
	w, h := req.OutDims()
	if w == 0 || h == 0 {
		w, h = s.Width, s.Height
	}
	clip := decode.Clip{Width: w, Height: h}
	for i := req.Start; i < req.Start+req.Count && i < n; i++ {
		px := make([]byte, w*h*3)
		for p := 0; p < len(px); p += 3 {
			px[p], px[p+1], px[p+2] = byte(i), byte(fileIdx), byte(i)
		}
		clip.Frames = append(clip.Frames, px)
	}
	return clip, nil
}

// Close implements decode.Decoder.
func (s *Synthetic) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

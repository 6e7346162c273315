package ffmpeg

import (
	"errors"
	"sync"
)

// FallbackAction identifies which fallback was applied (or none).
type FallbackAction int

const (
	FallbackNone     FallbackAction = iota
	FallbackSoftware                // Drop -hwaccel and decode on the CPU.
)

// FallbackState tracks the decode-mode ladder shared by every session of a
// Decoder. It only ever moves from hardware to software.
type FallbackState struct {
	mu      sync.Mutex
	hwaccel bool
}

// NewFallbackState starts with hardware decode when hw is true.
func NewFallbackState(hw bool) *FallbackState {
	return &FallbackState{hwaccel: hw}
}

// HWAccel reports whether hardware decode is still enabled.
func (s *FallbackState) HWAccel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hwaccel
}

// Advance inspects the category of a failed run and applies the matching
// fallback. It returns FallbackNone when nothing applies, in which case
// the failure is final.
func (s *FallbackState) Advance(kind error) FallbackAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hwaccel && errors.Is(kind, ErrHWAccel) {
		s.hwaccel = false
		return FallbackSoftware
	}
	return FallbackNone
}

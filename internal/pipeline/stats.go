package pipeline

import "time"

// Stats tracks aggregate counters across the pulls of one pipeline.
type Stats struct {
	Batches       int64
	Samples       int64 // Real samples; padding repeats are not counted.
	FramesDecoded int64
	FramesPadded  int64 // Zero frames appended to short sequences.
	Elapsed       time.Duration
}

// FramesPerSecond returns the decode throughput over all pulls.
func (s Stats) FramesPerSecond() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.FramesDecoded) / s.Elapsed.Seconds()
}

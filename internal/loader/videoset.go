package loader

import (
	"path/filepath"
	"slices"

	"github.com/backmassage/posefeed/internal/config"
)

// VideoSet is an ordered, immutable list of absolute video paths.
type VideoSet struct {
	paths []string
}

// NewVideoSet copies paths, making each absolute. An empty set is a
// configuration error.
func NewVideoSet(paths ...string) (VideoSet, error) {
	if len(paths) == 0 {
		return VideoSet{}, config.Invalid("videos", "at least one video is required")
	}
	abs := make([]string, len(paths))
	for i, p := range paths {
		if p == "" {
			return VideoSet{}, config.Invalid("videos", "empty path at index %d", i)
		}
		a, err := filepath.Abs(p)
		if err != nil {
			return VideoSet{}, config.Invalid("videos", "%s: %v", p, err)
		}
		abs[i] = a
	}
	return VideoSet{paths: abs}, nil
}

// Paths returns a copy of the paths in order.
func (v VideoSet) Paths() []string { return slices.Clone(v.paths) }

// Len returns the number of videos.
func (v VideoSet) Len() int { return len(v.paths) }

package augment

import (
	"math/rand/v2"
)

// Parameter ranges for the dlc augmentation policy. All draws are uniform.
const (
	MaxRotationDeg = 10.0
	MinScale       = 0.8
	MaxScale       = 1.2
	MinBrightness  = 0.75
	MaxBrightness  = 1.25
	MinContrast    = 0.75
	MaxContrast    = 1.25
	MaxNoiseFactor = 10.0
)

// Params is one draw of augmentation parameters, shared by every frame of a
// sequence. Enabled is false for samples that are passed through.
type Params struct {
	Enabled     bool
	Angle       float64 // Degrees.
	ScaleX      float64
	ScaleY      float64
	Contrast    float32
	Brightness  float32
	NoiseFactor float64
	NoiseSeed   uint64 // Seeds the per-sample shot noise stream.
}

// Matrix returns the source-to-destination transform for a w x h frame:
// rotation about the frame center followed by per-axis scaling about it.
func (p Params) Matrix(w, h int) Affine {
	cx, cy := float64(w)/2, float64(h)/2
	return Rotation(p.Angle, cx, cy).Then(Scale(p.ScaleX, p.ScaleY, cx, cy))
}

// Sampler draws Params from its own seeded stream. Draws happen in sample
// order on one goroutine so that results do not depend on worker
// scheduling.
type Sampler struct {
	enabled bool
	rng     *rand.Rand
}

// NewSampler returns a Sampler; when enabled is false every draw is a
// pass-through and the stream is not consumed.
func NewSampler(seed int64, enabled bool) *Sampler {
	return &Sampler{enabled: enabled, rng: rand.New(rand.NewPCG(uint64(seed), 2))}
}

// Next returns the parameters for the next sample.
func (s *Sampler) Next() Params {
	if !s.enabled {
		return Params{}
	}
	return Params{
		Enabled:     true,
		Angle:       uniform(s.rng, -MaxRotationDeg, MaxRotationDeg),
		ScaleX:      uniform(s.rng, MinScale, MaxScale),
		ScaleY:      uniform(s.rng, MinScale, MaxScale),
		Contrast:    float32(uniform(s.rng, MinContrast, MaxContrast)),
		Brightness:  float32(uniform(s.rng, MinBrightness, MaxBrightness)),
		NoiseFactor: uniform(s.rng, 0, MaxNoiseFactor),
		NoiseSeed:   s.rng.Uint64(),
	}
}

// Apply perturbs every frame of a sequence with p and returns the record
// of the geometric transform. The input frames are not modified; disabled
// params return them as-is with NoTransform.
func Apply(frames []Frame, p Params) ([]Frame, Transform) {
	if !p.Enabled {
		return frames, NoTransform()
	}
	if len(frames) == 0 {
		return frames, NoTransform()
	}
	m := p.Matrix(frames[0].Width, frames[0].Height)
	noise := rand.New(rand.NewPCG(p.NoiseSeed, 3))
	out := make([]Frame, len(frames))
	for i, f := range frames {
		w := WarpAffine(f, m)
		BrightnessContrast(w, p.Brightness, p.Contrast)
		ShotNoise(w, p.NoiseFactor, noise)
		out[i] = w
	}
	return out, MatrixTransform(m)
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// Package augment implements the geometric and photometric perturbations
// applied to training sequences, the transform record returned with every
// sample, and the final normalization into channel-first float planes.
//
// Frames are 3-channel interleaved float32 images with values in [0, 255].
package augment

import (
	"fmt"
	"math"
)

// Affine is a 2x3 matrix [a b c; d e f] mapping (x, y) to
// (a*x + b*y + c, d*x + e*y + f), stored row-major.
type Affine [6]float64

// Identity returns the identity transform.
func Identity() Affine { return Affine{1, 0, 0, 0, 1, 0} }

// Rotation rotates by deg degrees about (cx, cy).
func Rotation(deg, cx, cy float64) Affine {
	s, c := math.Sincos(deg * math.Pi / 180)
	return Affine{
		c, -s, cx - c*cx + s*cy,
		s, c, cy - s*cx - c*cy,
	}
}

// Scale scales by (sx, sy) about (cx, cy).
func Scale(sx, sy, cx, cy float64) Affine {
	return Affine{
		sx, 0, cx - sx*cx,
		0, sy, cy - sy*cy,
	}
}

// Then returns the transform that applies m first and next second.
func (m Affine) Then(next Affine) Affine {
	return Affine{
		next[0]*m[0] + next[1]*m[3],
		next[0]*m[1] + next[1]*m[4],
		next[0]*m[2] + next[1]*m[5] + next[2],
		next[3]*m[0] + next[4]*m[3],
		next[3]*m[1] + next[4]*m[4],
		next[3]*m[2] + next[4]*m[5] + next[5],
	}
}

// Apply maps a point.
func (m Affine) Apply(x, y float64) (float64, float64) {
	return m[0]*x + m[1]*y + m[2], m[3]*x + m[4]*y + m[5]
}

// Invert returns the inverse transform, or ok=false when m is singular.
func (m Affine) Invert() (Affine, bool) {
	det := m[0]*m[4] - m[1]*m[3]
	if math.Abs(det) < 1e-12 {
		return Affine{}, false
	}
	a, b, d, e := m[4]/det, -m[1]/det, -m[3]/det, m[0]/det
	return Affine{
		a, b, -(a*m[2] + b*m[5]),
		d, e, -(d*m[2] + e*m[5]),
	}, true
}

func (m Affine) String() string {
	return fmt.Sprintf("[[%.4f %.4f %.2f] [%.4f %.4f %.2f]]", m[0], m[1], m[2], m[3], m[4], m[5])
}

// Transform records the geometric transform applied to one sample so that
// predictions can be mapped back. It is either "no transform" or a matrix.
type Transform struct {
	m       Affine
	applied bool
}

// NoTransform is the record for samples that were not perturbed.
func NoTransform() Transform { return Transform{} }

// MatrixTransform records an applied source-to-destination matrix.
func MatrixTransform(m Affine) Transform { return Transform{m: m, applied: true} }

// Applied reports whether a geometric transform was applied.
func (t Transform) Applied() bool { return t.applied }

// Matrix returns the applied matrix, or ok=false for NoTransform.
func (t Transform) Matrix() (Affine, bool) { return t.m, t.applied }

func (t Transform) String() string {
	if !t.applied {
		return "none"
	}
	return t.m.String()
}

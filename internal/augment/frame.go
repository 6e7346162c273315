package augment

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// Channels is the number of color channels in every frame.
const Channels = 3

// Frame is an interleaved RGB image with float samples in [0, 255].
type Frame struct {
	Width  int
	Height int
	Pix    []float32 // len = Width*Height*Channels
}

// NewFrame allocates a black frame.
func NewFrame(w, h int) Frame {
	return Frame{Width: w, Height: h, Pix: make([]float32, w*h*Channels)}
}

// FromRGB24 converts packed 8-bit RGB into a Frame.
func FromRGB24(w, h int, b []byte) (Frame, error) {
	if len(b) != w*h*Channels {
		return Frame{}, fmt.Errorf("augment: rgb24 buffer is %d bytes, want %d for %dx%d", len(b), w*h*Channels, w, h)
	}
	f := NewFrame(w, h)
	for i, v := range b {
		f.Pix[i] = float32(v)
	}
	return f, nil
}

// at returns channel ch of pixel (x, y), or 0 outside the frame.
func (f Frame) at(x, y, ch int) float32 {
	if x < 0 || y < 0 || x >= f.Width || y >= f.Height {
		return 0
	}
	return f.Pix[(y*f.Width+x)*Channels+ch]
}

// WarpAffine resamples src through m, which maps source coordinates to
// destination coordinates, using bilinear interpolation. Destination
// pixels that map outside the source are filled with 0. Pixel centers sit
// at half-integer coordinates.
func WarpAffine(src Frame, m Affine) Frame {
	dst := NewFrame(src.Width, src.Height)
	inv, ok := m.Invert()
	if !ok {
		return dst
	}
	for y := 0; y < dst.Height; y++ {
		for x := 0; x < dst.Width; x++ {
			sx, sy := inv.Apply(float64(x)+0.5, float64(y)+0.5)
			sx, sy = sx-0.5, sy-0.5
			x0, y0 := int(math.Floor(sx)), int(math.Floor(sy))
			if x0 < -1 || y0 < -1 || x0 >= src.Width || y0 >= src.Height {
				continue
			}
			fx, fy := float32(sx-float64(x0)), float32(sy-float64(y0))
			o := (y*dst.Width + x) * Channels
			for ch := 0; ch < Channels; ch++ {
				top := src.at(x0, y0, ch)*(1-fx) + src.at(x0+1, y0, ch)*fx
				bot := src.at(x0, y0+1, ch)*(1-fx) + src.at(x0+1, y0+1, ch)*fx
				dst.Pix[o+ch] = top*(1-fy) + bot*fy
			}
		}
	}
	return dst
}

// ContrastCenter is the value left unchanged by a contrast adjustment.
const ContrastCenter = 127.5

// BrightnessContrast computes out = brightness*(center + contrast*(in - center))
// in place.
func BrightnessContrast(f Frame, brightness, contrast float32) {
	for i, v := range f.Pix {
		f.Pix[i] = brightness * (ContrastCenter + contrast*(v-ContrastCenter))
	}
}

// ShotNoise replaces every sample with Poisson(in/factor)*factor in place.
// A factor of 0 leaves the frame unchanged.
func ShotNoise(f Frame, factor float64, rng *rand.Rand) {
	if factor <= 0 {
		return
	}
	for i, v := range f.Pix {
		lambda := float64(v) / factor
		if lambda <= 0 {
			f.Pix[i] = 0
			continue
		}
		f.Pix[i] = float32(float64(poisson(rng, lambda)) * factor)
	}
}

// Normalize writes f into dst as channel-first planes: each sample is
// scaled to [0, 1] and standardized with the per-channel mean and std.
// dst must hold Channels*Height*Width values.
func Normalize(dst []float32, f Frame, mean, std [3]float32) {
	plane := f.Width * f.Height
	for p := 0; p < plane; p++ {
		for ch := 0; ch < Channels; ch++ {
			v := f.Pix[p*Channels+ch] / 255
			dst[ch*plane+p] = (v - mean[ch]) / std[ch]
		}
	}
}

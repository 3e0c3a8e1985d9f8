package sequence

import (
	"image"
	"image/color"
)

// Strip is a composited digit-sequence image: height rows, width columns,
// one channel (grayscale output strip) or three (augmented strip). Pixels
// are row-major, channel-interleaved float32 intensities in [0, 1] with 0
// black and 1 white, the glyph dataset's native scale.
type Strip struct {
	height   int
	width    int
	channels int
	pix      []float32
}

func newStrip(height, width, channels int) *Strip {
	return &Strip{
		height:   height,
		width:    width,
		channels: channels,
		pix:      make([]float32, height*width*channels),
	}
}

// Height returns the strip height in pixels, which always equals the glyph
// dataset's native glyph height.
func (s *Strip) Height() int { return s.height }

// Width returns the strip width in pixels.
func (s *Strip) Width() int { return s.width }

// Channels returns 1 for a grayscale strip and 3 for an augmented strip.
func (s *Strip) Channels() int { return s.channels }

// At returns the intensity at (y, x) for channel c.
func (s *Strip) At(y, x, c int) float32 {
	return s.pix[(y*s.width+x)*s.channels+c]
}

// Pix returns the backing pixel slice (row-major, channel-interleaved).
// Mutating it mutates the strip.
func (s *Strip) Pix() []float32 { return s.pix }

// Gray converts a single-channel strip to an 8-bit grayscale image.
func (s *Strip) Gray() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, s.width, s.height))
	for y := 0; y < s.height; y++ {
		for x := 0; x < s.width; x++ {
			img.SetGray(x, y, color.Gray{Y: quantize(s.At(y, x, 0))})
		}
	}
	return img
}

// NRGBA converts the strip to an 8-bit RGBA image. A single-channel strip
// replicates its intensity across R, G and B.
func (s *Strip) NRGBA() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, s.width, s.height))
	for y := 0; y < s.height; y++ {
		for x := 0; x < s.width; x++ {
			var r, g, b uint8
			if s.channels == 1 {
				v := quantize(s.At(y, x, 0))
				r, g, b = v, v, v
			} else {
				r = quantize(s.At(y, x, 0))
				g = quantize(s.At(y, x, 1))
				b = quantize(s.At(y, x, 2))
			}
			img.SetNRGBA(x, y, color.NRGBA{R: r, G: g, B: b, A: 255})
		}
	}
	return img
}

// quantize maps a [0, 1] intensity to a clamped 8-bit value.
func quantize(v float32) uint8 {
	scaled := v*255 + 0.5
	if scaled <= 0 {
		return 0
	}
	if scaled >= 255 {
		return 255
	}
	return uint8(scaled)
}

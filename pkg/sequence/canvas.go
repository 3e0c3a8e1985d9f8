package sequence

import (
	"image"

	"golang.org/x/image/draw"
	"gonum.org/v1/gonum/mat"

	"github.com/mlutz/seqgen/pkg/dataset"
)

// part is one segment of a raw canvas: either a sampled glyph or a blank
// gap of the given width. The raw canvas is the ordered concatenation of
// all parts before width normalization.
type part struct {
	glyph *dataset.Glyph // nil for a gap
	width int
}

// partsWidth returns the raw canvas width implied by the parts.
func partsWidth(parts []part) int {
	total := 0
	for _, p := range parts {
		total += p.width
	}
	return total
}

// hstack assembles the raw canvas by block-copying every glyph into its
// column range of one dense height×total matrix. Gaps stay zero-filled, so
// the whole canvas is built without touching individual gap pixels.
func hstack(parts []part, height int) *mat.Dense {
	canvas := mat.NewDense(height, partsWidth(parts), nil)
	x := 0
	for _, p := range parts {
		if p.glyph != nil {
			canvas.Slice(0, height, x, x+p.width).(*mat.Dense).Copy(p.glyph.Data)
		}
		x += p.width
	}
	return canvas
}

// resampleGray stretches or compresses the raw canvas horizontally to
// targetWidth columns and returns it as a single-channel strip. The canvas
// goes through an 8-bit image and a Catmull-Rom kernel, matching the
// dataset's 8-bit native precision; height is never resampled.
func resampleGray(canvas *mat.Dense, targetWidth int) *Strip {
	h, w := canvas.Dims()

	src := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			src.Pix[y*src.Stride+x] = quantize(float32(canvas.At(y, x)))
		}
	}

	dst := image.NewGray(image.Rect(0, 0, targetWidth, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	out := newStrip(h, targetWidth, 1)
	for y := 0; y < h; y++ {
		for x := 0; x < targetWidth; x++ {
			out.pix[y*targetWidth+x] = float32(dst.Pix[y*dst.Stride+x]) / 255
		}
	}
	return out
}

// resampleRGB is resampleGray for a three-plane canvas.
func resampleRGB(r, g, b *mat.Dense, targetWidth int) *Strip {
	h, w := r.Dims()

	src := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*src.Stride + x*4
			src.Pix[i] = quantize(float32(r.At(y, x)))
			src.Pix[i+1] = quantize(float32(g.At(y, x)))
			src.Pix[i+2] = quantize(float32(b.At(y, x)))
			src.Pix[i+3] = 255
		}
	}

	dst := image.NewNRGBA(image.Rect(0, 0, targetWidth, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	out := newStrip(h, targetWidth, 3)
	for y := 0; y < h; y++ {
		for x := 0; x < targetWidth; x++ {
			i := y*dst.Stride + x*4
			j := (y*targetWidth + x) * 3
			out.pix[j] = float32(dst.Pix[i]) / 255
			out.pix[j+1] = float32(dst.Pix[i+1]) / 255
			out.pix[j+2] = float32(dst.Pix[i+2]) / 255
		}
	}
	return out
}

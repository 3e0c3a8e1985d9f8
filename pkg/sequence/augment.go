package sequence

import (
	"gonum.org/v1/gonum/mat"
)

// foregroundThreshold separates glyph strokes from canvas background when
// binarizing a glyph into its foreground mask. Matches the dataset's 8-bit
// midpoint: intensities above 127/255 are stroke.
const foregroundThreshold = 127.0 / 255.0

// augmentParts builds the MNIST-M style augmented raw canvas from already
// sampled parts and resamples it to targetWidth.
//
// Every segment (glyph or gap) gets an independent random background crop
// of its own size. Gap segments show the crop directly. Glyph segments are
// composited background-first: the crop fills the segment, then the
// glyph's foreground pixels are overwritten with the crop's complement,
// which shifts the strip's appearance while keeping stroke geometry.
func (g *Generator) augmentParts(parts []part, height, targetWidth int) (*Strip, error) {
	total := partsWidth(parts)
	r := mat.NewDense(height, total, nil)
	gr := mat.NewDense(height, total, nil)
	b := mat.NewDense(height, total, nil)

	x := 0
	for _, p := range parts {
		if p.width == 0 {
			continue
		}

		patch, err := g.backgrounds.RandomCrop(g.rng, height, p.width)
		if err != nil {
			return nil, err
		}

		r.Slice(0, height, x, x+p.width).(*mat.Dense).Copy(patch.R)
		gr.Slice(0, height, x, x+p.width).(*mat.Dense).Copy(patch.G)
		b.Slice(0, height, x, x+p.width).(*mat.Dense).Copy(patch.B)

		if p.glyph != nil {
			for y := 0; y < height; y++ {
				for gx := 0; gx < p.width; gx++ {
					if p.glyph.Data.At(y, gx) > foregroundThreshold {
						r.Set(y, x+gx, 1-patch.R.At(y, gx))
						gr.Set(y, x+gx, 1-patch.G.At(y, gx))
						b.Set(y, x+gx, 1-patch.B.At(y, gx))
					}
				}
			}
		}
		x += p.width
	}

	return resampleRGB(r, gr, b, targetWidth), nil
}

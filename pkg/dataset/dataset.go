// Package dataset defines the provider interfaces the sequence compositor
// draws from: a glyph dataset that samples digit images by label, and a
// background dataset that samples natural-image crops for augmentation.
//
// Providers are external collaborators. The compositor only relies on the
// contracts here: glyph dimensions are uniform across a glyph dataset, and
// background crops are 3-channel and exactly the requested size.
package dataset

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// Glyph is a single digit image sampled from a glyph dataset.
// Data holds row-major intensities in [0, 1] (0 black, 1 white) and is a
// copy owned by the caller; sampling never aliases dataset storage.
type Glyph struct {
	Label int
	Data  *mat.Dense
}

// Size returns the glyph's (height, width) in pixels.
func (g *Glyph) Size() (h, w int) {
	return g.Data.Dims()
}

// Patch is a 3-channel crop of a background image. Each plane holds
// row-major intensities in [0, 1] and all planes share one size.
type Patch struct {
	R, G, B *mat.Dense
}

// Size returns the patch's (height, width) in pixels.
func (p *Patch) Size() (h, w int) {
	return p.R.Dims()
}

// GlyphSource samples digit glyph images by class label.
//
// All glyphs returned by one source share a fixed height and width; the
// compositor assumes uniform dimensions and treats a violation as a
// provider bug, not a recoverable condition.
type GlyphSource interface {
	// Sample returns one glyph for the label, drawn uniformly with
	// replacement using rng. Unknown labels fail with INVALID_LABEL.
	Sample(rng *rand.Rand, label int) (*Glyph, error)

	// Classes reports the label alphabet. The returned map is shared and
	// must not be mutated.
	Classes() map[int]bool

	// GlyphSize returns the fixed (height, width) of every glyph.
	GlyphSize() (height, width int)
}

// BackgroundSource samples random crops from a natural-image collection.
type BackgroundSource interface {
	// RandomCrop returns a height×width 3-channel patch cropped at a
	// random position of a randomly chosen source image. It fails with
	// BACKGROUND_EXHAUSTED when no source image can supply the crop.
	RandomCrop(rng *rand.Rand, height, width int) (*Patch, error)
}

// Package sequence composites labeled digit glyphs into fixed-width image
// strips for classifier and generative-model training data.
//
// The compositor samples one glyph per label from a glyph dataset, lays the
// glyphs out left to right separated by uniform random gaps, and stretches
// the result to a target width. An optional augmentation step produces a
// second strip of identical geometry with glyph masks composited over
// natural-image crops (the MNIST-M construction), giving a matched
// "same content, different appearance" training pair.
//
// All randomness (glyph choice, gap widths, background crops) flows through
// one injected *rand.Rand, so a fixed seed and fixed datasets reproduce
// output bit for bit.
package sequence

import (
	"math/rand/v2"
	"time"

	"github.com/mlutz/seqgen/pkg/dataset"
	"github.com/mlutz/seqgen/pkg/errors"
)

// Spacing is the inclusive (Min, Max) range, in pixels, from which each
// inter-glyph gap width is drawn independently and uniformly at random.
type Spacing struct {
	Min int
	Max int
}

// sample draws one gap width from the range.
func (s Spacing) sample(rng *rand.Rand) int {
	return s.Min + rng.IntN(s.Max-s.Min+1)
}

// Style names an augmentation. StyleNone disables augmentation.
type Style string

const (
	StyleNone   Style = ""
	StyleMNISTM Style = "mnistm"
)

// ValidStyles is the set of supported augmentation styles.
var ValidStyles = map[Style]bool{
	StyleMNISTM: true,
}

// Request bundles the inputs of one generation call. Augmentation is a
// first-class parameter here; callers that only want the grayscale strip
// leave Style at its zero value.
type Request struct {
	Labels  []int
	Spacing Spacing
	Width   int
	Style   Style
}

// Result is the output of one generation call. Augmented is nil unless a
// style was requested; when present it always has the same height and
// width as Strip.
type Result struct {
	Strip     *Strip
	Augmented *Strip
}

// Generator composites strips from injected datasets.
type Generator struct {
	glyphs      dataset.GlyphSource
	backgrounds dataset.BackgroundSource
	rng         *rand.Rand
}

// NewGenerator creates a generator. backgrounds may be nil when no
// augmentation will be requested. A nil rng gets a time-seeded source;
// pass a seeded rand.Rand for reproducible output.
func NewGenerator(glyphs dataset.GlyphSource, backgrounds dataset.BackgroundSource, rng *rand.Rand) *Generator {
	if rng == nil {
		now := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(now, now>>32))
	}
	return &Generator{glyphs: glyphs, backgrounds: backgrounds, rng: rng}
}

// Compose generates the grayscale output strip for a label sequence: one
// glyph sampled per label (with replacement), N-1 uniform random gaps, and
// a horizontal stretch to width columns. The strip's height equals the
// glyph dataset's native glyph height.
func (g *Generator) Compose(labels []int, spacing Spacing, width int) (*Strip, error) {
	res, err := g.Generate(Request{Labels: labels, Spacing: spacing, Width: width})
	if err != nil {
		return nil, err
	}
	return res.Strip, nil
}

// Augment generates only the augmented strip, re-deriving glyph sampling
// and placement from scratch. This is the recompute-to-save-space path: no
// intermediate canvas is shared with a Compose call, at the cost of
// repeating the sampling work. Generate threads one set of sampled parts
// through both strips instead when a pair is wanted.
func (g *Generator) Augment(labels []int, spacing Spacing, width int, style Style) (*Strip, error) {
	if style == StyleNone {
		return nil, errors.New(errors.ErrCodeUnsupportedStyle, "augmentation style must be specified")
	}
	if err := g.validate(labels, spacing, width, style); err != nil {
		return nil, err
	}

	parts, err := g.sampleParts(labels, spacing)
	if err != nil {
		return nil, err
	}
	height, _ := g.glyphs.GlyphSize()
	return g.augmentParts(parts, height, width)
}

// Generate runs one generation call: validation, glyph and gap sampling,
// canvas assembly, width normalization, and (when requested) augmentation
// sharing the sampled parts. All validation happens before any sampling;
// a failed call returns no partial output.
func (g *Generator) Generate(req Request) (*Result, error) {
	if err := g.validate(req.Labels, req.Spacing, req.Width, req.Style); err != nil {
		return nil, err
	}

	parts, err := g.sampleParts(req.Labels, req.Spacing)
	if err != nil {
		return nil, err
	}

	height, _ := g.glyphs.GlyphSize()
	res := &Result{Strip: resampleGray(hstack(parts, height), req.Width)}

	if req.Style != StyleNone {
		aug, err := g.augmentParts(parts, height, req.Width)
		if err != nil {
			return nil, err
		}
		res.Augmented = aug
	}
	return res, nil
}

// validate applies the compositor's entry-point checks in a fixed order:
// width, spacing range, labels, then style.
func (g *Generator) validate(labels []int, spacing Spacing, width int, style Style) error {
	if err := errors.ValidateWidth(width); err != nil {
		return err
	}
	if err := errors.ValidateSpacing(spacing.Min, spacing.Max); err != nil {
		return err
	}
	if err := errors.ValidateDigits(labels, g.glyphs.Classes()); err != nil {
		return err
	}
	if style != StyleNone {
		if !ValidStyles[style] {
			return errors.New(errors.ErrCodeUnsupportedStyle, "unsupported augmentation style %q", style)
		}
		if g.backgrounds == nil {
			return errors.New(errors.ErrCodeBackgroundUnavailable,
				"augmentation %q requires a background dataset", style)
		}
	}
	return nil
}

// sampleParts samples one glyph per label and one gap width per adjacent
// pair, preserving label order. Zero-width gaps contribute no columns.
func (g *Generator) sampleParts(labels []int, spacing Spacing) ([]part, error) {
	parts := make([]part, 0, 2*len(labels)-1)
	for i, label := range labels {
		glyph, err := g.glyphs.Sample(g.rng, label)
		if err != nil {
			return nil, err
		}
		_, w := glyph.Size()
		parts = append(parts, part{glyph: glyph, width: w})

		if i < len(labels)-1 {
			if gap := spacing.sample(g.rng); gap > 0 {
				parts = append(parts, part{width: gap})
			}
		}
	}
	return parts, nil
}

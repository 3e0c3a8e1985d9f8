package sequence

import (
	"math"
	"math/rand/v2"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/mlutz/seqgen/pkg/dataset"
	"github.com/mlutz/seqgen/pkg/errors"
)

const (
	testGlyphH = 4
	testGlyphW = 3
)

// stubGlyphs is a deterministic glyph source: every glyph is filled with a
// constant intensity derived from its label, so placement is observable in
// the assembled canvas. It counts Sample calls to verify that validation
// happens before any sampling.
type stubGlyphs struct {
	samples int
}

func (s *stubGlyphs) Sample(rng *rand.Rand, label int) (*dataset.Glyph, error) {
	s.samples++
	if label < 0 || label > 9 {
		return nil, errors.New(errors.ErrCodeInvalidLabel, "label %d is not in the dataset's class set", label)
	}
	data := make([]float64, testGlyphH*testGlyphW)
	for i := range data {
		data[i] = 0.1*float64(label) + 0.05
	}
	return &dataset.Glyph{Label: label, Data: mat.NewDense(testGlyphH, testGlyphW, data)}, nil
}

func (s *stubGlyphs) Classes() map[int]bool {
	classes := make(map[int]bool)
	for d := 0; d <= 9; d++ {
		classes[d] = true
	}
	return classes
}

func (s *stubGlyphs) GlyphSize() (int, int) { return testGlyphH, testGlyphW }

// stubBackgrounds serves mid-gray crops of any size.
type stubBackgrounds struct {
	crops int
}

func (s *stubBackgrounds) RandomCrop(rng *rand.Rand, height, width int) (*dataset.Patch, error) {
	s.crops++
	fill := func(v float64) *mat.Dense {
		data := make([]float64, height*width)
		for i := range data {
			data[i] = v
		}
		return mat.NewDense(height, width, data)
	}
	return &dataset.Patch{R: fill(0.2), G: fill(0.4), B: fill(0.6)}, nil
}

// exhaustedBackgrounds always fails, as a background dataset with images
// smaller than the requested crop would.
type exhaustedBackgrounds struct{}

func (exhaustedBackgrounds) RandomCrop(rng *rand.Rand, height, width int) (*dataset.Patch, error) {
	return nil, errors.New(errors.ErrCodeBackgroundExhausted,
		"no background image can supply a %dx%d crop", height, width)
}

func newTestGenerator(bg dataset.BackgroundSource, seed uint64) (*Generator, *stubGlyphs) {
	glyphs := &stubGlyphs{}
	return NewGenerator(glyphs, bg, rand.New(rand.NewPCG(seed, seed))), glyphs
}

func TestComposeShape(t *testing.T) {
	tests := []struct {
		name    string
		labels  []int
		spacing Spacing
		width   int
	}{
		{name: "single label", labels: []int{7}, spacing: Spacing{0, 0}, width: 10},
		{name: "stretch", labels: []int{1, 2}, spacing: Spacing{1, 3}, width: 200},
		{name: "compress", labels: []int{1, 2, 3, 4, 5, 6}, spacing: Spacing{5, 10}, width: 8},
		{name: "wide gaps", labels: []int{0, 9}, spacing: Spacing{30, 30}, width: 64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, _ := newTestGenerator(nil, 1)
			strip, err := g.Compose(tt.labels, tt.spacing, tt.width)
			if err != nil {
				t.Fatalf("Compose error: %v", err)
			}
			if strip.Height() != testGlyphH {
				t.Errorf("Height = %d, want %d", strip.Height(), testGlyphH)
			}
			if strip.Width() != tt.width {
				t.Errorf("Width = %d, want %d", strip.Width(), tt.width)
			}
			if strip.Channels() != 1 {
				t.Errorf("Channels = %d, want 1", strip.Channels())
			}
			for _, v := range strip.Pix() {
				f := float64(v)
				if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f > 1 {
					t.Fatalf("pixel %v out of [0,1]", v)
				}
			}
		})
	}
}

func TestComposeDeterminism(t *testing.T) {
	labels := []int{4, 5, 6, 2, 3}
	spacing := Spacing{1, 30}

	g1, _ := newTestGenerator(nil, 42)
	g2, _ := newTestGenerator(nil, 42)

	s1, err := g1.Compose(labels, spacing, 100)
	if err != nil {
		t.Fatalf("Compose error: %v", err)
	}
	s2, err := g2.Compose(labels, spacing, 100)
	if err != nil {
		t.Fatalf("Compose error: %v", err)
	}

	p1, p2 := s1.Pix(), s2.Pix()
	if len(p1) != len(p2) {
		t.Fatalf("pixel counts differ: %d vs %d", len(p1), len(p2))
	}
	for i := range p1 {
		if p1[i] != p2[i] {
			t.Fatalf("pixel %d differs: %v vs %v", i, p1[i], p2[i])
		}
	}

	// A different seed must diverge somewhere for a spacing range this wide.
	g3, _ := newTestGenerator(nil, 7)
	s3, err := g3.Compose(labels, spacing, 100)
	if err != nil {
		t.Fatalf("Compose error: %v", err)
	}
	same := true
	for i, v := range s3.Pix() {
		if v != p1[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds produced identical strips")
	}
}

func TestRawCanvasGeometry(t *testing.T) {
	tests := []struct {
		name     string
		labels   []int
		spacing  Spacing
		minWidth int
		maxWidth int
	}{
		// spacing (0,0): glyphs directly adjacent, zero gap columns
		{name: "zero gaps", labels: []int{1, 2, 3}, spacing: Spacing{0, 0}, minWidth: 3 * testGlyphW, maxWidth: 3 * testGlyphW},
		// single label: exactly one glyph width, no gaps at all
		{name: "single label", labels: []int{5}, spacing: Spacing{10, 20}, minWidth: testGlyphW, maxWidth: testGlyphW},
		// two labels: one gap in [2,4]
		{name: "bounded gap", labels: []int{5, 6}, spacing: Spacing{2, 4}, minWidth: 2*testGlyphW + 2, maxWidth: 2*testGlyphW + 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, _ := newTestGenerator(nil, 3)
			parts, err := g.sampleParts(tt.labels, tt.spacing)
			if err != nil {
				t.Fatalf("sampleParts error: %v", err)
			}
			w := partsWidth(parts)
			if w < tt.minWidth || w > tt.maxWidth {
				t.Errorf("raw width = %d, want in [%d, %d]", w, tt.minWidth, tt.maxWidth)
			}
		})
	}
}

func TestHstackPlacement(t *testing.T) {
	g, _ := newTestGenerator(nil, 1)
	parts, err := g.sampleParts([]int{9, 1}, Spacing{2, 2})
	if err != nil {
		t.Fatalf("sampleParts error: %v", err)
	}

	canvas := hstack(parts, testGlyphH)
	h, w := canvas.Dims()
	if h != testGlyphH || w != 2*testGlyphW+2 {
		t.Fatalf("canvas dims = (%d, %d), want (%d, %d)", h, w, testGlyphH, 2*testGlyphW+2)
	}

	// Label 9 glyph fills columns [0,3), the gap [3,5) stays zero, and the
	// label 1 glyph fills [5,8). The copy is exact, so each pixel must equal
	// the stub's fill value bit for bit.
	fill := func(label int) float64 { return 0.1*float64(label) + 0.05 }
	if got, want := canvas.At(0, 0), fill(9); got != want {
		t.Errorf("glyph 9 pixel = %v, want %v", got, want)
	}
	if got := canvas.At(2, testGlyphW); got != 0 {
		t.Errorf("gap pixel = %v, want 0", got)
	}
	if got, want := canvas.At(3, testGlyphW+2+1), fill(1); got != want {
		t.Errorf("glyph 1 pixel = %v, want %v", got, want)
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		labels  []int
		spacing Spacing
		width   int
		style   Style
		code    errors.Code
	}{
		{name: "zero width", labels: []int{1}, spacing: Spacing{0, 1}, width: 0, code: errors.ErrCodeInvalidWidth},
		{name: "negative width", labels: []int{1}, spacing: Spacing{0, 1}, width: -5, code: errors.ErrCodeInvalidWidth},
		{name: "inverted range", labels: []int{1}, spacing: Spacing{4, 2}, width: 10, code: errors.ErrCodeInvalidRange},
		{name: "negative range", labels: []int{1}, spacing: Spacing{-1, 2}, width: 10, code: errors.ErrCodeInvalidRange},
		{name: "empty labels", labels: nil, spacing: Spacing{0, 1}, width: 10, code: errors.ErrCodeInvalidInput},
		{name: "unknown label", labels: []int{3, 42}, spacing: Spacing{0, 1}, width: 10, code: errors.ErrCodeInvalidLabel},
		{name: "unknown style", labels: []int{3}, spacing: Spacing{0, 1}, width: 10, style: Style("vapor"), code: errors.ErrCodeUnsupportedStyle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, glyphs := newTestGenerator(&stubBackgrounds{}, 1)
			_, err := g.Generate(Request{Labels: tt.labels, Spacing: tt.spacing, Width: tt.width, Style: tt.style})
			if !errors.Is(err, tt.code) {
				t.Fatalf("Generate = %v, want code %v", err, tt.code)
			}
			// Fail-fast: nothing may be sampled on a rejected call.
			if glyphs.samples != 0 {
				t.Errorf("sampled %d glyphs before failing, want 0", glyphs.samples)
			}
		})
	}
}

func TestGenerateMatchedPair(t *testing.T) {
	g, _ := newTestGenerator(&stubBackgrounds{}, 11)

	res, err := g.Generate(Request{
		Labels:  []int{4, 5, 6, 2, 3},
		Spacing: Spacing{1, 30},
		Width:   100,
		Style:   StyleMNISTM,
	})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}

	if res.Strip.Height() != testGlyphH || res.Strip.Width() != 100 {
		t.Errorf("strip shape = (%d, %d), want (%d, 100)", res.Strip.Height(), res.Strip.Width(), testGlyphH)
	}
	if res.Augmented == nil {
		t.Fatal("Augmented = nil, want strip")
	}
	if res.Augmented.Height() != res.Strip.Height() || res.Augmented.Width() != res.Strip.Width() {
		t.Errorf("augmented shape = (%d, %d), want (%d, %d)",
			res.Augmented.Height(), res.Augmented.Width(), res.Strip.Height(), res.Strip.Width())
	}
	if res.Augmented.Channels() <= res.Strip.Channels() {
		t.Errorf("augmented channels = %d, want > %d", res.Augmented.Channels(), res.Strip.Channels())
	}
}

func TestGenerateWithoutStyleSkipsBackgrounds(t *testing.T) {
	bg := &stubBackgrounds{}
	g, _ := newTestGenerator(bg, 1)

	res, err := g.Generate(Request{Labels: []int{1, 2}, Spacing: Spacing{0, 2}, Width: 40})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if res.Augmented != nil {
		t.Error("Augmented should be nil without a style")
	}
	if bg.crops != 0 {
		t.Errorf("sampled %d crops without augmentation, want 0", bg.crops)
	}
}

func TestAugmentStandalone(t *testing.T) {
	g, _ := newTestGenerator(&stubBackgrounds{}, 5)

	aug, err := g.Augment([]int{7, 8}, Spacing{2, 6}, 50, StyleMNISTM)
	if err != nil {
		t.Fatalf("Augment error: %v", err)
	}
	if aug.Height() != testGlyphH || aug.Width() != 50 || aug.Channels() != 3 {
		t.Errorf("augmented shape = (%d, %d, %d), want (%d, 50, 3)",
			aug.Height(), aug.Width(), aug.Channels(), testGlyphH)
	}

	// A missing style is rejected rather than silently unaugmented.
	if _, err := g.Augment([]int{7}, Spacing{0, 1}, 10, StyleNone); !errors.Is(err, errors.ErrCodeUnsupportedStyle) {
		t.Errorf("Augment without style = %v, want UNSUPPORTED_STYLE", err)
	}
}

func TestAugmentErrors(t *testing.T) {
	t.Run("no backgrounds", func(t *testing.T) {
		g, _ := newTestGenerator(nil, 1)
		_, err := g.Generate(Request{Labels: []int{1}, Spacing: Spacing{0, 1}, Width: 10, Style: StyleMNISTM})
		if !errors.Is(err, errors.ErrCodeBackgroundUnavailable) {
			t.Errorf("Generate = %v, want BACKGROUND_UNAVAILABLE", err)
		}
	})

	t.Run("exhausted", func(t *testing.T) {
		g, _ := newTestGenerator(exhaustedBackgrounds{}, 1)
		_, err := g.Generate(Request{Labels: []int{1}, Spacing: Spacing{0, 1}, Width: 10, Style: StyleMNISTM})
		if !errors.Is(err, errors.ErrCodeBackgroundExhausted) {
			t.Errorf("Generate = %v, want BACKGROUND_EXHAUSTED", err)
		}
	})
}

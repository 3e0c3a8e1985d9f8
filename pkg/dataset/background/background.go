// Package background loads a directory of natural images and serves random
// crops from it for domain-shift augmentation.
package background

import (
	"image"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"gonum.org/v1/gonum/mat"

	"github.com/mlutz/seqgen/pkg/dataset"
	"github.com/mlutz/seqgen/pkg/errors"
)

// Collection is an in-memory set of decoded background images.
type Collection struct {
	images []*image.NRGBA
}

// imageExts are the file extensions scanned by Load.
var imageExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true}

// Load decodes every PNG/JPEG image directly under dir.
// Files that fail to decode are skipped; an empty result is an error since
// the augmenter cannot run without at least one background.
func Load(dir string) (*Collection, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDatasetNotFound, err, "read background directory %s", dir)
	}

	var images []*image.NRGBA
	for _, e := range entries {
		if e.IsDir() || !imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		img, err := imaging.Open(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		images = append(images, imaging.Clone(img))
	}

	if len(images) == 0 {
		return nil, errors.New(errors.ErrCodeBackgroundUnavailable,
			"no decodable background images in %s", dir)
	}
	return &Collection{images: images}, nil
}

// New builds a collection from already-decoded images.
func New(imgs ...image.Image) *Collection {
	c := &Collection{}
	for _, img := range imgs {
		c.images = append(c.images, imaging.Clone(img))
	}
	return c
}

// Len returns the number of background images.
func (c *Collection) Len() int {
	return len(c.images)
}

// MaxSize returns the largest (height, width) available across the
// collection, which bounds the crop sizes RandomCrop can serve.
func (c *Collection) MaxSize() (height, width int) {
	for _, img := range c.images {
		b := img.Bounds()
		if b.Dy() > height {
			height = b.Dy()
		}
		if b.Dx() > width {
			width = b.Dx()
		}
	}
	return height, width
}

// RandomCrop returns a height×width patch cropped at a random offset of a
// randomly chosen image that is large enough.
func (c *Collection) RandomCrop(rng *rand.Rand, height, width int) (*dataset.Patch, error) {
	if height <= 0 || width <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "crop size must be positive, got %dx%d", height, width)
	}

	var candidates []*image.NRGBA
	for _, img := range c.images {
		b := img.Bounds()
		if b.Dx() >= width && b.Dy() >= height {
			candidates = append(candidates, img)
		}
	}
	if len(candidates) == 0 {
		return nil, errors.New(errors.ErrCodeBackgroundExhausted,
			"no background image can supply a %dx%d crop", height, width)
	}

	src := candidates[rng.IntN(len(candidates))]
	b := src.Bounds()
	x := b.Min.X + rng.IntN(b.Dx()-width+1)
	y := b.Min.Y + rng.IntN(b.Dy()-height+1)
	crop := imaging.Crop(src, image.Rect(x, y, x+width, y+height))

	return patchFromNRGBA(crop), nil
}

// patchFromNRGBA converts a decoded crop to normalized channel planes.
func patchFromNRGBA(img *image.NRGBA) *dataset.Patch {
	b := img.Bounds()
	h, w := b.Dy(), b.Dx()
	r := make([]float64, h*w)
	g := make([]float64, h*w)
	bl := make([]float64, h*w)

	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for x := 0; x < w; x++ {
			r[y*w+x] = float64(row[x*4]) / 255
			g[y*w+x] = float64(row[x*4+1]) / 255
			bl[y*w+x] = float64(row[x*4+2]) / 255
		}
	}

	return &dataset.Patch{
		R: mat.NewDense(h, w, r),
		G: mat.NewDense(h, w, g),
		B: mat.NewDense(h, w, bl),
	}
}

// Ensure Collection implements BackgroundSource.
var _ dataset.BackgroundSource = (*Collection)(nil)

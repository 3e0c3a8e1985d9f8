// Package mnist loads IDX-format glyph datasets (the MNIST file layout:
// an images file of fixed-size grayscale rasters and a labels file with
// one class byte per image) and exposes them as a dataset.GlyphSource.
//
// The whole images payload is kept in memory as raw bytes; Sample converts
// a single glyph to normalized float intensities on demand, so repeated
// sampling stays cheap and the dataset itself is never mutated.
package mnist

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/mlutz/seqgen/pkg/cache"
	"github.com/mlutz/seqgen/pkg/dataset"
	"github.com/mlutz/seqgen/pkg/errors"
	"github.com/mlutz/seqgen/pkg/observability"
)

// IDX magic numbers: 0x08 element type (unsigned byte) with 3 resp. 1
// dimensions.
const (
	imagesMagic = 0x00000803
	labelsMagic = 0x00000801
)

// indexTTL bounds how long a cached label index is trusted.
const indexTTL = 30 * 24 * time.Hour

// indexKeyType labels dataset-index entries in cache events.
const indexKeyType = "dataset-index"

// Dataset is an in-memory IDX glyph dataset indexed by class label.
type Dataset struct {
	glyphH, glyphW int
	pixels         []byte        // n*glyphH*glyphW raw intensities
	byLabel        map[int][]int // label -> image indices
	classes        map[int]bool
}

// Load reads an IDX images file and its companion labels file.
func Load(imagesPath, labelsPath string) (*Dataset, error) {
	return load(imagesPath, labelsPath, nil)
}

// LoadCached is Load with the per-label index persisted through c, keyed by
// the size and mtime of both files. On a hit the labels file is not read at
// all; the pixel payload is always read fresh.
func LoadCached(ctx context.Context, imagesPath, labelsPath string, c cache.Cache) (*Dataset, error) {
	if c == nil {
		return Load(imagesPath, labelsPath)
	}

	key, err := indexCacheKey(imagesPath, labelsPath)
	if err != nil {
		return nil, err
	}

	hooks := observability.Cache()
	if data, hit, cerr := c.Get(ctx, key); cerr == nil && hit {
		var idx map[int][]int
		if jerr := json.Unmarshal(data, &idx); jerr == nil {
			d, lerr := load(imagesPath, "", idx)
			if lerr == nil {
				hooks.OnCacheHit(ctx, indexKeyType)
				return d, nil
			}
		}
		// Stale or corrupt index: fall through to a full load.
		_ = c.Delete(ctx, key)
	}
	hooks.OnCacheMiss(ctx, indexKeyType)

	d, err := load(imagesPath, labelsPath, nil)
	if err != nil {
		return nil, err
	}
	if data, jerr := json.Marshal(d.byLabel); jerr == nil {
		if c.Set(ctx, key, data, indexTTL) == nil {
			hooks.OnCacheSet(ctx, indexKeyType, len(data))
		}
	}
	return d, nil
}

// load reads the images file and either scans labelsPath or adopts a
// prebuilt index.
func load(imagesPath, labelsPath string, index map[int][]int) (*Dataset, error) {
	n, h, w, pixels, err := readImages(imagesPath)
	if err != nil {
		return nil, err
	}

	if index == nil {
		labels, err := readLabels(labelsPath)
		if err != nil {
			return nil, err
		}
		if len(labels) != n {
			return nil, errors.New(errors.ErrCodeDatasetCorrupt,
				"images file has %d entries but labels file has %d", n, len(labels))
		}
		index = make(map[int][]int)
		for i, l := range labels {
			index[int(l)] = append(index[int(l)], i)
		}
	} else {
		// A prebuilt index comes from the cache; every glyph reference must
		// fit the images file actually on disk or Sample would read out of
		// bounds later.
		for label, pool := range index {
			for _, i := range pool {
				if i < 0 || i >= n {
					return nil, errors.New(errors.ErrCodeDatasetCorrupt,
						"label index for %d references glyph %d of %d", label, i, n)
				}
			}
		}
	}

	classes := make(map[int]bool, len(index))
	for l, pool := range index {
		if len(pool) > 0 {
			classes[l] = true
		}
	}

	return &Dataset{
		glyphH:  h,
		glyphW:  w,
		pixels:  pixels,
		byLabel: index,
		classes: classes,
	}, nil
}

// Sample returns one glyph for the label, drawn uniformly with replacement.
func (d *Dataset) Sample(rng *rand.Rand, label int) (*dataset.Glyph, error) {
	pool := d.byLabel[label]
	if len(pool) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidLabel, "label %d is not in the dataset's class set", label)
	}

	idx := pool[rng.IntN(len(pool))]
	size := d.glyphH * d.glyphW
	raw := d.pixels[idx*size : (idx+1)*size]

	data := make([]float64, size)
	for i, b := range raw {
		data[i] = float64(b) / 255
	}
	return &dataset.Glyph{
		Label: label,
		Data:  mat.NewDense(d.glyphH, d.glyphW, data),
	}, nil
}

// Classes reports the label alphabet present in the dataset.
func (d *Dataset) Classes() map[int]bool {
	return d.classes
}

// GlyphSize returns the fixed glyph (height, width).
func (d *Dataset) GlyphSize() (height, width int) {
	return d.glyphH, d.glyphW
}

// Count returns how many glyphs carry the given label.
func (d *Dataset) Count(label int) int {
	return len(d.byLabel[label])
}

// Len returns the total number of glyphs in the dataset.
func (d *Dataset) Len() int {
	return len(d.pixels) / (d.glyphH * d.glyphW)
}

// Ensure Dataset implements GlyphSource.
var _ dataset.GlyphSource = (*Dataset)(nil)

// readImages parses an IDX3 images file into (count, height, width, pixels).
func readImages(path string) (n, h, w int, pixels []byte, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, 0, nil, errors.Wrap(errors.ErrCodeDatasetNotFound, err, "open images file %s", path)
	}
	defer f.Close()

	var header [4]uint32
	if err := binary.Read(f, binary.BigEndian, &header); err != nil {
		return 0, 0, 0, nil, errors.Wrap(errors.ErrCodeDatasetCorrupt, err, "read images header %s", path)
	}
	if header[0] != imagesMagic {
		return 0, 0, 0, nil, errors.New(errors.ErrCodeDatasetCorrupt,
			"%s: bad images magic 0x%08x", path, header[0])
	}

	n, h, w = int(header[1]), int(header[2]), int(header[3])
	if n <= 0 || h <= 0 || w <= 0 {
		return 0, 0, 0, nil, errors.New(errors.ErrCodeDatasetCorrupt,
			"%s: implausible dimensions %dx%dx%d", path, n, h, w)
	}

	pixels = make([]byte, n*h*w)
	if _, err := io.ReadFull(f, pixels); err != nil {
		return 0, 0, 0, nil, errors.Wrap(errors.ErrCodeDatasetCorrupt, err, "read %d glyphs from %s", n, path)
	}
	return n, h, w, pixels, nil
}

// readLabels parses an IDX1 labels file.
func readLabels(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDatasetNotFound, err, "open labels file %s", path)
	}
	defer f.Close()

	var header [2]uint32
	if err := binary.Read(f, binary.BigEndian, &header); err != nil {
		return nil, errors.Wrap(errors.ErrCodeDatasetCorrupt, err, "read labels header %s", path)
	}
	if header[0] != labelsMagic {
		return nil, errors.New(errors.ErrCodeDatasetCorrupt, "%s: bad labels magic 0x%08x", path, header[0])
	}

	labels := make([]byte, int(header[1]))
	if _, err := io.ReadFull(f, labels); err != nil {
		return nil, errors.Wrap(errors.ErrCodeDatasetCorrupt, err, "read %d labels from %s", header[1], path)
	}
	return labels, nil
}

// indexCacheKey derives the cache key for the label index from the identity
// of both dataset files. Size and mtime are enough to invalidate on any
// dataset swap without hashing the 47 MB pixel payload.
func indexCacheKey(imagesPath, labelsPath string) (string, error) {
	var id string
	for _, p := range []string{imagesPath, labelsPath} {
		info, err := os.Stat(p)
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeDatasetNotFound, err, "stat %s", p)
		}
		id += fmt.Sprintf("%s|%d|%d;", p, info.Size(), info.ModTime().UnixNano())
	}
	return cache.IndexKey(cache.Hash([]byte(id))), nil
}

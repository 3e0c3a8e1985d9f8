// Package imgio persists generated strips as PNG files and manages the
// sequence file numbering scheme.
//
// A generation run writes a matched pair into one directory:
//
//	sequence{N}.png      grayscale output strip
//	aug_sequence{N}.png  augmented strip (only when augmentation ran)
//
// N is one greater than the number of sequence files already present, so
// successive invocations against the same directory never overwrite each
// other.
package imgio

import (
	"fmt"
	"image"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mlutz/seqgen/pkg/sequence"
)

// sequencePattern matches the grayscale strips counted by NextIndex.
const sequencePattern = "sequence*.png"

// SequencePath returns the output path for strip number n in dir.
func SequencePath(dir string, n int) string {
	return filepath.Join(dir, fmt.Sprintf("sequence%d.png", n))
}

// AugSequencePath returns the output path for augmented strip number n in dir.
func AugSequencePath(dir string, n int) string {
	return filepath.Join(dir, fmt.Sprintf("aug_sequence%d.png", n))
}

// NextIndex returns the index for the next pair written to dir: one greater
// than the count of existing sequence files. Augmented files are prefixed
// and therefore not double-counted.
func NextIndex(dir string) (int, error) {
	matches, err := fs.Glob(os.DirFS(dir), sequencePattern)
	if err != nil {
		return 0, err
	}
	return len(matches) + 1, nil
}

// SaveStrip writes a strip to path as PNG. Single-channel strips are
// written as 8-bit grayscale, three-channel strips as 8-bit RGBA.
func SaveStrip(path string, s *sequence.Strip) error {
	var img image.Image
	if s.Channels() == 1 {
		img = s.Gray()
	} else {
		img = s.NRGBA()
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// SavePair writes a result into dir under the next free index and returns
// the written paths. The augmented path is empty when the result carries no
// augmented strip.
func SavePair(dir string, res *sequence.Result) (stripPath, augPath string, err error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", "", err
	}

	n, err := NextIndex(dir)
	if err != nil {
		return "", "", err
	}

	stripPath = SequencePath(dir, n)
	if err := SaveStrip(stripPath, res.Strip); err != nil {
		return "", "", err
	}

	if res.Augmented != nil {
		augPath = AugSequencePath(dir, n)
		if err := SaveStrip(augPath, res.Augmented); err != nil {
			return "", "", err
		}
	}
	return stripPath, augPath, nil
}

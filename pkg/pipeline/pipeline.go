// Package pipeline provides the core generation pipeline for seqgen.
//
// This package implements the complete sample, composite, and save run that
// both the CLI and library callers use. Each run generates one or more
// independent matched pairs (grayscale strip + optional augmented strip)
// from one set of options and records the run in a JSON manifest next to
// the output files.
//
// # Usage
//
//	runner := pipeline.NewRunner(glyphs, backgrounds, logger)
//	opts := pipeline.Options{
//	    Labels: []int{4, 5, 6, 2, 3},
//	    MinGap: 1, MaxGap: 30,
//	    Width:  100,
//	    Style:  sequence.StyleMNISTM,
//	    Count:  10,
//	}
//	result, err := runner.Execute(ctx, opts)
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/mlutz/seqgen/pkg/dataset"
	"github.com/mlutz/seqgen/pkg/errors"
	"github.com/mlutz/seqgen/pkg/imgio"
	"github.com/mlutz/seqgen/pkg/observability"
	"github.com/mlutz/seqgen/pkg/sequence"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Library Callers
// =============================================================================

const (
	// DefaultCount is the number of pairs generated per run.
	DefaultCount = 1

	// DefaultOutputDir is where pairs and the manifest land.
	DefaultOutputDir = "."

	// UnseededSeed marks a run without a fixed seed; the generator is then
	// seeded from the clock and the run is not reproducible.
	UnseededSeed = int64(-1)

	// manifestName is the per-run manifest written next to the outputs.
	manifestName = "run.json"
)

// =============================================================================
// Options
// =============================================================================

// Options contains all configuration for one generation run.
// The struct supports JSON serialization so runs can be replayed.
type Options struct {
	// Generation options
	Labels []int          `json:"labels"`
	MinGap int            `json:"min_gap"`
	MaxGap int            `json:"max_gap"`
	Width  int            `json:"width"`
	Style  sequence.Style `json:"style,omitempty"`

	// Run options
	Count     int    `json:"count,omitempty"`
	Seed      int64  `json:"seed,omitempty"` // UnseededSeed for clock seeding
	OutputDir string `json:"output_dir,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
}

// SetDefaults fills unset fields. Validation of the generation inputs
// themselves is owned by the sequence package and happens on first use.
func (o *Options) SetDefaults() {
	if o.Count == 0 {
		o.Count = DefaultCount
	}
	if o.OutputDir == "" {
		o.OutputDir = DefaultOutputDir
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// =============================================================================
// Result & Manifest
// =============================================================================

// Pair is one generated matched pair on disk. Augmented is empty when no
// augmentation style was requested.
type Pair struct {
	Strip     string `json:"strip"`
	Augmented string `json:"augmented,omitempty"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID uniquely identifies the run (also recorded in the manifest).
	RunID string

	// Pairs lists the written files in generation order.
	Pairs []Pair

	// ManifestPath is the run manifest location.
	ManifestPath string

	// Elapsed is the total run duration.
	Elapsed time.Duration
}

// Manifest is the JSON record written next to the generated files.
type Manifest struct {
	RunID     string    `json:"run_id"`
	CreatedAt time.Time `json:"created_at"`
	Options   Options   `json:"options"`
	Pairs     []Pair    `json:"pairs"`
}

// =============================================================================
// Runner
// =============================================================================

// Runner executes generation runs against fixed datasets.
//
// The Runner is stateless except for its datasets and logger - it doesn't
// store run results. Each Execute call builds its own seeded generator, so
// concurrent runs on one Runner are independent.
type Runner struct {
	Glyphs      dataset.GlyphSource
	Backgrounds dataset.BackgroundSource
	Logger      *log.Logger
}

// NewRunner creates a runner over the given datasets.
// backgrounds may be nil when no augmentation will be requested.
// If logger is nil, log.Default() is used.
func NewRunner(glyphs dataset.GlyphSource, backgrounds dataset.BackgroundSource, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Glyphs:      glyphs,
		Backgrounds: backgrounds,
		Logger:      logger,
	}
}

// Execute generates opts.Count matched pairs and writes them plus a run
// manifest into opts.OutputDir. The first failed pair aborts the run; files
// already written stay on disk and are listed in the returned error's
// preceding result state only via the manifest of a later successful run.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	opts.SetDefaults()
	logger := opts.Logger

	gen := sequence.NewGenerator(r.Glyphs, r.Backgrounds, newRand(opts.Seed))

	start := time.Now()
	result := &Result{RunID: uuid.NewString()}

	for i := 0; i < opts.Count; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pair, err := r.generateOne(ctx, gen, opts)
		if err != nil {
			return nil, fmt.Errorf("pair %d/%d: %w", i+1, opts.Count, err)
		}
		result.Pairs = append(result.Pairs, pair)
		logger.Debug("generated pair", "strip", pair.Strip, "augmented", pair.Augmented)
	}

	manifestPath, err := r.writeManifest(result, opts)
	if err != nil {
		return nil, err
	}
	result.ManifestPath = manifestPath
	result.Elapsed = time.Since(start)

	logger.Info("generation run complete",
		"run_id", result.RunID,
		"pairs", len(result.Pairs),
		"duration", result.Elapsed)
	return result, nil
}

// generateOne produces and saves a single matched pair.
func (r *Runner) generateOne(ctx context.Context, gen *sequence.Generator, opts Options) (Pair, error) {
	hooks := observability.Generator()
	hooks.OnGenerateStart(ctx, len(opts.Labels), string(opts.Style))

	start := time.Now()
	res, err := gen.Generate(sequence.Request{
		Labels:  opts.Labels,
		Spacing: sequence.Spacing{Min: opts.MinGap, Max: opts.MaxGap},
		Width:   opts.Width,
		Style:   opts.Style,
	})
	hooks.OnGenerateComplete(ctx, len(opts.Labels), string(opts.Style), time.Since(start), err)
	if err != nil {
		return Pair{}, err
	}

	stripPath, augPath, err := imgio.SavePair(opts.OutputDir, res)
	if err != nil {
		return Pair{}, errors.Wrap(errors.ErrCodeInternal, err, "save pair")
	}

	for _, p := range []string{stripPath, augPath} {
		if p == "" {
			continue
		}
		if info, serr := os.Stat(p); serr == nil {
			hooks.OnSaveComplete(ctx, p, info.Size())
		}
	}
	return Pair{Strip: stripPath, Augmented: augPath}, nil
}

// writeManifest records the run next to its outputs.
func (r *Runner) writeManifest(result *Result, opts Options) (string, error) {
	manifest := Manifest{
		RunID:     result.RunID,
		CreatedAt: time.Now().UTC(),
		Options:   opts,
		Pairs:     result.Pairs,
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "encode manifest")
	}

	path := filepath.Join(opts.OutputDir, manifestName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "write manifest")
	}
	return path, nil
}

// newRand builds the run's random source: fixed PCG streams for a given
// seed, clock-seeded otherwise.
func newRand(seed int64) *rand.Rand {
	if seed == UnseededSeed {
		return nil // sequence.NewGenerator falls back to clock seeding
	}
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
}

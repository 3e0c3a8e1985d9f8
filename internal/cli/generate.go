package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mlutz/seqgen/pkg/dataset"
	"github.com/mlutz/seqgen/pkg/dataset/background"
	"github.com/mlutz/seqgen/pkg/dataset/mnist"
	"github.com/mlutz/seqgen/pkg/errors"
	"github.com/mlutz/seqgen/pkg/pipeline"
	"github.com/mlutz/seqgen/pkg/sequence"
)

// generateCommand creates the generate command.
func (c *CLI) generateCommand() *cobra.Command {
	var (
		digits   []int
		gapRange []int
		width    int
		augment  string
		output   string
		count    int
		seed     int64
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Compose a digit sequence into a fixed-width strip",
		Long: `Compose a digit sequence into a fixed-width strip.

Samples one handwritten glyph per requested digit, places them left to right
with uniform random gaps, and stretches the result to the target width. The
strip is written as sequence{N}.png into the output directory, where N is one
greater than the number of sequence files already present.

With --augment, a second strip aug_sequence{N}.png is written in which the
digits are composited over random crops of natural background images.

Dataset locations come from the config file (~/.config/seqgen/config.toml)
and can be inspected with 'seqgen datasets'.`,
		Example: `  seqgen generate -d 4,5,6,2,3 -r 1,30 -w 100
  seqgen generate -d 0,7 -r 5,10 -w 64 -a mnistm -n 10 --seed 42`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.resolveGenerateOptions(cmd, digits, gapRange, width, augment, output, count, seed)
			if err != nil {
				return err
			}
			return c.runGenerate(cmd.Context(), opts, noCache)
		},
	}

	cmd.Flags().IntSliceVarP(&digits, "digits", "d", nil, "digit labels to compose, in order (e.g. 4,5,6,2,3)")
	cmd.Flags().IntSliceVarP(&gapRange, "range", "r", nil, "inclusive gap range in pixels as min,max")
	cmd.Flags().IntVarP(&width, "width", "w", 0, "target strip width in pixels")
	cmd.Flags().StringVarP(&augment, "augment", "a", "", "augmentation style (mnistm)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output directory (default from config, else .)")
	cmd.Flags().IntVarP(&count, "count", "n", 0, "number of independent strips to generate")
	cmd.Flags().Int64Var(&seed, "seed", pipeline.UnseededSeed, "random seed for reproducible output")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the dataset-index cache")
	cmd.Flags().Lookup("augment").NoOptDefVal = string(sequence.StyleMNISTM)

	_ = cmd.MarkFlagRequired("digits")

	return cmd
}

// resolveGenerateOptions merges flags with config-file defaults.
// Flags always win; config fills in whatever the user left unset.
func (c *CLI) resolveGenerateOptions(cmd *cobra.Command, digits, gapRange []int, width int, augment, output string, count int, seed int64) (pipeline.Options, error) {
	gen := c.Config.Generate

	if !cmd.Flags().Changed("range") {
		if gen.MinGap != 0 || gen.MaxGap != 0 {
			gapRange = []int{gen.MinGap, gen.MaxGap}
		}
	}
	if len(gapRange) != 2 {
		return pipeline.Options{}, fmt.Errorf("--range: expected two values min,max, got %d", len(gapRange))
	}

	if !cmd.Flags().Changed("width") && gen.Width != 0 {
		width = gen.Width
	}
	if width == 0 {
		return pipeline.Options{}, fmt.Errorf("--width: required (set the flag or a config default)")
	}

	if count == 0 {
		count = gen.Count
	}
	if output == "" {
		output = gen.Output
	}

	return pipeline.Options{
		Labels:    digits,
		MinGap:    gapRange[0],
		MaxGap:    gapRange[1],
		Width:     width,
		Style:     sequence.Style(augment),
		Count:     count,
		Seed:      seed,
		OutputDir: output,
	}, nil
}

// runGenerate opens the datasets and executes the generation run.
func (c *CLI) runGenerate(ctx context.Context, opts pipeline.Options, noCache bool) error {
	logger := loggerFromContext(ctx)
	opts.Logger = logger

	glyphs, backgrounds, err := c.openDatasets(ctx, opts.Style != sequence.StyleNone, noCache)
	if err != nil {
		return err
	}

	runner := pipeline.NewRunner(glyphs, backgrounds, logger)

	spinner := newSpinnerWithContext(ctx, "Generating sequences...")
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		if spinner.Cancelled() {
			spinner.Stop()
			return err
		}
		spinner.StopWithError("Generation failed")
		return describeGenerateError(err)
	}
	spinner.StopWithSuccess(fmt.Sprintf("Generated %d strip(s)", len(result.Pairs)))
	height, _ := glyphs.GlyphSize()
	channels := 1
	if opts.Style != sequence.StyleNone {
		channels = 3
	}
	printStripStats(height, opts.Width, channels)
	for _, pair := range result.Pairs {
		printFile(pair.Strip)
		if pair.Augmented != "" {
			printFile(pair.Augmented)
		}
	}
	printDetail("manifest: %s", result.ManifestPath)
	printNextStep("Preview a strip", fmt.Sprintf("seqgen preview %s", result.Pairs[0].Strip))
	return nil
}

// openDatasets loads the glyph source and, when augmentation is requested,
// the background source, from the configured paths.
func (c *CLI) openDatasets(ctx context.Context, withBackgrounds, noCache bool) (dataset.GlyphSource, dataset.BackgroundSource, error) {
	ds := c.Config.Datasets
	if ds.MNISTImages == "" || ds.MNISTLabels == "" {
		return nil, nil, fmt.Errorf("glyph dataset not configured: set datasets.mnist_images and datasets.mnist_labels in the config file")
	}

	idxCache, err := newCache(noCache)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize cache: %w", err)
	}
	defer idxCache.Close()

	logger := loggerFromContext(ctx)
	prog := newProgress(logger)
	glyphs, err := mnist.LoadCached(ctx, ds.MNISTImages, ds.MNISTLabels, idxCache)
	if err != nil {
		return nil, nil, fmt.Errorf("load glyph dataset: %w", err)
	}
	prog.done(fmt.Sprintf("Loaded %d glyphs", glyphs.Len()))

	if !withBackgrounds {
		return glyphs, nil, nil
	}

	if ds.Backgrounds == "" {
		return nil, nil, fmt.Errorf("--augment: no background dataset configured (set datasets.backgrounds in the config file)")
	}
	backgrounds, err := background.Load(ds.Backgrounds)
	if err != nil {
		return nil, nil, fmt.Errorf("load background dataset: %w", err)
	}
	logger.Debug("loaded backgrounds", "images", backgrounds.Len())

	return glyphs, backgrounds, nil
}

// describeGenerateError prefixes validation failures with the offending
// command-line argument so exit messages point at what to fix.
func describeGenerateError(err error) error {
	flag := ""
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidLabel:
		flag = "--digits"
	case errors.ErrCodeInvalidRange:
		flag = "--range"
	case errors.ErrCodeInvalidWidth:
		flag = "--width"
	case errors.ErrCodeUnsupportedStyle:
		flag = "--augment"
	case errors.ErrCodeBackgroundExhausted, errors.ErrCodeBackgroundUnavailable:
		flag = "--augment"
	}
	if flag == "" {
		return err
	}
	return fmt.Errorf("%s: %s", flag, errors.UserMessage(err))
}

package cli

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/mlutz/seqgen/pkg/dataset/background"
	"github.com/mlutz/seqgen/pkg/dataset/mnist"
)

// datasetsCommand creates the datasets command showing source statistics.
func (c *CLI) datasetsCommand() *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "datasets",
		Short: "Show statistics for the configured datasets",
		Long: `Show statistics for the configured glyph and background datasets.

Reads the dataset locations from the config file, loads each source, and
prints a summary table: item counts, glyph dimensions, and per-digit class
coverage for the glyph source, image count and maximum crop size for the
background source.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDatasets(cmd, noCache)
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the dataset-index cache")
	return cmd
}

func (c *CLI) runDatasets(cmd *cobra.Command, noCache bool) error {
	ds := c.Config.Datasets

	rows := [][]string{}

	if ds.MNISTImages != "" && ds.MNISTLabels != "" {
		idxCache, err := newCache(noCache)
		if err != nil {
			return fmt.Errorf("initialize cache: %w", err)
		}
		defer idxCache.Close()

		glyphs, err := mnist.LoadCached(cmd.Context(), ds.MNISTImages, ds.MNISTLabels, idxCache)
		if err != nil {
			return fmt.Errorf("load glyph dataset: %w", err)
		}
		loggerFromContext(cmd.Context()).Debug("loaded glyph dataset", "glyphs", glyphs.Len())
		h, w := glyphs.GlyphSize()
		rows = append(rows, []string{
			"glyphs", ds.MNISTImages,
			strconv.Itoa(glyphs.Len()),
			fmt.Sprintf("%dx%d", w, h),
			strconv.Itoa(len(glyphs.Classes())),
		})
	} else {
		printWarning("glyph dataset not configured (datasets.mnist_images / datasets.mnist_labels)")
		rows = append(rows, []string{"glyphs", StyleDim.Render("not configured"), "-", "-", "-"})
	}

	if ds.Backgrounds != "" {
		backgrounds, err := background.Load(ds.Backgrounds)
		if err != nil {
			return fmt.Errorf("load background dataset: %w", err)
		}
		h, w := backgrounds.MaxSize()
		rows = append(rows, []string{
			"backgrounds", ds.Backgrounds,
			strconv.Itoa(backgrounds.Len()),
			fmt.Sprintf("%dx%d", w, h),
			"-",
		})
	} else {
		printWarning("background dataset not configured (datasets.backgrounds)")
		rows = append(rows, []string{"backgrounds", StyleDim.Render("not configured"), "-", "-", "-"})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleTableBorder).
		Headers("Source", "Path", "Items", "Size", "Classes").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleTableHeader
			}
			if col == 0 {
				return lipgloss.NewStyle().Foreground(colorCyan)
			}
			return StyleValue
		})

	fmt.Println(t.Render())
	return nil
}

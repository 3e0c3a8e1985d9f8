package cli

import (
	"fmt"
	"image"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"
)

// previewCommand creates the preview command for terminal strip rendering.
func (c *CLI) previewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview [strip.png]",
		Short: "Render a generated strip in the terminal",
		Long: `Render a generated strip in the terminal.

Draws the strip using half-block characters, two image rows per terminal
line, so a 28-pixel-high sequence fits in 14 lines. Works for both the
grayscale and the augmented output files.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := imaging.Open(args[0])
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}

			model := newPreviewModel(args[0], img)
			if _, err := tea.NewProgram(model).Run(); err != nil {
				return fmt.Errorf("preview: %w", err)
			}
			return nil
		},
	}

	return cmd
}

// =============================================================================
// previewModel - Terminal strip viewer
// =============================================================================

// previewModel is the bubbletea model for strip preview.
type previewModel struct {
	path     string
	rendered string
	width    int
	height   int
}

func newPreviewModel(path string, img image.Image) previewModel {
	b := img.Bounds()
	return previewModel{
		path:     path,
		rendered: renderHalfBlocks(img),
		width:    b.Dx(),
		height:   b.Dy(),
	}
}

func (m previewModel) Init() tea.Cmd {
	return nil
}

func (m previewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "q", "ctrl+c", "esc", "enter":
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m previewModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.path))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render(fmt.Sprintf("%dx%d", m.width, m.height)))
	b.WriteString("\n\n")
	b.WriteString(m.rendered)
	b.WriteString("\n\n")
	b.WriteString(StyleDim.Render("q quit"))

	return b.String()
}

// renderHalfBlocks draws img with "▀" cells: the foreground color carries
// the upper pixel, the background color the lower one. Odd image heights
// leave the last lower half black.
func renderHalfBlocks(img image.Image) string {
	bounds := img.Bounds()
	var b strings.Builder

	for y := bounds.Min.Y; y < bounds.Max.Y; y += 2 {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			top := hexColor(img, x, y)
			bottom := "#000000"
			if y+1 < bounds.Max.Y {
				bottom = hexColor(img, x, y+1)
			}
			cell := lipgloss.NewStyle().
				Foreground(lipgloss.Color(top)).
				Background(lipgloss.Color(bottom))
			b.WriteString(cell.Render("▀"))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// hexColor returns the pixel at (x, y) as a #rrggbb string.
func hexColor(img image.Image, x, y int) string {
	r, g, b, _ := img.At(x, y).RGBA()
	return fmt.Sprintf("#%02x%02x%02x", uint8(r>>8), uint8(g>>8), uint8(b>>8))
}

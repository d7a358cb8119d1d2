package tui

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/user/objecttracker/pkg/ports"
)

// fitSize scales srcW x srcH to the largest size inside maxW x maxH that
// keeps the aspect ratio. Both results are at least 1 when the inputs are
// positive.
func fitSize(srcW, srcH, maxW, maxH int) (int, int) {
	if srcW <= 0 || srcH <= 0 || maxW <= 0 || maxH <= 0 {
		return 0, 0
	}
	scale := math.Min(float64(maxW)/float64(srcW), float64(maxH)/float64(srcH))
	w := int(math.Max(1, math.Floor(float64(srcW)*scale)))
	h := int(math.Max(1, math.Floor(float64(srcH)*scale)))
	return w, h
}

// renderHalfBlocks draws img into a cols x rows block of terminal cells.
// Each cell shows two vertically stacked pixels with the upper half block
// character: foreground is the top pixel, background the bottom one.
func renderHalfBlocks(renderer ports.Renderer, img image.Image, cols, rows int) string {
	if img == nil || cols <= 0 || rows <= 0 {
		return blankBlock(cols, rows, "")
	}

	w, h := fitSize(img.Bounds().Dx(), img.Bounds().Dy(), cols, rows*2)
	if h%2 == 1 && h > 1 {
		h--
	}
	if w == 0 || h == 0 {
		return blankBlock(cols, rows, "")
	}

	scaled := renderer.ResizeImage(img, w, h)
	b := scaled.Bounds()
	left := strings.Repeat(" ", (cols-w)/2)
	right := strings.Repeat(" ", cols-w-(cols-w)/2)
	used := (h + 1) / 2
	top := (rows - used) / 2

	lines := make([]string, 0, rows)
	for i := 0; i < top; i++ {
		lines = append(lines, strings.Repeat(" ", cols))
	}
	for row := 0; row < used; row++ {
		var sb strings.Builder
		sb.WriteString(left)
		for col := 0; col < w; col++ {
			upper := hexColor(scaled.At(b.Min.X+col, b.Min.Y+2*row))
			style := lipgloss.NewStyle().Foreground(upper)
			if 2*row+1 < h {
				style = style.Background(hexColor(scaled.At(b.Min.X+col, b.Min.Y+2*row+1)))
			}
			sb.WriteString(style.Render("▀"))
		}
		sb.WriteString(right)
		lines = append(lines, sb.String())
	}
	for len(lines) < rows {
		lines = append(lines, strings.Repeat(" ", cols))
	}
	return strings.Join(lines, "\n")
}

// blankBlock is a cols x rows area with msg centered on its middle row.
func blankBlock(cols, rows int, msg string) string {
	if cols <= 0 || rows <= 0 {
		return ""
	}
	lines := make([]string, rows)
	for i := range lines {
		lines[i] = strings.Repeat(" ", cols)
	}
	if msg != "" {
		lines[rows/2] = mutedStyle.Render(lipgloss.PlaceHorizontal(cols, lipgloss.Center, msg))
	}
	return strings.Join(lines, "\n")
}

func hexColor(c color.Color) lipgloss.Color {
	r, g, b, _ := c.RGBA()
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8))
}

// renderSlider draws the position slider width cells wide. The knob sits
// at the cell SliderValueAt maps back to pos.
func renderSlider(pos, max, width int) string {
	if width <= 0 {
		return ""
	}
	knob := 0
	if max > 0 && width > 1 {
		knob = int(math.Round(float64(pos) / float64(max) * float64(width-1)))
	}
	if knob < 0 {
		knob = 0
	}
	if knob > width-1 {
		knob = width - 1
	}
	return sliderFilledStyle.Render(strings.Repeat("━", knob)) +
		sliderKnobStyle.Render("●") +
		sliderTrackStyle.Render(strings.Repeat("─", width-1-knob))
}

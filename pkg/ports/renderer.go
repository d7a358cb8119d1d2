package ports

import (
	"image"
	"image/color"
)

// Renderer abstracts image processing operations.
type Renderer interface {
	// CreateCanvas creates a new drawing canvas with the specified dimensions and background color.
	CreateCanvas(width, height int, bg color.Color) Canvas

	// DecodeImage decodes image data into an image.Image.
	DecodeImage(data []byte, format ImageFormat) (image.Image, error)

	// EncodeImage encodes an image to the specified format.
	EncodeImage(img image.Image, format ImageFormat, quality int) ([]byte, error)

	// ResizeImage resizes an image to the specified dimensions.
	ResizeImage(img image.Image, width, height int) image.Image
}

// Canvas provides the drawing operations used for frame overlays.
type Canvas interface {
	// DrawImage draws an image with its top-left corner at (x, y).
	DrawImage(img image.Image, x, y int)

	// DrawCircle draws a filled circle.
	DrawCircle(cx, cy, radius float64, c color.Color)

	// DrawCircleStroke draws a circle outline.
	DrawCircleStroke(cx, cy, radius float64, c color.Color, strokeWidth float64)

	// ToImage returns the canvas as an image.Image.
	ToImage() image.Image
}

// ImageFormat specifies image encoding format.
type ImageFormat int

const (
	FormatJPEG ImageFormat = iota
	FormatPNG
	// FormatAuto sniffs the format from the data.
	FormatAuto
)

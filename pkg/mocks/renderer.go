package mocks

import (
	"image"
	"image/color"
	"sync"

	"github.com/user/objecttracker/pkg/ports"
)

// Renderer is a mock implementation of ports.Renderer.
type Renderer struct {
	CreateCanvasFunc func(width, height int, bg color.Color) ports.Canvas
	DecodeImageFunc  func(data []byte, format ports.ImageFormat) (image.Image, error)
	EncodeImageFunc  func(img image.Image, format ports.ImageFormat, quality int) ([]byte, error)
	ResizeImageFunc  func(img image.Image, width, height int) image.Image
}

func (m *Renderer) CreateCanvas(width, height int, bg color.Color) ports.Canvas {
	if m.CreateCanvasFunc != nil {
		return m.CreateCanvasFunc(width, height, bg)
	}
	return &Canvas{width: width, height: height}
}

func (m *Renderer) DecodeImage(data []byte, format ports.ImageFormat) (image.Image, error) {
	if m.DecodeImageFunc != nil {
		return m.DecodeImageFunc(data, format)
	}
	return image.NewRGBA(image.Rect(0, 0, 100, 100)), nil
}

func (m *Renderer) EncodeImage(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
	if m.EncodeImageFunc != nil {
		return m.EncodeImageFunc(img, format, quality)
	}
	return []byte{}, nil
}

func (m *Renderer) ResizeImage(img image.Image, width, height int) image.Image {
	if m.ResizeImageFunc != nil {
		return m.ResizeImageFunc(img, width, height)
	}
	return image.NewRGBA(image.Rect(0, 0, width, height))
}

var _ ports.Renderer = (*Renderer)(nil)

// Circle records a circle drawn on a mock Canvas.
type Circle struct {
	X, Y, Radius float64
	Color        color.Color
	Filled       bool
}

// Canvas is a mock implementation of ports.Canvas that records circles.
type Canvas struct {
	mu      sync.Mutex
	width   int
	height  int
	base    image.Image
	Circles []Circle
}

func (m *Canvas) DrawImage(img image.Image, x, y int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.base = img
}

func (m *Canvas) DrawCircle(cx, cy, radius float64, c color.Color) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Circles = append(m.Circles, Circle{X: cx, Y: cy, Radius: radius, Color: c, Filled: true})
}

func (m *Canvas) DrawCircleStroke(cx, cy, radius float64, c color.Color, strokeWidth float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Circles = append(m.Circles, Circle{X: cx, Y: cy, Radius: radius, Color: c})
}

func (m *Canvas) ToImage() image.Image {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.base != nil {
		return m.base
	}
	return image.NewRGBA(image.Rect(0, 0, m.width, m.height))
}

var _ ports.Canvas = (*Canvas)(nil)

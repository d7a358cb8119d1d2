// Package houghannotator highlights circular objects in video frames.
//
// Circles are found with a Hough-gradient transform: the frame is
// converted to grayscale, median filtered, reduced to edges, and every
// edge pixel votes for centres along its gradient. Each detected circle is
// outlined and its centre marked on a copy of the frame.
//
// Built with the gocv tag the transform and the overlay run in OpenCV
// (HoughCircles, HOUGH_GRADIENT); otherwise a Go implementation of the
// same transform is used and the overlay is drawn through ports.Renderer.
package houghannotator

import (
	"image"
	"image/color"

	"github.com/user/objecttracker/pkg/ports"
)

// Circle is a detected circle in frame coordinates relative to the
// image bounds' minimum point. Votes is the accumulator count; the OpenCV
// backend does not report it and leaves it zero.
type Circle struct {
	X, Y   float64
	Radius float64
	Votes  int
}

// backend is implemented by the build-tag specific detector.
type backend interface {
	detect(img image.Image) []Circle
	draw(img image.Image, circles []Circle) (image.Image, error)
}

// Options tunes detection and the overlay. EdgeThreshold is the upper
// Canny threshold (param1) and VoteThreshold the accumulator threshold
// (param2) of HOUGH_GRADIENT.
type Options struct {
	MedianBlur    bool
	EdgeThreshold float64
	VoteThreshold int
	MinDistance   float64
	MinRadius     int
	MaxRadius     int

	OutlineColor color.Color
	OutlineWidth float64
	CenterColor  color.Color
	CenterRadius float64
}

// DefaultOptions returns the detection parameters for ball-sized objects
// in standard-definition footage.
func DefaultOptions() Options {
	return Options{
		MedianBlur:    true,
		EdgeThreshold: 50,
		VoteThreshold: 30,
		MinDistance:   30,
		MinRadius:     30,
		MaxRadius:     35,
		OutlineColor:  color.RGBA{B: 255, A: 255},
		OutlineWidth:  1,
		CenterColor:   color.RGBA{G: 255, A: 255},
		CenterRadius:  3,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.EdgeThreshold <= 0 {
		o.EdgeThreshold = d.EdgeThreshold
	}
	if o.VoteThreshold <= 0 {
		o.VoteThreshold = d.VoteThreshold
	}
	if o.MinDistance <= 0 {
		o.MinDistance = d.MinDistance
	}
	if o.MinRadius <= 0 {
		o.MinRadius = d.MinRadius
	}
	if o.MaxRadius < o.MinRadius {
		o.MaxRadius = o.MinRadius
	}
	if o.OutlineColor == nil {
		o.OutlineColor = d.OutlineColor
	}
	if o.OutlineWidth <= 0 {
		o.OutlineWidth = d.OutlineWidth
	}
	if o.CenterColor == nil {
		o.CenterColor = d.CenterColor
	}
	if o.CenterRadius <= 0 {
		o.CenterRadius = d.CenterRadius
	}
	return o
}

// Annotator implements ports.Annotator.
type Annotator struct {
	backend backend
	logger  ports.Logger
}

// New creates an Annotator. The overlay is drawn through renderer unless
// the build uses the OpenCV backend, which draws with gocv.
func New(renderer ports.Renderer, logger ports.Logger, opts Options) *Annotator {
	return &Annotator{
		backend: newBackend(renderer, opts.withDefaults()),
		logger:  logger.WithComponent("annotator"),
	}
}

// Detect returns the circles found in img, strongest first.
func (a *Annotator) Detect(img image.Image) []Circle {
	if img == nil || img.Bounds().Empty() {
		return nil
	}
	return a.backend.detect(img)
}

// Annotate returns a copy of img with every detected circle outlined and
// its centre marked. img itself is never modified; without detections, or
// when the overlay cannot be drawn, it is returned as is.
func (a *Annotator) Annotate(img image.Image) image.Image {
	circles := a.Detect(img)
	if len(circles) == 0 {
		return img
	}

	b := img.Bounds()
	a.logger.Debug("Detected %d circles in %dx%d frame", len(circles), b.Dx(), b.Dy())

	out, err := a.backend.draw(img, circles)
	if err != nil {
		a.logger.Warn("Failed to draw overlay: %v", err)
		return img
	}
	return out
}

var _ ports.Annotator = (*Annotator)(nil)

//go:build !gocv

package houghannotator

import (
	"image"
	"image/color"
	"math/rand"
	"testing"

	"github.com/user/objecttracker/pkg/adapters/ggrenderer"
	"github.com/user/objecttracker/pkg/adapters/logger"
	"github.com/user/objecttracker/pkg/mocks"
	"github.com/user/objecttracker/pkg/ports"
)

// noisyDiscImage draws grey discs (220) on a grey background (60) and adds
// uniform noise in [-amp, amp] to every pixel.
func noisyDiscImage(w, h, amp int, seed int64, discs ...disc) *image.RGBA {
	rng := rand.New(rand.NewSource(seed))
	src := discImage(w, h, discs...)
	img := image.NewRGBA(src.Bounds())
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := 60 + int(src.RGBAAt(x, y).R)*160/255 + rng.Intn(2*amp+1) - amp
			v = min(255, max(0, v))
			img.SetRGBA(x, y, color.RGBA{R: uint8(v), G: uint8(v), B: uint8(v), A: 255})
		}
	}
	return img
}

func TestDetect_ReportsVotes(t *testing.T) {
	a := New(ggrenderer.New(), logger.NewNoop(), DefaultOptions())

	circles := a.Detect(discImage(160, 120, disc{80, 60, 32}))
	if len(circles) != 1 {
		t.Fatalf("expected 1 circle, got %d", len(circles))
	}
	if circles[0].Votes < 30 {
		t.Errorf("expected at least 30 votes, got %d", circles[0].Votes)
	}
}

func TestDetect_NoisyFrame(t *testing.T) {
	a := New(ggrenderer.New(), logger.NewNoop(), DefaultOptions())

	circles := a.Detect(noisyDiscImage(320, 240, 30, 1, disc{160, 120, 32}))

	if len(circles) != 1 {
		t.Fatalf("expected 1 circle in noisy frame, got %d: %+v", len(circles), circles)
	}
	if !near(circles[0].X, 160, 2) || !near(circles[0].Y, 120, 2) {
		t.Errorf("expected centre near (160, 120), got (%v, %v)", circles[0].X, circles[0].Y)
	}
}

func TestDetect_NoiseOnly(t *testing.T) {
	a := New(ggrenderer.New(), logger.NewNoop(), DefaultOptions())

	for seed := int64(1); seed <= 3; seed++ {
		if circles := a.Detect(noisyDiscImage(320, 240, 30, seed)); len(circles) != 0 {
			t.Errorf("seed %d: expected no circles in noise, got %d", seed, len(circles))
		}
	}
}

func TestHoughCircles_RequiresRadiusSupport(t *testing.T) {
	// Pairs of edge pixels 30..35 px right of (50, 50), all pointing at
	// it: the centre collects 12 votes but no single radius has more than
	// two pixels behind it.
	var edges []edgePoint
	for r := 30; r <= 35; r++ {
		for i := 0; i < 2; i++ {
			edges = append(edges, edgePoint{x: 50 + r, y: 50, ux: -1, uy: 0})
		}
	}
	if circles := houghCircles(edges, 100, 100, 30, 35, 10, 30); len(circles) != 0 {
		t.Errorf("expected no circle without radius support, got %+v", circles)
	}

	// Twelve pixels at one distance back both the centre and the radius.
	edges = edges[:0]
	for i := 0; i < 12; i++ {
		edges = append(edges, edgePoint{x: 82, y: 50, ux: -1, uy: 0})
	}
	circles := houghCircles(edges, 100, 100, 30, 35, 10, 30)
	if len(circles) != 1 || circles[0].Votes != 12 {
		t.Errorf("expected one circle with 12 votes, got %+v", circles)
	}
}

func TestAnnotate_DrawsOverlay(t *testing.T) {
	var canvas *mocks.Canvas
	renderer := &mocks.Renderer{
		CreateCanvasFunc: func(width, height int, bg color.Color) ports.Canvas {
			if width != 160 || height != 120 {
				t.Errorf("expected 160x120 canvas, got %dx%d", width, height)
			}
			canvas = &mocks.Canvas{}
			return canvas
		},
	}
	a := New(renderer, logger.NewNoop(), DefaultOptions())

	a.Annotate(discImage(160, 120, disc{80, 60, 32}))

	if canvas == nil {
		t.Fatal("expected a canvas")
	}
	if len(canvas.Circles) != 2 {
		t.Fatalf("expected outline and centre, got %+v", canvas.Circles)
	}

	outline, centre := canvas.Circles[0], canvas.Circles[1]
	if outline.Filled || outline.Color != (color.RGBA{B: 255, A: 255}) || !near(outline.Radius, 32, 1) {
		t.Errorf("unexpected outline %+v", outline)
	}
	if !centre.Filled || centre.Color != (color.RGBA{G: 255, A: 255}) || centre.Radius != 3 {
		t.Errorf("unexpected centre mark %+v", centre)
	}
	if outline.X != centre.X || outline.Y != centre.Y {
		t.Errorf("outline and centre disagree: %+v %+v", outline, centre)
	}
}


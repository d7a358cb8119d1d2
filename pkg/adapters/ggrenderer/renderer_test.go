package ggrenderer

import (
	"image"
	"image/color"
	"testing"

	"github.com/user/objecttracker/pkg/ports"
)

func TestRenderer_CreateCanvas(t *testing.T) {
	r := New()

	canvas := r.CreateCanvas(100, 100, color.White)
	if canvas == nil {
		t.Fatal("expected canvas to be created")
	}

	img := canvas.ToImage()
	bounds := img.Bounds()

	if bounds.Dx() != 100 || bounds.Dy() != 100 {
		t.Errorf("expected 100x100, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestRenderer_EncodeDecodeJPEG(t *testing.T) {
	r := New()

	// Create test image
	img := image.NewRGBA(image.Rect(0, 0, 50, 50))
	for y := 0; y < 50; y++ {
		for x := 0; x < 50; x++ {
			img.Set(x, y, color.RGBA{R: 255, G: 0, B: 0, A: 255})
		}
	}

	// Encode
	data, err := r.EncodeImage(img, ports.FormatJPEG, 80)
	if err != nil {
		t.Fatalf("EncodeImage failed: %v", err)
	}
	if len(data) == 0 {
		t.Error("expected non-empty data")
	}

	// Decode
	decoded, err := r.DecodeImage(data, ports.FormatJPEG)
	if err != nil {
		t.Fatalf("DecodeImage failed: %v", err)
	}

	bounds := decoded.Bounds()
	if bounds.Dx() != 50 || bounds.Dy() != 50 {
		t.Errorf("expected 50x50, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestRenderer_EncodeDecodePNG(t *testing.T) {
	r := New()

	img := image.NewRGBA(image.Rect(0, 0, 30, 30))

	// Encode
	data, err := r.EncodeImage(img, ports.FormatPNG, 0)
	if err != nil {
		t.Fatalf("EncodeImage failed: %v", err)
	}

	// Decode
	decoded, err := r.DecodeImage(data, ports.FormatPNG)
	if err != nil {
		t.Fatalf("DecodeImage failed: %v", err)
	}

	bounds := decoded.Bounds()
	if bounds.Dx() != 30 || bounds.Dy() != 30 {
		t.Errorf("expected 30x30, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestRenderer_ResizeImage(t *testing.T) {
	r := New()

	// Create 100x100 image
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))

	// Resize to 50x50
	resized := r.ResizeImage(img, 50, 50)

	bounds := resized.Bounds()
	if bounds.Dx() != 50 || bounds.Dy() != 50 {
		t.Errorf("expected 50x50, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestRenderer_DecodeAuto(t *testing.T) {
	r := New()

	img := image.NewRGBA(image.Rect(0, 0, 12, 8))
	data, err := r.EncodeImage(img, ports.FormatPNG, 0)
	if err != nil {
		t.Fatalf("EncodeImage failed: %v", err)
	}

	decoded, err := r.DecodeImage(data, ports.FormatAuto)
	if err != nil {
		t.Fatalf("DecodeImage failed: %v", err)
	}
	if decoded.Bounds().Dx() != 12 || decoded.Bounds().Dy() != 8 {
		t.Errorf("expected 12x8, got %v", decoded.Bounds())
	}

	if _, err := r.DecodeImage([]byte("not an image"), ports.FormatAuto); err == nil {
		t.Error("expected error for garbage data")
	}
}

func TestRenderer_ResizeImageEmpty(t *testing.T) {
	r := New()

	resized := r.ResizeImage(image.NewRGBA(image.Rect(0, 0, 10, 10)), 0, 5)
	if !resized.Bounds().Empty() {
		t.Errorf("expected empty image, got %v", resized.Bounds())
	}
}

func TestCanvas_DrawCircle(t *testing.T) {
	r := New()
	canvas := r.CreateCanvas(100, 100, color.Black)

	canvas.DrawCircle(50, 50, 3, color.RGBA{G: 255, A: 255})

	img := canvas.ToImage()

	_, g, _, _ := img.At(50, 50).RGBA()
	if g == 0 {
		t.Error("expected green pixel at circle centre")
	}
	_, g, _, _ = img.At(60, 50).RGBA()
	if g != 0 {
		t.Error("expected pixel outside circle to stay black")
	}
}

func TestCanvas_DrawCircleStroke(t *testing.T) {
	r := New()
	canvas := r.CreateCanvas(100, 100, color.Black)

	canvas.DrawCircleStroke(50, 50, 30, color.RGBA{B: 255, A: 255}, 2)

	img := canvas.ToImage()

	_, _, b, _ := img.At(80, 50).RGBA()
	if b == 0 {
		t.Error("expected blue pixel on circle outline")
	}
	_, _, b, _ = img.At(50, 50).RGBA()
	if b != 0 {
		t.Error("expected outline not to fill the centre")
	}
}

func TestCanvas_DrawImage(t *testing.T) {
	r := New()
	canvas := r.CreateCanvas(100, 100, color.White)

	// Create small red image
	small := image.NewRGBA(image.Rect(0, 0, 20, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			small.Set(x, y, color.RGBA{R: 255, A: 255})
		}
	}

	// Draw at position (10, 10)
	canvas.DrawImage(small, 10, 10)

	img := canvas.ToImage()

	// Check pixel at (15, 15) should be red
	c := img.At(15, 15)
	red, _, _, _ := c.RGBA()
	if red == 0 {
		t.Error("expected red pixel from drawn image")
	}
}

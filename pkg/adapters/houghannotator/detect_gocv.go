//go:build gocv

package houghannotator

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"gocv.io/x/gocv"

	"github.com/user/objecttracker/pkg/ports"
)

// cvBackend detects circles with cv::HoughCircles and draws the overlay
// with cv::circle.
type cvBackend struct {
	opts Options
}

func newBackend(_ ports.Renderer, opts Options) backend {
	return &cvBackend{opts: opts}
}

func (b *cvBackend) detect(img image.Image) []Circle {
	src, err := frameMat(img)
	if err != nil {
		return nil
	}
	defer src.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(src, &gray, gocv.ColorRGBAToGray)

	input := gray
	if b.opts.MedianBlur {
		blurred := gocv.NewMat()
		defer blurred.Close()
		gocv.MedianBlur(gray, &blurred, 3)
		input = blurred
	}

	circles := gocv.NewMat()
	defer circles.Close()
	gocv.HoughCirclesWithParams(input, &circles, gocv.HoughGradient,
		1, b.opts.MinDistance, b.opts.EdgeThreshold, float64(b.opts.VoteThreshold),
		b.opts.MinRadius, b.opts.MaxRadius)

	if circles.Empty() {
		return nil
	}
	found := make([]Circle, 0, circles.Cols())
	for i := 0; i < circles.Cols(); i++ {
		v := circles.GetVecfAt(0, i)
		found = append(found, Circle{X: float64(v[0]), Y: float64(v[1]), Radius: float64(v[2])})
	}
	return found
}

func (b *cvBackend) draw(img image.Image, circles []Circle) (image.Image, error) {
	src, err := frameMat(img)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	canvas := gocv.NewMat()
	defer canvas.Close()
	gocv.CvtColor(src, &canvas, gocv.ColorRGBAToBGR)

	outline := toRGBA(b.opts.OutlineColor)
	centre := toRGBA(b.opts.CenterColor)
	width := max(1, int(math.Round(b.opts.OutlineWidth)))
	dot := max(1, int(math.Round(b.opts.CenterRadius)))
	for _, c := range circles {
		p := image.Pt(int(math.Round(c.X)), int(math.Round(c.Y)))
		gocv.Circle(&canvas, p, int(math.Round(c.Radius)), outline, width)
		gocv.Circle(&canvas, p, dot, centre, -1)
	}

	out, err := canvas.ToImage()
	if err != nil {
		return nil, fmt.Errorf("convert overlay: %w", err)
	}
	return out, nil
}

// frameMat copies img into a CV_8UC4 Mat anchored at the origin. The Mat
// owns its pixels; img is never shared with OpenCV.
func frameMat(img image.Image) (gocv.Mat, error) {
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)

	m, err := gocv.NewMatFromBytes(b.Dy(), b.Dx(), gocv.MatTypeCV8UC4, rgba.Pix)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("wrap frame: %w", err)
	}
	defer m.Close()
	return m.Clone(), nil
}

func toRGBA(c color.Color) color.RGBA {
	return color.RGBAModel.Convert(c).(color.RGBA)
}

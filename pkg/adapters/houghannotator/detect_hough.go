//go:build !gocv

package houghannotator

import (
	"image"
	"image/color"
	"math"
	"sort"

	"github.com/user/objecttracker/pkg/ports"
)

// houghBackend runs the Hough-gradient transform in Go and draws through
// a ports.Renderer.
type houghBackend struct {
	renderer ports.Renderer
	opts     Options
}

func newBackend(renderer ports.Renderer, opts Options) backend {
	return &houghBackend{renderer: renderer, opts: opts}
}

func (b *houghBackend) detect(img image.Image) []Circle {
	gray := toGray(img)
	if b.opts.MedianBlur {
		gray = medianBlur3(gray)
	}
	edges := detectEdges(gray, b.opts.EdgeThreshold)
	return houghCircles(edges, gray.w, gray.h, b.opts.MinRadius, b.opts.MaxRadius, b.opts.VoteThreshold, b.opts.MinDistance)
}

func (b *houghBackend) draw(img image.Image, circles []Circle) (image.Image, error) {
	bounds := img.Bounds()
	canvas := b.renderer.CreateCanvas(bounds.Dx(), bounds.Dy(), color.Black)
	canvas.DrawImage(img, 0, 0)
	for _, c := range circles {
		canvas.DrawCircleStroke(c.X, c.Y, c.Radius, b.opts.OutlineColor, b.opts.OutlineWidth)
		canvas.DrawCircle(c.X, c.Y, b.opts.CenterRadius, b.opts.CenterColor)
	}
	return canvas.ToImage(), nil
}

// grayImage is a row-major luminance buffer.
type grayImage struct {
	w, h int
	pix  []float64
}

func (g *grayImage) at(x, y int) float64 {
	return g.pix[y*g.w+x]
}

func toGray(img image.Image) *grayImage {
	b := img.Bounds()
	g := &grayImage{w: b.Dx(), h: b.Dy(), pix: make([]float64, b.Dx()*b.Dy())}

	switch src := img.(type) {
	case *image.RGBA:
		for y := 0; y < g.h; y++ {
			row := src.Pix[(y+b.Min.Y-src.Rect.Min.Y)*src.Stride:]
			for x := 0; x < g.w; x++ {
				i := (x + b.Min.X - src.Rect.Min.X) * 4
				g.pix[y*g.w+x] = luma(float64(row[i]), float64(row[i+1]), float64(row[i+2]))
			}
		}
	case *image.Gray:
		for y := 0; y < g.h; y++ {
			for x := 0; x < g.w; x++ {
				g.pix[y*g.w+x] = float64(src.GrayAt(x+b.Min.X, y+b.Min.Y).Y)
			}
		}
	default:
		for y := 0; y < g.h; y++ {
			for x := 0; x < g.w; x++ {
				c := color.RGBAModel.Convert(img.At(x+b.Min.X, y+b.Min.Y)).(color.RGBA)
				g.pix[y*g.w+x] = luma(float64(c.R), float64(c.G), float64(c.B))
			}
		}
	}
	return g
}

func luma(r, g, b float64) float64 {
	return 0.299*r + 0.587*g + 0.114*b
}

// medianBlur3 applies a 3x3 median filter. Border pixels are copied.
func medianBlur3(g *grayImage) *grayImage {
	out := &grayImage{w: g.w, h: g.h, pix: make([]float64, len(g.pix))}
	copy(out.pix, g.pix)

	var window [9]float64
	for y := 1; y < g.h-1; y++ {
		for x := 1; x < g.w-1; x++ {
			n := 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					window[n] = g.at(x+dx, y+dy)
					n++
				}
			}
			sort.Float64s(window[:])
			out.pix[y*g.w+x] = window[4]
		}
	}
	return out
}

// edgePoint is an edge pixel with its unit gradient direction.
type edgePoint struct {
	x, y   int
	ux, uy float64
}

// detectEdges returns pixels whose Sobel magnitude reaches threshold and
// is a local maximum across the edge.
func detectEdges(g *grayImage, threshold float64) []edgePoint {
	gx := make([]float64, len(g.pix))
	gy := make([]float64, len(g.pix))
	mag := make([]float64, len(g.pix))

	for y := 1; y < g.h-1; y++ {
		for x := 1; x < g.w-1; x++ {
			dx := g.at(x+1, y-1) + 2*g.at(x+1, y) + g.at(x+1, y+1) -
				g.at(x-1, y-1) - 2*g.at(x-1, y) - g.at(x-1, y+1)
			dy := g.at(x-1, y+1) + 2*g.at(x, y+1) + g.at(x+1, y+1) -
				g.at(x-1, y-1) - 2*g.at(x, y-1) - g.at(x+1, y-1)
			i := y*g.w + x
			gx[i], gy[i] = dx, dy
			mag[i] = math.Abs(dx) + math.Abs(dy)
		}
	}

	var edges []edgePoint
	for y := 1; y < g.h-1; y++ {
		for x := 1; x < g.w-1; x++ {
			i := y*g.w + x
			m := mag[i]
			if m < threshold {
				continue
			}

			// Compare with the two neighbours along the quantised gradient.
			ox, oy := gradientStep(gx[i], gy[i])
			before := mag[(y-oy)*g.w+(x-ox)]
			after := mag[(y+oy)*g.w+(x+ox)]
			if m <= before || m < after {
				continue
			}

			norm := math.Hypot(gx[i], gy[i])
			edges = append(edges, edgePoint{x: x, y: y, ux: gx[i] / norm, uy: gy[i] / norm})
		}
	}
	return edges
}

// gradientStep quantises a gradient to one of the eight neighbour offsets.
func gradientStep(dx, dy float64) (int, int) {
	angle := math.Atan2(dy, dx)
	if angle < 0 {
		angle += math.Pi
	}
	switch {
	case angle < math.Pi/8 || angle >= 7*math.Pi/8:
		return 1, 0
	case angle < 3*math.Pi/8:
		return 1, 1
	case angle < 5*math.Pi/8:
		return 0, 1
	default:
		return -1, 1
	}
}

// houghCircles finds circles whose radius lies in [minRadius, maxRadius].
//
// Every edge pixel votes for the centres lying along its gradient line at
// each candidate radius, in both directions. Accumulator cells that are
// local maxima with at least voteThreshold votes are accepted strongest
// first, discarding centres closer than minDistance to an accepted one.
// The radius of each centre is the distance most edge pixels agree on,
// and that distance must itself be backed by voteThreshold edge pixels.
func houghCircles(edges []edgePoint, w, h int, minRadius, maxRadius, voteThreshold int, minDistance float64) []Circle {
	if len(edges) == 0 || w < 3 || h < 3 {
		return nil
	}

	acc := make([]int, w*h)
	for _, e := range edges {
		for r := minRadius; r <= maxRadius; r++ {
			for _, sign := range [2]float64{1, -1} {
				cx := int(math.Round(float64(e.x) + sign*float64(r)*e.ux))
				cy := int(math.Round(float64(e.y) + sign*float64(r)*e.uy))
				if cx < 0 || cy < 0 || cx >= w || cy >= h {
					continue
				}
				acc[cy*w+cx]++
			}
		}
	}

	type peak struct{ x, y, votes int }
	var peaks []peak
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			v := acc[y*w+x]
			if v < voteThreshold {
				continue
			}
			if v < acc[y*w+x-1] || v <= acc[y*w+x+1] ||
				v < acc[(y-1)*w+x] || v <= acc[(y+1)*w+x] {
				continue
			}
			peaks = append(peaks, peak{x, y, v})
		}
	}

	sort.SliceStable(peaks, func(i, j int) bool {
		return peaks[i].votes > peaks[j].votes
	})

	var circles []Circle
	minDist2 := minDistance * minDistance
	for _, p := range peaks {
		tooClose := false
		for _, c := range circles {
			dx, dy := float64(p.x)-c.X, float64(p.y)-c.Y
			if dx*dx+dy*dy < minDist2 {
				tooClose = true
				break
			}
		}
		if tooClose {
			continue
		}

		radius, support := estimateRadius(edges, p.x, p.y, minRadius, maxRadius)
		if support < voteThreshold {
			continue
		}
		circles = append(circles, Circle{X: float64(p.x), Y: float64(p.y), Radius: radius, Votes: p.votes})
	}
	return circles
}

// estimateRadius picks the radius in range supported by the most edge
// pixels and returns it with that pixel count.
func estimateRadius(edges []edgePoint, cx, cy, minRadius, maxRadius int) (float64, int) {
	hist := make([]int, maxRadius-minRadius+1)
	for _, e := range edges {
		d := math.Hypot(float64(e.x-cx), float64(e.y-cy))
		r := int(math.Round(d))
		if r < minRadius || r > maxRadius {
			continue
		}
		hist[r-minRadius]++
	}

	best, bestCount := 0, 0
	for i, n := range hist {
		if n > bestCount {
			best, bestCount = i, n
		}
	}
	return float64(best + minRadius), bestCount
}

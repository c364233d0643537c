// ABOUTME: Rasterizes scenes onto an RGBA surface with x/image/vector
// ABOUTME: Repaints the opaque background gradient every frame before drawing
package synth

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/vector"

	"github.com/Resonate-Protocol/resonate-visualizer/internal/analyser"
)

// Background gradient endpoints, top-left to bottom-right
var (
	backgroundFrom = color.RGBA{0, 0, 0, 255}
	backgroundTo   = color.RGBA{10, 10, 10, 255}
)

// Painter draws scenes. It keeps a rasterizer between frames to avoid
// reallocating coverage buffers; it carries no visual state.
type Painter struct {
	z *vector.Rasterizer
}

// NewPainter creates a painter
func NewPainter() *Painter {
	return &Painter{}
}

// Render draws one frame for snap and s into dst, covering every pixel
func Render(dst *image.RGBA, snap *analyser.Snapshot, s Settings) {
	NewPainter().Render(dst, snap, s)
}

// Render draws one frame for snap and s into dst, covering every pixel
func (p *Painter) Render(dst *image.RGBA, snap *analyser.Snapshot, s Settings) {
	b := dst.Bounds()
	p.Paint(dst, BuildScene(b.Dx(), b.Dy(), snap, s))
}

// Paint fills the background and draws sc on top of it
func (p *Painter) Paint(dst *image.RGBA, sc Scene) {
	paintBackground(dst)

	b := dst.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return
	}

	if p.z == nil {
		p.z = vector.NewRasterizer(w, h)
	} else {
		p.z.Reset(w, h)
	}
	z := p.z

	for _, r := range sc.Rects {
		fillPolygon(z, w, h, []Point{
			{r.X, r.Y + r.H},
			{r.X + r.W, r.Y + r.H},
			{r.X + r.W, r.Y},
			{r.X, r.Y},
		})
	}
	strokePath(z, w, h, sc.Path, sc.Closed, sc.LineWidth)

	src := image.NewUniform(color.NRGBA{
		R: sc.Color.R,
		G: sc.Color.G,
		B: sc.Color.B,
		A: uint8(math.Round(float64(sc.Alpha) * 255)),
	})
	z.DrawOp = draw.Over
	z.Draw(dst, b, src, image.Point{})
}

func paintBackground(dst *image.RGBA) {
	b := dst.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	norm := w*w + h*h
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := dst.Pix[dst.PixOffset(b.Min.X, y):]
		fy := float64(y-b.Min.Y) + 0.5
		for x := 0; x < b.Dx(); x++ {
			t := 0.0
			if norm > 0 {
				t = ((float64(x)+0.5)*w + fy*h) / norm
			}
			if t > 1 {
				t = 1
			}
			i := x * 4
			row[i] = lerp(backgroundFrom.R, backgroundTo.R, t)
			row[i+1] = lerp(backgroundFrom.G, backgroundTo.G, t)
			row[i+2] = lerp(backgroundFrom.B, backgroundTo.B, t)
			row[i+3] = 255
		}
	}
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t))
}

// strokePath outlines each segment as a quad plus a square cap at every
// vertex. All pieces share one winding so overlaps never cancel.
func strokePath(z *vector.Rasterizer, w, h int, path []Point, closed bool, width float32) {
	if len(path) == 0 || width <= 0 {
		return
	}
	half := width / 2

	segments := len(path) - 1
	if closed {
		segments = len(path)
	}
	for i := 0; i < segments; i++ {
		a, b := path[i], path[(i+1)%len(path)]
		dx, dy := b.X-a.X, b.Y-a.Y
		length := float32(math.Hypot(float64(dx), float64(dy)))
		if length == 0 {
			continue
		}
		nx, ny := -dy/length*half, dx/length*half
		fillPolygon(z, w, h, []Point{
			{a.X + nx, a.Y + ny},
			{b.X + nx, b.Y + ny},
			{b.X - nx, b.Y - ny},
			{a.X - nx, a.Y - ny},
		})
	}

	for _, v := range path {
		fillPolygon(z, w, h, []Point{
			{v.X - half, v.Y + half},
			{v.X + half, v.Y + half},
			{v.X + half, v.Y - half},
			{v.X - half, v.Y - half},
		})
	}
}

// fillPolygon adds a polygon clipped to the surface
func fillPolygon(z *vector.Rasterizer, w, h int, pts []Point) {
	pts = clip(pts, float32(w), float32(h))
	if len(pts) < 3 {
		return
	}
	z.MoveTo(pts[0].X, pts[0].Y)
	for _, p := range pts[1:] {
		z.LineTo(p.X, p.Y)
	}
	z.ClosePath()
}

// clip runs Sutherland-Hodgman against the surface rectangle
func clip(pts []Point, w, h float32) []Point {
	edges := []struct {
		inside func(Point) bool
		cross  func(a, b Point) Point
	}{
		{func(p Point) bool { return p.X >= 0 }, func(a, b Point) Point { return atX(a, b, 0) }},
		{func(p Point) bool { return p.X <= w }, func(a, b Point) Point { return atX(a, b, w) }},
		{func(p Point) bool { return p.Y >= 0 }, func(a, b Point) Point { return atY(a, b, 0) }},
		{func(p Point) bool { return p.Y <= h }, func(a, b Point) Point { return atY(a, b, h) }},
	}

	for _, e := range edges {
		if len(pts) == 0 {
			return nil
		}
		out := make([]Point, 0, len(pts)+2)
		prev := pts[len(pts)-1]
		for _, cur := range pts {
			switch {
			case e.inside(cur) && e.inside(prev):
				out = append(out, cur)
			case e.inside(cur):
				out = append(out, e.cross(prev, cur), cur)
			case e.inside(prev):
				out = append(out, e.cross(prev, cur))
			}
			prev = cur
		}
		pts = out
	}
	return pts
}

func atX(a, b Point, x float32) Point {
	t := (x - a.X) / (b.X - a.X)
	return Point{x, a.Y + (b.Y-a.Y)*t}
}

func atY(a, b Point, y float32) Point {
	t := (y - a.Y) / (b.Y - a.Y)
	return Point{a.X + (b.X-a.X)*t, y}
}

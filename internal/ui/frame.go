// ABOUTME: Terminal presentation of rendered frames using half-block cells
// ABOUTME: Each cell shows two pixels: upper as foreground, lower as background
package ui

import (
	"image"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/image/draw"
)

// DefaultScale is the surface pixels per terminal column
const DefaultScale = 8

// Viewport sizes the render surface from the terminal cell grid. The surface
// is Scale times larger than the cells so recordings keep a usable size.
type Viewport struct {
	scale int
	cols  atomic.Int32
	rows  atomic.Int32
}

// NewViewport creates a viewport with an initial 80x24 cell grid
func NewViewport(scale int) *Viewport {
	if scale < 1 {
		scale = DefaultScale
	}
	v := &Viewport{scale: scale}
	v.SetCells(80, 24)
	return v
}

// SetCells updates the cell grid the frame is shown in
func (v *Viewport) SetCells(cols, rows int) {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	v.cols.Store(int32(cols))
	v.rows.Store(int32(rows))
}

// Cells returns the cell grid
func (v *Viewport) Cells() (int, int) {
	return int(v.cols.Load()), int(v.rows.Load())
}

// Size returns the surface size in pixels
func (v *Viewport) Size() (int, int) {
	cols, rows := v.Cells()
	return cols * v.scale, rows * 2 * v.scale
}

// Presenter downsamples frames to the cell grid and offers them to a Bridge
type Presenter struct {
	viewport *Viewport
	bridge   *Bridge

	mu    sync.Mutex
	small *image.RGBA
	buf   strings.Builder
}

// NewPresenter creates a presenter for viewport delivering to bridge
func NewPresenter(viewport *Viewport, bridge *Bridge) *Presenter {
	return &Presenter{viewport: viewport, bridge: bridge}
}

// Present is called by the render loop after every tick
func (p *Presenter) Present(img *image.RGBA) {
	cols, rows := p.viewport.Cells()

	p.mu.Lock()
	defer p.mu.Unlock()

	rect := image.Rect(0, 0, cols, rows*2)
	if p.small == nil || p.small.Bounds() != rect {
		p.small = image.NewRGBA(rect)
	}
	draw.ApproxBiLinear.Scale(p.small, rect, img, img.Bounds(), draw.Src, nil)

	p.buf.Reset()
	EncodeHalfBlocks(&p.buf, p.small)
	p.bridge.OfferFrame(p.buf.String())
}

// EncodeHalfBlocks writes img as rows of "▀" cells with 24-bit colors.
// Escape sequences are only emitted when a color changes.
func EncodeHalfBlocks(b *strings.Builder, img *image.RGBA) {
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y += 2 {
		var fg, bg [3]uint8
		first := true
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			top := rgbAt(img, x, y)
			bottom := top
			if y+1 < bounds.Max.Y {
				bottom = rgbAt(img, x, y+1)
			}
			if first || top != fg {
				writeColor(b, "38", top)
				fg = top
			}
			if first || bottom != bg {
				writeColor(b, "48", bottom)
				bg = bottom
			}
			first = false
			b.WriteString("▀")
		}
		b.WriteString("\x1b[0m")
		if y+2 < bounds.Max.Y {
			b.WriteByte('\n')
		}
	}
}

func rgbAt(img *image.RGBA, x, y int) [3]uint8 {
	i := img.PixOffset(x, y)
	return [3]uint8{img.Pix[i], img.Pix[i+1], img.Pix[i+2]}
}

func writeColor(b *strings.Builder, layer string, c [3]uint8) {
	b.WriteString("\x1b[")
	b.WriteString(layer)
	b.WriteString(";2;")
	b.WriteString(strconv.Itoa(int(c[0])))
	b.WriteByte(';')
	b.WriteString(strconv.Itoa(int(c[1])))
	b.WriteByte(';')
	b.WriteString(strconv.Itoa(int(c[2])))
	b.WriteByte('m')
}

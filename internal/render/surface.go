// ABOUTME: Raster surface shared by the render loop, presenters and capture
// ABOUTME: One writer per tick; readers copy frames under a read lock
package render

import (
	"image"
	"sync"
)

// Surface is the frame raster. The render loop is its only writer.
type Surface struct {
	mu    sync.RWMutex
	img   *image.RGBA
	frame uint64
}

// NewSurface creates a surface of the given size
func NewSurface(w, h int) *Surface {
	return &Surface{img: image.NewRGBA(image.Rect(0, 0, clampSize(w), clampSize(h)))}
}

func clampSize(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

// Size returns the current dimensions
func (s *Surface) Size() (int, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b := s.img.Bounds()
	return b.Dx(), b.Dy()
}

// Resize reallocates the raster if the size changed and reports whether it did
func (s *Surface) Resize(w, h int) bool {
	w, h = clampSize(w), clampSize(h)
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.img.Bounds()
	if b.Dx() == w && b.Dy() == h {
		return false
	}
	s.img = image.NewRGBA(image.Rect(0, 0, w, h))
	return true
}

// Draw runs fn with exclusive access to the raster and counts a new frame
func (s *Surface) Draw(fn func(img *image.RGBA)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.img)
	s.frame++
}

// View runs fn with read access to the raster. img must not be retained.
func (s *Surface) View(fn func(img *image.RGBA)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.img)
}

// Frame returns the number of frames drawn so far
func (s *Surface) Frame() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frame
}

// CopyFrame copies the latest frame into dst, reallocating dst when the
// size differs, and returns it with the frame number
func (s *Surface) CopyFrame(dst *image.RGBA) (*image.RGBA, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b := s.img.Bounds()
	if dst == nil || dst.Bounds() != b {
		dst = image.NewRGBA(b)
	}
	copy(dst.Pix, s.img.Pix)
	return dst, s.frame
}

package render

import (
	"image"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Resonate-Protocol/resonate-visualizer/internal/analyser"
	"github.com/Resonate-Protocol/resonate-visualizer/internal/synth"
)

type countingPresenter struct {
	mu     sync.Mutex
	count  int
	width  int
	height int
}

func (p *countingPresenter) Present(img *image.RGBA) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.count++
	p.width, p.height = img.Bounds().Dx(), img.Bounds().Dy()
}

func (p *countingPresenter) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count
}

type resizingViewport struct {
	w, h atomic.Int32
}

func (v *resizingViewport) Size() (int, int) {
	return int(v.w.Load()), int(v.h.Load())
}

func newTestLoop(p Presenter, vp Viewport) *Loop {
	return NewLoop(LoopConfig{
		Surface:   NewSurface(1, 1),
		Sampler:   analyser.NewSampler(),
		Settings:  synth.DefaultSettings,
		Viewport:  vp,
		Presenter: p,
		FPS:       200,
	})
}

func TestTickResizesAndPresents(t *testing.T) {
	p := &countingPresenter{}
	vp := &resizingViewport{}
	vp.w.Store(64)
	vp.h.Store(32)
	l := newTestLoop(p, vp)

	l.Tick()
	if p.Count() != 1 || p.width != 64 || p.height != 32 {
		t.Fatalf("expected one 64x32 frame, got %d frames at %dx%d", p.Count(), p.width, p.height)
	}

	vp.w.Store(100)
	l.Tick()
	if w, h := l.config.Surface.Size(); w != 100 || h != 32 {
		t.Errorf("expected surface 100x32, got %dx%d", w, h)
	}
	if l.config.Surface.Frame() != 2 {
		t.Errorf("expected 2 frames drawn, got %d", l.config.Surface.Frame())
	}
}

func TestStopHaltsTicks(t *testing.T) {
	p := &countingPresenter{}
	l := newTestLoop(p, FixedViewport{W: 16, H: 16})

	l.Start()
	l.Start() // no second goroutine
	deadline := time.Now().Add(2 * time.Second)
	for p.Count() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if p.Count() < 3 {
		t.Fatalf("expected ticks while running, got %d", p.Count())
	}

	l.Stop()
	after := p.Count()
	time.Sleep(50 * time.Millisecond)
	if p.Count() != after {
		t.Errorf("tick fired after Stop returned: %d -> %d", after, p.Count())
	}
	if l.Running() {
		t.Error("expected loop stopped")
	}
}

func TestDoubleStopIsSingleStop(t *testing.T) {
	l := newTestLoop(nil, FixedViewport{W: 8, H: 8})
	l.Stop() // never started

	l.Start()
	l.Stop()
	l.Stop()

	// restartable after stop
	l.Start()
	if !l.Running() {
		t.Error("expected loop running after restart")
	}
	l.Stop()
}

func TestCopyFrame(t *testing.T) {
	s := NewSurface(4, 2)
	s.Draw(func(img *image.RGBA) {
		img.Pix[0] = 200
	})

	dst, frame := s.CopyFrame(nil)
	if frame != 1 {
		t.Errorf("expected frame 1, got %d", frame)
	}
	if dst.Pix[0] != 200 {
		t.Errorf("expected copied pixel, got %d", dst.Pix[0])
	}

	s.Resize(8, 8)
	dst2, _ := s.CopyFrame(dst)
	if dst2 == dst || dst2.Bounds().Dx() != 8 {
		t.Error("expected reallocation after resize")
	}
}

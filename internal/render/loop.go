// ABOUTME: Render loop driving sampler, synthesizer and presenter each display tick
// ABOUTME: Start/Stop are idempotent and Stop waits until no tick can fire
package render

import (
	"image"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Resonate-Protocol/resonate-visualizer/internal/analyser"
	"github.com/Resonate-Protocol/resonate-visualizer/internal/synth"
)

// DefaultFPS is the display refresh rate when none is configured
const DefaultFPS = 60

// Viewport reports the presentation size in pixels
type Viewport interface {
	Size() (w, h int)
}

// FixedViewport is a viewport that never changes size
type FixedViewport struct {
	W, H int
}

func (v FixedViewport) Size() (int, int) { return v.W, v.H }

// Presenter shows a finished frame. img is only valid during the call.
type Presenter interface {
	Present(img *image.RGBA)
}

// PresenterFunc adapts a function to Presenter
type PresenterFunc func(img *image.RGBA)

func (f PresenterFunc) Present(img *image.RGBA) { f(img) }

// LoopConfig wires a render loop
type LoopConfig struct {
	Surface   *Surface
	Sampler   *analyser.Sampler
	Settings  func() synth.Settings
	Viewport  Viewport
	Presenter Presenter // optional
	FPS       int
	Logger    *zap.Logger
}

type loopRun struct {
	stopChan chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// Loop is the per-frame driver
type Loop struct {
	config  LoopConfig
	logger  *zap.Logger
	painter *synth.Painter

	tickMu sync.Mutex // ticks never overlap
	snap   analyser.Snapshot
	ticks  uint64

	mu  sync.Mutex
	run *loopRun
}

// NewLoop creates a stopped loop
func NewLoop(config LoopConfig) *Loop {
	if config.FPS <= 0 {
		config.FPS = DefaultFPS
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{
		config:  config,
		logger:  logger.Named("render"),
		painter: synth.NewPainter(),
	}
}

// Start begins ticking. Calling Start on a running loop does nothing.
func (l *Loop) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.run != nil {
		return
	}
	r := &loopRun{
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
	l.run = r

	interval := time.Second / time.Duration(l.config.FPS)
	l.logger.Debug("render loop starting", zap.Duration("interval", interval))
	go l.loop(r, interval)
}

func (l *Loop) loop(r *loopRun, interval time.Duration) {
	defer close(r.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopChan:
			return
		case <-ticker.C:
			select {
			case <-r.stopChan:
				return
			default:
			}
			l.Tick()
		}
	}
}

// Stop halts the loop and waits for an in-flight tick to finish
func (l *Loop) Stop() {
	l.mu.Lock()
	r := l.run
	l.run = nil
	l.mu.Unlock()

	if r == nil {
		return
	}
	r.stopOnce.Do(func() {
		close(r.stopChan)
	})
	<-r.done
	l.logger.Debug("render loop stopped", zap.Uint64("ticks", l.Ticks()))
}

// Running reports whether the loop is ticking
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.run != nil
}

// Ticks returns the number of completed ticks
func (l *Loop) Ticks() uint64 {
	l.tickMu.Lock()
	defer l.tickMu.Unlock()
	return l.ticks
}

// Tick runs one frame: resize, sample, render, present
func (l *Loop) Tick() {
	l.tickMu.Lock()
	defer l.tickMu.Unlock()

	surface := l.config.Surface
	if l.config.Viewport != nil {
		w, h := l.config.Viewport.Size()
		if surface.Resize(w, h) {
			l.logger.Debug("surface resized", zap.Int("width", w), zap.Int("height", h))
		}
	}

	l.config.Sampler.SampleInto(&l.snap)

	settings := synth.DefaultSettings()
	if l.config.Settings != nil {
		settings = l.config.Settings()
	}

	surface.Draw(func(img *image.RGBA) {
		l.painter.Render(img, &l.snap, settings)
	})

	if l.config.Presenter != nil {
		surface.View(l.config.Presenter.Present)
	}
	l.ticks++
}

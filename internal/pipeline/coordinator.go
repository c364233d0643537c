// ABOUTME: Pipeline coordinator owning the audio graph, render loop and recording
// ABOUTME: Tracks are loaded by tearing down the old graph before building a new one
package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Resonate-Protocol/resonate-visualizer/internal/analyser"
	"github.com/Resonate-Protocol/resonate-visualizer/internal/capture"
	"github.com/Resonate-Protocol/resonate-visualizer/internal/graph"
	"github.com/Resonate-Protocol/resonate-visualizer/internal/render"
	"github.com/Resonate-Protocol/resonate-visualizer/internal/synth"
	"github.com/Resonate-Protocol/resonate-visualizer/pkg/audio/output"
)

// DefaultFinalizeTimeout bounds how long teardown waits for a recording
const DefaultFinalizeTimeout = 10 * time.Second

// Config wires a coordinator
type Config struct {
	// OutputFactory creates a fresh playback output per graph
	OutputFactory func() (output.Output, error)
	Encoder       capture.Encoder

	Surface   *render.Surface
	Viewport  render.Viewport
	Presenter render.Presenter

	FPS             int
	CaptureFPS      int
	FinalizeTimeout time.Duration
	Settings        synth.Settings

	Logger   *zap.Logger
	OnStatus func(Status)
}

// Coordinator is the single owner of the live graph and recording session
type Coordinator struct {
	config  Config
	logger  *zap.Logger
	sampler *analyser.Sampler
	surface *render.Surface
	loop    *render.Loop

	settings atomic.Pointer[synth.Settings]

	mu      sync.Mutex
	track   *Track
	graph   *graph.Graph
	sink    output.Output
	session *capture.Session
	volume  int
	muted   bool
}

// New creates a coordinator with no track loaded
func New(config Config) (*Coordinator, error) {
	if config.OutputFactory == nil {
		config.OutputFactory = func() (output.Output, error) { return output.New("") }
	}
	if config.FinalizeTimeout <= 0 {
		config.FinalizeTimeout = DefaultFinalizeTimeout
	}
	if config.CaptureFPS <= 0 {
		config.CaptureFPS = capture.DefaultFPS
	}
	if config.Surface == nil {
		w, h := 640, 360
		if config.Viewport != nil {
			w, h = config.Viewport.Size()
		}
		config.Surface = render.NewSurface(w, h)
	}
	if config.Viewport == nil {
		w, h := config.Surface.Size()
		config.Viewport = render.FixedViewport{W: w, H: h}
	}
	settings := config.Settings
	if settings == (synth.Settings{}) {
		settings = synth.DefaultSettings()
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Coordinator{
		config:  config,
		logger:  logger.Named("pipeline"),
		sampler: analyser.NewSampler(),
		surface: config.Surface,
		volume:  100,
	}
	c.settings.Store(&settings)
	c.loop = render.NewLoop(render.LoopConfig{
		Surface:   config.Surface,
		Sampler:   c.sampler,
		Settings:  c.Settings,
		Viewport:  config.Viewport,
		Presenter: config.Presenter,
		FPS:       config.FPS,
		Logger:    logger,
	})
	return c, nil
}

// Surface returns the raster the render loop draws into
func (c *Coordinator) Surface() *render.Surface { return c.surface }

// Loop returns the render loop
func (c *Coordinator) Loop() *render.Loop { return c.loop }

// LoadTrack replaces the current track. Any recording is finalized first.
// On failure the coordinator has no track loaded.
func (c *Coordinator) LoadTrack(track *Track) error {
	defer c.notify()
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.load(track)
}

// load builds a fresh graph for track; it runs with c.mu held
func (c *Coordinator) load(track *Track) error {
	c.teardown()

	sink, err := c.config.OutputFactory()
	if err != nil {
		return &GraphConstructionError{Stage: "output", Err: err}
	}
	if vc, ok := sink.(output.VolumeControl); ok {
		vc.SetVolume(c.volume)
		vc.SetMuted(c.muted)
	}

	g, err := graph.New(track, sink, graph.Config{
		Logger: c.logger,
		OnEnd:  func() { go c.notify() },
	})
	if err != nil {
		if cerr := sink.Close(); cerr != nil {
			c.logger.Warn("failed to close output", zap.Error(cerr))
		}
		c.logger.Error("failed to load track", zap.String("track", track.Name), zap.Error(err))
		return err
	}

	c.track = track
	c.graph = g
	c.sink = sink
	c.sampler.Attach(g.Tap())
	g.Start()
	c.loop.Start()

	c.logger.Info("track loaded",
		zap.String("track", track.Name),
		zap.String("track_id", track.ID.String()))
	return nil
}

// Play starts playback. The output is resumed first; a failure leaves the
// track paused and the next Play tries again. A track that has ended is
// rebuilt from the start.
func (c *Coordinator) Play() error {
	defer c.notify()
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.play()
}

// play runs with c.mu held
func (c *Coordinator) play() error {
	if c.graph == nil {
		return ErrNoTrack
	}
	if c.graph.Ended() {
		c.logger.Info("restarting ended track", zap.String("track", c.track.Name))
		if err := c.load(c.track); err != nil {
			return err
		}
	}
	if err := c.graph.Play(); err != nil {
		c.logger.Warn("playback could not start", zap.Error(err))
		return err
	}
	return nil
}

// Pause stops playback
func (c *Coordinator) Pause() {
	defer c.notify()
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.graph != nil {
		c.graph.Pause()
	}
}

// TogglePlay plays when paused and pauses when playing
func (c *Coordinator) TogglePlay() error {
	defer c.notify()
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.graph != nil && c.graph.Playing() {
		c.graph.Pause()
		return nil
	}
	return c.play()
}

// IsPlaying reports whether the loaded track is playing
func (c *Coordinator) IsPlaying() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.graph != nil && c.graph.Playing()
}

// Track returns the loaded track, if any
func (c *Coordinator) Track() *Track {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.track
}

// SetSettings replaces the visual settings. Invalid settings are rejected
// and the previous value is kept.
func (c *Coordinator) SetSettings(s synth.Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	c.settings.Store(&s)
	c.notify()
	return nil
}

// Settings returns the current visual settings
func (c *Coordinator) Settings() synth.Settings {
	return *c.settings.Load()
}

// SetVolume sets playback volume 0-100 on outputs that support it
func (c *Coordinator) SetVolume(level int) {
	c.mu.Lock()
	if level < 0 {
		level = 0
	}
	if level > 100 {
		level = 100
	}
	c.volume = level
	if vc, ok := c.sink.(output.VolumeControl); ok {
		vc.SetVolume(level)
	}
	c.mu.Unlock()
	c.notify()
}

// SetMuted mutes or unmutes playback
func (c *Coordinator) SetMuted(muted bool) {
	c.mu.Lock()
	c.muted = muted
	if vc, ok := c.sink.(output.VolumeControl); ok {
		vc.SetMuted(muted)
	}
	c.mu.Unlock()
	c.notify()
}

// StartRecording begins capturing the surface and graph audio
func (c *Coordinator) StartRecording() error {
	defer c.notify()
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.graph == nil {
		return ErrNoTrack
	}
	if c.session != nil {
		switch c.session.State() {
		case capture.Active, capture.Finalizing:
			return ErrRecordingActive
		}
	}

	session := capture.NewSession(capture.Config{
		Encoder:    c.config.Encoder,
		TrackName:  c.track.Name,
		FPS:        c.config.CaptureFPS,
		Logger:     c.logger,
		OnComplete: func(*capture.Session) { c.notify() },
	})
	if err := session.Start(c.surface, c.graph.Format()); err != nil {
		c.logger.Warn("recording unavailable", zap.Error(err))
		return err
	}
	c.session = session
	c.graph.AttachRecorder(session)
	return nil
}

// StopRecording begins finalizing the active recording. The artifact appears
// once the session completes.
func (c *Coordinator) StopRecording() {
	defer c.notify()
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return
	}
	if c.graph != nil {
		c.graph.DetachRecorder()
	}
	c.session.Stop()
}

// Recording returns the current or last recording session
func (c *Coordinator) Recording() *capture.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Artifact returns the finished recording, if the last session completed
func (c *Coordinator) Artifact() (*capture.Artifact, bool) {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()
	if session == nil {
		return nil, false
	}
	return session.Artifact()
}

// RecordingArtifactURL returns the blob URL of the finished recording, or ""
func (c *Coordinator) RecordingArtifactURL() string {
	if a, ok := c.Artifact(); ok {
		return a.URL
	}
	return ""
}

// Teardown stops rendering, finalizes any recording and releases the graph.
// It never fails and may be called any number of times.
func (c *Coordinator) Teardown() {
	defer c.notify()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teardown()
}

// teardown runs with c.mu held
func (c *Coordinator) teardown() {
	c.loop.Stop()

	if c.session != nil {
		c.finalizeRecording(c.session)
	}

	c.sampler.Detach()
	if c.graph != nil {
		if err := c.graph.Close(); err != nil {
			c.logger.Warn("graph close failed", zap.Error(err))
		}
		c.logger.Info("track unloaded", zap.String("track", c.track.Name))
	}
	c.graph = nil
	c.sink = nil
	c.track = nil
}

func (c *Coordinator) finalizeRecording(session *capture.Session) {
	switch session.State() {
	case capture.Active, capture.Finalizing:
	default:
		return
	}

	if c.graph != nil {
		c.graph.DetachRecorder()
	}
	session.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), c.config.FinalizeTimeout)
	defer cancel()
	if err := session.Wait(ctx); err != nil {
		c.logger.Error("recording did not finalize, discarding",
			zap.Duration("timeout", c.config.FinalizeTimeout), zap.Error(err))
		session.Discard()
		select {
		case <-session.Done():
		case <-time.After(c.config.FinalizeTimeout):
			c.logger.Error("discarded recording is still running")
		}
	}
}

// WaitRecording blocks until the last recording session completes or ctx ends
func (c *Coordinator) WaitRecording(ctx context.Context) (*capture.Artifact, error) {
	session := c.Recording()
	if session == nil {
		return nil, errors.New("no recording")
	}
	if err := session.Wait(ctx); err != nil {
		return nil, err
	}
	if a, ok := session.Artifact(); ok {
		return a, nil
	}
	return nil, session.Err()
}

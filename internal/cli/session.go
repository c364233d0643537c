// ABOUTME: Shared playback and headless recording flows used by the commands
// ABOUTME: Builds a coordinator from config and drives it to a saved artifact
package cli

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Resonate-Protocol/resonate-visualizer/internal/pipeline"
	"github.com/Resonate-Protocol/resonate-visualizer/internal/render"
	"github.com/Resonate-Protocol/resonate-visualizer/internal/ui"
	"github.com/Resonate-Protocol/resonate-visualizer/pkg/audio/output"
)

func (a *app) newCoordinator(viewport render.Viewport, presenter render.Presenter, onStatus func(pipeline.Status)) (*pipeline.Coordinator, error) {
	settings, err := a.config.Settings()
	if err != nil {
		return nil, err
	}
	backend := a.config.Output
	return pipeline.New(pipeline.Config{
		OutputFactory:   func() (output.Output, error) { return output.New(backend) },
		Encoder:         a.newEncoder(a.config, a.logger),
		Viewport:        viewport,
		Presenter:       presenter,
		FPS:             a.config.FPS,
		CaptureFPS:      a.config.CaptureFPS,
		FinalizeTimeout: a.config.FinalizeTimeout,
		Settings:        settings,
		Logger:          a.logger,
		OnStatus:        onStatus,
	})
}

// runPlay shows track in the TUI until the user quits
func (a *app) runPlay(ctx context.Context, track *pipeline.Track) error {
	vp := ui.NewViewport(ui.DefaultScale)
	bridge := ui.NewBridge()

	coord, err := a.newCoordinator(vp, ui.NewPresenter(vp, bridge), bridge.OfferStatus)
	if err != nil {
		return err
	}
	defer coord.Teardown()

	if err := coord.LoadTrack(track); err != nil {
		return err
	}
	if err := coord.Play(); err != nil {
		// space retries from inside the TUI
		a.logger.Warn("autoplay failed", zap.Error(err))
	}

	return ui.Run(ctx, ui.NewModel(coord, vp, a.config.OutputDir), bridge)
}

// runRecord plays track headless while recording, for duration or until the
// track ends, and saves the artifact
func (a *app) runRecord(ctx context.Context, track *pipeline.Track, duration time.Duration) (string, error) {
	ended := make(chan struct{}, 1)
	onStatus := func(s pipeline.Status) {
		if s.Ended {
			select {
			case ended <- struct{}{}:
			default:
			}
		}
	}

	viewport := render.FixedViewport{W: a.config.Width, H: a.config.Height}
	coord, err := a.newCoordinator(viewport, nil, onStatus)
	if err != nil {
		return "", err
	}
	defer coord.Teardown()

	if err := coord.LoadTrack(track); err != nil {
		return "", err
	}
	// one frame on the surface before capture fixes its size
	coord.Loop().Tick()

	if err := coord.StartRecording(); err != nil {
		return "", err
	}
	if err := coord.Play(); err != nil {
		coord.StopRecording()
		return "", err
	}
	a.logger.Info("recording",
		zap.String("track", track.Name),
		zap.Duration("duration", duration),
		zap.Int("width", a.config.Width),
		zap.Int("height", a.config.Height))

	var timeout <-chan time.Time
	if duration > 0 {
		t := time.NewTimer(duration)
		defer t.Stop()
		timeout = t.C
	}
	select {
	case <-ctx.Done():
		a.logger.Info("interrupted, finalizing recording")
	case <-timeout:
	case <-ended:
	}
	coord.StopRecording()

	waitCtx, cancel := context.WithTimeout(context.Background(), a.config.FinalizeTimeout)
	defer cancel()
	art, err := coord.WaitRecording(waitCtx)
	if err != nil {
		return "", fmt.Errorf("recording failed: %w", err)
	}

	path, err := art.Save(a.config.OutputDir)
	if err != nil {
		return "", err
	}
	a.logger.Info("recording saved",
		zap.String("path", path),
		zap.String("url", art.URL),
		zap.Int("bytes", art.Size()),
		zap.Int("frames", art.VideoFrames),
		zap.Duration("audio", art.AudioDuration))
	return path, nil
}

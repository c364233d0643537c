package pipeline

import (
	"context"
	"errors"
	"image"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/Resonate-Protocol/resonate-visualizer/internal/capture"
	"github.com/Resonate-Protocol/resonate-visualizer/internal/render"
	"github.com/Resonate-Protocol/resonate-visualizer/internal/synth"
	"github.com/Resonate-Protocol/resonate-visualizer/pkg/audio/decode"
	"github.com/Resonate-Protocol/resonate-visualizer/pkg/audio/output"
)

// countedOutput tracks how many outputs are open at once
type countedOutput struct {
	*output.Null
	counter *outputCounter
	once    sync.Once
}

func (o *countedOutput) Close() error {
	o.once.Do(func() { o.counter.release() })
	return o.Null.Close()
}

type outputCounter struct {
	mu      sync.Mutex
	live    int
	maxLive int
	created int
}

func (c *outputCounter) factory() (output.Output, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.live++
	c.created++
	if c.live > c.maxLive {
		c.maxLive = c.live
	}
	return &countedOutput{Null: output.NewNull(), counter: c}, nil
}

func (c *outputCounter) release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.live--
}

type memEncoder struct {
	mu      sync.Mutex
	streams []*memStream
}

func (e *memEncoder) Open(ctx context.Context, params capture.Params) (capture.Stream, error) {
	s := &memStream{chunks: make(chan []byte, 4)}
	e.mu.Lock()
	e.streams = append(e.streams, s)
	e.mu.Unlock()
	return s, nil
}

type memStream struct {
	mu     sync.Mutex
	frames int
	audio  int
	chunks chan []byte
	once   sync.Once
	err    error
}

func (s *memStream) WriteFrame(img *image.RGBA) error {
	s.mu.Lock()
	s.frames++
	s.mu.Unlock()
	return nil
}

func (s *memStream) Audio() io.Writer { return s }

func (s *memStream) Write(p []byte) (int, error) {
	s.mu.Lock()
	s.audio += len(p)
	s.mu.Unlock()
	return len(p), nil
}

func (s *memStream) Chunks() <-chan []byte { return s.chunks }

func (s *memStream) Close() error {
	s.once.Do(func() {
		s.chunks <- []byte("webm")
		close(s.chunks)
	})
	return nil
}

func (s *memStream) Abort() {
	s.mu.Lock()
	s.err = capture.ErrDiscarded
	s.mu.Unlock()
	s.once.Do(func() { close(s.chunks) })
}

func (s *memStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func newTestCoordinator(t *testing.T, counter *outputCounter, enc capture.Encoder, w, h int) *Coordinator {
	t.Helper()
	c, err := New(Config{
		OutputFactory:   counter.factory,
		Encoder:         enc,
		Viewport:        render.FixedViewport{W: w, H: h},
		FinalizeTimeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(c.Teardown)
	return c
}

func eventually(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestControlsWithoutTrack(t *testing.T) {
	c := newTestCoordinator(t, &outputCounter{}, &memEncoder{}, 64, 32)

	if err := c.Play(); !errors.Is(err, ErrNoTrack) {
		t.Fatalf("expected ErrNoTrack, got %v", err)
	}
	if err := c.StartRecording(); !errors.Is(err, ErrNoTrack) {
		t.Fatalf("expected ErrNoTrack, got %v", err)
	}
	c.Pause()
	c.StopRecording()
	if c.IsPlaying() {
		t.Fatal("nothing should be playing")
	}
	if c.RecordingArtifactURL() != "" {
		t.Fatal("no artifact expected")
	}
}

func TestLoadTrackFailureLeavesPreLoadState(t *testing.T) {
	counter := &outputCounter{}
	c := newTestCoordinator(t, counter, &memEncoder{}, 64, 32)

	bad := NewTrack("broken", func() (decode.Stream, error) {
		return nil, errors.New("corrupt file")
	})
	err := c.LoadTrack(bad)
	var gce *GraphConstructionError
	if !errors.As(err, &gce) {
		t.Fatalf("expected GraphConstructionError, got %v", err)
	}
	if c.Track() != nil || c.Status().Loaded {
		t.Fatal("failed load must leave no track")
	}
	if counter.live != 0 {
		t.Fatalf("output leaked: %d live", counter.live)
	}
	if c.Loop().Running() {
		t.Fatal("render loop should not run without a track")
	}
}

func TestOutputFactoryFailure(t *testing.T) {
	c, err := New(Config{
		OutputFactory: func() (output.Output, error) { return nil, errors.New("no device") },
		Viewport:      render.FixedViewport{W: 16, H: 16},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Teardown()

	err = c.LoadTrack(NewToneTrack(440, time.Second))
	var gce *GraphConstructionError
	if !errors.As(err, &gce) || gce.Stage != "output" {
		t.Fatalf("expected output construction error, got %v", err)
	}
}

type stuckOutput struct{ *output.Null }

func (stuckOutput) Resume() error { return errors.New("not allowed to start") }

func TestPlayResumeError(t *testing.T) {
	c, err := New(Config{
		OutputFactory: func() (output.Output, error) { return stuckOutput{output.NewNull()}, nil },
		Viewport:      render.FixedViewport{W: 16, H: 16},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Teardown()

	if err := c.LoadTrack(NewToneTrack(440, time.Second)); err != nil {
		t.Fatalf("LoadTrack: %v", err)
	}
	var re *ResumeError
	if err := c.Play(); !errors.As(err, &re) {
		t.Fatalf("expected ResumeError, got %v", err)
	}
	if c.IsPlaying() {
		t.Fatal("playback must not start after a resume failure")
	}
}

func TestPlayPause(t *testing.T) {
	c := newTestCoordinator(t, &outputCounter{}, &memEncoder{}, 32, 16)
	if err := c.LoadTrack(NewToneTrack(440, 0)); err != nil {
		t.Fatalf("LoadTrack: %v", err)
	}
	if c.IsPlaying() {
		t.Fatal("tracks load paused")
	}
	if err := c.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if !c.IsPlaying() {
		t.Fatal("expected playing")
	}
	c.Pause()
	if c.IsPlaying() {
		t.Fatal("expected paused")
	}
	if err := c.TogglePlay(); err != nil || !c.IsPlaying() {
		t.Fatalf("toggle should resume: %v", err)
	}
}

func TestTrackEndStopsPlayback(t *testing.T) {
	c := newTestCoordinator(t, &outputCounter{}, &memEncoder{}, 32, 16)
	if err := c.LoadTrack(NewToneTrack(440, 100*time.Millisecond)); err != nil {
		t.Fatalf("LoadTrack: %v", err)
	}
	if err := c.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if !eventually(t, 3*time.Second, func() bool { return c.Status().Ended }) {
		t.Fatal("track never ended")
	}
	if c.IsPlaying() {
		t.Fatal("ended track must not be playing")
	}
}

func TestPlayAfterEndRestartsTrack(t *testing.T) {
	counter := &outputCounter{}
	c := newTestCoordinator(t, counter, &memEncoder{}, 32, 16)
	track := NewToneTrack(440, 200*time.Millisecond)
	if err := c.LoadTrack(track); err != nil {
		t.Fatalf("LoadTrack: %v", err)
	}
	if err := c.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if !eventually(t, 3*time.Second, func() bool { return c.Status().Ended }) {
		t.Fatal("track never ended")
	}

	if err := c.Play(); err != nil {
		t.Fatalf("Play after end: %v", err)
	}
	if !c.IsPlaying() {
		t.Fatal("expected playing after restart")
	}
	if c.Track() != track {
		t.Error("restart must keep the same track")
	}
	if c.Status().Ended {
		t.Error("restarted track must not report ended")
	}

	counter.mu.Lock()
	created, maxLive := counter.created, counter.maxLive
	counter.mu.Unlock()
	if created != 2 {
		t.Errorf("expected a fresh output for the restart, got %d outputs", created)
	}
	if maxLive != 1 {
		t.Errorf("expected the old output closed first, got %d live", maxLive)
	}

	if !eventually(t, 3*time.Second, func() bool { return c.Status().Ended }) {
		t.Fatal("restarted track never ended")
	}
	if err := c.TogglePlay(); err != nil || !c.IsPlaying() {
		t.Fatalf("toggle after end should restart: %v", err)
	}
}

func TestTogglePlayConcurrent(t *testing.T) {
	c := newTestCoordinator(t, &outputCounter{}, &memEncoder{}, 32, 16)
	if err := c.LoadTrack(NewToneTrack(440, 0)); err != nil {
		t.Fatalf("LoadTrack: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := c.TogglePlay(); err != nil {
				t.Errorf("TogglePlay: %v", err)
			}
		}()
	}
	wg.Wait()

	// an even number of toggles from paused ends paused
	if c.IsPlaying() {
		t.Error("expected paused after an even number of toggles")
	}
}

func TestSetSettingsRejectsInvalid(t *testing.T) {
	c := newTestCoordinator(t, &outputCounter{}, &memEncoder{}, 16, 16)

	good := synth.Settings{Style: synth.Wave, Color: synth.Color{R: 1, G: 2, B: 3}, Sensitivity: 4}
	if err := c.SetSettings(good); err != nil {
		t.Fatalf("SetSettings: %v", err)
	}
	err := c.SetSettings(synth.Settings{Style: synth.Circle, Sensitivity: 13})
	var ise *InvalidSettingsError
	if !errors.As(err, &ise) {
		t.Fatalf("expected InvalidSettingsError, got %v", err)
	}
	if c.Settings() != good {
		t.Fatalf("previous settings not retained: %+v", c.Settings())
	}
}

func TestRecordingLifecycle(t *testing.T) {
	enc := &memEncoder{}
	c := newTestCoordinator(t, &outputCounter{}, enc, 64, 32)
	if err := c.LoadTrack(NewToneTrack(440, 0)); err != nil {
		t.Fatalf("LoadTrack: %v", err)
	}
	if err := c.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if err := c.StartRecording(); err != nil {
		t.Fatalf("StartRecording: %v", err)
	}
	if err := c.StartRecording(); !errors.Is(err, ErrRecordingActive) {
		t.Fatalf("expected ErrRecordingActive, got %v", err)
	}
	if c.RecordingArtifactURL() != "" {
		t.Fatal("artifact must not be exposed while recording")
	}

	time.Sleep(200 * time.Millisecond)
	c.StopRecording()
	c.StopRecording()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	art, err := c.WaitRecording(ctx)
	if err != nil {
		t.Fatalf("WaitRecording: %v", err)
	}
	if art.Name != "Tone 440 Hz.webm" || string(art.Data) != "webm" {
		t.Fatalf("unexpected artifact %q %q", art.Name, art.Data)
	}
	if c.RecordingArtifactURL() != art.URL {
		t.Fatal("artifact URL mismatch")
	}
	if !c.IsPlaying() {
		t.Fatal("recording must not affect playback")
	}

	// a new recording replaces the previous artifact
	if err := c.StartRecording(); err != nil {
		t.Fatalf("second StartRecording: %v", err)
	}
	if c.RecordingArtifactURL() != "" {
		t.Fatal("previous artifact should be replaced")
	}
}

func TestRecordingUnsupported(t *testing.T) {
	c := newTestCoordinator(t, &outputCounter{}, nil, 64, 32)
	if err := c.LoadTrack(NewToneTrack(440, 0)); err != nil {
		t.Fatalf("LoadTrack: %v", err)
	}
	if err := c.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}
	var uce *UnsupportedCaptureError
	if err := c.StartRecording(); !errors.As(err, &uce) {
		t.Fatalf("expected UnsupportedCaptureError, got %v", err)
	}
	if !c.IsPlaying() {
		t.Fatal("failed recording must leave playback untouched")
	}
}

func TestTrackSwitchFinalizesRecordingFirst(t *testing.T) {
	counter := &outputCounter{}
	enc := &memEncoder{}

	var c *Coordinator
	var stateAtRebuild capture.State
	factoryCalls := 0
	factory := func() (output.Output, error) {
		factoryCalls++
		if factoryCalls == 2 {
			// runs while the coordinator builds the second graph
			stateAtRebuild = c.session.State()
		}
		return counter.factory()
	}

	var err error
	c, err = New(Config{
		OutputFactory:   factory,
		Encoder:         enc,
		Viewport:        render.FixedViewport{W: 32, H: 16},
		FinalizeTimeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Teardown()

	if err := c.LoadTrack(NewToneTrack(440, 0)); err != nil {
		t.Fatalf("LoadTrack: %v", err)
	}
	if err := c.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if err := c.StartRecording(); err != nil {
		t.Fatalf("StartRecording: %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	if err := c.LoadTrack(NewToneTrack(220, 0)); err != nil {
		t.Fatalf("second LoadTrack: %v", err)
	}
	if stateAtRebuild != capture.Complete {
		t.Fatalf("recording was %s when the new graph was built", stateAtRebuild)
	}
	if _, ok := c.Artifact(); !ok {
		t.Fatal("finalized recording should keep its artifact")
	}
	if counter.maxLive != 1 {
		t.Fatalf("expected at most one live graph, saw %d", counter.maxLive)
	}
	if c.Track().Name != "Tone 220 Hz" {
		t.Fatalf("unexpected track %s", c.Track().Name)
	}
}

func TestTeardownIdempotent(t *testing.T) {
	counter := &outputCounter{}
	c := newTestCoordinator(t, counter, &memEncoder{}, 32, 16)
	if err := c.LoadTrack(NewToneTrack(440, 0)); err != nil {
		t.Fatalf("LoadTrack: %v", err)
	}
	if err := c.StartRecording(); err != nil {
		t.Fatalf("StartRecording: %v", err)
	}
	c.Teardown()
	c.Teardown()

	if counter.live != 0 {
		t.Fatalf("expected no live outputs, got %d", counter.live)
	}
	if c.Loop().Running() {
		t.Fatal("loop still running")
	}
	if st := c.Status(); st.Loaded || st.Recording != capture.Complete {
		t.Fatalf("unexpected status after teardown %+v", st)
	}
}

func TestStatusObserver(t *testing.T) {
	var mu sync.Mutex
	var seen []Status
	c, err := New(Config{
		OutputFactory: func() (output.Output, error) { return output.NewNull(), nil },
		Viewport:      render.FixedViewport{W: 16, H: 16},
		OnStatus: func(s Status) {
			mu.Lock()
			seen = append(seen, s)
			mu.Unlock()
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Teardown()

	if err := c.LoadTrack(NewToneTrack(440, 0)); err != nil {
		t.Fatalf("LoadTrack: %v", err)
	}
	if err := c.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) < 2 {
		t.Fatalf("expected status updates, got %d", len(seen))
	}
	last := seen[len(seen)-1]
	if !last.Playing || last.Track != "Tone 440 Hz" {
		t.Fatalf("unexpected last status %+v", last)
	}
}

// columnHeight counts bar-colored pixels in column x
func columnHeight(img *image.RGBA, x int) int {
	n := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		if img.RGBAAt(x, y).R > 100 {
			n++
		}
	}
	return n
}

func TestToneDrivesBars(t *testing.T) {
	const w, h = 2048, 100
	c := newTestCoordinator(t, &outputCounter{}, &memEncoder{}, w, h)

	settings, err := synth.ParseSettings("bars", "#ef4444", 8)
	if err != nil {
		t.Fatalf("ParseSettings: %v", err)
	}
	if err := c.SetSettings(settings); err != nil {
		t.Fatalf("SetSettings: %v", err)
	}
	if err := c.LoadTrack(NewToneTrack(440, 0)); err != nil {
		t.Fatalf("LoadTrack: %v", err)
	}
	if err := c.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}

	// 256 bars, 8px slots, stride 4: bar 5 reads bin 20 next to the
	// 440 Hz peak at bin 18.8, bar 100 reads bin 400
	near, far := 5*8+4, 100*8+4
	ok := eventually(t, 5*time.Second, func() bool {
		var nh, fh int
		c.Surface().View(func(img *image.RGBA) {
			if img.Bounds().Dx() != w {
				return
			}
			nh = columnHeight(img, near)
			fh = columnHeight(img, far)
		})
		return nh >= 40 && fh <= 4
	})
	if !ok {
		var nh, fh int
		c.Surface().View(func(img *image.RGBA) {
			nh = columnHeight(img, near)
			fh = columnHeight(img, far)
		})
		t.Fatalf("expected tall bar near the tone: near=%d far=%d", nh, fh)
	}
}

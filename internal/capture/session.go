// ABOUTME: Recording session muxing rendered frames with graph audio
// ABOUTME: The audio clock decides how many frames are due; chunks collect in order
package capture

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/image/draw"

	"github.com/Resonate-Protocol/resonate-visualizer/pkg/audio"
	"github.com/Resonate-Protocol/resonate-visualizer/pkg/audio/encode"
)

// DefaultQueueBlocks buffers five seconds of 20ms audio blocks
const DefaultQueueBlocks = 250

// FrameSource hands out copies of the latest rendered frame
type FrameSource interface {
	CopyFrame(dst *image.RGBA) (*image.RGBA, uint64)
}

// Config wires a session
type Config struct {
	Encoder     Encoder
	TrackName   string
	FPS         int
	QueueBlocks int
	Logger      *zap.Logger
	// OnComplete is called once the session reaches Complete
	OnComplete func(*Session)
}

// Stats are running counters of a session
type Stats struct {
	VideoFrames   int
	AudioDuration time.Duration
	DroppedBlocks int
	Chunks        int
	Bytes         int
}

// Session records one take. It is single-use: Idle → Active → Finalizing → Complete.
type Session struct {
	id     uuid.UUID
	config Config
	logger *zap.Logger

	mu       sync.Mutex
	state    State
	queue    chan []int32
	stream   Stream
	artifact *Artifact
	err      error
	stats    Stats

	cancel context.CancelFunc
	done   chan struct{}

	// writer goroutine only
	frames    FrameSource
	format    audio.Format
	ogg       *encode.OggOpusWriter
	width     int
	height    int
	samples   int64
	latest    *image.RGBA
	scaled    *image.RGBA
	lastFrame uint64
	scaledOK  bool

	// collector goroutine only
	chunks [][]byte
}

// NewSession creates an idle session
func NewSession(config Config) *Session {
	if config.FPS <= 0 {
		config.FPS = DefaultFPS
	}
	if config.QueueBlocks <= 0 {
		config.QueueBlocks = DefaultQueueBlocks
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	id := uuid.New()
	return &Session{
		id:     id,
		config: config,
		logger: logger.Named("capture").With(zap.String("session", id.String())),
		done:   make(chan struct{}),
	}
}

// ID returns the session identifier
func (s *Session) ID() uuid.UUID { return s.id }

// State returns the current lifecycle state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start begins capturing frames from frames and audio in format
func (s *Session) Start(frames FrameSource, format audio.Format) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Idle {
		return ErrNotIdle
	}
	if s.config.Encoder == nil {
		return &UnsupportedError{Reason: "no encoder configured"}
	}
	if format.SampleRate != 48000 || format.Channels < 1 || format.Channels > 2 {
		return &UnsupportedError{Reason: "audio must be 48kHz mono or stereo, got " + format.String()}
	}

	first, frameNo := frames.CopyFrame(nil)
	b := first.Bounds()
	// yuv420p needs even dimensions
	w, h := b.Dx()&^1, b.Dy()&^1
	if w == 0 || h == 0 {
		return &UnsupportedError{Reason: "surface is empty"}
	}

	ctx, cancel := context.WithCancel(context.Background())
	params := Params{Width: w, Height: h, FPS: s.config.FPS, Audio: format}
	stream, err := s.config.Encoder.Open(ctx, params)
	if err != nil {
		cancel()
		return &UnsupportedError{Reason: "failed to open encoder", Err: err}
	}

	ogg, err := encode.NewOggOpus(stream.Audio(), format)
	if err != nil {
		stream.Abort()
		cancel()
		return &UnsupportedError{Reason: "failed to start audio encoder", Err: err}
	}

	s.frames = frames
	s.format = format
	s.ogg = ogg
	s.width, s.height = w, h
	s.latest = first
	s.lastFrame = frameNo
	s.scaled = image.NewRGBA(image.Rect(0, 0, w, h))
	s.stream = stream
	s.cancel = cancel
	s.queue = make(chan []int32, s.config.QueueBlocks)
	s.state = Active

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.writeLoop()
	}()
	go func() {
		defer wg.Done()
		s.collect()
	}()
	go func() {
		wg.Wait()
		s.complete()
	}()

	s.logger.Info("recording started",
		zap.Int("width", w),
		zap.Int("height", h),
		zap.Int("fps", s.config.FPS),
		zap.Stringer("audio", format))
	return nil
}

// WriteAudio queues one block of graph audio. It never blocks; when the
// queue is full the block is dropped.
func (s *Session) WriteAudio(samples []int32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Active {
		return
	}
	block := make([]int32, len(samples))
	copy(block, samples)
	select {
	case s.queue <- block:
	default:
		s.stats.DroppedBlocks++
		if s.stats.DroppedBlocks%50 == 1 {
			s.logger.Warn("recording queue full, dropping audio", zap.Int("dropped", s.stats.DroppedBlocks))
		}
	}
}

// Stop begins finalizing. It returns immediately; use Done or Wait for the
// artifact. Stop is a no-op unless the session is Active.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Active {
		return
	}
	s.state = Finalizing
	close(s.queue)
	s.logger.Info("recording finalizing")
}

// Discard force-completes the session without an artifact
func (s *Session) Discard() {
	s.mu.Lock()
	switch s.state {
	case Idle:
		s.state = Complete
		s.err = ErrDiscarded
		s.mu.Unlock()
		close(s.done)
		return
	case Complete:
		s.mu.Unlock()
		return
	case Active:
		close(s.queue)
	}
	s.state = Finalizing
	s.err = ErrDiscarded
	stream := s.stream
	s.mu.Unlock()

	s.logger.Warn("recording discarded")
	stream.Abort()
}

// Done is closed when the session reaches Complete
func (s *Session) Done() <-chan struct{} { return s.done }

// Wait blocks until Complete or ctx ends
func (s *Session) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Artifact returns the recording once the session completed successfully
func (s *Session) Artifact() (*Artifact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Complete || s.artifact == nil {
		return nil, false
	}
	return s.artifact, true
}

// Err reports why a completed session has no artifact
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Stats returns a snapshot of the session counters
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *Session) fail(err error) {
	s.mu.Lock()
	first := s.err == nil
	if first {
		s.err = err
	}
	stream := s.stream
	s.mu.Unlock()

	if first {
		s.logger.Error("recording failed", zap.Error(err))
		stream.Abort()
	}
}

func (s *Session) failed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err != nil
}

// writeLoop encodes audio and emits every video frame the audio clock has made due
func (s *Session) writeLoop() {
	for block := range s.queue {
		if s.failed() {
			continue
		}
		if err := s.ogg.Write(block); err != nil {
			s.fail(err)
			continue
		}
		s.samples += int64(s.format.Frames(len(block)))

		due := int(s.samples * int64(s.config.FPS) / int64(s.format.SampleRate))
		for s.videoFrames() < due {
			if err := s.stream.WriteFrame(s.nextFrame()); err != nil {
				s.fail(err)
				break
			}
			s.mu.Lock()
			s.stats.VideoFrames++
			s.mu.Unlock()
		}

		s.mu.Lock()
		s.stats.AudioDuration = s.ogg.Duration()
		s.mu.Unlock()
	}

	if !s.failed() {
		if err := s.ogg.Close(); err != nil {
			s.fail(err)
		}
	}
	if err := s.stream.Close(); err != nil && !s.failed() {
		s.fail(err)
	}
}

func (s *Session) videoFrames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats.VideoFrames
}

// nextFrame returns the latest surface frame at capture size
func (s *Session) nextFrame() *image.RGBA {
	img, frameNo := s.frames.CopyFrame(s.latest)
	s.latest = img
	if s.scaledOK && frameNo == s.lastFrame {
		return s.scaled
	}
	s.lastFrame = frameNo
	s.scaledOK = true

	b := img.Bounds()
	if b.Dx() == s.width && b.Dy() == s.height {
		draw.Draw(s.scaled, s.scaled.Bounds(), img, b.Min, draw.Src)
	} else {
		draw.ApproxBiLinear.Scale(s.scaled, s.scaled.Bounds(), img, b, draw.Src, nil)
	}
	return s.scaled
}

// collect appends non-empty chunks in delivery order
func (s *Session) collect() {
	for chunk := range s.stream.Chunks() {
		if len(chunk) == 0 {
			continue
		}
		s.chunks = append(s.chunks, chunk)
		s.mu.Lock()
		s.stats.Chunks++
		s.stats.Bytes += len(chunk)
		s.mu.Unlock()
	}
	if err := s.stream.Err(); err != nil {
		s.mu.Lock()
		if s.err == nil {
			s.err = err
		}
		s.mu.Unlock()
	}
}

func (s *Session) complete() {
	s.cancel()

	s.mu.Lock()
	if s.err == nil {
		total := 0
		for _, c := range s.chunks {
			total += len(c)
		}
		data := make([]byte, 0, total)
		for _, c := range s.chunks {
			data = append(data, c...)
		}
		a := newArtifact(s.id, s.config.TrackName, data)
		a.Width, a.Height = s.width, s.height
		a.VideoFrames = s.stats.VideoFrames
		a.AudioDuration = s.stats.AudioDuration
		s.artifact = a
	}
	s.chunks = nil
	s.state = Complete
	s.frames = nil
	err := s.err
	stats := s.stats
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("recording completed without artifact", zap.Error(err))
	} else {
		s.logger.Info("recording complete",
			zap.Int("frames", stats.VideoFrames),
			zap.Duration("audio", stats.AudioDuration),
			zap.Int("bytes", stats.Bytes),
			zap.Int("dropped_blocks", stats.DroppedBlocks))
	}
	close(s.done)
	if s.config.OnComplete != nil {
		s.config.OnComplete(s)
	}
}

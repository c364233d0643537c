// ABOUTME: ffmpeg-backed WebM muxer: raw RGBA video on stdin, Ogg/Opus on fd 3
// ABOUTME: VP9 video is encoded, audio is copied, WebM chunks stream from stdout
package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"strconv"
	"sync"

	"go.uber.org/zap"
)

const (
	// DefaultFFmpeg is looked up on PATH
	DefaultFFmpeg       = "ffmpeg"
	DefaultVideoBitrate = "2M"

	chunkSize      = 32 * 1024
	stderrLimit    = 8 * 1024
	audioQueueSize = 256
)

// FFmpeg encodes WebM (VP9 + Opus) through an ffmpeg subprocess
type FFmpeg struct {
	Path         string
	VideoBitrate string
	Logger       *zap.Logger
}

// NewFFmpeg returns an encoder using the ffmpeg binary at path
func NewFFmpeg(path string, logger *zap.Logger) *FFmpeg {
	if path == "" {
		path = DefaultFFmpeg
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FFmpeg{Path: path, VideoBitrate: DefaultVideoBitrate, Logger: logger}
}

// Available reports whether the ffmpeg binary can be found
func (f *FFmpeg) Available() error {
	if _, err := exec.LookPath(f.Path); err != nil {
		return &UnsupportedError{Reason: "ffmpeg not found", Err: err}
	}
	return nil
}

// Args returns the ffmpeg command line for params
func (f *FFmpeg) Args(params Params) []string {
	bitrate := f.VideoBitrate
	if bitrate == "" {
		bitrate = DefaultVideoBitrate
	}
	return []string{
		"-hide_banner", "-loglevel", "error",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", params.Width, params.Height),
		"-r", strconv.Itoa(params.FPS),
		"-i", "pipe:0",
		"-f", "ogg",
		"-i", "pipe:3",
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "libvpx-vp9",
		"-deadline", "realtime",
		"-cpu-used", "8",
		"-b:v", bitrate,
		"-pix_fmt", "yuv420p",
		"-c:a", "copy",
		"-f", "webm",
		"pipe:1",
	}
}

// Open starts ffmpeg for params
func (f *FFmpeg) Open(ctx context.Context, params Params) (Stream, error) {
	if params.Width <= 0 || params.Height <= 0 || params.FPS <= 0 {
		return nil, fmt.Errorf("invalid capture params %dx%d@%d", params.Width, params.Height, params.FPS)
	}
	if err := f.Available(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(ctx, f.Path, f.Args(params)...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create video pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create output pipe: %w", err)
	}
	audioRead, audioWrite, err := os.Pipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create audio pipe: %w", err)
	}
	cmd.ExtraFiles = []*os.File{audioRead}
	stderr := &limitedBuffer{limit: stderrLimit}
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		cancel()
		audioRead.Close()
		audioWrite.Close()
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}
	// the child holds its own copy
	audioRead.Close()

	s := &ffmpegStream{
		cmd:      cmd,
		cancel:   cancel,
		video:    stdin,
		audioOut: audioWrite,
		audioQ:   make(chan []byte, audioQueueSize),
		chunks:   make(chan []byte, 16),
		stderr:   stderr,
		logger:   f.Logger.Named("ffmpeg"),
		rowBytes: params.Width * 4,
		height:   params.Height,
	}
	s.audio = &queueWriter{stream: s}

	go s.pumpAudio()
	go s.readOutput(stdout)

	s.logger.Debug("ffmpeg started", zap.Int("pid", cmd.Process.Pid), zap.Strings("args", f.Args(params)))
	return s, nil
}

type ffmpegStream struct {
	cmd    *exec.Cmd
	cancel context.CancelFunc
	logger *zap.Logger

	video    io.WriteCloser
	audio    *queueWriter
	audioOut *os.File
	audioQ   chan []byte
	chunks   chan []byte
	stderr   *limitedBuffer

	rowBytes int
	height   int

	mu         sync.Mutex
	audioErr   error
	closed     bool
	aborted    bool
	err        error
	closeAudio sync.Once
}

func (s *ffmpegStream) WriteFrame(img *image.RGBA) error {
	b := img.Bounds()
	if b.Dx()*4 != s.rowBytes || b.Dy() != s.height {
		return fmt.Errorf("frame is %dx%d, want %dx%d", b.Dx(), b.Dy(), s.rowBytes/4, s.height)
	}
	if img.Stride == s.rowBytes {
		start := img.PixOffset(b.Min.X, b.Min.Y)
		_, err := s.video.Write(img.Pix[start : start+s.rowBytes*s.height])
		return err
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := img.PixOffset(b.Min.X, y)
		if _, err := s.video.Write(img.Pix[off : off+s.rowBytes]); err != nil {
			return err
		}
	}
	return nil
}

func (s *ffmpegStream) Audio() io.Writer { return s.audio }

func (s *ffmpegStream) Chunks() <-chan []byte { return s.chunks }

// Close ends both inputs; ffmpeg flushes and exits
func (s *ffmpegStream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.closeAudio.Do(func() { close(s.audioQ) })
	return s.video.Close()
}

func (s *ffmpegStream) Abort() {
	s.mu.Lock()
	s.aborted = true
	s.mu.Unlock()
	s.cancel()
}

func (s *ffmpegStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// pumpAudio drains queued Ogg pages into fd 3 so a full audio pipe never
// stalls the video writer
func (s *ffmpegStream) pumpAudio() {
	defer s.audioOut.Close()
	for page := range s.audioQ {
		if _, err := s.audioOut.Write(page); err != nil {
			s.mu.Lock()
			if s.audioErr == nil {
				s.audioErr = err
			}
			s.mu.Unlock()
			for range s.audioQ {
			}
			return
		}
	}
}

func (s *ffmpegStream) readOutput(stdout io.Reader) {
	defer close(s.chunks)

	buf := make([]byte, chunkSize)
	for {
		n, err := stdout.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			s.chunks <- chunk
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.logger.Debug("output read ended", zap.Error(err))
			}
			break
		}
	}

	waitErr := s.cmd.Wait()
	s.cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.aborted:
		s.err = ErrDiscarded
	case waitErr != nil:
		s.err = fmt.Errorf("ffmpeg exited: %w: %s", waitErr, bytes.TrimSpace(s.stderr.Bytes()))
	case s.audioErr != nil:
		s.err = fmt.Errorf("audio pipe: %w", s.audioErr)
	}
	if s.err != nil {
		s.logger.Warn("ffmpeg failed", zap.Error(s.err))
	}
}

type queueWriter struct {
	stream *ffmpegStream
}

func (w *queueWriter) Write(p []byte) (int, error) {
	s := w.stream
	s.mu.Lock()
	closed, err := s.closed, s.audioErr
	s.mu.Unlock()
	if err != nil {
		return 0, err
	}
	if closed {
		return 0, io.ErrClosedPipe
	}
	page := make([]byte, len(p))
	copy(page, p)
	s.audioQ <- page
	return len(p), nil
}

// limitedBuffer keeps the first limit bytes written
type limitedBuffer struct {
	mu    sync.Mutex
	buf   bytes.Buffer
	limit int
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if room := b.limit - b.buf.Len(); room > 0 {
		if len(p) > room {
			b.buf.Write(p[:room])
		} else {
			b.buf.Write(p)
		}
	}
	return len(p), nil
}

func (b *limitedBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Bytes()
}

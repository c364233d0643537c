// ABOUTME: Audio graph wiring one track to the analysis tap, playback output and recorder
// ABOUTME: A 20ms pump is the audio clock; graphs are built per track and never rebound
package graph

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Resonate-Protocol/resonate-visualizer/internal/analyser"
	"github.com/Resonate-Protocol/resonate-visualizer/pkg/audio"
	"github.com/Resonate-Protocol/resonate-visualizer/pkg/audio/decode"
	"github.com/Resonate-Protocol/resonate-visualizer/pkg/audio/output"
	"github.com/Resonate-Protocol/resonate-visualizer/pkg/audio/resample"
)

// Source opens a fresh stream for a track
type Source interface {
	Open() (decode.Stream, error)
}

// SourceFunc adapts a function to Source
type SourceFunc func() (decode.Stream, error)

func (f SourceFunc) Open() (decode.Stream, error) { return f() }

// Recorder receives every block the graph produces while attached
type Recorder interface {
	WriteAudio(samples []int32)
}

// Config holds optional graph settings
type Config struct {
	Logger *zap.Logger
	// OnEnd is called from the pump when the track runs out
	OnEnd func()
}

// Graph is source → tap → playback output, plus an optional recorder
type Graph struct {
	logger *zap.Logger
	onEnd  func()
	stream decode.Stream
	format audio.Format
	tap    *analyser.Analyser
	sink   output.Output

	mu       sync.Mutex
	playing  bool
	ended    bool
	recorder Recorder
	offset   int64 // frames pumped
	played   int64 // frames of track audio played

	block []int32

	stopChan  chan struct{}
	done      chan struct{}
	started   bool
	closeOnce sync.Once
}

// New opens source and sink and wires them. The sink is opened suspended.
func New(source Source, sink output.Output, config Config) (*Graph, error) {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	stream, err := source.Open()
	if err != nil {
		return nil, &ConstructionError{Stage: "source", Err: err}
	}
	stream = resample.ToGraph(stream)
	format := audio.GraphFormat()

	if err := sink.Open(format); err != nil {
		stream.Close()
		return nil, &ConstructionError{Stage: "output", Err: err}
	}

	g := &Graph{
		logger:   logger.Named("graph"),
		onEnd:    config.OnEnd,
		stream:   stream,
		format:   format,
		tap:      analyser.New(format.Channels),
		sink:     sink,
		block:    make([]int32, audio.BlockFrames*format.Channels),
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
	g.logger.Info("audio graph constructed", zap.Stringer("format", format))
	return g, nil
}

// Tap returns the analysis tap
func (g *Graph) Tap() *analyser.Analyser { return g.tap }

// Format returns the graph PCM format
func (g *Graph) Format() audio.Format { return g.format }

// Start runs the pump on a 20ms ticker
func (g *Graph) Start() {
	g.mu.Lock()
	if g.started {
		g.mu.Unlock()
		return
	}
	g.started = true
	g.mu.Unlock()

	go func() {
		defer close(g.done)

		ticker := time.NewTicker(audio.BlockDuration)
		defer ticker.Stop()

		for {
			select {
			case <-g.stopChan:
				return
			case <-ticker.C:
				g.Step()
			}
		}
	}()
}

// Step pumps one block. Paused graphs emit silence to the tap and recorder.
// Step must not be called while the pump started by Start is running.
func (g *Graph) Step() {
	g.mu.Lock()
	playing := g.playing
	recorder := g.recorder
	g.mu.Unlock()

	block := g.block
	ended := false
	if playing {
		n, err := readFull(g.stream, block)
		for i := n; i < len(block); i++ {
			block[i] = 0
		}
		if err != nil {
			ended = true
			if !errors.Is(err, io.EOF) {
				g.logger.Error("track read failed", zap.Error(err))
			}
		}
		g.mu.Lock()
		g.played += int64(n / g.format.Channels)
		g.mu.Unlock()
	} else {
		for i := range block {
			block[i] = 0
		}
	}

	g.tap.Write(block)
	if playing {
		if err := g.sink.Write(block); err != nil {
			g.logger.Warn("playback write failed", zap.Error(err))
		}
	}
	if recorder != nil {
		recorder.WriteAudio(block)
	}

	g.mu.Lock()
	g.offset += int64(audio.BlockFrames)
	if ended {
		g.playing = false
		g.ended = true
	}
	g.mu.Unlock()

	if ended {
		g.logger.Info("track ended", zap.Duration("position", g.Position()))
		if err := g.sink.Suspend(); err != nil {
			g.logger.Warn("failed to suspend output", zap.Error(err))
		}
		if g.onEnd != nil {
			g.onEnd()
		}
	}
}

func readFull(stream decode.Stream, buf []int32) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := stream.Read(buf[n:])
		n += m
		if err != nil {
			return n, err
		}
		if m == 0 {
			return n, io.ErrNoProgress
		}
	}
	return n, nil
}

// Play resumes the output and starts pulling the track
func (g *Graph) Play() error {
	g.mu.Lock()
	ended := g.ended
	g.mu.Unlock()
	if ended {
		return &ResumeError{Err: fmt.Errorf("track has ended")}
	}

	if err := g.sink.Resume(); err != nil {
		return &ResumeError{Err: err}
	}

	g.mu.Lock()
	g.playing = true
	g.mu.Unlock()
	return nil
}

// Pause stops pulling the track and suspends the output
func (g *Graph) Pause() {
	g.mu.Lock()
	g.playing = false
	g.mu.Unlock()

	if err := g.sink.Suspend(); err != nil {
		g.logger.Warn("failed to suspend output", zap.Error(err))
	}
}

// Playing reports whether the track is being played
func (g *Graph) Playing() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.playing
}

// Ended reports whether the track ran out
func (g *Graph) Ended() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ended
}

// Position returns how much of the track has been played
func (g *Graph) Position() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	return time.Duration(g.played) * time.Second / time.Duration(g.format.SampleRate)
}

// AttachRecorder routes every following block to r
func (g *Graph) AttachRecorder(r Recorder) {
	g.mu.Lock()
	g.recorder = r
	g.mu.Unlock()
}

// DetachRecorder stops routing blocks to the recorder
func (g *Graph) DetachRecorder() {
	g.mu.Lock()
	g.recorder = nil
	g.mu.Unlock()
}

// Close stops the pump and releases the output and stream. Safe to call more than once.
func (g *Graph) Close() error {
	var err error
	g.closeOnce.Do(func() {
		close(g.stopChan)
		g.mu.Lock()
		started := g.started
		g.playing = false
		g.recorder = nil
		g.mu.Unlock()
		if started {
			<-g.done
		}

		if cerr := g.sink.Close(); cerr != nil {
			err = fmt.Errorf("failed to close output: %w", cerr)
		}
		if cerr := g.stream.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close stream: %w", cerr)
		}
		g.logger.Info("audio graph closed")
	})
	return err
}

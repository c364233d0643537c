//go:build portaudio

// ABOUTME: PortAudio output implementation
// ABOUTME: Cross-platform audio output pulling from a ring buffer in the stream callback
package output

import (
	"fmt"
	"sync"

	"github.com/Resonate-Protocol/resonate-visualizer/pkg/audio"
	"github.com/gordonklaus/portaudio"
)

// PortAudio output implementation
type PortAudio struct {
	volume
	mu      sync.Mutex
	stream  *portaudio.Stream
	ring    *RingBuffer
	scratch []int32
	scaled  []int32
	running bool
}

// NewPortAudio creates a new PortAudio output
func NewPortAudio() *PortAudio {
	p := &PortAudio{}
	p.level = 100
	return p
}

// Open initializes PortAudio and opens a stopped stream
func (p *PortAudio) Open(format audio.Format) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	p.ring = NewRingBuffer(format.SampleRate * format.Channels / 2)
	stream, err := portaudio.OpenDefaultStream(0, format.Channels, float64(format.SampleRate), 0, func(out []int16) {
		if cap(p.scratch) < len(out) {
			p.scratch = make([]int32, len(out))
		}
		samples := p.scratch[:len(out)]
		p.ring.Read(samples)
		for i, s := range samples {
			out[i] = audio.SampleToInt16(s)
		}
	})
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("failed to open stream: %w", err)
	}

	p.stream = stream
	return nil
}

// Resume starts the stream
func (p *PortAudio) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream == nil {
		return fmt.Errorf("output not opened")
	}
	if p.running {
		return nil
	}
	if err := p.stream.Start(); err != nil {
		return fmt.Errorf("failed to start stream: %w", err)
	}
	p.running = true
	return nil
}

// Suspend stops the stream
func (p *PortAudio) Suspend() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream == nil || !p.running {
		return nil
	}
	p.running = false
	return p.stream.Stop()
}

// Write queues audio samples
func (p *PortAudio) Write(samples []int32) error {
	if p.ring == nil {
		return fmt.Errorf("output not opened")
	}
	p.scaled = p.apply(p.scaled, samples)
	p.ring.Write(p.scaled)
	return nil
}

// Close releases resources
func (p *PortAudio) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream == nil {
		return nil
	}
	if p.running {
		if err := p.stream.Stop(); err != nil {
			return err
		}
		p.running = false
	}
	if err := p.stream.Close(); err != nil {
		return err
	}
	p.stream = nil
	return portaudio.Terminate()
}

// ABOUTME: Ring buffer between the audio pump and device callbacks
// ABOUTME: Also adapts the buffer to an io.Reader of 16-bit PCM for pull-based players
package output

import (
	"sync"

	"github.com/Resonate-Protocol/resonate-visualizer/pkg/audio"
	"github.com/Resonate-Protocol/resonate-visualizer/pkg/audio/encode"
)

// RingBuffer provides thread-safe circular buffer for audio samples
type RingBuffer struct {
	buffer   []int32
	readPos  int
	writePos int
	size     int
	count    int
	dropped  int
	mu       sync.Mutex
}

// NewRingBuffer creates a ring buffer with given capacity (in samples)
func NewRingBuffer(capacity int) *RingBuffer {
	return &RingBuffer{
		buffer: make([]int32, capacity),
		size:   capacity,
	}
}

// Write adds samples to the ring buffer, dropping what does not fit
func (rb *RingBuffer) Write(samples []int32) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	written := 0
	for i := 0; i < len(samples) && rb.count < rb.size; i++ {
		rb.buffer[rb.writePos] = samples[i]
		rb.writePos = (rb.writePos + 1) % rb.size
		rb.count++
		written++
	}
	rb.dropped += len(samples) - written
	return written
}

// Read retrieves samples, zero-filling on underrun
func (rb *RingBuffer) Read(samples []int32) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	read := 0
	for i := 0; i < len(samples) && rb.count > 0; i++ {
		samples[i] = rb.buffer[rb.readPos]
		rb.readPos = (rb.readPos + 1) % rb.size
		rb.count--
		read++
	}

	for i := read; i < len(samples); i++ {
		samples[i] = 0
	}

	return read
}

// Available returns the number of samples available to read
func (rb *RingBuffer) Available() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.count
}

// Dropped returns the number of samples discarded because the buffer was full
func (rb *RingBuffer) Dropped() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.dropped
}

// pcm16Reader serves ring buffer contents as signed 16-bit little-endian
// bytes. It never returns EOF; underruns read as silence.
type pcm16Reader struct {
	ring    *RingBuffer
	enc     *encode.PCMEncoder
	samples []int32
}

func newPCM16Reader(ring *RingBuffer, format audio.Format) (*pcm16Reader, error) {
	format.Codec = "pcm"
	format.BitDepth = 16
	enc, err := encode.NewPCM(format)
	if err != nil {
		return nil, err
	}
	return &pcm16Reader{ring: ring, enc: enc}, nil
}

func (r *pcm16Reader) Read(p []byte) (int, error) {
	n := len(p) / r.enc.BytesPerSample()
	if n == 0 {
		return 0, nil
	}
	if cap(r.samples) < n {
		r.samples = make([]int32, n)
	}
	samples := r.samples[:n]
	r.ring.Read(samples)
	b, err := r.enc.Encode(samples)
	if err != nil {
		return 0, err
	}
	return copy(p, b), nil
}

// ABOUTME: Analysis tap holding the most recent window of graph audio
// ABOUTME: Produces smoothed byte spectra and time-domain snapshots with gonum's FFT
package analyser

import (
	"math"
	"math/cmplx"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/Resonate-Protocol/resonate-visualizer/pkg/audio"
)

const (
	// FFTSize is the analysis window in samples
	FFTSize = 2048
	// Bins is the length of both snapshot arrays
	Bins = FFTSize / 2
	// Smoothing is the time constant blending each spectrum with the previous one
	Smoothing = 0.85

	MinDecibels = -100.0
	MaxDecibels = -30.0
)

// Snapshot is one tick's view of the signal
type Snapshot struct {
	Frequency  [Bins]byte // magnitude per bin, 0..255 over [MinDecibels, MaxDecibels]
	TimeDomain [Bins]byte // waveform, 128 is zero
}

// Silent returns the snapshot of an absent or silent signal
func Silent() Snapshot {
	var s Snapshot
	for i := range s.TimeDomain {
		s.TimeDomain[i] = 128
	}
	return s
}

// Analyser is the analysis tap of an audio graph. The graph pump writes
// blocks; the render loop takes snapshots.
type Analyser struct {
	channels int

	mu   sync.Mutex
	ring [FFTSize]float64
	pos  int
	mono []float64

	// snapshot state, only touched under snapMu
	snapMu   sync.Mutex
	fft      *fourier.FFT
	window   [FFTSize]float64
	frame    [FFTSize]float64
	windowed []float64
	coeffs   []complex128
	smoothed [Bins]float64
}

// New creates an analyser for interleaved input with the given channel count
func New(channels int) *Analyser {
	a := &Analyser{
		channels: channels,
		fft:      fourier.NewFFT(FFTSize),
		windowed: make([]float64, FFTSize),
	}
	for n := range a.window {
		x := 2 * math.Pi * float64(n) / FFTSize
		a.window[n] = 0.42 - 0.5*math.Cos(x) + 0.08*math.Cos(2*x)
	}
	return a
}

// Write mixes a block to mono and appends it to the analysis window
func (a *Analyser) Write(samples []int32) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.mono = audio.Mono(a.mono, samples, a.channels)
	for _, v := range a.mono {
		a.ring[a.pos] = v
		a.pos = (a.pos + 1) % FFTSize
	}
}

// Reset clears the window and the smoothing history
func (a *Analyser) Reset() {
	a.mu.Lock()
	a.ring = [FFTSize]float64{}
	a.pos = 0
	a.mu.Unlock()

	a.snapMu.Lock()
	a.smoothed = [Bins]float64{}
	a.snapMu.Unlock()
}

// Snapshot fills dst from the current window. The write lock is held only
// while the window is copied.
func (a *Analyser) Snapshot(dst *Snapshot) {
	a.snapMu.Lock()
	defer a.snapMu.Unlock()

	a.mu.Lock()
	n := copy(a.frame[:], a.ring[a.pos:])
	copy(a.frame[n:], a.ring[:a.pos])
	a.mu.Unlock()

	// most recent Bins samples
	for i, v := range a.frame[FFTSize-Bins:] {
		dst.TimeDomain[i] = clampByte(math.Floor(128 * (1 + v)))
	}

	for i := range a.frame {
		a.windowed[i] = a.frame[i] * a.window[i]
	}
	a.coeffs = a.fft.Coefficients(a.coeffs, a.windowed)

	scale := 255 / (MaxDecibels - MinDecibels)
	for k := 0; k < Bins; k++ {
		mag := cmplx.Abs(a.coeffs[k]) / FFTSize
		a.smoothed[k] = Smoothing*a.smoothed[k] + (1-Smoothing)*mag
		if a.smoothed[k] <= 0 {
			dst.Frequency[k] = 0
			continue
		}
		db := 20 * math.Log10(a.smoothed[k])
		dst.Frequency[k] = clampByte(math.Floor(scale * (db - MinDecibels)))
	}
}

func clampByte(v float64) byte {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return byte(v)
}

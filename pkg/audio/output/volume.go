// ABOUTME: Software volume shared by playback backends
// ABOUTME: Applies volume and mute with 24-bit clipping protection
package output

import (
	"sync"

	"github.com/Resonate-Protocol/resonate-visualizer/pkg/audio"
)

// volume implements VolumeControl for embedding in backends
// Backends set level to 100 in their constructors.
type volume struct {
	mu    sync.RWMutex
	level int
	muted bool
}

// SetVolume sets the volume (0-100)
func (v *volume) SetVolume(level int) {
	if level < 0 {
		level = 0
	}
	if level > 100 {
		level = 100
	}
	v.mu.Lock()
	v.level = level
	v.mu.Unlock()
}

// Volume returns current volume
func (v *volume) Volume() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.level
}

// SetMuted sets mute state
func (v *volume) SetMuted(muted bool) {
	v.mu.Lock()
	v.muted = muted
	v.mu.Unlock()
}

// Muted returns mute state
func (v *volume) Muted() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.muted
}

// apply scales samples into dst and returns it
func (v *volume) apply(dst, samples []int32) []int32 {
	multiplier := 0.0
	if !v.Muted() {
		multiplier = float64(v.Volume()) / 100.0
	}

	if cap(dst) < len(samples) {
		dst = make([]int32, len(samples))
	}
	dst = dst[:len(samples)]

	if multiplier == 1.0 {
		copy(dst, samples)
		return dst
	}

	for i, sample := range samples {
		scaled := int64(float64(sample) * multiplier)
		if scaled > audio.Max24Bit {
			scaled = audio.Max24Bit
		} else if scaled < audio.Min24Bit {
			scaled = audio.Min24Bit
		}
		dst[i] = int32(scaled)
	}
	return dst
}

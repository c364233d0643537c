// ABOUTME: Audio type definitions shared by the graph, analyser and capture
// ABOUTME: Defines the graph format and sample conversions
package audio

import (
	"fmt"
	"time"
)

const (
	// 24-bit audio range constants
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23
)

// Graph format. Every track is converted to this before it reaches the
// analyser, the playback output or a recording.
const (
	GraphSampleRate = 48000
	GraphChannels   = 2
	GraphBitDepth   = 24

	// BlockDuration is the pump interval of the audio graph
	BlockDuration = 20 * time.Millisecond
	// BlockFrames is the number of frames per block at GraphSampleRate
	BlockFrames = GraphSampleRate / 50
)

// Format describes audio stream format
type Format struct {
	Codec      string
	SampleRate int
	Channels   int
	BitDepth   int
}

// GraphFormat returns the fixed PCM format carried by the audio graph
func GraphFormat() Format {
	return Format{
		Codec:      "pcm",
		SampleRate: GraphSampleRate,
		Channels:   GraphChannels,
		BitDepth:   GraphBitDepth,
	}
}

func (f Format) String() string {
	return fmt.Sprintf("%s %dHz/%dch/%dbit", f.Codec, f.SampleRate, f.Channels, f.BitDepth)
}

// Frames returns the number of frames held by n interleaved samples
func (f Format) Frames(n int) int {
	if f.Channels <= 0 {
		return 0
	}
	return n / f.Channels
}

// Duration returns the playback time of n interleaved samples
func (f Format) Duration(n int) time.Duration {
	if f.SampleRate <= 0 {
		return 0
	}
	return time.Duration(f.Frames(n)) * time.Second / time.Duration(f.SampleRate)
}

// SampleToInt16 converts int32 sample to int16 (for 16-bit playback)
func SampleToInt16(sample int32) int16 {
	return int16(sample >> 8)
}

// SampleFromInt16 converts int16 sample to int32 (left-justified in 24-bit)
func SampleFromInt16(sample int16) int32 {
	return int32(sample) << 8
}

// SampleToFloat converts a 24-bit range sample to [-1, 1)
func SampleToFloat(sample int32) float64 {
	return float64(sample) / float64(Max24Bit+1)
}

// SampleFromFloat converts a float sample to 24-bit range, clipping at full scale
func SampleFromFloat(v float64) int32 {
	s := v * float64(Max24Bit+1)
	if s > Max24Bit {
		return Max24Bit
	}
	if s < Min24Bit {
		return Min24Bit
	}
	return int32(s)
}

// SampleTo24Bit converts int32 to 24-bit packed bytes (little-endian)
func SampleTo24Bit(sample int32) [3]byte {
	return [3]byte{
		byte(sample),
		byte(sample >> 8),
		byte(sample >> 16),
	}
}

// SampleFrom24Bit converts 24-bit packed bytes to int32 (little-endian)
func SampleFrom24Bit(b [3]byte) int32 {
	val := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
	// Sign extend from 24-bit to 32-bit
	if val&0x800000 != 0 {
		val |= ^0xFFFFFF
	}
	return val
}

// Mono mixes an interleaved block down to one channel into dst and returns it
func Mono(dst []float64, samples []int32, channels int) []float64 {
	if channels <= 0 {
		return dst[:0]
	}
	frames := len(samples) / channels
	if cap(dst) < frames {
		dst = make([]float64, frames)
	}
	dst = dst[:frames]
	for i := 0; i < frames; i++ {
		var sum float64
		for ch := 0; ch < channels; ch++ {
			sum += SampleToFloat(samples[i*channels+ch])
		}
		dst[i] = sum / float64(channels)
	}
	return dst
}

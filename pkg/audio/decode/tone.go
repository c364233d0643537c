// ABOUTME: Synthetic sine tone stream
// ABOUTME: Generates a fixed-frequency test tone in the graph format
package decode

import (
	"io"
	"math"
	"time"

	"github.com/Resonate-Protocol/resonate-visualizer/pkg/audio"
)

// ToneStream generates a sine tone at 50% of full scale on every channel
type ToneStream struct {
	frequency float64
	format    audio.Format
	index     int64
	limit     int64 // frames, 0 means endless
}

// NewTone creates a tone generator. A zero duration never ends.
func NewTone(frequency float64, duration time.Duration) *ToneStream {
	format := audio.GraphFormat()
	format.Codec = "tone"
	return &ToneStream{
		frequency: frequency,
		format:    format,
		limit:     int64(duration.Seconds() * float64(format.SampleRate)),
	}
}

func (s *ToneStream) Read(samples []int32) (int, error) {
	channels := s.format.Channels
	frames := len(samples) / channels
	if s.limit > 0 {
		if left := s.limit - s.index; int64(frames) > left {
			frames = int(left)
		}
	}
	if frames <= 0 {
		return 0, io.EOF
	}

	for i := 0; i < frames; i++ {
		t := float64(s.index+int64(i)) / float64(s.format.SampleRate)
		v := audio.SampleFromFloat(0.5 * math.Sin(2*math.Pi*s.frequency*t))
		for ch := 0; ch < channels; ch++ {
			samples[i*channels+ch] = v
		}
	}
	s.index += int64(frames)
	return frames * channels, nil
}

func (s *ToneStream) Format() audio.Format { return s.format }

func (s *ToneStream) Close() error { return nil }

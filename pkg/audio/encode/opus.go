// ABOUTME: Opus audio encoder
// ABOUTME: Encodes 20ms int32 frames to Opus packets with libopus
package encode

import (
	"fmt"

	"github.com/Resonate-Protocol/resonate-visualizer/pkg/audio"
	"gopkg.in/hraban/opus.v2"
)

// maxOpusPacket is the largest packet libopus produces
const maxOpusPacket = 4000

// OpusEncoder encodes Opus audio
type OpusEncoder struct {
	encoder    *opus.Encoder
	sampleRate int
	channels   int
	frameSize  int // samples per channel per frame
	pcm        []int16
}

// NewOpus creates a new Opus encoder for 20ms frames
func NewOpus(format audio.Format) (*OpusEncoder, error) {
	if format.Codec != "opus" {
		return nil, fmt.Errorf("invalid codec for Opus encoder: %s", format.Codec)
	}

	encoder, err := opus.NewEncoder(format.SampleRate, format.Channels, opus.AppAudio)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus encoder: %w", err)
	}

	// 64 kbps per channel
	if err := encoder.SetBitrate(64000 * format.Channels); err != nil {
		return nil, fmt.Errorf("failed to set opus bitrate: %w", err)
	}

	return &OpusEncoder{
		encoder:    encoder,
		sampleRate: format.SampleRate,
		channels:   format.Channels,
		frameSize:  format.SampleRate / 50,
	}, nil
}

// FrameSize returns samples per channel in one packet
func (e *OpusEncoder) FrameSize() int {
	return e.frameSize
}

// Encode converts one frame of interleaved int32 samples to an Opus packet
func (e *OpusEncoder) Encode(samples []int32) ([]byte, error) {
	if len(samples) != e.frameSize*e.channels {
		return nil, fmt.Errorf("opus frame must hold %d samples, got %d", e.frameSize*e.channels, len(samples))
	}

	if cap(e.pcm) < len(samples) {
		e.pcm = make([]int16, len(samples))
	}
	pcm := e.pcm[:len(samples)]
	for i, sample := range samples {
		pcm[i] = audio.SampleToInt16(sample)
	}

	data := make([]byte, maxOpusPacket)
	n, err := e.encoder.Encode(pcm, data)
	if err != nil {
		return nil, fmt.Errorf("opus encode error: %w", err)
	}

	return data[:n], nil
}

// Close releases resources
func (e *OpusEncoder) Close() error {
	return nil
}

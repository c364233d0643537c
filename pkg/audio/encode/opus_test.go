// ABOUTME: Unit tests for Opus encoder
// ABOUTME: Tests Opus frame encoding and frame size validation
package encode

import (
	"strings"
	"testing"

	"github.com/Resonate-Protocol/resonate-visualizer/pkg/audio"
)

func TestNewOpus(t *testing.T) {
	tests := []struct {
		name        string
		format      audio.Format
		wantErr     bool
		errContains string
	}{
		{
			name:   "valid Opus 48kHz stereo",
			format: audio.Format{Codec: "opus", SampleRate: 48000, Channels: 2, BitDepth: 16},
		},
		{
			name:   "valid Opus 48kHz mono",
			format: audio.Format{Codec: "opus", SampleRate: 48000, Channels: 1, BitDepth: 16},
		},
		{
			name:        "invalid codec",
			format:      audio.Format{Codec: "pcm", SampleRate: 48000, Channels: 2, BitDepth: 16},
			wantErr:     true,
			errContains: "invalid codec",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoder, err := NewOpus(tt.format)
			if tt.wantErr {
				if err == nil {
					t.Errorf("NewOpus() expected error, got nil")
				} else if !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("NewOpus() error = %v, want error containing %v", err, tt.errContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewOpus() unexpected error = %v", err)
			}
			if encoder.FrameSize() != 960 {
				t.Errorf("FrameSize() = %d, want 960", encoder.FrameSize())
			}
			encoder.Close()
		})
	}
}

func TestOpusEncoder_Encode(t *testing.T) {
	encoder, err := NewOpus(audio.Format{Codec: "opus", SampleRate: 48000, Channels: 2, BitDepth: 16})
	if err != nil {
		t.Fatalf("NewOpus() failed: %v", err)
	}
	defer encoder.Close()

	samples := make([]int32, 960*2)
	for i := range samples {
		samples[i] = int32((i % 1000) * 8388)
	}

	output, err := encoder.Encode(samples)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	if len(output) == 0 || len(output) > maxOpusPacket {
		t.Errorf("Encode() output size %d outside (0, %d]", len(output), maxOpusPacket)
	}
}

func TestOpusEncoder_RejectsPartialFrame(t *testing.T) {
	encoder, err := NewOpus(audio.Format{Codec: "opus", SampleRate: 48000, Channels: 2, BitDepth: 16})
	if err != nil {
		t.Fatalf("NewOpus() failed: %v", err)
	}

	if _, err := encoder.Encode(make([]int32, 100)); err == nil {
		t.Error("expected error for partial frame")
	}
}

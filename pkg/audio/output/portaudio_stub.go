//go:build !portaudio

// ABOUTME: PortAudio stub when library not available
// ABOUTME: Provides compile-time placeholder when PortAudio not installed
package output

import (
	"errors"

	"github.com/Resonate-Protocol/resonate-visualizer/pkg/audio"
)

// ErrPortAudioDisabled is returned by every stub method
var ErrPortAudioDisabled = errors.New("PortAudio support not enabled (build with -tags portaudio)")

// PortAudio output implementation (stub)
type PortAudio struct {
	volume
}

// NewPortAudio creates a new PortAudio output
func NewPortAudio() *PortAudio {
	p := &PortAudio{}
	p.level = 100
	return p
}

func (p *PortAudio) Open(format audio.Format) error { return ErrPortAudioDisabled }

func (p *PortAudio) Resume() error { return ErrPortAudioDisabled }

func (p *PortAudio) Suspend() error { return nil }

func (p *PortAudio) Write(samples []int32) error { return ErrPortAudioDisabled }

func (p *PortAudio) Close() error { return nil }

// ABOUTME: Audio output interface definition and backend factory
// ABOUTME: Common interface for playback sinks that start suspended
package output

import (
	"fmt"
	"strings"

	"github.com/Resonate-Protocol/resonate-visualizer/pkg/audio"
)

// Output represents a playback sink. Devices are opened suspended and only
// produce sound after Resume.
type Output interface {
	// Open initializes the device for the given PCM format without starting it
	Open(format audio.Format) error

	// Resume starts or resumes the device
	Resume() error

	// Suspend pauses the device, keeping queued audio
	Suspend() error

	// Write queues samples for playback without blocking on the device
	Write(samples []int32) error

	// Close releases output resources
	Close() error
}

// VolumeControl is implemented by outputs with software volume
type VolumeControl interface {
	SetVolume(volume int)
	Volume() int
	SetMuted(muted bool)
	Muted() bool
}

// Backend names accepted by New
const (
	BackendMalgo     = "malgo"
	BackendOto       = "oto"
	BackendPortAudio = "portaudio"
	BackendNull      = "null"
)

// New creates an unopened output by backend name
func New(name string) (Output, error) {
	switch strings.ToLower(name) {
	case BackendMalgo, "":
		return NewMalgo(), nil
	case BackendOto:
		return NewOto(), nil
	case BackendPortAudio:
		return NewPortAudio(), nil
	case BackendNull:
		return NewNull(), nil
	default:
		return nil, fmt.Errorf("unknown output backend: %s (supported: malgo, oto, portaudio, null)", name)
	}
}

// ABOUTME: Track values handed to the coordinator
// ABOUTME: A track names an audio source and opens a fresh stream per graph
package pipeline

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/Resonate-Protocol/resonate-visualizer/pkg/audio/decode"
)

// Track is an immutable selected audio source
type Track struct {
	ID   uuid.UUID
	Name string
	open func() (decode.Stream, error)
}

// NewTrack wraps any stream factory
func NewTrack(name string, open func() (decode.Stream, error)) *Track {
	return &Track{
		ID:   uuid.New(),
		Name: name,
		open: open,
	}
}

// NewFileTrack creates a track for an MP3, FLAC or WAV file
func NewFileTrack(path string) (*Track, error) {
	if !decode.IsSupported(path) {
		return nil, fmt.Errorf("unsupported audio file: %s", path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open track: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("track is a directory: %s", path)
	}
	return NewTrack(decode.TrackName(path), func() (decode.Stream, error) {
		return decode.Open(path)
	}), nil
}

// NewToneTrack creates a sine tone track. A zero duration never ends.
func NewToneTrack(frequency float64, duration time.Duration) *Track {
	name := fmt.Sprintf("Tone %g Hz", frequency)
	return NewTrack(name, func() (decode.Stream, error) {
		return decode.NewTone(frequency, duration), nil
	})
}

// Open opens a new stream of the track
func (t *Track) Open() (decode.Stream, error) {
	if t.open == nil {
		return nil, fmt.Errorf("track %q has no source", t.Name)
	}
	return t.open()
}

func (t *Track) String() string { return t.Name }

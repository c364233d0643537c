// ABOUTME: Finished recording held in memory until saved
// ABOUTME: Exposes a session-scoped blob URL and the download action
package capture

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultArtifactName is used when the track has no usable name
const DefaultArtifactName = "music-video"

// Artifact is an immutable finished recording
type Artifact struct {
	ID            uuid.UUID
	URL           string
	Name          string
	MIMEType      string
	Data          []byte
	Width, Height int
	VideoFrames   int
	AudioDuration time.Duration
	CreatedAt     time.Time
}

func newArtifact(id uuid.UUID, trackName string, data []byte) *Artifact {
	return &Artifact{
		ID:        id,
		URL:       "blob:resonate-visualizer/" + id.String(),
		Name:      ArtifactName(trackName),
		MIMEType:  MIMEType,
		Data:      data,
		CreatedAt: time.Now(),
	}
}

// ArtifactName returns the download file name for a track
func ArtifactName(trackName string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, strings.TrimSpace(trackName))
	if name == "" || name == "." || name == ".." {
		name = DefaultArtifactName
	}
	return name + FileExtension
}

// Size returns the artifact length in bytes
func (a *Artifact) Size() int {
	return len(a.Data)
}

// WriteTo writes the recording to w
func (a *Artifact) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(a.Data)
	return int64(n), err
}

// Save writes the recording into dir under its download name and returns the path
func (a *Artifact) Save(dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(dir, a.Name)
	if err := os.WriteFile(path, a.Data, 0o644); err != nil {
		return "", fmt.Errorf("failed to save recording: %w", err)
	}
	return path, nil
}

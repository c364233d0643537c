// ABOUTME: Stream interface definition and file opener
// ABOUTME: Selects a decoder by file extension
package decode

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Resonate-Protocol/resonate-visualizer/pkg/audio"
)

// Stream yields decoded PCM from a track
type Stream interface {
	// Read fills samples with interleaved PCM in 24-bit range. It returns
	// io.EOF once the track is exhausted and no samples were read.
	Read(samples []int32) (int, error)

	// Format reports the native sample rate, channel count and bit depth
	Format() audio.Format

	// Close releases stream resources
	Close() error
}

// Supported lists the file extensions Open understands
var Supported = []string{".mp3", ".flac", ".wav"}

// IsSupported reports whether path has an extension Open understands
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, s := range Supported {
		if s == ext {
			return true
		}
	}
	return false
}

// Open opens an audio file as a Stream, choosing the decoder by extension
func Open(path string) (Stream, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("audio file not found: %s: %w", path, err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".mp3":
		return OpenMP3(path)
	case ".flac":
		return OpenFLAC(path)
	case ".wav":
		return OpenWAV(path)
	default:
		return nil, fmt.Errorf("unsupported audio format: %s (supported: %s)", ext, strings.Join(Supported, ", "))
	}
}

// TrackName derives a display name from a file path
func TrackName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// scaleTo24 shifts a sample of the given bit depth into 24-bit range
func scaleTo24(sample int32, bitDepth int) int32 {
	switch {
	case bitDepth == 24:
		return sample
	case bitDepth < 24:
		return sample << (24 - bitDepth)
	default:
		return sample >> (bitDepth - 24)
	}
}

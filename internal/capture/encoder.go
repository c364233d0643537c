// ABOUTME: Muxing backend interfaces used by recording sessions
// ABOUTME: A stream takes raw frames plus Ogg/Opus audio and yields container chunks
package capture

import (
	"context"
	"image"
	"io"

	"github.com/Resonate-Protocol/resonate-visualizer/pkg/audio"
)

// Output profile
const (
	MIMEType      = "video/webm"
	FileExtension = ".webm"
	DefaultFPS    = 30
)

// Params describe one encoding
type Params struct {
	Width, Height int
	FPS           int
	Audio         audio.Format
}

// Encoder opens muxing streams
type Encoder interface {
	Open(ctx context.Context, params Params) (Stream, error)
}

// Stream is one running encode
type Stream interface {
	// WriteFrame writes the next video frame at Params size
	WriteFrame(img *image.RGBA) error

	// Audio receives the Ogg/Opus audio track
	Audio() io.Writer

	// Chunks delivers container output in order and is closed when the
	// encode has finished or failed
	Chunks() <-chan []byte

	// Close ends both inputs so the encode can finish
	Close() error

	// Abort kills the encode; Chunks closes soon after
	Abort()

	// Err reports why the encode failed, valid once Chunks is closed
	Err() error
}

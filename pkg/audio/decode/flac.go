// ABOUTME: FLAC track stream
// ABOUTME: Decodes FLAC files frame by frame with mewkiz/flac
package decode

import (
	"errors"
	"fmt"
	"io"

	"github.com/Resonate-Protocol/resonate-visualizer/pkg/audio"
	"github.com/mewkiz/flac"
)

// FLACStream reads from a FLAC file
type FLACStream struct {
	stream  *flac.Stream
	format  audio.Format
	frame   []int32 // interleaved samples of the last parsed frame
	pending []int32 // unread tail of frame
}

// OpenFLAC opens a FLAC file
func OpenFLAC(path string) (*FLACStream, error) {
	stream, err := flac.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to decode FLAC: %w", err)
	}
	return newFLACStream(stream), nil
}

// NewFLAC decodes FLAC data from r
func NewFLAC(r io.Reader) (*FLACStream, error) {
	stream, err := flac.New(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode FLAC: %w", err)
	}
	return newFLACStream(stream), nil
}

func newFLACStream(stream *flac.Stream) *FLACStream {
	info := stream.Info
	return &FLACStream{
		stream: stream,
		format: audio.Format{
			Codec:      "flac",
			SampleRate: int(info.SampleRate),
			Channels:   int(info.NChannels),
			BitDepth:   int(info.BitsPerSample),
		},
	}
}

func (s *FLACStream) Read(samples []int32) (int, error) {
	n := 0
	for n < len(samples) {
		if len(s.pending) == 0 {
			if err := s.parseFrame(); err != nil {
				if errors.Is(err, io.EOF) {
					if n == 0 {
						return 0, io.EOF
					}
					return n, nil
				}
				return n, err
			}
		}
		c := copy(samples[n:], s.pending)
		s.pending = s.pending[c:]
		n += c
	}
	return n, nil
}

func (s *FLACStream) parseFrame() error {
	frame, err := s.stream.ParseNext()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return io.EOF
		}
		return fmt.Errorf("flac decode error: %w", err)
	}

	channels := s.format.Channels
	size := int(frame.BlockSize)
	s.frame = s.frame[:0]
	for i := 0; i < size; i++ {
		for ch := 0; ch < channels; ch++ {
			s.frame = append(s.frame, scaleTo24(frame.Subframes[ch].Samples[i], s.format.BitDepth))
		}
	}
	s.pending = s.frame
	return nil
}

func (s *FLACStream) Format() audio.Format { return s.format }

func (s *FLACStream) Close() error {
	return s.stream.Close()
}

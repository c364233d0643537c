// ABOUTME: MP3 track stream
// ABOUTME: Decodes MP3 files to int32 samples with go-mp3
package decode

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Resonate-Protocol/resonate-visualizer/pkg/audio"
	"github.com/hajimehoshi/go-mp3"
)

// MP3Stream reads from an MP3 file. go-mp3 always outputs 16-bit stereo.
type MP3Stream struct {
	file    io.Closer
	decoder *mp3.Decoder
	format  audio.Format
	buf     []byte
}

// OpenMP3 opens an MP3 file
func OpenMP3(path string) (*MP3Stream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open MP3 file: %w", err)
	}

	s, err := NewMP3(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	s.file = f
	return s, nil
}

// NewMP3 decodes MP3 data from r
func NewMP3(r io.Reader) (*MP3Stream, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode MP3: %w", err)
	}

	return &MP3Stream{
		decoder: decoder,
		format: audio.Format{
			Codec:      "mp3",
			SampleRate: decoder.SampleRate(),
			Channels:   2,
			BitDepth:   16,
		},
	}, nil
}

func (s *MP3Stream) Read(samples []int32) (int, error) {
	// keep whole stereo frames
	want := (len(samples) &^ 1) * 2
	if want == 0 {
		return 0, nil
	}
	if cap(s.buf) < want {
		s.buf = make([]byte, want)
	}
	buf := s.buf[:want]

	n, err := io.ReadFull(s.decoder, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("mp3 decode error: %w", err)
	}

	numSamples := n / 2
	for i := 0; i < numSamples; i++ {
		samples[i] = audio.SampleFromInt16(int16(binary.LittleEndian.Uint16(buf[i*2:])))
	}

	if numSamples == 0 {
		return 0, io.EOF
	}
	return numSamples, nil
}

func (s *MP3Stream) Format() audio.Format { return s.format }

func (s *MP3Stream) Close() error {
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}

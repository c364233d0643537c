// ABOUTME: WAV track stream
// ABOUTME: Decodes PCM WAV files with go-audio/wav
package decode

import (
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/Resonate-Protocol/resonate-visualizer/pkg/audio"
)

// WAVStream reads PCM from a WAV file
type WAVStream struct {
	file    io.Closer
	decoder *wav.Decoder
	format  audio.Format
	buf     *goaudio.IntBuffer
}

// OpenWAV opens a WAV file
func OpenWAV(path string) (*WAVStream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open WAV file: %w", err)
	}

	s, err := NewWAV(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	s.file = f
	return s, nil
}

// NewWAV decodes WAV data from r
func NewWAV(r io.ReadSeeker) (*WAVStream, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file")
	}
	if err := decoder.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("failed to find WAV PCM chunk: %w", err)
	}

	f := decoder.Format()
	bitDepth := int(decoder.SampleBitDepth())
	if bitDepth == 0 || f.NumChannels == 0 {
		return nil, fmt.Errorf("unsupported WAV layout: %d channels, %d bit", f.NumChannels, bitDepth)
	}

	return &WAVStream{
		decoder: decoder,
		format: audio.Format{
			Codec:      "wav",
			SampleRate: f.SampleRate,
			Channels:   f.NumChannels,
			BitDepth:   bitDepth,
		},
		buf: &goaudio.IntBuffer{Format: f, SourceBitDepth: bitDepth},
	}, nil
}

func (s *WAVStream) Read(samples []int32) (int, error) {
	if cap(s.buf.Data) < len(samples) {
		s.buf.Data = make([]int, len(samples))
	}
	s.buf.Data = s.buf.Data[:len(samples)]

	n, err := s.decoder.PCMBuffer(s.buf)
	if err != nil {
		return 0, fmt.Errorf("wav decode error: %w", err)
	}
	if n == 0 {
		return 0, io.EOF
	}

	for i := 0; i < n; i++ {
		v := int32(s.buf.Data[i])
		if s.format.BitDepth == 8 {
			// 8-bit WAV is unsigned
			v -= 128
		}
		samples[i] = scaleTo24(v, s.format.BitDepth)
	}
	return n, nil
}

func (s *WAVStream) Format() audio.Format { return s.format }

func (s *WAVStream) Close() error {
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}

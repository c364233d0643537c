// ABOUTME: Stream adapter converting any track stream to a target format
// ABOUTME: Resamples and remaps channels so tracks reach the graph as 48kHz stereo
package resample

import (
	"errors"
	"io"

	"github.com/Resonate-Protocol/resonate-visualizer/pkg/audio"
	"github.com/Resonate-Protocol/resonate-visualizer/pkg/audio/decode"
)

// readFrames is the source read size per refill
const readFrames = 1024

// Stream wraps a decode.Stream and converts it to a target rate and channel count
type Stream struct {
	source    decode.Stream
	format    audio.Format
	resampler *Resampler // nil when rates match

	input    []int32
	resample []int32
	pending  []int32
	out      []int32
	eof      bool
}

// NewStream converts source to target. The target codec is reported as "pcm".
func NewStream(source decode.Stream, target audio.Format) *Stream {
	src := source.Format()
	target.Codec = "pcm"

	s := &Stream{
		source: source,
		format: target,
		input:  make([]int32, readFrames*src.Channels),
	}
	if src.SampleRate != target.SampleRate {
		s.resampler = New(src.SampleRate, target.SampleRate, src.Channels)
		s.resample = make([]int32, s.resampler.OutputCapacity(len(s.input)))
	}
	return s
}

// ToGraph converts source to the graph format, returning it unchanged if it already matches
func ToGraph(source decode.Stream) decode.Stream {
	f := source.Format()
	if f.SampleRate == audio.GraphSampleRate && f.Channels == audio.GraphChannels {
		return source
	}
	return NewStream(source, audio.GraphFormat())
}

func (s *Stream) Read(samples []int32) (int, error) {
	n := 0
	for n < len(samples) {
		if len(s.pending) == 0 {
			if s.eof {
				break
			}
			if err := s.fill(); err != nil {
				return n, err
			}
			continue
		}
		c := copy(samples[n:], s.pending)
		s.pending = s.pending[c:]
		n += c
	}
	if n == 0 && s.eof {
		return 0, io.EOF
	}
	return n, nil
}

func (s *Stream) fill() error {
	src := s.source.Format()
	read, err := s.source.Read(s.input)
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return err
		}
		s.eof = true
	} else if read == 0 {
		return io.ErrNoProgress
	}
	read -= read % src.Channels
	if read == 0 {
		return nil
	}

	frames := s.input[:read]
	if s.resampler != nil {
		m := s.resampler.Resample(frames, s.resample)
		frames = s.resample[:m]
	}

	s.out = Remap(s.out[:0], frames, src.Channels, s.format.Channels)
	s.pending = s.out
	return nil
}

func (s *Stream) Format() audio.Format { return s.format }

func (s *Stream) Close() error { return s.source.Close() }

// Remap appends samples converted from inCh to outCh channels onto dst.
// Mono is duplicated to every output channel, downmix to mono averages,
// otherwise channels map by index and extra output channels repeat input ones.
func Remap(dst, samples []int32, inCh, outCh int) []int32 {
	frames := len(samples) / inCh
	for i := 0; i < frames; i++ {
		frame := samples[i*inCh : (i+1)*inCh]
		if outCh == 1 && inCh > 1 {
			var sum int64
			for _, v := range frame {
				sum += int64(v)
			}
			dst = append(dst, int32(sum/int64(inCh)))
			continue
		}
		for ch := 0; ch < outCh; ch++ {
			dst = append(dst, frame[ch%inCh])
		}
	}
	return dst
}

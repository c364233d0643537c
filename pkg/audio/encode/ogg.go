// ABOUTME: Ogg/Opus stream writer for recorded audio
// ABOUTME: Packs Opus packets into an Ogg stream with pion's oggwriter
package encode

import (
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4/pkg/media/oggwriter"

	"github.com/Resonate-Protocol/resonate-visualizer/pkg/audio"
)

// PreSkip is the pre-skip oggwriter declares in the Opus ID header
const PreSkip = 3840

const opusPayloadType = 111

// OggOpusWriter encodes graph PCM to an Ogg/Opus stream. Samples are
// buffered until a full 20ms frame is available.
type OggOpusWriter struct {
	ogg     *oggwriter.OggWriter
	encoder *OpusEncoder
	format  audio.Format

	frame   []int32
	fill    int
	samples int64 // real samples written, interleaved
	packets uint32
	seq     uint16
	ssrc    uint32
	closed  bool
}

// NewOggOpus creates a writer emitting Ogg pages to w
func NewOggOpus(w io.Writer, format audio.Format) (*OggOpusWriter, error) {
	if format.SampleRate != 48000 {
		return nil, fmt.Errorf("ogg/opus requires 48kHz input, got %d", format.SampleRate)
	}
	if format.Channels < 1 || format.Channels > 2 {
		return nil, fmt.Errorf("ogg/opus supports 1 or 2 channels, got %d", format.Channels)
	}

	opusFormat := format
	opusFormat.Codec = "opus"
	enc, err := NewOpus(opusFormat)
	if err != nil {
		return nil, err
	}

	ogg, err := oggwriter.NewWith(w, uint32(format.SampleRate), uint16(format.Channels))
	if err != nil {
		return nil, fmt.Errorf("failed to create ogg writer: %w", err)
	}

	wr := &OggOpusWriter{
		ogg:     ogg,
		encoder: enc,
		format:  format,
		frame:   make([]int32, enc.FrameSize()*format.Channels),
		ssrc:    rand.New(rand.NewSource(time.Now().UnixNano())).Uint32(),
	}

	// Prime with pre-skip silence so decoded audio starts at the first real sample.
	for i := 0; i < PreSkip/enc.FrameSize(); i++ {
		if err := wr.writeFrame(); err != nil {
			return nil, err
		}
	}
	return wr, nil
}

// Write encodes samples, emitting a packet for every complete frame
func (w *OggOpusWriter) Write(samples []int32) error {
	if w.closed {
		return fmt.Errorf("ogg/opus writer is closed")
	}
	w.samples += int64(len(samples))
	for len(samples) > 0 {
		c := copy(w.frame[w.fill:], samples)
		w.fill += c
		samples = samples[c:]
		if w.fill == len(w.frame) {
			if err := w.writeFrame(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *OggOpusWriter) writeFrame() error {
	for i := w.fill; i < len(w.frame); i++ {
		w.frame[i] = 0
	}
	w.fill = 0

	payload, err := w.encoder.Encode(w.frame)
	if err != nil {
		return err
	}

	pkt := &rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			PayloadType:    opusPayloadType,
			SequenceNumber: w.seq,
			Timestamp:      w.packets * uint32(w.encoder.FrameSize()),
			SSRC:           w.ssrc,
		},
		Payload: payload,
	}
	w.seq++
	w.packets++

	if err := w.ogg.WriteRTP(pkt); err != nil {
		return fmt.Errorf("failed to write ogg page: %w", err)
	}
	return nil
}

// Duration returns the length of real audio written so far
func (w *OggOpusWriter) Duration() time.Duration {
	return w.format.Duration(int(w.samples))
}

// Close pads and flushes the last partial frame. oggwriter stamps each page
// with the granule of the packet start, so a trailing silent packet closes
// the final frame. w is closed if it implements io.Closer.
func (w *OggOpusWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	if w.fill > 0 {
		if err := w.writeFrame(); err != nil {
			return err
		}
	}
	if err := w.writeFrame(); err != nil {
		return err
	}
	return w.ogg.Close()
}

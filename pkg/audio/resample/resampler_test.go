// ABOUTME: Tests for the resampler and conversion stream
// ABOUTME: Tests rate ratios, chunk continuity and channel remapping
package resample

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/Resonate-Protocol/resonate-visualizer/pkg/audio"
	"github.com/Resonate-Protocol/resonate-visualizer/pkg/audio/decode"
)

func TestResampleIdentityRate(t *testing.T) {
	r := New(48000, 48000, 1)
	in := []int32{10, 20, 30, 40}
	out := make([]int32, r.OutputCapacity(len(in)))

	n := r.Resample(in, out)
	// priming consumes the first frame as the interpolation anchor
	if n != 3 {
		t.Fatalf("expected 3 samples, got %d", n)
	}
	for i, want := range []int32{10, 20, 30} {
		if out[i] != want {
			t.Errorf("sample %d: expected %d, got %d", i, want, out[i])
		}
	}

	n = r.Resample([]int32{50, 60}, out)
	if n != 2 || out[0] != 40 || out[1] != 50 {
		t.Errorf("expected continuation [40 50], got %v", out[:n])
	}
}

func TestResampleUpsampleInterpolates(t *testing.T) {
	r := New(24000, 48000, 1)
	in := []int32{0, 100, 200}
	out := make([]int32, r.OutputCapacity(len(in)))

	n := r.Resample(in, out)
	want := []int32{0, 50, 100, 150}
	if n != len(want) {
		t.Fatalf("expected %d samples, got %d (%v)", len(want), n, out[:n])
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("sample %d: expected %d, got %d", i, want[i], out[i])
		}
	}
}

func TestRemap(t *testing.T) {
	tests := []struct {
		name  string
		in    []int32
		inCh  int
		outCh int
		want  []int32
	}{
		{"mono to stereo", []int32{1, 2}, 1, 2, []int32{1, 1, 2, 2}},
		{"stereo to mono", []int32{2, 4, -2, 2}, 2, 1, []int32{3, 0}},
		{"surround to stereo", []int32{1, 2, 3, 4, 5, 6}, 6, 2, []int32{1, 2}},
		{"stereo passthrough", []int32{1, 2}, 2, 2, []int32{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Remap(nil, tt.in, tt.inCh, tt.outCh)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("expected %v, got %v", tt.want, got)
					break
				}
			}
		})
	}
}

// monoTone is a 24kHz mono source for conversion tests
type monoTone struct {
	left int
}

func (m *monoTone) Read(samples []int32) (int, error) {
	if m.left == 0 {
		return 0, io.EOF
	}
	n := len(samples)
	if n > m.left {
		n = m.left
	}
	for i := 0; i < n; i++ {
		samples[i] = 1000
	}
	m.left -= n
	return n, nil
}

func (m *monoTone) Format() audio.Format {
	return audio.Format{Codec: "test", SampleRate: 24000, Channels: 1, BitDepth: 24}
}

func (m *monoTone) Close() error { return nil }

func TestStreamToGraph(t *testing.T) {
	src := &monoTone{left: 24000} // one second
	stream := ToGraph(src)

	if f := stream.Format(); f.SampleRate != audio.GraphSampleRate || f.Channels != audio.GraphChannels {
		t.Fatalf("unexpected format %s", f)
	}

	buf := make([]int32, audio.BlockFrames*audio.GraphChannels)
	total := 0
	for {
		n, err := stream.Read(buf)
		total += n
		for i := 0; i < n; i++ {
			if buf[i] != 1000 {
				t.Fatalf("expected constant 1000, got %d at %d", buf[i], i)
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
	}

	got := audio.GraphFormat().Duration(total)
	if got < 990*time.Millisecond || got > time.Second {
		t.Errorf("expected about one second of audio, got %v", got)
	}
}

func TestToGraphPassthrough(t *testing.T) {
	tone := decode.NewTone(440, time.Second)
	if ToGraph(tone) != decode.Stream(tone) {
		t.Error("expected graph-format stream to pass through unchanged")
	}
}

// stalled never produces samples and never reports an error
type stalled struct{}

func (stalled) Read(samples []int32) (int, error) { return 0, nil }

func (stalled) Format() audio.Format {
	return audio.Format{Codec: "test", SampleRate: 44100, Channels: 2, BitDepth: 16}
}

func (stalled) Close() error { return nil }

func TestStreamStalledSource(t *testing.T) {
	stream := ToGraph(stalled{})
	done := make(chan error, 1)
	go func() {
		_, err := stream.Read(make([]int32, 64))
		done <- err
	}()

	select {
	case err := <-done:
		if !errors.Is(err, io.ErrNoProgress) {
			t.Errorf("expected io.ErrNoProgress, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Read spun on a stalled source")
	}
}

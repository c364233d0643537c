// ABOUTME: Renders still PNG frames of a track for every visual style
// ABOUTME: Useful for checking styles without an audio device or ffmpeg
package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/Resonate-Protocol/resonate-visualizer/internal/analyser"
	"github.com/Resonate-Protocol/resonate-visualizer/internal/synth"
	"github.com/Resonate-Protocol/resonate-visualizer/pkg/audio"
	"github.com/Resonate-Protocol/resonate-visualizer/pkg/audio/decode"
	"github.com/Resonate-Protocol/resonate-visualizer/pkg/audio/resample"
)

var (
	input       = flag.String("file", "", "Audio file (default: 440 Hz tone)")
	freq        = flag.Float64("freq", 440, "Tone frequency when no file is given")
	at          = flag.Duration("at", time.Second, "Position in the track to render")
	width       = flag.Int("width", 1280, "Frame width")
	height      = flag.Int("height", 720, "Frame height")
	color       = flag.String("color", "#ef4444", "Color as #rrggbb")
	sensitivity = flag.Int("sensitivity", synth.BaseSensitivity, "Sensitivity 2-12")
	outDir      = flag.String("out", ".", "Output directory")
)

func main() {
	flag.Parse()
	log.SetFlags(log.Ltime | log.Lmicroseconds)

	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	var stream decode.Stream
	name := fmt.Sprintf("tone-%g", *freq)
	if *input != "" {
		var err error
		stream, err = decode.Open(*input)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", *input, err)
		}
		name = decode.TrackName(*input)
	} else {
		stream = decode.NewTone(*freq, 0)
	}
	stream = resample.ToGraph(stream)
	defer stream.Close()

	snap, err := snapshotAt(stream, *at)
	if err != nil {
		return fmt.Errorf("failed to analyse: %w", err)
	}

	for _, style := range synth.Styles {
		s, err := synth.ParseSettings(style.String(), *color, *sensitivity)
		if err != nil {
			return fmt.Errorf("invalid settings: %w", err)
		}
		img := image.NewRGBA(image.Rect(0, 0, *width, *height))
		synth.Render(img, snap, s)

		path := filepath.Join(*outDir, fmt.Sprintf("%s-%s.png", name, style))
		if err := writePNG(path, img); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		log.Printf("Wrote %s", path)
	}
	return nil
}

// snapshotAt pumps blocks up to position, taking a snapshot per 60 Hz
// frame so smoothing settles the way it does live
func snapshotAt(stream decode.Stream, position time.Duration) (*analyser.Snapshot, error) {
	format := audio.GraphFormat()
	tap := analyser.New(format.Channels)
	block := make([]int32, audio.BlockFrames*format.Channels)
	snap := &analyser.Snapshot{}

	var elapsed, nextFrame time.Duration
	for elapsed < position {
		n, err := stream.Read(block)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, io.ErrNoProgress
		}
		tap.Write(block[:n])
		elapsed += format.Duration(n)
		for nextFrame <= elapsed {
			tap.Snapshot(snap)
			nextFrame += time.Second / 60
		}
	}
	tap.Snapshot(snap)
	return snap, nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

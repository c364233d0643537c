// ABOUTME: ffprobe inspection of finished recordings
// ABOUTME: Reports container duration and stream codecs for saved artifacts
package capture

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ProbeStream is one stream as reported by ffprobe
type ProbeStream struct {
	Index      int    `json:"index"`
	CodecType  string `json:"codec_type"`
	CodecName  string `json:"codec_name"`
	Width      int    `json:"width,omitempty"`
	Height     int    `json:"height,omitempty"`
	SampleRate string `json:"sample_rate,omitempty"`
	Channels   int    `json:"channels,omitempty"`
}

// ProbeResult summarizes a media file
type ProbeResult struct {
	FormatName string
	Duration   time.Duration
	Streams    []ProbeStream
}

// Stream returns the first stream of codecType
func (r *ProbeResult) Stream(codecType string) (ProbeStream, bool) {
	for _, s := range r.Streams {
		if s.CodecType == codecType {
			return s, true
		}
	}
	return ProbeStream{}, false
}

type ffprobeOutput struct {
	Format struct {
		FormatName string `json:"format_name"`
		Duration   string `json:"duration"`
	} `json:"format"`
	Streams []ProbeStream `json:"streams"`
}

// ProbePath derives the ffprobe binary from the ffmpeg one
func ProbePath(ffmpegPath string) string {
	if ffmpegPath == "" {
		ffmpegPath = DefaultFFmpeg
	}
	dir, base := filepath.Split(ffmpegPath)
	return dir + strings.Replace(base, "ffmpeg", "ffprobe", 1)
}

// Probe runs ffprobe on path
func Probe(ctx context.Context, ffprobePath, path string) (*ProbeResult, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=format_name,duration:stream=index,codec_type,codec_name,width,height,sample_rate,channels",
		"-of", "json",
		path,
	}
	cmd := exec.CommandContext(ctx, ffprobePath, args...)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffprobe failed for %s: %w: %s", path, err, strings.TrimSpace(stderr.String()))
	}
	return parseProbe(out.Bytes())
}

func parseProbe(data []byte) (*ProbeResult, error) {
	var parsed ffprobeOutput
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ffprobe output: %w", err)
	}
	result := &ProbeResult{
		FormatName: parsed.Format.FormatName,
		Streams:    parsed.Streams,
	}
	if parsed.Format.Duration != "" {
		secs, err := strconv.ParseFloat(parsed.Format.Duration, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid duration %q: %w", parsed.Format.Duration, err)
		}
		result.Duration = time.Duration(math.Round(secs * float64(time.Second)))
	}
	return result, nil
}

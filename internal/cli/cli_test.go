package cli

import (
	"bytes"
	"context"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Resonate-Protocol/resonate-visualizer/internal/capture"
	"github.com/Resonate-Protocol/resonate-visualizer/internal/config"
	"github.com/Resonate-Protocol/resonate-visualizer/internal/version"
)

type stubEncoder struct {
	mu     sync.Mutex
	params capture.Params
}

func (e *stubEncoder) Open(ctx context.Context, params capture.Params) (capture.Stream, error) {
	e.mu.Lock()
	e.params = params
	e.mu.Unlock()
	return &stubStream{chunks: make(chan []byte, 1)}, nil
}

type stubStream struct {
	chunks chan []byte
	once   sync.Once
}

func (s *stubStream) WriteFrame(img *image.RGBA) error { return nil }
func (s *stubStream) Audio() io.Writer                 { return io.Discard }
func (s *stubStream) Chunks() <-chan []byte            { return s.chunks }
func (s *stubStream) Err() error                       { return nil }
func (s *stubStream) Abort()                           { s.once.Do(func() { close(s.chunks) }) }

func (s *stubStream) Close() error {
	s.once.Do(func() {
		s.chunks <- []byte("webm-data")
		close(s.chunks)
	})
	return nil
}

func run(t *testing.T, a *app, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := a.rootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	err := root.ExecuteContext(ctx)
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, newApp(), "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, version.Version) || !strings.Contains(out, version.Product) {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestCommandTree(t *testing.T) {
	root := NewRootCommand()
	for _, name := range []string{"play", "record", "tone", "inspect", "version"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("missing command %s", name)
		}
	}
}

func TestArgsValidation(t *testing.T) {
	if _, err := run(t, newApp(), "play"); err == nil {
		t.Error("play without a file should fail")
	}
	if _, err := run(t, newApp(), "record", "song.ogg"); err == nil {
		t.Error("unsupported extension should fail")
	}
	if _, err := run(t, newApp(), "tone", "--record"); err == nil {
		t.Error("tone --record without duration should fail")
	}
	if _, err := run(t, newApp(), "tone", "--freq", "0"); err == nil {
		t.Error("zero frequency should fail")
	}
}

func TestFlagsOverrideConfig(t *testing.T) {
	dir := t.TempDir()
	a := newApp()
	root := a.rootCommand()
	cmd, _, err := root.Find([]string{"inspect"})
	if err != nil {
		t.Fatal(err)
	}
	if err := cmd.ParseFlags([]string{
		"--env", filepath.Join(dir, "none.env"),
		"--style", "circle",
		"--sensitivity", "3",
		"--output", "null",
		"--log-file", filepath.Join(dir, "rv.log"),
	}); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	a.applyFlags(cmd, cfg)
	if cfg.Style != "circle" || cfg.Sensitivity != 3 || cfg.Output != "null" {
		t.Fatalf("flags not applied: %+v", cfg)
	}
	if cfg.Color != config.Default().Color {
		t.Fatal("unset flags must keep config values")
	}
}

func TestToneRecordHeadless(t *testing.T) {
	dir := t.TempDir()
	enc := &stubEncoder{}
	a := newApp()
	a.newEncoder = func(*config.Config, *zap.Logger) capture.Encoder { return enc }

	out, err := run(t, a,
		"tone", "--record",
		"--duration", "300ms",
		"--width", "64", "--height", "36",
		"--output", "null",
		"--out-dir", dir,
		"--log-file", filepath.Join(dir, "rv.log"),
		"--env", filepath.Join(dir, "none.env"),
	)
	if err != nil {
		t.Fatalf("tone --record: %v\n%s", err, out)
	}

	path := filepath.Join(dir, "Tone 440 Hz.webm")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("artifact not saved: %v", err)
	}
	if string(data) != "webm-data" {
		t.Fatalf("unexpected artifact contents %q", data)
	}
	if !strings.Contains(out, path) {
		t.Fatalf("path not printed: %q", out)
	}
	if enc.params.Width != 64 || enc.params.Height != 36 || enc.params.FPS != 30 {
		t.Fatalf("unexpected capture params %+v", enc.params)
	}
}

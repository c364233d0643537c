package ui

import (
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/Resonate-Protocol/resonate-visualizer/internal/pipeline"
)

func TestEncodeHalfBlocks(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 4))
	for x := 0; x < 2; x++ {
		img.Set(x, 0, color.RGBA{255, 0, 0, 255})
		img.Set(x, 1, color.RGBA{0, 0, 255, 255})
	}

	var b strings.Builder
	EncodeHalfBlocks(&b, img)
	out := b.String()

	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(lines))
	}
	if strings.Count(lines[0], "▀") != 2 {
		t.Fatalf("expected 2 cells in row: %q", lines[0])
	}
	// identical neighbouring cells share one color escape
	if strings.Count(lines[0], "\x1b[38;2;255;0;0m") != 1 || strings.Count(lines[0], "\x1b[48;2;0;0;255m") != 1 {
		t.Fatalf("unexpected escapes %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], "\x1b[0m") {
		t.Fatal("rows must end with a reset")
	}
}

func TestEncodeOddHeight(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 3))
	var b strings.Builder
	EncodeHalfBlocks(&b, img)
	if n := strings.Count(b.String(), "▀"); n != 2 {
		t.Fatalf("expected 2 cells, got %d", n)
	}
}

func TestPresenterOffersLatestFrame(t *testing.T) {
	vp := NewViewport(2)
	vp.SetCells(4, 2)
	bridge := NewBridge()
	p := NewPresenter(vp, bridge)

	w, h := vp.Size()
	p.Present(image.NewRGBA(image.Rect(0, 0, w, h)))
	p.Present(image.NewRGBA(image.Rect(0, 0, w, h)))

	if len(bridge.frames) != 1 {
		t.Fatalf("expected exactly one pending frame, got %d", len(bridge.frames))
	}
	frame := <-bridge.frames
	if strings.Count(frame, "▀") != 8 {
		t.Fatalf("expected 4x2 cells, got %d", strings.Count(frame, "▀"))
	}
}

func TestBridgeStatusLatestWins(t *testing.T) {
	b := NewBridge()
	b.OfferStatus(pipeline.Status{Track: "a"})
	b.OfferStatus(pipeline.Status{Track: "b"})
	if got := <-b.status; got.Track != "b" {
		t.Fatalf("expected latest status, got %q", got.Track)
	}
}

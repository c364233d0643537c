// ABOUTME: Tests for TUI model and key handling
// ABOUTME: Uses a fake controller in place of the pipeline coordinator
package ui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Resonate-Protocol/resonate-visualizer/internal/capture"
	"github.com/Resonate-Protocol/resonate-visualizer/internal/pipeline"
	"github.com/Resonate-Protocol/resonate-visualizer/internal/synth"
)

type fakeController struct {
	settings   synth.Settings
	playing    bool
	recording  capture.State
	volume     int
	muted      bool
	playErr    error
	recordErr  error
	stopCalled int
}

func newFakeController() *fakeController {
	return &fakeController{settings: synth.DefaultSettings(), volume: 100}
}

func (f *fakeController) TogglePlay() error {
	if f.playErr != nil {
		return f.playErr
	}
	f.playing = !f.playing
	return nil
}

func (f *fakeController) StartRecording() error {
	if f.recordErr != nil {
		return f.recordErr
	}
	f.recording = capture.Active
	return nil
}

func (f *fakeController) StopRecording() {
	f.stopCalled++
	f.recording = capture.Finalizing
}

func (f *fakeController) Settings() synth.Settings { return f.settings }

func (f *fakeController) SetSettings(s synth.Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	f.settings = s
	return nil
}

func (f *fakeController) SetVolume(level int) {
	if level > 100 {
		level = 100
	}
	if level < 0 {
		level = 0
	}
	f.volume = level
}

func (f *fakeController) SetMuted(muted bool) { f.muted = muted }

func (f *fakeController) Status() pipeline.Status {
	return pipeline.Status{
		Track:     "Song",
		Loaded:    true,
		Playing:   f.playing,
		Volume:    f.volume,
		Muted:     f.muted,
		Settings:  f.settings,
		Recording: f.recording,
	}
}

func (f *fakeController) Artifact() (*capture.Artifact, bool) { return nil, false }

func key(s string) tea.KeyMsg {
	switch s {
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(key(k))
		m = next.(Model)
	}
	return m
}

func TestNewModel(t *testing.T) {
	ctrl := newFakeController()
	m := NewModel(ctrl, NewViewport(4), ".")
	if m.status.Track != "Song" || m.status.Volume != 100 {
		t.Fatalf("unexpected initial status %+v", m.status)
	}
	if m.quitting {
		t.Fatal("should not start quitting")
	}
}

func TestPlayToggle(t *testing.T) {
	ctrl := newFakeController()
	m := press(t, NewModel(ctrl, nil, "."), " ")
	if !ctrl.playing || !m.status.Playing {
		t.Fatal("space should start playback")
	}
	m = press(t, m, " ")
	if ctrl.playing {
		t.Fatal("space should pause")
	}
}

func TestPlayErrorShown(t *testing.T) {
	ctrl := newFakeController()
	ctrl.playErr = errors.New("device busy")
	m := press(t, NewModel(ctrl, nil, "."), " ")
	if !m.isError || !strings.Contains(m.notice, "device busy") {
		t.Fatalf("expected error notice, got %q", m.notice)
	}
}

func TestRecordKey(t *testing.T) {
	ctrl := newFakeController()
	m := press(t, NewModel(ctrl, nil, "."), "r")
	if ctrl.recording != capture.Active {
		t.Fatal("r should start recording")
	}
	m = press(t, m, "r")
	if ctrl.stopCalled != 1 {
		t.Fatalf("r should stop recording, stop called %d times", ctrl.stopCalled)
	}
	press(t, m, "r")
	if ctrl.stopCalled != 1 {
		t.Fatal("finalizing recording must not be stopped again")
	}
}

func TestSettingsKeys(t *testing.T) {
	ctrl := newFakeController()
	m := press(t, NewModel(ctrl, nil, "."), "tab")
	if ctrl.settings.Style != synth.Wave {
		t.Fatalf("tab should cycle to wave, got %s", ctrl.settings.Style)
	}
	press(t, m, "+", "+", "+", "+", "+")
	if ctrl.settings.Sensitivity != synth.MaxSensitivity {
		t.Fatalf("sensitivity should stop at max, got %d", ctrl.settings.Sensitivity)
	}
	m = press(t, m, "+")
	if !m.isError {
		t.Fatal("out of range sensitivity should report an error")
	}
	press(t, m, "c")
	if ctrl.settings.Color != Palette[1] {
		t.Fatalf("c should move to the next palette color, got %s", ctrl.settings.Color)
	}
}

func TestVolumeKeys(t *testing.T) {
	ctrl := newFakeController()
	m := press(t, NewModel(ctrl, nil, "."), "[", "[")
	if ctrl.volume != 90 || m.status.Volume != 90 {
		t.Fatalf("expected volume 90, got %d", ctrl.volume)
	}
	press(t, m, "m")
	if !ctrl.muted {
		t.Fatal("m should mute")
	}
}

func TestSaveWithoutArtifact(t *testing.T) {
	m := press(t, NewModel(newFakeController(), nil, "."), "s")
	if m.notice == "" {
		t.Fatal("expected a notice when nothing can be saved")
	}
}

func TestQuit(t *testing.T) {
	m := NewModel(newFakeController(), nil, ".")
	next, cmd := m.Update(key("q"))
	if !next.(Model).quitting || cmd == nil {
		t.Fatal("q should quit")
	}
}

func TestWindowSizeUpdatesViewport(t *testing.T) {
	vp := NewViewport(4)
	m := NewModel(newFakeController(), vp, ".")
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	cols, rows := vp.Cells()
	if cols != 100 || rows != 40-statusLines {
		t.Fatalf("unexpected cells %dx%d", cols, rows)
	}
	w, h := vp.Size()
	if w != 400 || h != (40-statusLines)*8 {
		t.Fatalf("unexpected surface size %dx%d", w, h)
	}
}

func TestViewShowsStatus(t *testing.T) {
	ctrl := newFakeController()
	ctrl.recording = capture.Active
	m := NewModel(ctrl, nil, ".")
	next, _ := m.Update(FrameMsg("FRAME"))
	view := next.(Model).View()
	for _, want := range []string{"FRAME", "Song", "bars", "#ef4444", "REC"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestFormatPosition(t *testing.T) {
	if got := formatPosition(0); got != "0:00" {
		t.Errorf("got %s", got)
	}
	if got := formatPosition(125_400_000_000); got != "2:05" {
		t.Errorf("got %s", got)
	}
}

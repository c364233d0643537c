package pipeline

import (
	"errors"

	"github.com/Resonate-Protocol/resonate-visualizer/internal/capture"
	"github.com/Resonate-Protocol/resonate-visualizer/internal/graph"
	"github.com/Resonate-Protocol/resonate-visualizer/internal/synth"
)

// Error taxonomy surfaced to callers
type (
	GraphConstructionError  = graph.ConstructionError
	ResumeError             = graph.ResumeError
	UnsupportedCaptureError = capture.UnsupportedError
	InvalidSettingsError    = synth.InvalidSettingsError
)

var (
	ErrNoTrack         = errors.New("no track loaded")
	ErrRecordingActive = errors.New("a recording is already in progress")
)

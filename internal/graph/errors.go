// ABOUTME: Error types for audio graph construction and playback resume
// ABOUTME: Both wrap the underlying device or decoder error
package graph

import "fmt"

// ConstructionError reports a graph that could not be built
type ConstructionError struct {
	Stage string // "source" or "output"
	Err   error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("failed to construct audio graph (%s): %v", e.Stage, e.Err)
}

func (e *ConstructionError) Unwrap() error { return e.Err }

// ResumeError reports a playback output that refused to start
type ResumeError struct {
	Err error
}

func (e *ResumeError) Error() string {
	return fmt.Sprintf("failed to resume playback: %v", e.Err)
}

func (e *ResumeError) Unwrap() error { return e.Err }

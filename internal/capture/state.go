// ABOUTME: Recording session states and capture error types
// ABOUTME: Idle → Active → Finalizing → Complete
package capture

import (
	"errors"
	"fmt"
)

// State is the lifecycle position of a recording session
type State int

const (
	Idle State = iota
	Active
	Finalizing
	Complete
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Active:
		return "active"
	case Finalizing:
		return "finalizing"
	case Complete:
		return "complete"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ErrNotIdle is returned when starting a session that already ran
var ErrNotIdle = errors.New("recording session already started")

// ErrDiscarded is reported by sessions that were force-completed
var ErrDiscarded = errors.New("recording discarded")

// UnsupportedError reports a capture that cannot run in this environment
type UnsupportedError struct {
	Reason string
	Err    error
}

func (e *UnsupportedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("capture unsupported: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("capture unsupported: %s", e.Reason)
}

func (e *UnsupportedError) Unwrap() error { return e.Err }

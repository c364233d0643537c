package pipeline

import (
	"time"

	"github.com/Resonate-Protocol/resonate-visualizer/internal/capture"
	"github.com/Resonate-Protocol/resonate-visualizer/internal/synth"
)

// Status is a point-in-time view of the coordinator for observers
type Status struct {
	Track    string
	Loaded   bool
	Playing  bool
	Ended    bool
	Position time.Duration
	Volume   int
	Muted    bool
	Settings synth.Settings

	Recording      capture.State
	RecordingStats capture.Stats
	RecordingErr   error
	ArtifactURL    string
	ArtifactName   string
}

// Status returns the current state
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	st := Status{
		Volume:   c.volume,
		Muted:    c.muted,
		Settings: c.Settings(),
	}
	if c.track != nil {
		st.Track = c.track.Name
	}
	if c.graph != nil {
		st.Loaded = true
		st.Playing = c.graph.Playing()
		st.Ended = c.graph.Ended()
		st.Position = c.graph.Position()
	}
	session := c.session
	c.mu.Unlock()

	if session != nil {
		st.Recording = session.State()
		st.RecordingStats = session.Stats()
		if st.Recording == capture.Complete {
			if a, ok := session.Artifact(); ok {
				st.ArtifactURL = a.URL
				st.ArtifactName = a.Name
			} else {
				st.RecordingErr = session.Err()
			}
		}
	}
	return st
}

func (c *Coordinator) notify() {
	if c.config.OnStatus == nil {
		return
	}
	c.config.OnStatus(c.Status())
}

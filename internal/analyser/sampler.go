// ABOUTME: Non-blocking sampler the render loop reads every tick
// ABOUTME: Swaps analysis taps atomically as graphs come and go
package analyser

import "sync/atomic"

// Sampler reads the currently attached tap. With no tap attached it yields
// the silent snapshot.
type Sampler struct {
	tap atomic.Pointer[Analyser]
}

// NewSampler creates a detached sampler
func NewSampler() *Sampler {
	return &Sampler{}
}

// Attach points the sampler at a graph's tap
func (s *Sampler) Attach(a *Analyser) {
	s.tap.Store(a)
}

// Detach drops the current tap
func (s *Sampler) Detach() {
	s.tap.Store(nil)
}

// Attached reports whether a tap is attached
func (s *Sampler) Attached() bool {
	return s.tap.Load() != nil
}

// Sample returns the current snapshot
func (s *Sampler) Sample() Snapshot {
	var snap Snapshot
	s.SampleInto(&snap)
	return snap
}

// SampleInto fills dst with the current snapshot
func (s *Sampler) SampleInto(dst *Snapshot) {
	a := s.tap.Load()
	if a == nil {
		*dst = Silent()
		return
	}
	a.Snapshot(dst)
}

// ABOUTME: Null output for headless rendering and recording
// ABOUTME: Accepts audio without a device and counts what it was given
package output

import (
	"fmt"
	"sync"

	"github.com/Resonate-Protocol/resonate-visualizer/pkg/audio"
)

// Null discards audio. Useful when no sound device is available.
type Null struct {
	volume
	mu      sync.Mutex
	format  audio.Format
	opened  bool
	running bool
	written int64
}

// NewNull creates a new Null output
func NewNull() *Null {
	n := &Null{}
	n.level = 100
	return n
}

func (n *Null) Open(format audio.Format) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.format = format
	n.opened = true
	return nil
}

func (n *Null) Resume() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.opened {
		return fmt.Errorf("output not initialized")
	}
	n.running = true
	return nil
}

func (n *Null) Suspend() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.running = false
	return nil
}

func (n *Null) Write(samples []int32) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.opened {
		return fmt.Errorf("output not initialized")
	}
	n.written += int64(len(samples))
	return nil
}

func (n *Null) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.opened = false
	n.running = false
	return nil
}

// Written returns the number of samples accepted since Open
func (n *Null) Written() int64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.written
}

// Running reports whether the output has been resumed
func (n *Null) Running() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.running
}

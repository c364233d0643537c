// ABOUTME: Non-blocking hand-off from the pipeline to the bubbletea program
// ABOUTME: Frames and status updates are latest-wins slots drained by one goroutine
package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Resonate-Protocol/resonate-visualizer/internal/pipeline"
)

// FrameMsg carries an encoded frame
type FrameMsg string

// StatusMsg carries a coordinator status update
type StatusMsg pipeline.Status

// Bridge forwards the latest frame and status to a program. Offers never
// block, so they are safe from the render loop and from inside Update.
type Bridge struct {
	frames chan string
	status chan pipeline.Status
}

// NewBridge creates an idle bridge
func NewBridge() *Bridge {
	return &Bridge{
		frames: make(chan string, 1),
		status: make(chan pipeline.Status, 1),
	}
}

// OfferFrame replaces any undelivered frame
func (b *Bridge) OfferFrame(frame string) {
	offer(b.frames, frame)
}

// OfferStatus replaces any undelivered status
func (b *Bridge) OfferStatus(status pipeline.Status) {
	offer(b.status, status)
}

func offer[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// Run delivers messages to send until ctx ends
func (b *Bridge) Run(ctx context.Context, send func(tea.Msg)) {
	for {
		select {
		case <-ctx.Done():
			return
		case f := <-b.frames:
			send(FrameMsg(f))
		case s := <-b.status:
			send(StatusMsg(s))
		}
	}
}

// ABOUTME: Oto-based audio output implementation
// ABOUTME: Shares the process-wide oto context and pulls 16-bit PCM from a ring buffer
package output

import (
	"fmt"
	"sync"

	"github.com/Resonate-Protocol/resonate-visualizer/pkg/audio"
	"github.com/ebitengine/oto/v3"
)

// oto allows one context per process, so every Oto output shares it
var (
	otoMu     sync.Mutex
	otoCtx    *oto.Context
	otoFormat audio.Format
)

func sharedOtoContext(format audio.Format) (*oto.Context, error) {
	otoMu.Lock()
	defer otoMu.Unlock()

	if otoCtx != nil {
		if otoFormat.SampleRate != format.SampleRate || otoFormat.Channels != format.Channels {
			return nil, fmt.Errorf("oto context already running at %dHz/%dch, cannot open %dHz/%dch",
				otoFormat.SampleRate, otoFormat.Channels, format.SampleRate, format.Channels)
		}
		return otoCtx, nil
	}

	ctx, readyChan, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   format.SampleRate,
		ChannelCount: format.Channels,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-readyChan

	otoCtx = ctx
	otoFormat = format
	return ctx, nil
}

// Oto output implementation using oto library. oto only plays 16-bit.
type Oto struct {
	volume
	mu     sync.Mutex
	ctx    *oto.Context
	player *oto.Player
	ring   *RingBuffer
	scaled []int32
	ready  bool
}

// NewOto creates a new Oto output
func NewOto() *Oto {
	o := &Oto{}
	o.level = 100
	return o
}

// Open creates a paused player for this output
func (o *Oto) Open(format audio.Format) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.player != nil {
		return fmt.Errorf("output already opened")
	}

	ctx, err := sharedOtoContext(format)
	if err != nil {
		return err
	}

	// 500ms of audio
	o.ring = NewRingBuffer(format.SampleRate * format.Channels / 2)
	reader, err := newPCM16Reader(o.ring, format)
	if err != nil {
		return err
	}
	o.ctx = ctx
	o.player = ctx.NewPlayer(reader)
	o.ready = true
	return nil
}

// Resume resumes the shared context and starts the player
func (o *Oto) Resume() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.ready {
		return fmt.Errorf("output not initialized")
	}
	if err := o.ctx.Resume(); err != nil {
		return fmt.Errorf("failed to resume oto context: %w", err)
	}
	o.player.Play()
	return nil
}

// Suspend pauses the player
func (o *Oto) Suspend() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.player != nil {
		o.player.Pause()
	}
	return nil
}

// Write queues audio samples for playback
func (o *Oto) Write(samples []int32) error {
	if !o.ready {
		return fmt.Errorf("output not initialized")
	}
	o.scaled = o.apply(o.scaled, samples)
	o.ring.Write(o.scaled)
	return nil
}

// Close releases the player. The shared context stays alive for the process.
func (o *Oto) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.ready = false
	if o.player == nil {
		return nil
	}
	o.player.Pause()
	err := o.player.Close()
	o.player = nil
	if err != nil {
		return fmt.Errorf("failed to close oto player: %w", err)
	}
	return nil
}

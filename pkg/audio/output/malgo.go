// ABOUTME: Malgo-based audio output implementation with 24-bit support
// ABOUTME: Uses miniaudio via malgo; the device is created stopped and started on Resume
package output

import (
	"fmt"
	"sync"

	"github.com/Resonate-Protocol/resonate-visualizer/pkg/audio"
	"github.com/gen2brain/malgo"
)

// Malgo output implementation using malgo/miniaudio library
type Malgo struct {
	volume
	malgoCtx   *malgo.AllocatedContext
	device     *malgo.Device
	sampleRate int
	channels   int
	bitDepth   int
	ready      bool

	ringBuffer *RingBuffer
	scratch    []int32 // callback buffer, only touched by the device thread
	scaled     []int32
	mu         sync.Mutex
}

// NewMalgo creates a new Malgo output
func NewMalgo() *Malgo {
	m := &Malgo{}
	m.level = 100
	return m
}

// Open initializes the playback device without starting it
func (m *Malgo) Open(format audio.Format) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device != nil {
		return fmt.Errorf("output already opened")
	}

	var deviceFormat malgo.FormatType
	switch format.BitDepth {
	case 16:
		deviceFormat = malgo.FormatS16
	case 24:
		deviceFormat = malgo.FormatS24
	case 32:
		deviceFormat = malgo.FormatS32
	default:
		return fmt.Errorf("unsupported bit depth: %d (supported: 16, 24, 32)", format.BitDepth)
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("failed to initialize malgo context: %w", err)
	}

	// 500ms of audio
	m.ringBuffer = NewRingBuffer(format.SampleRate * format.Channels / 2)
	m.sampleRate = format.SampleRate
	m.channels = format.Channels
	m.bitDepth = format.BitDepth

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = deviceFormat
	deviceConfig.Playback.Channels = uint32(format.Channels)
	deviceConfig.SampleRate = uint32(format.SampleRate)
	deviceConfig.Alsa.NoMMap = 1

	callbacks := malgo.DeviceCallbacks{
		Data: func(pOutput, pInput []byte, frameCount uint32) {
			m.dataCallback(pOutput, frameCount)
		},
	}

	device, err := malgo.InitDevice(ctx.Context, deviceConfig, callbacks)
	if err != nil {
		_ = ctx.Uninit()
		ctx.Free()
		return fmt.Errorf("failed to initialize playback device: %w", err)
	}

	m.malgoCtx = ctx
	m.device = device
	m.ready = true
	return nil
}

// Resume starts the device
func (m *Malgo) Resume() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.ready {
		return fmt.Errorf("output not initialized")
	}
	if m.device.IsStarted() {
		return nil
	}
	if err := m.device.Start(); err != nil {
		return fmt.Errorf("failed to start device: %w", err)
	}
	return nil
}

// Suspend stops the device
func (m *Malgo) Suspend() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.ready || !m.device.IsStarted() {
		return nil
	}
	if err := m.device.Stop(); err != nil {
		return fmt.Errorf("failed to stop device: %w", err)
	}
	return nil
}

// Write queues audio samples for playback. Samples that do not fit in the
// ring buffer are dropped.
func (m *Malgo) Write(samples []int32) error {
	if !m.ready {
		return fmt.Errorf("output not initialized")
	}
	m.scaled = m.apply(m.scaled, samples)
	m.ringBuffer.Write(m.scaled)
	return nil
}

// dataCallback is called by malgo to fill the audio output buffer
func (m *Malgo) dataCallback(pOutput []byte, frameCount uint32) {
	total := int(frameCount) * m.channels
	if cap(m.scratch) < total {
		m.scratch = make([]int32, total)
	}
	samples := m.scratch[:total]
	m.ringBuffer.Read(samples)

	switch m.bitDepth {
	case 16:
		for i, sample := range samples {
			s := audio.SampleToInt16(sample)
			pOutput[i*2] = byte(s)
			pOutput[i*2+1] = byte(s >> 8)
		}
	case 24:
		for i, sample := range samples {
			b := audio.SampleTo24Bit(sample)
			copy(pOutput[i*3:], b[:])
		}
	case 32:
		for i, sample := range samples {
			s := sample << 8
			pOutput[i*4] = byte(s)
			pOutput[i*4+1] = byte(s >> 8)
			pOutput[i*4+2] = byte(s >> 16)
			pOutput[i*4+3] = byte(s >> 24)
		}
	}
}

// Close releases output resources
func (m *Malgo) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var firstErr error
	if m.device != nil {
		if m.device.IsStarted() {
			if err := m.device.Stop(); err != nil {
				firstErr = fmt.Errorf("device stop error: %w", err)
			}
		}
		m.device.Uninit()
		m.device = nil
	}
	m.ready = false

	if m.malgoCtx != nil {
		if err := m.malgoCtx.Uninit(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("malgo context uninit error: %w", err)
		}
		m.malgoCtx.Free()
		m.malgoCtx = nil
	}
	return firstErr
}

// ABOUTME: Audio output package for playing audio
// ABOUTME: Provides the Output interface with malgo, oto, PortAudio and null backends
// Package output provides audio playback sinks.
//
// Outputs open suspended: nothing is heard until Resume. Writes never block
// on the device; samples are queued in a ring buffer drained by the device.
//
// Example:
//
//	out, err := output.New("malgo")
//	err = out.Open(audio.GraphFormat())
//	err = out.Resume()
//	err = out.Write(samples)
package output

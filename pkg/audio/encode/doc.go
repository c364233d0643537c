// ABOUTME: Audio encoder package for output devices and recordings
// ABOUTME: Provides PCM byte encoding, Opus packets and Ogg/Opus streams
// Package encode provides audio encoders.
//
// Supports: PCM (16-bit and 24-bit) for playback devices, Opus packets and
// Ogg/Opus streams for recordings.
//
// All encoders accept int32 samples in 24-bit range.
//
// Example:
//
//	w, err := encode.NewOggOpus(pipe, audio.GraphFormat())
//	err = w.Write(block)
//	err = w.Close()
package encode

// ABOUTME: Track stream package for file and synthetic audio sources
// ABOUTME: Provides the Stream interface with MP3, FLAC, WAV and tone implementations
// Package decode opens audio tracks as PCM streams.
//
// Supports: MP3 (go-mp3), FLAC (mewkiz/flac), WAV (go-audio/wav) and a
// synthetic sine tone.
//
// All streams implement the Stream interface and output interleaved int32
// samples in 24-bit range at the track's native rate and channel count.
//
// Example:
//
//	stream, err := decode.Open("song.flac")
//	defer stream.Close()
//	n, err := stream.Read(samples)
package decode

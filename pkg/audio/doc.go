// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format and the fixed graph format
// Package audio provides the sample types shared across the visualizer.
//
// All PCM inside the process is interleaved int32 in 24-bit range. Tracks are
// converted to the graph format (48kHz stereo) before they reach the analyser,
// the playback output or a recording.
//
// Example:
//
//	format := audio.GraphFormat()
//	block := make([]int32, audio.BlockFrames*format.Channels)
//	fmt.Println(format.Duration(len(block))) // 20ms
package audio

// ABOUTME: Audio resampling package using linear interpolation
// ABOUTME: Converts track streams to the graph sample rate and channel layout
// Package resample provides sample rate and channel conversion.
//
// Resampler is a streaming linear interpolator. Stream wraps a
// decode.Stream so any track reaches the audio graph as 48kHz stereo.
//
// Example:
//
//	src, _ := decode.Open("song.mp3") // 44.1kHz stereo
//	graphStream := resample.ToGraph(src)
package resample

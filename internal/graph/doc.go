// Package graph wires a track to its analysis tap, playback output and an
// optional recorder.
//
// A Graph is built for exactly one track and closed when the track
// changes. Its pump reads 20ms blocks on a ticker and is the audio clock
// for recordings.
package graph

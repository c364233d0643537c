// Package analyser turns the audio graph's signal into per-tick snapshots.
//
// An Analyser keeps the last 2048 mono samples written by the graph. Each
// Snapshot windows them (Blackman), runs a real FFT, smooths magnitudes
// with time constant 0.85 and maps decibels in [-100, -30] to bytes. The
// time-domain array holds the most recent 1024 samples centred on 128.
package analyser

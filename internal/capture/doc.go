// Package capture records the visualizer surface and graph audio into a
// WebM file.
//
// A Session pulls frames from the surface at a fixed rate clocked by the
// audio it is fed, encodes the audio to Ogg/Opus and hands both to an
// Encoder. Container chunks are collected in delivery order and become an
// Artifact when the session completes.
package capture

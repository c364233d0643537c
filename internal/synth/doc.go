// Package synth turns a signal snapshot and visual settings into a frame.
//
// BuildScene is a pure function producing a display list for one of three
// styles (bars, wave, circle); Painter rasterizes it over a freshly painted
// opaque background.
package synth

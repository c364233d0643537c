// Package render owns the frame raster and the loop that refreshes it.
//
// Each tick resizes the Surface to the Viewport, samples the analyser,
// renders the current Settings and hands the frame to a Presenter. The
// capture session reads frames through Surface.CopyFrame.
package render

// Package pipeline coordinates one visualizer session: the loaded track and
// its audio graph, the render loop drawing the surface, and the recording of
// surface and audio into a WebM artifact.
//
// The Coordinator is the only holder of the live graph. Loading a track tears
// the previous graph down first, finalizing any recording before the new
// graph exists.
package pipeline

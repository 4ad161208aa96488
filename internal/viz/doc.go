// Package viz draws orbits in the terminal.
//
// [Model] is a Bubble Tea program that integrates an experiment frame by
// frame and plots the trail on a Braille [Canvas] in one of four
// projections: x-y, x-z, meridional (R, z) or a rotatable 3d view.
// Energy history is charted with asciigraph and model parameters can be
// tuned while the orbit runs.
//
// # Key Bindings
//
//	Space - Pause/Resume
//	R     - Reset orbit and parameters
//	V     - Cycle projection
//	Tab   - Select parameter, Up/Down to tune it
//	G     - Toggle GIF recording
//	?     - Show help overlay
//	[]    - Time travel (rewind/forward)
package viz

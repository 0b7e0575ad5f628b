// Package viz renders a running spectroscopy sweep in the terminal.
//
// The view is a Bubble Tea program: a braille [Canvas] showing the
// network next to the sweep phase, progress and an ASCII chart of the
// energy spectrum collected so far. The model advances the simulator
// itself on every frame, so no other goroutine may tick it while the
// view runs.
//
// # Key Bindings
//
//	S       - Start or stop a sweep
//	Space   - Pause/Resume simulation
//	Tab     - Select the next node
//	Arrows  - Drag the selected node (hjkl also work)
//	R       - Release the selected node
//	U       - Unlock parameters during a sweep
//	+/-     - Raise or lower damping
//	Q       - Quit
package viz

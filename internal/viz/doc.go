// Package viz provides the terminal control room panel.
//
// The package implements an interactive TUI using the Bubble Tea framework:
//
//   - [Model]: live plant view advancing a sim.Session in wall-clock frames
//   - Power rail meters, the reactivity budget, rod bank positions, and an
//     annunciator row, with a scrolling trend graph below
//
// # Key Bindings
//
//	Space - Pause/Resume the plant
//	W/S/X - Withdraw/insert/stop rods in sequence
//	Tab   - Select a bank, Up/Down to jog it
//	T/R   - Manual trip / reset trip
//	b/B   - Borate / dilute 10 ppm
//	F/f   - Raise / lower RCS flow 5%
//	+/-   - Double / halve time compression
//	G     - Cycle the trend channel
//	?     - Show help overlay
//
// The panel renders at a fixed frame rate; each frame advances simulated
// time by compression/fps seconds, so a 10000x session covers a full day
// of xenon in under nine wall seconds.
package viz

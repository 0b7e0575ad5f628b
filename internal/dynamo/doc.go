// Package dynamo provides the core simulation primitives shared by the
// spring network engine.
//
// The package defines the fundamental interfaces and types:
//
//   - [State]: flat state vector laid out in fixed 4-wide node blocks
//     [x, y, vx, vy]
//   - [System]: interface for ODE systems (dX/dt = f(X, t))
//   - [Integrator]: numerical stepper interface
//   - [Metric]: observer that folds every accepted state into a value
//
// # Layout
//
// Block i of a [State] always belongs to node i of the network:
//
//	x, y := s.Pos(i)
//	vx, vy := s.Vel(i)
//
// # Thread Safety
//
// States are plain slices and carry no locking. The simulator owns the
// live vector and hands out clones to observers.
package dynamo

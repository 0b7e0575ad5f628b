// Package physics evaluates the forces acting on a point-mass spring
// network.
//
// [ForceModel] implements [dynamo.System] and [dynamo.Hamiltonian]. Per
// node it sums Hooke springs from every incident edge, gravity, viscous
// damping and, while driving is enabled, a travelling sinusoidal force
// whose sign follows the node's charge:
//
//	fm := physics.NewForceModel(net, physics.Params{Damping: 20})
//	dx := fm.Derive(x, t)
//
// The model snapshots masses and springs at construction through the
// [dynamo.Graph] capability interface; it never reads the network again.
package physics

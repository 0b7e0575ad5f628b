package dynamo

// Body is a point mass that forces can act on.
type Body interface {
	BodyMass() float64
	// ChargeSign is +1 or -1 and selects the sign of the driving force.
	ChargeSign() float64
}

// Spring connects two bodies, addressed by their state block index.
type Spring interface {
	Ends() (from, to int)
	Stiffness() float64
	Rest() float64
}

// Graph exposes the bodies and springs of a network to the force model.
type Graph interface {
	NumNodes() int
	NumEdges() int
	Body(i int) Body
	Spring(k int) Spring
}

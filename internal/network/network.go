package network

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/netspec/internal/dynamo"
)

var ErrInvalidTopology = errors.New("network: invalid topology")

// TopologyError describes why a network could not be built.
type TopologyError struct {
	NodeID int
	EdgeID int
	Reason string
}

func (e *TopologyError) Error() string {
	return fmt.Sprintf("network: invalid topology: %s", e.Reason)
}

func (e *TopologyError) Unwrap() error { return ErrInvalidTopology }

// Node is a point mass. X/Y/VX/VY mirror its block in the state vector
// after every Sync; RefX/RefY hold the settled reference position.
type Node struct {
	ID       int
	Label    string
	X, Y     float64
	VX, VY   float64
	Mass     float64
	Positive bool

	RefX, RefY float64
	MinDisp    float64
	MaxDisp    float64
}

func (n *Node) BodyMass() float64 { return n.Mass }

func (n *Node) ChargeSign() float64 {
	if n.Positive {
		return 1
	}
	return -1
}

// Edge is an ideal spring between two nodes, referenced by node ID.
type Edge struct {
	ID          int
	From, To    int
	SpringConst float64
	RestLength  float64
	Weight      float64
	MaxEnergy   float64

	from, to int
}

func (e *Edge) Ends() (int, int)   { return e.from, e.to }
func (e *Edge) Stiffness() float64 { return e.SpringConst }
func (e *Edge) Rest() float64      { return e.RestLength }

// Network owns the node and edge collections. Node i owns block i of
// the state vector.
type Network struct {
	Name  string
	nodes []Node
	edges []Edge
	index map[int]int
}

// New validates the description and returns a ready network. Nodes all
// sitting at the origin are laid out on a ring of DefaultRadius.
func New(name string, nodes []Node, edges []Edge) (*Network, error) {
	if len(nodes) == 0 {
		return nil, &TopologyError{Reason: "network has no nodes"}
	}

	n := &Network{
		Name:  name,
		nodes: make([]Node, len(nodes)),
		edges: make([]Edge, len(edges)),
		index: make(map[int]int, len(nodes)),
	}
	copy(n.nodes, nodes)
	copy(n.edges, edges)

	for i := range n.nodes {
		node := &n.nodes[i]
		if _, dup := n.index[node.ID]; dup {
			return nil, &TopologyError{NodeID: node.ID, Reason: fmt.Sprintf("duplicate node id %d", node.ID)}
		}
		if !(node.Mass > 0) {
			return nil, &TopologyError{NodeID: node.ID, Reason: fmt.Sprintf("node %d: mass must be positive, got %g", node.ID, node.Mass)}
		}
		n.index[node.ID] = i
	}

	seen := make(map[int]bool, len(n.edges))
	for k := range n.edges {
		e := &n.edges[k]
		if seen[e.ID] {
			return nil, &TopologyError{EdgeID: e.ID, Reason: fmt.Sprintf("duplicate edge id %d", e.ID)}
		}
		seen[e.ID] = true

		from, ok := n.index[e.From]
		if !ok {
			return nil, &TopologyError{EdgeID: e.ID, NodeID: e.From, Reason: fmt.Sprintf("edge %d: unknown node %d", e.ID, e.From)}
		}
		to, ok := n.index[e.To]
		if !ok {
			return nil, &TopologyError{EdgeID: e.ID, NodeID: e.To, Reason: fmt.Sprintf("edge %d: unknown node %d", e.ID, e.To)}
		}
		if from == to {
			return nil, &TopologyError{EdgeID: e.ID, NodeID: e.From, Reason: fmt.Sprintf("edge %d: self-loop on node %d", e.ID, e.From)}
		}
		if !(e.SpringConst > 0) {
			return nil, &TopologyError{EdgeID: e.ID, Reason: fmt.Sprintf("edge %d: spring constant must be positive, got %g", e.ID, e.SpringConst)}
		}
		if e.RestLength < 0 || math.IsNaN(e.RestLength) {
			return nil, &TopologyError{EdgeID: e.ID, Reason: fmt.Sprintf("edge %d: negative rest length %g", e.ID, e.RestLength)}
		}
		e.from, e.to = from, to
	}

	if n.atOrigin() {
		n.Ring(DefaultRadius)
	}
	n.RecordReference()
	n.ResetDisplacement()

	return n, nil
}

func (n *Network) atOrigin() bool {
	for i := range n.nodes {
		if n.nodes[i].X != 0 || n.nodes[i].Y != 0 {
			return false
		}
	}
	return true
}

func (n *Network) NumNodes() int { return len(n.nodes) }
func (n *Network) NumEdges() int { return len(n.edges) }

func (n *Network) Node(i int) *Node { return &n.nodes[i] }
func (n *Network) Edge(k int) *Edge { return &n.edges[k] }

func (n *Network) Body(i int) dynamo.Body     { return &n.nodes[i] }
func (n *Network) Spring(k int) dynamo.Spring { return &n.edges[k] }

// Index maps a node ID to its block index.
func (n *Network) Index(id int) (int, bool) {
	i, ok := n.index[id]
	return i, ok
}

// Endpoints resolves the two nodes of edge k.
func (n *Network) Endpoints(k int) (from, to *Node) {
	e := &n.edges[k]
	return &n.nodes[e.from], &n.nodes[e.to]
}

// Centroid returns the mean node position.
func (n *Network) Centroid() (x, y float64) {
	for i := range n.nodes {
		x += n.nodes[i].X
		y += n.nodes[i].Y
	}
	c := float64(len(n.nodes))
	return x / c, y / c
}

// State builds a state vector from the current node positions and velocities.
func (n *Network) State() dynamo.State {
	x := dynamo.NewState(len(n.nodes))
	for i := range n.nodes {
		node := &n.nodes[i]
		x.SetPos(i, node.X, node.Y)
		x.SetVel(i, node.VX, node.VY)
	}
	return x
}

// Sync projects the state vector onto the nodes.
func (n *Network) Sync(x dynamo.State) {
	for i := range n.nodes {
		node := &n.nodes[i]
		node.X, node.Y = x.Pos(i)
		node.VX, node.VY = x.Vel(i)
	}
}

// RecordReference stores the current positions as the settled reference.
func (n *Network) RecordReference() {
	for i := range n.nodes {
		n.nodes[i].RefX, n.nodes[i].RefY = n.nodes[i].X, n.nodes[i].Y
	}
}

// Reset returns every node to its reference at rest, writes the same into
// x and clears the per-edge energy maxima.
func (n *Network) Reset(x dynamo.State) {
	for i := range n.nodes {
		node := &n.nodes[i]
		node.X, node.Y = node.RefX, node.RefY
		node.VX, node.VY = 0, 0
		x.SetPos(i, node.X, node.Y)
		x.SetVel(i, 0, 0)
	}
	n.ResetMaxEnergy()
	n.ResetDisplacement()
}

func (n *Network) ResetMaxEnergy() {
	for k := range n.edges {
		n.edges[k].MaxEnergy = 0
	}
}

// ResetDisplacement collapses each node's min/max band onto its current
// y distance from the centroid.
func (n *Network) ResetDisplacement() {
	_, cy := n.Centroid()
	for i := range n.nodes {
		d := math.Abs(n.nodes[i].Y - cy)
		n.nodes[i].MinDisp, n.nodes[i].MaxDisp = d, d
	}
}

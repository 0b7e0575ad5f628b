package network

import "fmt"

// Chain builds the procedural chain topology: n nodes linked in order,
// node i of mass 5(i+1) and spring i of constant 6(i+1) with rest length
// (i+1)/2. Even-index nodes carry positive charge.
func Chain(n int) (*Network, error) {
	if n < 2 {
		return nil, &TopologyError{Reason: fmt.Sprintf("chain needs at least 2 nodes, got %d", n)}
	}

	nodes := make([]Node, n)
	for i := range nodes {
		nodes[i] = Node{
			ID:       i,
			Label:    fmt.Sprintf("n%d", i),
			Mass:     5 * float64(i+1),
			Positive: i%2 == 0,
		}
	}

	edges := make([]Edge, n-1)
	for i := range edges {
		edges[i] = Edge{
			ID:          i,
			From:        i,
			To:          i + 1,
			SpringConst: 6 * float64(i+1),
			RestLength:  float64(i+1) / 2,
			Weight:      0.5,
		}
	}

	return New(fmt.Sprintf("chain-%d", n), nodes, edges)
}

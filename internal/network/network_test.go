package network

import (
	"errors"
	"math"
	"testing"
)

func twoNodes() []Node {
	return []Node{
		{ID: 1, Mass: 1, X: 0, Y: 0},
		{ID: 2, Mass: 1, X: 1, Y: 0},
	}
}

func TestNewRejectsBadTopology(t *testing.T) {
	tests := []struct {
		name  string
		nodes []Node
		edges []Edge
	}{
		{"no nodes", nil, nil},
		{"duplicate node", []Node{{ID: 1, Mass: 1}, {ID: 1, Mass: 1}}, nil},
		{"zero mass", []Node{{ID: 1, Mass: 0}}, nil},
		{"unknown from", twoNodes(), []Edge{{ID: 0, From: 9, To: 2, SpringConst: 1}}},
		{"unknown to", twoNodes(), []Edge{{ID: 0, From: 1, To: 9, SpringConst: 1}}},
		{"self loop", twoNodes(), []Edge{{ID: 0, From: 1, To: 1, SpringConst: 1}}},
		{"duplicate edge", twoNodes(), []Edge{
			{ID: 0, From: 1, To: 2, SpringConst: 1},
			{ID: 0, From: 2, To: 1, SpringConst: 1},
		}},
		{"zero spring constant", twoNodes(), []Edge{{ID: 0, From: 1, To: 2, SpringConst: 0}}},
		{"negative rest length", twoNodes(), []Edge{{ID: 0, From: 1, To: 2, SpringConst: 1, RestLength: -1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := New("bad", tt.nodes, tt.edges)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if n != nil {
				t.Error("expected no partial network on error")
			}
			if !errors.Is(err, ErrInvalidTopology) {
				t.Errorf("expected ErrInvalidTopology, got %v", err)
			}
			var te *TopologyError
			if !errors.As(err, &te) || te.Reason == "" {
				t.Errorf("expected TopologyError with a reason, got %v", err)
			}
		})
	}
}

func TestNewResolvesEndpoints(t *testing.T) {
	n, err := New("pair", twoNodes(), []Edge{{ID: 7, From: 2, To: 1, SpringConst: 3, RestLength: 0.5}})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	from, to := n.Edge(0).Ends()
	if from != 1 || to != 0 {
		t.Errorf("expected block indices (1,0), got (%d,%d)", from, to)
	}

	a, b := n.Endpoints(0)
	if a.ID != 2 || b.ID != 1 {
		t.Errorf("expected endpoints 2->1, got %d->%d", a.ID, b.ID)
	}

	if i, ok := n.Index(2); !ok || i != 1 {
		t.Errorf("Index(2) = %d,%v, want 1,true", i, ok)
	}
}

func TestCentroid(t *testing.T) {
	n, err := New("tri", []Node{
		{ID: 0, Mass: 1, X: 0, Y: 0},
		{ID: 1, Mass: 1, X: 3, Y: 0},
		{ID: 2, Mass: 1, X: 0, Y: 6},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}

	cx, cy := n.Centroid()
	if math.Abs(cx-1) > 1e-12 || math.Abs(cy-2) > 1e-12 {
		t.Errorf("centroid = (%v,%v), want (1,2)", cx, cy)
	}
}

func TestStateSyncAndReset(t *testing.T) {
	n, err := New("pair", twoNodes(), []Edge{{ID: 0, From: 1, To: 2, SpringConst: 1}})
	if err != nil {
		t.Fatal(err)
	}

	x := n.State()
	if len(x) != 8 {
		t.Fatalf("expected state of length 8, got %d", len(x))
	}

	x.SetPos(1, 2, 3)
	x.SetVel(1, 4, 5)
	n.Sync(x)
	if node := n.Node(1); node.X != 2 || node.Y != 3 || node.VX != 4 || node.VY != 5 {
		t.Errorf("Sync did not project block 1: %+v", *node)
	}

	n.Edge(0).MaxEnergy = 9
	n.Reset(x)

	if px, py := x.Pos(1); px != 1 || py != 0 {
		t.Errorf("reset position = (%v,%v), want reference (1,0)", px, py)
	}
	if vx, vy := x.Vel(1); vx != 0 || vy != 0 {
		t.Errorf("reset velocity = (%v,%v), want zero", vx, vy)
	}
	if n.Edge(0).MaxEnergy != 0 {
		t.Error("Reset did not clear edge max energy")
	}
}

func TestChain(t *testing.T) {
	n, err := Chain(6)
	if err != nil {
		t.Fatalf("Chain failed: %v", err)
	}

	if n.NumNodes() != 6 || n.NumEdges() != 5 {
		t.Fatalf("expected 6 nodes and 5 edges, got %d and %d", n.NumNodes(), n.NumEdges())
	}

	for i := 0; i < 6; i++ {
		node := n.Node(i)
		if node.Mass != 5*float64(i+1) {
			t.Errorf("node %d mass = %v, want %v", i, node.Mass, 5*float64(i+1))
		}
		if node.Positive != (i%2 == 0) {
			t.Errorf("node %d positive = %v", i, node.Positive)
		}
		r := math.Hypot(node.X, node.Y)
		if math.Abs(r-DefaultRadius) > 1e-9 {
			t.Errorf("node %d not on ring: r=%v", i, r)
		}
	}

	for k := 0; k < 5; k++ {
		e := n.Edge(k)
		if e.SpringConst != 6*float64(k+1) {
			t.Errorf("edge %d k = %v, want %v", k, e.SpringConst, 6*float64(k+1))
		}
		if from, to := e.Ends(); from != k || to != k+1 {
			t.Errorf("edge %d ends = (%d,%d)", k, from, to)
		}
	}

	if _, err := Chain(1); !errors.Is(err, ErrInvalidTopology) {
		t.Errorf("Chain(1) should fail with ErrInvalidTopology, got %v", err)
	}
}

func TestJitterIsDeterministic(t *testing.T) {
	a, _ := Chain(4)
	b, _ := Chain(4)

	a.Jitter(42, 0.1)
	b.Jitter(42, 0.1)

	for i := 0; i < 4; i++ {
		if a.Node(i).X != b.Node(i).X || a.Node(i).Y != b.Node(i).Y {
			t.Errorf("node %d differs between identical seeds", i)
		}
		if a.Node(i).RefX != a.Node(i).X {
			t.Errorf("node %d reference not updated by jitter", i)
		}
		if math.Abs(math.Hypot(a.Node(i).X, a.Node(i).Y)-DefaultRadius) > 0.2 {
			t.Errorf("node %d moved further than the jitter amplitude", i)
		}
	}
}

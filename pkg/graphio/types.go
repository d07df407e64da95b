package graphio

import (
	"fmt"
	"slices"

	"github.com/stepgraph/stepgraph/pkg/graph"
)

// Node kinds. Tasks carry no kind marker.
const (
	KindJoin = "join"
)

// Graph is the serialization format for execution graphs. Used for API
// responses, storage, caching, and file import/export.
type Graph struct {
	Nodes []Node `json:"nodes" bson:"nodes"`
	Edges []Edge `json:"edges" bson:"edges"`
}

// Node is the serialized form of a graph vertex.
type Node struct {
	ID   string `json:"id" bson:"id"`
	Kind string `json:"kind,omitempty" bson:"kind,omitempty"` // "join" or empty
}

// IsJoin returns true if this is a synthetic join node.
func (n Node) IsJoin() bool { return n.Kind == KindJoin }

// Edge represents a directed edge in the execution graph.
type Edge struct {
	From string `json:"from" bson:"from"`
	To   string `json:"to" bson:"to"`
}

// FromGraph converts a live graph to its serialization format.
// Nodes and edges are sorted for deterministic output.
func FromGraph(g *graph.Graph) Graph {
	nodes := g.Nodes()
	slices.SortFunc(nodes, func(a, b *graph.Node) int {
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})

	edges := g.Edges()
	out := Graph{
		Nodes: make([]Node, len(nodes)),
		Edges: make([]Edge, len(edges)),
	}
	for i, n := range nodes {
		out.Nodes[i] = nodeFromGraph(n)
	}
	for i, e := range edges {
		out.Edges[i] = Edge{From: e.From, To: e.To}
	}
	slices.SortFunc(out.Edges, func(a, b Edge) int {
		if a.From != b.From {
			if a.From < b.From {
				return -1
			}
			return 1
		}
		if a.To < b.To {
			return -1
		}
		if a.To > b.To {
			return 1
		}
		return 0
	})
	return out
}

// ToGraph converts a serialized Graph back to a live graph. Join nodes keep
// their IDs, so a round trip preserves identity. Returns an error for
// duplicate IDs or edges referencing unknown nodes.
func ToGraph(gj Graph) (*graph.Graph, error) {
	g := graph.New()

	for _, nj := range gj.Nodes {
		n := graph.Node{ID: nj.ID, Kind: graph.NodeKindTask}
		if nj.IsJoin() {
			n.Kind = graph.NodeKindJoin
		}
		if err := g.AddNode(n); err != nil {
			return nil, fmt.Errorf("add node %s: %w", nj.ID, err)
		}
	}
	for _, ej := range gj.Edges {
		if err := g.AddEdge(ej.From, ej.To); err != nil {
			return nil, fmt.Errorf("add edge %s→%s: %w", ej.From, ej.To, err)
		}
	}

	return g, nil
}

func nodeFromGraph(n *graph.Node) Node {
	node := Node{ID: n.ID}
	if n.IsJoin() {
		node.Kind = KindJoin
	}
	return node
}

package graph

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddTask] when the node ID is
	// empty. All nodes must have non-empty identifiers.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.AddTask] when a node with the
	// same ID already exists. Node IDs must be unique.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [Graph.AddEdge] when the From node
	// does not exist in the graph.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Graph.AddEdge] when the To node
	// does not exist in the graph.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrInvalidEdgeEndpoint is returned by [Graph.Validate] when an adjacency
	// entry references a node that doesn't exist. This indicates corruption.
	ErrInvalidEdgeEndpoint = errors.New("invalid edge endpoint")

	// ErrGraphHasCycle is returned by [Graph.Validate] when a cycle is
	// detected. Execution graphs flow from start toward completion and must
	// stay acyclic; diamonds (reconverging paths) are fine.
	ErrGraphHasCycle = errors.New("graph contains a cycle")
)

// NodeKind distinguishes named task nodes from synthetic join nodes.
type NodeKind int

const (
	// NodeKindTask is a named step in the execution plan.
	NodeKindTask NodeKind = iota
	// NodeKindJoin is a synthetic synchronization barrier where parallel
	// branches converge before continuing to shared children. Join nodes
	// carry no display name.
	NodeKindJoin
)

// Node represents a vertex in the execution graph. A node is a join node if
// and only if it was constructed as one via [Graph.AddJoin] - kind is an
// explicit tag, never inferred from the name.
//
// The zero value is not usable; nodes are created through [Graph.AddTask]
// and [Graph.AddJoin].
type Node struct {
	ID   string
	Kind NodeKind
}

// IsJoin reports whether the node is a synthetic synchronization point.
func (n Node) IsJoin() bool { return n.Kind == NodeKindJoin }

// Name returns the display label: the ID for tasks, empty for join nodes.
func (n Node) Name() string {
	if n.Kind == NodeKindJoin {
		return ""
	}
	return n.ID
}

func (n Node) String() string { return "node:" + n.Name() }

// Graph is a shared-ownership execution graph with symmetric adjacency.
// Nodes are owned by the graph and addressed by stable string IDs; adjacency
// is stored as ordered ID lists on both sides, so for every edge A→B,
// B appears in A's children exactly when A appears in B's parents.
//
// The zero value is not usable - use New. Graph is not safe for concurrent
// use without external synchronization.
type Graph struct {
	nodes    map[string]*Node
	outgoing map[string][]string // nodeID -> ordered child IDs, no duplicates
	incoming map[string][]string // nodeID -> ordered parent IDs, no duplicates
	joinSeq  int
}

// New creates an empty execution graph.
func New() *Graph {
	return &Graph{
		nodes:    make(map[string]*Node),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
	}
}

// AddTask adds a named task node. Returns ErrInvalidNodeID for an empty ID
// or ErrDuplicateNodeID if the ID is already in use.
func (g *Graph) AddTask(id string) error {
	if id == "" {
		return ErrInvalidNodeID
	}
	if _, exists := g.nodes[id]; exists {
		return ErrDuplicateNodeID
	}
	g.nodes[id] = &Node{ID: id, Kind: NodeKindTask}
	return nil
}

// AddJoin adds a synthetic join node and returns its generated ID.
// Join IDs take the form "join_N"; the sequence skips over any existing
// ID so joins can be added to imported graphs without collisions.
func (g *Graph) AddJoin() string {
	for {
		g.joinSeq++
		id := fmt.Sprintf("join_%d", g.joinSeq)
		if _, exists := g.nodes[id]; exists {
			continue
		}
		g.nodes[id] = &Node{ID: id, Kind: NodeKindJoin}
		return id
	}
}

// AddNode inserts a pre-built node with its ID and kind intact, which
// deserialization needs to restore join nodes. Prefer AddTask and AddJoin
// when constructing graphs directly.
func (g *Graph) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := g.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	node := n
	g.nodes[node.ID] = &node
	return nil
}

// Node returns the node with the given ID and true, or nil and false.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// Nodes returns all nodes in the graph. The order is not guaranteed.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		nodes = append(nodes, n)
	}
	return nodes
}

// AddEdge adds a directed edge between two existing nodes, updating both
// adjacency sides. Adding an edge that already exists is a no-op, which
// keeps both lists free of duplicates. Returns ErrUnknownSourceNode or
// ErrUnknownTargetNode when an endpoint is missing.
func (g *Graph) AddEdge(from, to string) error {
	if _, ok := g.nodes[from]; !ok {
		return ErrUnknownSourceNode
	}
	if _, ok := g.nodes[to]; !ok {
		return ErrUnknownTargetNode
	}
	if slices.Contains(g.outgoing[from], to) {
		return nil
	}
	g.outgoing[from] = append(g.outgoing[from], to)
	if !slices.Contains(g.incoming[to], from) {
		g.incoming[to] = append(g.incoming[to], from)
	}
	return nil
}

// RemoveEdge removes the edge from→to on both adjacency sides.
// Removing an edge that doesn't exist is a no-op.
func (g *Graph) RemoveEdge(from, to string) {
	g.outgoing[from] = slices.DeleteFunc(g.outgoing[from], func(s string) bool { return s == to })
	g.incoming[to] = slices.DeleteFunc(g.incoming[to], func(s string) bool { return s == from })
}

// RemoveNode deletes the node and strips it from every neighbor's adjacency
// on both sides. Removing an unknown ID is a no-op.
func (g *Graph) RemoveNode(id string) {
	if _, ok := g.nodes[id]; !ok {
		return
	}
	for _, p := range g.incoming[id] {
		g.outgoing[p] = slices.DeleteFunc(g.outgoing[p], func(s string) bool { return s == id })
	}
	for _, c := range g.outgoing[id] {
		g.incoming[c] = slices.DeleteFunc(g.incoming[c], func(s string) bool { return s == id })
	}
	delete(g.outgoing, id)
	delete(g.incoming, id)
	delete(g.nodes, id)
}

// Children returns the IDs this node has edges to, in insertion order.
// The returned slice should not be modified - use it as a read-only view.
func (g *Graph) Children(id string) []string { return g.outgoing[id] }

// Parents returns the IDs that have edges to this node, in insertion order.
// The returned slice should not be modified - use it as a read-only view.
func (g *Graph) Parents(id string) []string { return g.incoming[id] }

// OutDegree returns the number of outgoing edges, 0 for unknown IDs.
func (g *Graph) OutDegree(id string) int { return len(g.outgoing[id]) }

// InDegree returns the number of incoming edges, 0 for unknown IDs.
func (g *Graph) InDegree(id string) int { return len(g.incoming[id]) }

// Edge is a directed connection between two nodes, used when exporting the
// adjacency as a flat list.
type Edge struct {
	From string
	To   string
}

// Edges flattens the adjacency into a list of directed edges.
// Within one source node, edges appear in child insertion order; the order
// of source nodes is not guaranteed.
func (g *Graph) Edges() []Edge {
	var edges []Edge
	for id := range g.nodes {
		for _, c := range g.outgoing[id] {
			edges = append(edges, Edge{From: id, To: c})
		}
	}
	return edges
}

// Reachable returns the set of node IDs reachable from head, including head
// itself. Unknown heads yield an empty set. The traversal is iterative so
// arbitrarily deep graphs cannot exhaust the call stack.
func (g *Graph) Reachable(head string) map[string]struct{} {
	seen := make(map[string]struct{})
	if _, ok := g.nodes[head]; !ok {
		return seen
	}
	stack := []string{head}
	seen[head] = struct{}{}
	for len(stack) > 0 {
		curr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, c := range g.outgoing[curr] {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			stack = append(stack, c)
		}
	}
	return seen
}

// Validate checks graph integrity and returns nil if valid. It verifies that
// adjacency entries reference existing nodes, that both adjacency sides
// agree, and that the graph is acyclic.
//
// Returns ErrInvalidEdgeEndpoint for dangling or asymmetric adjacency, or
// ErrGraphHasCycle if a cycle is detected. Cycle detection is an iterative
// depth-first search with white/gray/black coloring, O(N+E).
func (g *Graph) Validate() error {
	if err := g.validateAdjacency(); err != nil {
		return err
	}
	return g.detectCycles()
}

func (g *Graph) validateAdjacency() error {
	for id, children := range g.outgoing {
		if _, ok := g.nodes[id]; !ok && len(children) > 0 {
			return ErrInvalidEdgeEndpoint
		}
		for _, c := range children {
			if _, ok := g.nodes[c]; !ok {
				return ErrInvalidEdgeEndpoint
			}
			if !slices.Contains(g.incoming[c], id) {
				return ErrInvalidEdgeEndpoint
			}
		}
	}
	for id, parents := range g.incoming {
		for _, p := range parents {
			if !slices.Contains(g.outgoing[p], id) {
				return ErrInvalidEdgeEndpoint
			}
		}
	}
	return nil
}

func (g *Graph) detectCycles() error {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(g.nodes))

	// Iterative DFS: a frame stays on the stack until all children are
	// explored, then flips gray → black.
	type frame struct {
		id   string
		next int
	}

	for id := range g.nodes {
		if color[id] != white {
			continue
		}
		stack := []frame{{id: id}}
		color[id] = gray
		for len(stack) > 0 {
			f := &stack[len(stack)-1]
			children := g.outgoing[f.id]
			if f.next < len(children) {
				child := children[f.next]
				f.next++
				switch color[child] {
				case white:
					color[child] = gray
					stack = append(stack, frame{id: child})
				case gray:
					return ErrGraphHasCycle
				}
				continue
			}
			color[f.id] = black
			stack = stack[:len(stack)-1]
		}
	}
	return nil
}

package layout

import (
	"fmt"
	"slices"

	"github.com/stepgraph/stepgraph/pkg/graph"
)

// Region is an integer grid cell assigned during the first layout pass.
// X is the depth column (1 = head), Y the rank within that column.
type Region struct {
	X int
	Y int
}

// Regions holds the region assignment for every node reachable from the
// head, plus per-column sizes needed by the coordinate generator.
type Regions struct {
	byNode  map[string]Region
	columns map[int]int // x -> number of nodes in that column
	order   []string    // first-visit order of the traversal
	maxX    int
}

// Region returns the region assigned to the node and true, or false for
// nodes that were not reachable from the head.
func (r *Regions) Region(id string) (Region, bool) {
	reg, ok := r.byNode[id]
	return reg, ok
}

// ColumnCount returns the number of depth columns (the maximum X).
func (r *Regions) ColumnCount() int { return r.maxX }

// ColumnSize returns the number of nodes in column x, 0 for empty columns.
func (r *Regions) ColumnSize(x int) int { return r.columns[x] }

// Len returns the number of nodes that received a region.
func (r *Regions) Len() int { return len(r.byNode) }

// Order returns node IDs in the order the traversal first reached them.
// The slice is owned by Regions and must not be modified.
func (r *Regions) Order() []string { return r.order }

// AssignRegions walks the graph depth-first from head and assigns every
// reachable node a region such that X equals the length of the longest path
// from the head (head itself is column 1) and Y is a dense 1..K rank within
// each column, preserving top-to-bottom traversal order.
//
// When the traversal reaches a node a second time along a deeper path, the
// node and its whole subtree shift right by the difference; each node moves
// at most once per shift so reconverging paths cannot repropagate forever.
// The traversal uses explicit stacks throughout and is bounded by graph
// size, not depth.
func AssignRegions(g *graph.Graph, head string) (*Regions, error) {
	if _, ok := g.Node(head); !ok {
		return nil, fmt.Errorf("assign regions: %w: %s", graph.ErrUnknownSourceNode, head)
	}

	r := &Regions{
		byNode:  make(map[string]Region),
		columns: make(map[int]int),
	}

	type visit struct {
		id string
		x  int
	}

	maxY := 0
	stack := []visit{{id: head, x: 1}}
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if reg, seen := r.byNode[v.id]; seen {
			if v.x > reg.X {
				r.shiftRight(g, v.id, v.x-reg.X)
			}
			continue
		}

		maxY++
		r.byNode[v.id] = Region{X: v.x, Y: maxY}
		r.order = append(r.order, v.id)

		children := g.Children(v.id)
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, visit{id: children[i], x: v.x + 1})
		}
	}

	r.renumberColumns()
	return r, nil
}

// shiftRight moves the node and its subtree amount columns to the right.
// A node joins the shift set at most once, which guards against diamonds
// reconverging on the same descendant.
func (r *Regions) shiftRight(g *graph.Graph, id string, amount int) {
	shifted := map[string]struct{}{id: {}}
	stack := []string{id}
	for len(stack) > 0 {
		curr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		reg, ok := r.byNode[curr]
		if ok {
			reg.X += amount
			r.byNode[curr] = reg
		}
		for _, c := range g.Children(curr) {
			if _, done := shifted[c]; done {
				continue
			}
			shifted[c] = struct{}{}
			if _, assigned := r.byNode[c]; assigned {
				stack = append(stack, c)
			}
		}
	}
}

// renumberColumns buckets nodes by final X and replaces the raw running
// Y counters with a dense 1..K rank per column, ordered by the raw counter.
func (r *Regions) renumberColumns() {
	byColumn := make(map[int][]string)
	for id, reg := range r.byNode {
		byColumn[reg.X] = append(byColumn[reg.X], id)
		if reg.X > r.maxX {
			r.maxX = reg.X
		}
	}
	for x, ids := range byColumn {
		slices.SortFunc(ids, func(a, b string) int {
			return r.byNode[a].Y - r.byNode[b].Y
		})
		for rank, id := range ids {
			r.byNode[id] = Region{X: x, Y: rank + 1}
		}
		r.columns[x] = len(ids)
	}
}

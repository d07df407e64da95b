package transform

import (
	"fmt"
	"slices"

	"github.com/stepgraph/stepgraph/pkg/graph"
)

// Simplify rewrites the graph in place to collapse redundant join nodes
// reachable from head, without changing reachability or relative ordering
// between task nodes.
//
// # Rules
//
// Applied per node, each to a local fixed point before moving on:
//
//   - A task whose only parent is a join fanning out to fewer than two
//     children absorbs that join: the join is deleted and its parents are
//     rewired directly to the task.
//   - A join with no children is a dead-end sink and is deleted.
//   - A join with exactly one parent is removed; the parent absorbs its
//     children directly.
//   - A join whose children are all joins merges in every child join that
//     has itself exactly one parent, reattaching that child's children,
//     until the child list stops changing.
//
// # Traversal
//
// Children can change while siblings are processed, so each sweep walks the
// reachable set fresh and sweeps repeat until one completes with no
// structural change. Every rule application deletes a node, so the number
// of sweeps is bounded by the node count - there is no unbounded recursion
// and no retry-on-stack-exhaustion fallback.
//
// Simplify is idempotent: running it on an already-simplified graph makes
// no structural change.
func Simplify(g *graph.Graph, head string) error {
	if _, ok := g.Node(head); !ok {
		return fmt.Errorf("simplify: %w: %s", graph.ErrUnknownSourceNode, head)
	}

	for {
		changed := false
		for _, id := range preorder(g, head) {
			if _, ok := g.Node(id); !ok {
				continue // removed by an earlier rule this sweep
			}
			if simplifyAt(g, id) {
				changed = true
			}
		}
		if !changed {
			return nil
		}
	}
}

// preorder returns reachable node IDs in depth-first pre-order using an
// explicit stack. Children are pushed in reverse so they pop in insertion
// order.
func preorder(g *graph.Graph, head string) []string {
	order := make([]string, 0, g.NodeCount())
	seen := map[string]struct{}{head: {}}
	stack := []string{head}
	for len(stack) > 0 {
		curr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		order = append(order, curr)
		children := g.Children(curr)
		for i := len(children) - 1; i >= 0; i-- {
			c := children[i]
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			stack = append(stack, c)
		}
	}
	return order
}

// simplifyAt applies the rewrite rules at one node until none fires.
// Reports whether the graph was modified.
func simplifyAt(g *graph.Graph, id string) bool {
	n, ok := g.Node(id)
	if !ok {
		return false
	}
	if !n.IsJoin() {
		return absorbJoinParent(g, id)
	}
	return simplifyJoin(g, id)
}

// absorbJoinParent removes a redundant join directly above a task: when the
// task's single parent is a join that fans out to fewer than two children,
// the join adds nothing and its parents connect straight to the task.
func absorbJoinParent(g *graph.Graph, id string) bool {
	changed := false
	for {
		parents := g.Parents(id)
		if len(parents) != 1 {
			return changed
		}
		p, ok := g.Node(parents[0])
		if !ok || !p.IsJoin() || g.OutDegree(p.ID) >= 2 {
			return changed
		}
		grandparents := slices.Clone(g.Parents(p.ID))
		g.RemoveNode(p.ID)
		for _, gp := range grandparents {
			// endpoints exist; AddEdge cannot fail here
			_ = g.AddEdge(gp, id)
		}
		changed = true
	}
}

func simplifyJoin(g *graph.Graph, id string) bool {
	changed := false
	for {
		children := g.Children(id)

		// Dead-end sink: a join that nothing waits behind.
		if len(children) == 0 {
			g.RemoveNode(id)
			return true
		}

		// Single parent: the parent can act as the sync point itself.
		if parents := g.Parents(id); len(parents) == 1 {
			parent := parents[0]
			for _, c := range slices.Clone(children) {
				_ = g.AddEdge(parent, c)
			}
			g.RemoveNode(id)
			return true
		}

		if !mergeJoinChildren(g, id) {
			return changed
		}
		changed = true
	}
}

// mergeJoinChildren collapses chains of joins: while every child of the join
// is itself a join, any child with a single parent is folded into this node.
// Reports whether anything merged.
func mergeJoinChildren(g *graph.Graph, id string) bool {
	merged := false
	for {
		children := g.Children(id)
		if len(children) == 0 || !allJoins(g, children) {
			return merged
		}
		before := slices.Clone(children)
		for _, cid := range before {
			if g.InDegree(cid) != 1 {
				continue
			}
			for _, cc := range slices.Clone(g.Children(cid)) {
				_ = g.AddEdge(id, cc)
			}
			g.RemoveNode(cid)
			merged = true
		}
		if slices.Equal(before, g.Children(id)) {
			return merged
		}
	}
}

func allJoins(g *graph.Graph, ids []string) bool {
	for _, id := range ids {
		n, ok := g.Node(id)
		if !ok || !n.IsJoin() {
			return false
		}
	}
	return true
}

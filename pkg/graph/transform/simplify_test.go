package transform

import (
	"slices"
	"strconv"
	"testing"

	"github.com/stepgraph/stepgraph/pkg/graph"
)

func TestSimplify_UnknownHead(t *testing.T) {
	g := graph.New()
	if err := Simplify(g, "missing"); err == nil {
		t.Error("Simplify() with unknown head = nil, want error")
	}
}

// Two parallel tasks feed one join which feeds a final task: the join is
// redundant and the final task becomes the merge point.
func TestSimplify_ParallelBranchesIntoJoin(t *testing.T) {
	g := graph.New()
	for _, id := range []string{"head", "a", "b", "final"} {
		g.AddTask(id)
	}
	j := g.AddJoin()
	g.AddEdge("head", "a")
	g.AddEdge("head", "b")
	g.AddEdge("a", j)
	g.AddEdge("b", j)
	g.AddEdge(j, "final")

	if err := Simplify(g, "head"); err != nil {
		t.Fatalf("Simplify() = %v", err)
	}

	if _, ok := g.Node(j); ok {
		t.Error("redundant join still present")
	}
	parents := g.Parents("final")
	slices.Sort(parents)
	if !slices.Equal(parents, []string{"a", "b"}) {
		t.Errorf("Parents(final) = %v, want [a b]", parents)
	}
	if err := g.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

// A childless join dangling off the tail of a chain is a dead-end sink.
func TestSimplify_DanglingJoinTail(t *testing.T) {
	g := graph.New()
	for _, id := range []string{"a", "b", "c"} {
		g.AddTask(id)
	}
	g.AddEdge("a", "b")
	g.AddEdge("b", "c")
	j := g.AddJoin()
	g.AddEdge("c", j)

	if err := Simplify(g, "a"); err != nil {
		t.Fatalf("Simplify() = %v", err)
	}

	if _, ok := g.Node(j); ok {
		t.Error("dead-end join still present")
	}
	if g.OutDegree("c") != 0 {
		t.Errorf("Children(c) = %v, want none", g.Children("c"))
	}
}

// A join with a single parent is removed; the parent absorbs its children.
func TestSimplify_SingleParentJoin(t *testing.T) {
	g := graph.New()
	for _, id := range []string{"head", "x", "y"} {
		g.AddTask(id)
	}
	j := g.AddJoin()
	g.AddEdge("head", j)
	g.AddEdge(j, "x")
	g.AddEdge(j, "y")

	if err := Simplify(g, "head"); err != nil {
		t.Fatalf("Simplify() = %v", err)
	}

	if _, ok := g.Node(j); ok {
		t.Error("single-parent join still present")
	}
	children := slices.Clone(g.Children("head"))
	slices.Sort(children)
	if !slices.Equal(children, []string{"x", "y"}) {
		t.Errorf("Children(head) = %v, want [x y]", children)
	}
}

// Chains of join nodes collapse into one sync point.
func TestSimplify_JoinChainCollapses(t *testing.T) {
	// a, b → j1 → j2 → tail ... j1 keeps two parents so only the chain
	// below it is eligible for merging.
	g := graph.New()
	for _, id := range []string{"head", "a", "b", "t1", "t2"} {
		g.AddTask(id)
	}
	j1 := g.AddJoin()
	j2 := g.AddJoin()
	g.AddEdge("head", "a")
	g.AddEdge("head", "b")
	g.AddEdge("a", j1)
	g.AddEdge("b", j1)
	g.AddEdge(j1, j2)
	g.AddEdge(j2, "t1")
	g.AddEdge(j2, "t2")

	if err := Simplify(g, "head"); err != nil {
		t.Fatalf("Simplify() = %v", err)
	}

	if _, ok := g.Node(j2); ok {
		t.Error("inner join of chain still present")
	}
	if _, ok := g.Node(j1); !ok {
		t.Fatal("outer sync point removed; it still merges two branches")
	}
	children := slices.Clone(g.Children(j1))
	slices.Sort(children)
	if !slices.Equal(children, []string{"t1", "t2"}) {
		t.Errorf("Children(%s) = %v, want [t1 t2]", j1, children)
	}
	if err := g.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

// After simplification no reachable join has zero children, and a second run
// is a structural no-op.
func TestSimplify_FixedPointAndIdempotence(t *testing.T) {
	g := graph.New()
	for _, id := range []string{"head", "a", "b", "c", "mid", "tail"} {
		g.AddTask(id)
	}
	j1 := g.AddJoin()
	j2 := g.AddJoin()
	j3 := g.AddJoin()
	g.AddEdge("head", "a")
	g.AddEdge("head", "b")
	g.AddEdge("head", "c")
	g.AddEdge("a", j1)
	g.AddEdge("b", j1)
	g.AddEdge(j1, "mid")
	g.AddEdge("mid", j2)
	g.AddEdge("c", j2)
	g.AddEdge(j2, j3)
	g.AddEdge(j3, "tail")
	g.AddEdge("tail", g.AddJoin()) // dangling sink

	if err := Simplify(g, "head"); err != nil {
		t.Fatalf("Simplify() = %v", err)
	}

	for id := range g.Reachable("head") {
		n, _ := g.Node(id)
		if n.IsJoin() && g.OutDegree(id) == 0 {
			t.Errorf("join %s has no children after simplification", id)
		}
		if n.IsJoin() && g.InDegree(id) < 2 {
			t.Errorf("join %s kept fewer than two parents", id)
		}
	}

	before := snapshot(g)
	if err := Simplify(g, "head"); err != nil {
		t.Fatalf("second Simplify() = %v", err)
	}
	if after := snapshot(g); before != after {
		t.Errorf("second run changed structure:\nbefore: %s\nafter:  %s", before, after)
	}
}

// A long chain of single-parent joins must collapse without exhausting any
// stack: the traversal is bounded by graph size, not depth.
func TestSimplify_DeepJoinChain(t *testing.T) {
	g := graph.New()
	g.AddTask("head")
	g.AddTask("tail")
	prev := "head"
	joins := make([]string, 0, 2000)
	for range 2000 {
		j := g.AddJoin()
		joins = append(joins, j)
		g.AddEdge(prev, j)
		prev = j
	}
	g.AddEdge(prev, "tail")

	if err := Simplify(g, "head"); err != nil {
		t.Fatalf("Simplify() = %v", err)
	}

	for _, j := range joins {
		if _, ok := g.Node(j); ok {
			t.Fatalf("join %s survived chain collapse", j)
		}
	}
	if !slices.Equal(g.Children("head"), []string{"tail"}) {
		t.Errorf("Children(head) = %v, want [tail]", g.Children("head"))
	}
}

func snapshot(g *graph.Graph) string {
	ids := make([]string, 0, g.NodeCount())
	for _, n := range g.Nodes() {
		ids = append(ids, n.ID)
	}
	slices.Sort(ids)
	var out string
	for _, id := range ids {
		children := slices.Clone(g.Children(id))
		slices.Sort(children)
		out += id + "->" + strconv.Itoa(len(children))
		for _, c := range children {
			out += "," + c
		}
		out += ";"
	}
	return out
}

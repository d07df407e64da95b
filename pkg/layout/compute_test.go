package layout

import (
	"strconv"
	"testing"

	"github.com/stepgraph/stepgraph/pkg/graph"
	"github.com/stepgraph/stepgraph/pkg/graph/transform"
)

func buildWideGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()
	g.AddTask("head")
	for i := range 4 {
		branch := "b" + strconv.Itoa(i)
		g.AddTask(branch)
		g.AddEdge("head", branch)
		for j := range 3 {
			step := branch + "s" + strconv.Itoa(j)
			g.AddTask(step)
			g.AddEdge(branch, step)
		}
	}
	return g
}

func TestCompute_DeterministicForSeed(t *testing.T) {
	opts := Options{Width: 800, Height: 600, Seed: 1234}

	a, err := Compute(buildWideGraph(t), "head", opts)
	if err != nil {
		t.Fatalf("Compute() = %v", err)
	}
	b, err := Compute(buildWideGraph(t), "head", opts)
	if err != nil {
		t.Fatalf("Compute() = %v", err)
	}

	if len(a.Points) != len(b.Points) {
		t.Fatalf("point counts differ: %d != %d", len(a.Points), len(b.Points))
	}
	for id, pa := range a.Points {
		pb := b.Points[id]
		if pa.Pos() != pb.Pos() {
			t.Errorf("position(%s): %+v != %+v for identical seeds", id, pa.Pos(), pb.Pos())
		}
		if pa.Color != pb.Color {
			t.Errorf("color(%s): %+v != %+v for identical seeds", id, pa.Color, pb.Color)
		}
	}
}

func TestCompute_AllPointsWithinMargins(t *testing.T) {
	for _, seed := range []uint64{1, 17, 99} {
		res, err := Compute(buildWideGraph(t), "head", Options{Width: 640, Height: 480, Seed: seed})
		if err != nil {
			t.Fatalf("Compute() = %v", err)
		}
		for id, pt := range res.Points {
			pos := pt.Pos()
			if pos.X < DefaultMargin || pos.X > res.Width-DefaultMargin {
				t.Errorf("seed %d: x(%s) = %d outside margins", seed, id, pos.X)
			}
			if pos.Y < DefaultMargin || pos.Y > res.Height-DefaultMargin {
				t.Errorf("seed %d: y(%s) = %d outside margins", seed, id, pos.Y)
			}
		}
	}
}

func TestCompute_HeadPinnedToLeftMargin(t *testing.T) {
	res, err := Compute(buildWideGraph(t), "head", Options{Width: 800, Height: 600, Seed: 5})
	if err != nil {
		t.Fatalf("Compute() = %v", err)
	}
	if got := res.Points["head"].Pos().X; got != DefaultMargin {
		t.Errorf("head x = %d, want pinned at %d", got, DefaultMargin)
	}
}

// The three-deep diamond from a simplified plan: head → a,b → join → tail.
// After simplification the join is gone and tail sits in column 3.
func TestCompute_SimplifiedDiamond(t *testing.T) {
	g := graph.New()
	for _, id := range []string{"head", "a", "b", "tail"} {
		g.AddTask(id)
	}
	j := g.AddJoin()
	g.AddEdge("head", "a")
	g.AddEdge("head", "b")
	g.AddEdge("a", j)
	g.AddEdge("b", j)
	g.AddEdge(j, "tail")

	// Before simplification the join itself holds column max(a,b)+1 == 3.
	reg, err := AssignRegions(g, "head")
	if err != nil {
		t.Fatalf("AssignRegions() = %v", err)
	}
	if r, _ := reg.Region(j); r.X != 3 {
		t.Errorf("xRegion(join) = %d, want 3", r.X)
	}

	if err := transform.Simplify(g, "head"); err != nil {
		t.Fatalf("Simplify() = %v", err)
	}

	res, err := Compute(g, "head", Options{Width: 100, Height: 100, Seed: 42})
	if err != nil {
		t.Fatalf("Compute() = %v", err)
	}

	wantX := map[string]int{"head": 1, "a": 2, "b": 2, "tail": 3}
	for id, want := range wantX {
		r, ok := res.Reg.Region(id)
		if !ok {
			t.Fatalf("node %s missing from regions", id)
		}
		if r.X != want {
			t.Errorf("xRegion(%s) = %d, want %d", id, r.X, want)
		}
	}
	if len(res.Inconsistencies) != 0 {
		t.Errorf("Inconsistencies = %v, want none", res.Inconsistencies)
	}
}

func TestCompute_UserOverrideSticks(t *testing.T) {
	res, err := Compute(buildWideGraph(t), "head", Options{Width: 800, Height: 600, Seed: 8})
	if err != nil {
		t.Fatalf("Compute() = %v", err)
	}

	pt := res.Points["b0"]
	pt.SetPosition(10, 20)

	grid := NewGrid(800, 600, 8)
	x, y, err := pt.XY(grid, res.Reg)
	if err != nil {
		t.Fatalf("XY() = %v", err)
	}
	if x != 10 || y != 20 {
		t.Errorf("XY() after override = (%d, %d), want (10, 20)", x, y)
	}
}

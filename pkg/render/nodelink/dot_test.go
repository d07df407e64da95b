package nodelink

import (
	"strings"
	"testing"

	"github.com/stepgraph/stepgraph/pkg/graph"
)

func buildPlan(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()
	for _, id := range []string{"build", "test", "deploy"} {
		if err := g.AddTask(id); err != nil {
			t.Fatalf("AddTask(%s) = %v", id, err)
		}
	}
	j := g.AddJoin()
	g.AddEdge("build", j)
	g.AddEdge("test", j)
	g.AddEdge(j, "deploy")
	return g
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(buildPlan(t), Options{})

	for _, want := range []string{
		"digraph G {",
		"rankdir=LR;",
		`"build" [label="build"];`,
		`"join_1" [label="", shape=point, width=0.15, fillcolor=black];`,
		`"build" -> "join_1";`,
		`"join_1" -> "deploy";`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %s", want)
		}
	}
}

func TestToDOT_Detailed(t *testing.T) {
	dot := ToDOT(buildPlan(t), Options{Detailed: true})
	if !strings.Contains(dot, `in: 1 out: 0`) {
		t.Error("detailed labels missing degree information")
	}
}

func TestToDOT_Rankdir(t *testing.T) {
	dot := ToDOT(buildPlan(t), Options{Rankdir: "TB"})
	if !strings.Contains(dot, "rankdir=TB;") {
		t.Error("rankdir option not applied")
	}
}

func TestToDOT_Deterministic(t *testing.T) {
	a := ToDOT(buildPlan(t), Options{})
	b := ToDOT(buildPlan(t), Options{})
	if a != b {
		t.Error("DOT output differs between identical graphs")
	}
}

package graphio

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stepgraph/stepgraph/pkg/graph"
	"github.com/stepgraph/stepgraph/pkg/layout"
)

func buildPlan(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()
	for _, id := range []string{"start", "build", "test", "deploy"} {
		if err := g.AddTask(id); err != nil {
			t.Fatalf("AddTask(%s) = %v", id, err)
		}
	}
	j := g.AddJoin()
	g.AddEdge("start", "build")
	g.AddEdge("start", "test")
	g.AddEdge("build", j)
	g.AddEdge("test", j)
	g.AddEdge(j, "deploy")
	return g
}

func TestGraphRoundTrip(t *testing.T) {
	g := buildPlan(t)

	var buf bytes.Buffer
	if err := WriteJSON(g, &buf); err != nil {
		t.Fatalf("WriteJSON() = %v", err)
	}
	restored, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("ReadJSON() = %v", err)
	}

	if restored.NodeCount() != g.NodeCount() {
		t.Errorf("restored %d nodes, want %d", restored.NodeCount(), g.NodeCount())
	}
	j, ok := restored.Node("join_1")
	if !ok {
		t.Fatal("join node lost its ID in the round trip")
	}
	if !j.IsJoin() {
		t.Error("join node lost its kind in the round trip")
	}
	if got := restored.Children("join_1"); len(got) != 1 || got[0] != "deploy" {
		t.Errorf("Children(join_1) = %v, want [deploy]", got)
	}
	if got := restored.Parents("join_1"); len(got) != 2 {
		t.Errorf("Parents(join_1) = %v, want two parents", got)
	}
}

func TestFromGraph_Deterministic(t *testing.T) {
	a := FromGraph(buildPlan(t))
	b := FromGraph(buildPlan(t))

	if len(a.Nodes) != len(b.Nodes) || len(a.Edges) != len(b.Edges) {
		t.Fatalf("shapes differ: %d/%d nodes, %d/%d edges",
			len(a.Nodes), len(b.Nodes), len(a.Edges), len(b.Edges))
	}
	for i := range a.Nodes {
		if a.Nodes[i] != b.Nodes[i] {
			t.Errorf("node %d differs: %+v != %+v", i, a.Nodes[i], b.Nodes[i])
		}
	}
	for i := range a.Edges {
		if a.Edges[i] != b.Edges[i] {
			t.Errorf("edge %d differs: %+v != %+v", i, a.Edges[i], b.Edges[i])
		}
	}
}

func TestReadJSON_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"malformed", `{"nodes": [`},
		{"duplicate node", `{"nodes": [{"id": "a"}, {"id": "a"}], "edges": []}`},
		{"unknown edge target", `{"nodes": [{"id": "a"}], "edges": [{"from": "a", "to": "b"}]}`},
		{"empty node id", `{"nodes": [{"id": ""}], "edges": []}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadJSON(strings.NewReader(tt.input)); err == nil {
				t.Error("ReadJSON() = nil, want error")
			}
		})
	}
}

func TestImportExportFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.json")

	if err := ExportFile(buildPlan(t), path); err != nil {
		t.Fatalf("ExportFile() = %v", err)
	}
	g, err := ImportFile(path)
	if err != nil {
		t.Fatalf("ImportFile() = %v", err)
	}
	if g.NodeCount() != 5 {
		t.Errorf("imported %d nodes, want 5", g.NodeCount())
	}

	if _, err := ImportFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("ImportFile(missing) = nil, want error")
	}
}

func TestLayoutRoundTrip(t *testing.T) {
	g := buildPlan(t)
	res, err := layout.Compute(g, "start", layout.Options{Width: 400, Height: 300, Seed: 3})
	if err != nil {
		t.Fatalf("Compute() = %v", err)
	}

	l := FromResult(res, FromGraph(g), 3)
	if len(l.Points) != g.NodeCount() {
		t.Fatalf("layout has %d points, want %d", len(l.Points), g.NodeCount())
	}
	for i := 1; i < len(l.Points); i++ {
		if l.Points[i-1].ID >= l.Points[i].ID {
			t.Fatalf("points not sorted: %s before %s", l.Points[i-1].ID, l.Points[i].ID)
		}
	}
	for _, p := range l.Points {
		if len(p.Color) != 7 || p.Color[0] != '#' {
			t.Errorf("color(%s) = %q, want #rrggbb", p.ID, p.Color)
		}
	}

	path := filepath.Join(t.TempDir(), "layout.json")
	if err := WriteLayoutFile(l, path); err != nil {
		t.Fatalf("WriteLayoutFile() = %v", err)
	}
	restored, err := ReadLayoutFile(path)
	if err != nil {
		t.Fatalf("ReadLayoutFile() = %v", err)
	}
	if restored.Width != l.Width || restored.Height != l.Height {
		t.Errorf("bounds = %dx%d, want %dx%d", restored.Width, restored.Height, l.Width, l.Height)
	}
	if len(restored.Points) != len(l.Points) {
		t.Errorf("restored %d points, want %d", len(restored.Points), len(l.Points))
	}
}

func TestUnmarshalLayout_RequiresPoints(t *testing.T) {
	if _, err := UnmarshalLayout([]byte(`{"width": 100, "height": 100}`)); err == nil {
		t.Error("UnmarshalLayout() without points = nil, want error")
	}
}

package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stepgraph/stepgraph/pkg/cache"
	"github.com/stepgraph/stepgraph/pkg/graphio"
)

func testLayout() graphio.Layout {
	return graphio.Layout{
		Width:  400,
		Height: 300,
		Nodes:  []graphio.Node{{ID: "a"}, {ID: "join_1", Kind: graphio.KindJoin}},
		Edges:  []graphio.Edge{{From: "a", To: "join_1"}},
		Points: []graphio.Point{
			{ID: "a", X: 100, Y: 80, XRegion: 1, YRegion: 1, Color: "#112233"},
			{ID: "join_1", X: 200, Y: 80, XRegion: 2, YRegion: 1, Color: "#223344"},
		},
	}
}

const planJSON = `{
  "nodes": [
    {"id": "start"},
    {"id": "build"},
    {"id": "test"},
    {"id": "join_1", "kind": "join"},
    {"id": "deploy"}
  ],
  "edges": [
    {"from": "start", "to": "build"},
    {"from": "start", "to": "test"},
    {"from": "build", "to": "join_1"},
    {"from": "test", "to": "join_1"},
    {"from": "join_1", "to": "deploy"}
  ]
}`

func writePlan(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plan.json")
	if err := os.WriteFile(path, []byte(planJSON), 0644); err != nil {
		t.Fatalf("write plan: %v", err)
	}
	return path
}

func TestRunner_Execute(t *testing.T) {
	runner := NewRunner(nil, nil, nil)
	defer runner.Close()

	result, err := runner.Execute(context.Background(), Options{
		Input:   writePlan(t),
		Head:    "start",
		Width:   400,
		Height:  300,
		Seed:    7,
		Formats: []string{FormatSVG, FormatJSON},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	// Simplification collapses join_1 in the diamond, leaving 4 task nodes.
	if result.Stats.NodeCount != 4 {
		t.Errorf("NodeCount = %d, want 4", result.Stats.NodeCount)
	}
	if result.GraphHash == "" {
		t.Error("GraphHash is empty")
	}
	if len(result.Layout.Points) != 4 {
		t.Errorf("layout has %d points, want 4", len(result.Layout.Points))
	}

	svg, ok := result.Artifacts[FormatSVG]
	if !ok {
		t.Fatal("missing svg artifact")
	}
	if !strings.Contains(string(svg), "<svg") {
		t.Error("svg artifact does not look like SVG")
	}
	jsonData, ok := result.Artifacts[FormatJSON]
	if !ok {
		t.Fatal("missing json artifact")
	}
	if !strings.Contains(string(jsonData), `"points"`) {
		t.Error("json artifact does not contain points")
	}

	if result.CacheInfo.LayoutHit || result.CacheInfo.RenderHit {
		t.Error("first run should not hit the cache")
	}
}

func TestRunner_Execute_MissingHead(t *testing.T) {
	runner := NewRunner(nil, nil, nil)
	_, err := runner.Execute(context.Background(), Options{Input: writePlan(t)})
	if err == nil {
		t.Fatal("expected error for missing head")
	}
}

func TestRunner_Execute_BadFormat(t *testing.T) {
	runner := NewRunner(nil, nil, nil)
	_, err := runner.Execute(context.Background(), Options{
		Input:   writePlan(t),
		Head:    "start",
		Formats: []string{"gif"},
	})
	if err == nil || !strings.Contains(err.Error(), "gif") {
		t.Fatalf("expected unsupported format error, got %v", err)
	}
}

func TestRunner_Execute_CacheHitOnSecondRun(t *testing.T) {
	fc, err := cache.NewFileCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	runner := NewRunner(fc, nil, nil)
	defer runner.Close()

	opts := Options{
		Input:   writePlan(t),
		Head:    "start",
		Width:   400,
		Height:  300,
		Seed:    7,
		Formats: []string{FormatSVG},
	}

	first, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("first Execute: %v", err)
	}
	if first.CacheInfo.LayoutHit {
		t.Error("first run hit the layout cache")
	}

	second, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	if !second.CacheInfo.LayoutHit {
		t.Error("second run missed the layout cache")
	}
	if !second.CacheInfo.RenderHit {
		t.Error("second run missed the artifact cache")
	}
	if string(first.Artifacts[FormatSVG]) != string(second.Artifacts[FormatSVG]) {
		t.Error("cached svg differs from freshly rendered svg")
	}

	// Refresh bypasses the layout cache
	opts.Refresh = true
	third, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("third Execute: %v", err)
	}
	if third.CacheInfo.LayoutHit {
		t.Error("refresh run should not hit the layout cache")
	}
}

func TestRunner_Execute_SkipSimplify(t *testing.T) {
	runner := NewRunner(nil, nil, nil)
	result, err := runner.Execute(context.Background(), Options{
		Input:        writePlan(t),
		Head:         "start",
		SkipSimplify: true,
		Formats:      []string{FormatDOT},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	dot, ok := result.Artifacts[FormatDOT]
	if !ok {
		t.Fatal("missing dot artifact")
	}
	if !strings.Contains(string(dot), "digraph") {
		t.Error("dot artifact does not look like DOT")
	}
	if !strings.Contains(string(dot), "join_1") {
		t.Error("dot artifact lost the join node")
	}
}

func TestRenderFromLayout_DOTRequiresGraph(t *testing.T) {
	_, err := RenderFromLayout(
		testLayout(),
		nil,
		Options{Formats: []string{FormatDOT}},
	)
	if err == nil {
		t.Fatal("expected error when DOT is requested without a graph")
	}
}

func TestSnapshotFromLayout(t *testing.T) {
	snap := snapshotFromLayout(testLayout())

	if len(snap.Points) != 2 {
		t.Fatalf("snapshot has %d points, want 2", len(snap.Points))
	}
	x, y, ok := snap.ViewPosition("a")
	if !ok || x != 100 || y != 80 {
		t.Errorf("ViewPosition(a) = (%d, %d, %v), want (100, 80, true)", x, y, ok)
	}
	if got := snap.Points["a"].Color.R; got != 0x11 {
		t.Errorf("Color.R = %#x, want 0x11", got)
	}
	if snap.Labels["join_1"] != "" {
		t.Errorf("join label = %q, want empty", snap.Labels["join_1"])
	}
	if !snap.DrawAllLabels {
		t.Error("small snapshot should draw all labels")
	}
}

func TestParseColor(t *testing.T) {
	c := parseColor("#0a1490")
	if c.R != 0x0a || c.G != 0x14 || c.B != 0x90 {
		t.Errorf("parseColor = %+v", c)
	}
	if got := parseColor("not-a-color"); got.R != 0 || got.G != 0 || got.B != 0 {
		t.Errorf("malformed color = %+v, want black", got)
	}
}

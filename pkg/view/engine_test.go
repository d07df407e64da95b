package view

import (
	"context"
	"strings"
	"testing"

	"github.com/stepgraph/stepgraph/pkg/errors"
	"github.com/stepgraph/stepgraph/pkg/graph"
	"github.com/stepgraph/stepgraph/pkg/layout"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	g := graph.New()
	for _, id := range []string{"head", "a", "b", "tail"} {
		g.AddTask(id)
	}
	g.AddEdge("head", "a")
	g.AddEdge("head", "b")
	g.AddEdge("a", "tail")
	g.AddEdge("b", "tail")
	return NewEngine(g, "head", layout.Options{Width: 400, Height: 300, Seed: 7}, nil)
}

func TestEngine_RecomputePublishes(t *testing.T) {
	e := newTestEngine(t)
	if e.Snapshot() != nil {
		t.Fatal("snapshot published before first Recompute")
	}

	if err := e.Recompute(context.Background()); err != nil {
		t.Fatalf("Recompute() = %v", err)
	}
	snap := e.Snapshot()
	if snap == nil {
		t.Fatal("no snapshot after Recompute")
	}
	if snap.ID == "" {
		t.Error("snapshot missing ID")
	}
	if len(snap.Points) != 4 {
		t.Errorf("snapshot has %d points, want 4", len(snap.Points))
	}
	if !snap.DrawAllLabels {
		t.Error("DrawAllLabels should start true for a 4-node plot")
	}
	if snap.ZoomFactor != 1.0 {
		t.Errorf("initial zoom = %v, want 1.0", snap.ZoomFactor)
	}

	if err := e.Recompute(context.Background()); err != nil {
		t.Fatalf("second Recompute() = %v", err)
	}
	if e.Snapshot().ID == snap.ID {
		t.Error("recomputation should mint a new snapshot ID")
	}
}

func TestEngine_RecomputeFailureKeepsPrevious(t *testing.T) {
	g := graph.New()
	g.AddTask("head")
	g.AddTask("a")
	g.AddEdge("head", "a")
	e := NewEngine(g, "head", layout.Options{Width: 400, Height: 300, Seed: 7}, nil)

	if err := e.Recompute(context.Background()); err != nil {
		t.Fatalf("Recompute() = %v", err)
	}
	prev := e.Snapshot()

	g.RemoveNode("head")
	if err := e.Recompute(context.Background()); err == nil {
		t.Fatal("Recompute() with missing head should fail")
	}
	if e.Snapshot() != prev {
		t.Error("failed recomputation replaced the published snapshot")
	}
}

func TestEngine_ZoomClamped(t *testing.T) {
	e := newTestEngine(t)
	if err := e.Recompute(context.Background()); err != nil {
		t.Fatalf("Recompute() = %v", err)
	}

	e.SetZoom(100)
	if got := e.Snapshot().ZoomFactor; got != MaxZoom {
		t.Errorf("zoom after SetZoom(100) = %v, want %v", got, MaxZoom)
	}
	e.SetZoom(0.01)
	if got := e.Snapshot().ZoomFactor; got != MinZoom {
		t.Errorf("zoom after SetZoom(0.01) = %v, want %v", got, MinZoom)
	}

	e.SetZoom(1.0)
	e.ZoomIn()
	if got := e.Snapshot().ZoomFactor; got != 1.0+ZoomStep {
		t.Errorf("zoom after ZoomIn = %v, want %v", got, 1.0+ZoomStep)
	}
	e.ZoomOut()
	e.ZoomOut()
	if got := e.Snapshot().ZoomFactor; got != 1.0-ZoomStep {
		t.Errorf("zoom after two ZoomOut = %v, want %v", got, 1.0-ZoomStep)
	}
}

func TestEngine_OriginClampedToZoomedBounds(t *testing.T) {
	e := newTestEngine(t)
	if err := e.Recompute(context.Background()); err != nil {
		t.Fatalf("Recompute() = %v", err)
	}

	// At zoom 1 the whole canvas fits and panning collapses to the corner.
	e.SetViewOrigin(500, 500)
	snap := e.Snapshot()
	if snap.OriginX != 0 || snap.OriginY != 0 {
		t.Errorf("origin at zoom 1 = (%d, %d), want (0, 0)", snap.OriginX, snap.OriginY)
	}

	// At zoom 2 a 400x300 canvas leaves 400x300 of slack.
	e.SetZoom(2.0)
	e.SetViewOrigin(5000, 5000)
	snap = e.Snapshot()
	if snap.OriginX != 400 || snap.OriginY != 300 {
		t.Errorf("origin at zoom 2 = (%d, %d), want (400, 300)", snap.OriginX, snap.OriginY)
	}

	e.SetViewOrigin(-50, 120)
	snap = e.Snapshot()
	if snap.OriginX != 0 || snap.OriginY != 120 {
		t.Errorf("origin = (%d, %d), want (0, 120)", snap.OriginX, snap.OriginY)
	}

	// Zooming back out re-clamps whatever origin was set.
	e.SetZoom(1.0)
	snap = e.Snapshot()
	if snap.OriginX != 0 || snap.OriginY != 0 {
		t.Errorf("origin after zoom out = (%d, %d), want (0, 0)", snap.OriginX, snap.OriginY)
	}
}

func TestEngine_SetNodePosition(t *testing.T) {
	e := newTestEngine(t)
	if err := e.Recompute(context.Background()); err != nil {
		t.Fatalf("Recompute() = %v", err)
	}

	if err := e.SetNodePosition("a", 123, 77); err != nil {
		t.Fatalf("SetNodePosition() = %v", err)
	}
	pos := e.Snapshot().Points["a"].Pos()
	if pos.X != 123 || pos.Y != 77 {
		t.Errorf("position after drag = (%d, %d), want (123, 77)", pos.X, pos.Y)
	}

	err := e.SetNodePosition("nope", 0, 0)
	if errors.GetCode(err) != errors.ErrCodeNotFound {
		t.Errorf("SetNodePosition(unknown) code = %v, want %v", errors.GetCode(err), errors.ErrCodeNotFound)
	}

	// IDs with printf verbs must come through the error message verbatim.
	err = e.SetNodePosition("task%d", 0, 0)
	if err == nil || !strings.Contains(err.Error(), "task%d") {
		t.Errorf("SetNodePosition(\"task%%d\") = %v, want message containing the raw id", err)
	}

	// Drag overrides do not survive a recomputation.
	if err := e.Recompute(context.Background()); err != nil {
		t.Fatalf("Recompute() = %v", err)
	}
	pos = e.Snapshot().Points["a"].Pos()
	if pos.X == 123 && pos.Y == 77 {
		t.Error("drag override survived recomputation")
	}
}

func TestEngine_ClosestNode(t *testing.T) {
	e := newTestEngine(t)
	if err := e.Recompute(context.Background()); err != nil {
		t.Fatalf("Recompute() = %v", err)
	}

	e.SetNodePosition("a", 100, 100)
	e.SetNodePosition("b", 140, 100)
	e.SetNodePosition("head", 300, 250)
	e.SetNodePosition("tail", 350, 250)

	// 118 is within tolerance of both a and b; a is nearer.
	if id, ok := e.ClosestNode(118, 100); !ok || id != "a" {
		t.Errorf("ClosestNode(118, 100) = %q, %v, want \"a\", true", id, ok)
	}
	if id, ok := e.ClosestNode(123, 100); !ok || id != "b" {
		t.Errorf("ClosestNode(123, 100) = %q, %v, want \"b\", true", id, ok)
	}

	// 26 pixels off on one axis disqualifies even the nearest node.
	if id, ok := e.ClosestNode(100, 100+DragTolerance+1); ok {
		t.Errorf("ClosestNode() past tolerance = %q, want no hit", id)
	}

	// The hit test works in view coordinates: zoom then pan, and the same
	// natural point lands elsewhere on screen.
	e.SetZoom(2.0)
	e.SetViewOrigin(100, 100)
	if id, ok := e.ClosestNode(100, 100); !ok || id != "a" {
		t.Errorf("ClosestNode(100, 100) zoomed = %q, %v, want \"a\", true", id, ok)
	}
}

func TestEngine_LabelsAndHighlight(t *testing.T) {
	e := newTestEngine(t)
	if err := e.Recompute(context.Background()); err != nil {
		t.Fatalf("Recompute() = %v", err)
	}

	e.ToggleLabels()
	snap := e.Snapshot()
	if snap.DrawAllLabels {
		t.Error("DrawAllLabels still true after toggle")
	}
	if snap.LabelVisible("a") {
		t.Error("label visible with labels off and no highlight")
	}

	e.HighlightNode("a")
	snap = e.Snapshot()
	if !snap.LabelVisible("a") {
		t.Error("highlighted node's label should be visible")
	}
	if snap.LabelVisible("b") {
		t.Error("non-highlighted label visible with labels off")
	}

	e.HighlightNode("")
	if e.Snapshot().HighlightedNode != "" {
		t.Error("highlight not cleared")
	}
}

func TestSnapshot_ViewPosition(t *testing.T) {
	e := newTestEngine(t)
	if err := e.Recompute(context.Background()); err != nil {
		t.Fatalf("Recompute() = %v", err)
	}
	e.SetNodePosition("a", 100, 80)
	e.SetZoom(2.0)
	e.SetViewOrigin(30, 20)

	x, y, ok := e.Snapshot().ViewPosition("a")
	if !ok {
		t.Fatal("ViewPosition(a) not ok")
	}
	if x != 170 || y != 140 {
		t.Errorf("ViewPosition(a) = (%d, %d), want (170, 140)", x, y)
	}

	if _, _, ok := e.Snapshot().ViewPosition("nope"); ok {
		t.Error("ViewPosition(unknown) should not be ok")
	}
}

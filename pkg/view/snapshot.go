package view

import (
	"github.com/google/uuid"

	"github.com/stepgraph/stepgraph/pkg/graph"
	"github.com/stepgraph/stepgraph/pkg/layout"
)

const (
	// MinZoom is the fully-zoomed-out floor.
	MinZoom = 0.8
	// MaxZoom is the fully-zoomed-in ceiling.
	MaxZoom = 5.0
	// ZoomStep is how far one zoom tick moves the factor.
	ZoomStep = 0.1

	// DragTolerance is how close (in view pixels, per axis) a cursor must be
	// to a node for hit testing to consider it.
	DragTolerance = 25

	// MaxNodesDrawAllLabels caps how large a plot can get before drawing
	// every node name becomes unreadable clutter.
	MaxNodesDrawAllLabels = 20
)

// Snapshot is one published layout generation. The structural fields (ID,
// bounds, points, edges) never change after publication; the view fields
// (zoom, origin, highlight, labels) are replaced wholesale through Engine
// entry points, never edited by readers.
type Snapshot struct {
	// ID identifies the layout generation this snapshot came from. View-only
	// mutations (pan, zoom, highlight) keep the ID; recomputations mint a
	// new one.
	ID string

	// Width and Height are the natural canvas bounds the layout was computed
	// against, before any zoom is applied.
	Width  int
	Height int

	Points map[string]*layout.Point
	Edges  []graph.Edge

	// Labels maps node IDs to display names. Join nodes map to the empty
	// string and are drawn without a label.
	Labels map[string]string

	// Inconsistencies lists nodes the clustering pass found without a
	// position. They are drawable-only-partially and worth surfacing.
	Inconsistencies []string

	ZoomFactor float64
	OriginX    int
	OriginY    int

	// HighlightedNode is the node whose label is always drawn, empty for
	// none.
	HighlightedNode string

	// DrawAllLabels starts true for small plots and can be toggled.
	DrawAllLabels bool
}

func newSnapshot(res *layout.Result, g *graph.Graph) *Snapshot {
	labels := make(map[string]string, g.NodeCount())
	for _, n := range g.Nodes() {
		labels[n.ID] = n.Name()
	}
	return &Snapshot{
		ID:              uuid.NewString(),
		Width:           res.Width,
		Height:          res.Height,
		Points:          res.Points,
		Edges:           g.Edges(),
		Labels:          labels,
		Inconsistencies: res.Inconsistencies,
		ZoomFactor:      1.0,
		DrawAllLabels:   len(res.Points) <= MaxNodesDrawAllLabels,
	}
}

// ViewPosition translates a node's natural position into view pixels under
// the snapshot's zoom and origin. ok is false for unknown nodes and nodes
// whose position was never materialized.
func (s *Snapshot) ViewPosition(id string) (int, int, bool) {
	pt, ok := s.Points[id]
	if !ok {
		return 0, 0, false
	}
	pos := pt.Pos()
	if !pos.Fixed() {
		return 0, 0, false
	}
	x := int(float64(pos.X)*s.ZoomFactor) - s.OriginX
	y := int(float64(pos.Y)*s.ZoomFactor) - s.OriginY
	return x, y, true
}

// LabelVisible reports whether the node's name should be drawn: either every
// label is on, or the node is the highlighted one.
func (s *Snapshot) LabelVisible(id string) bool {
	return s.DrawAllLabels || (s.HighlightedNode != "" && s.HighlightedNode == id)
}

// clampZoom pins a requested factor inside the allowed range.
func clampZoom(factor float64) float64 {
	if factor < MinZoom {
		return MinZoom
	}
	if factor > MaxZoom {
		return MaxZoom
	}
	return factor
}

// clampOrigin pins a requested origin so the viewport never scrolls past the
// zoomed canvas. With zoom at or below 1 the whole canvas fits and the origin
// collapses to zero.
func (s *Snapshot) clampOrigin(x, y int) (int, int) {
	maxX := int(float64(s.Width)*s.ZoomFactor) - s.Width
	maxY := int(float64(s.Height)*s.ZoomFactor) - s.Height
	if x <= 0 || maxX < 0 {
		x = 0
	} else if x > maxX {
		x = maxX
	}
	if y <= 0 || maxY < 0 {
		y = 0
	} else if y > maxY {
		y = maxY
	}
	return x, y
}

package view

import (
	"context"
	"io"
	"math"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/stepgraph/stepgraph/pkg/errors"
	"github.com/stepgraph/stepgraph/pkg/graph"
	"github.com/stepgraph/stepgraph/pkg/graph/transform"
	"github.com/stepgraph/stepgraph/pkg/layout"
)

// Engine owns a graph and the snapshot derived from it. All mutations funnel
// through its entry points; readers grab the current snapshot through
// Snapshot and never block a writer.
type Engine struct {
	logger *log.Logger

	mu      sync.Mutex // serializes mutations, not reads
	graph   *graph.Graph
	head    string
	opts    layout.Options
	current atomic.Pointer[Snapshot]
}

// NewEngine wraps a graph for interactive viewing. The engine owns the graph
// from here on: recomputations simplify it in place. Call Recompute before
// reading the first snapshot.
func NewEngine(g *graph.Graph, head string, opts layout.Options, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Engine{
		logger: logger,
		graph:  g,
		head:   head,
		opts:   opts,
	}
}

// Snapshot returns the currently published snapshot, nil before the first
// successful Recompute.
func (e *Engine) Snapshot() *Snapshot {
	return e.current.Load()
}

// Recompute simplifies the graph and runs the full layout, then publishes
// the result as a fresh snapshot. On error the previous snapshot stays
// published untouched. Zoom and label preferences carry over from the
// previous snapshot; drag overrides do not, every recomputation derives
// positions from scratch.
func (e *Engine) Recompute(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "recompute canceled")
	}

	if err := transform.Simplify(e.graph, e.head); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidGraph, err, "graph simplification failed")
	}
	res, err := layout.Compute(e.graph, e.head, e.opts)
	if err != nil {
		return err
	}
	for _, id := range res.Inconsistencies {
		e.logger.Warn("node has edges but no position", "node", id)
	}

	next := newSnapshot(res, e.graph)
	if prev := e.current.Load(); prev != nil {
		next.ZoomFactor = prev.ZoomFactor
		next.DrawAllLabels = prev.DrawAllLabels
		next.OriginX, next.OriginY = next.clampOrigin(prev.OriginX, prev.OriginY)
	}
	e.current.Store(next)
	e.logger.Debug("published layout snapshot",
		"snapshot", next.ID, "nodes", len(next.Points), "edges", len(next.Edges))
	return nil
}

// SetNodePosition pins a node to a natural-coordinate position, as after a
// drag. The override holds until the next recomputation.
func (e *Engine) SetNodePosition(id string, x, y int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	cur := e.current.Load()
	if cur == nil {
		return errors.New(errors.ErrCodeLayoutNotFound, "no layout published yet")
	}
	pt, ok := cur.Points[id]
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "unknown node: %s", id)
	}
	pt.SetPosition(x, y)
	return nil
}

// SetViewOrigin pans the viewport. The origin is clamped so the viewport
// never leaves the zoomed canvas.
func (e *Engine) SetViewOrigin(x, y int) {
	e.mutateView(func(s *Snapshot) {
		s.OriginX, s.OriginY = s.clampOrigin(x, y)
	})
}

// SetZoom replaces the zoom factor, clamped to the allowed range, and
// re-clamps the origin against the new zoomed bounds.
func (e *Engine) SetZoom(factor float64) {
	e.mutateView(func(s *Snapshot) {
		s.ZoomFactor = clampZoom(factor)
		s.OriginX, s.OriginY = s.clampOrigin(s.OriginX, s.OriginY)
	})
}

// ZoomIn advances the zoom by one tick toward the ceiling.
func (e *Engine) ZoomIn() {
	if cur := e.current.Load(); cur != nil {
		e.SetZoom(cur.ZoomFactor + ZoomStep)
	}
}

// ZoomOut backs the zoom off by one tick toward the floor.
func (e *Engine) ZoomOut() {
	if cur := e.current.Load(); cur != nil {
		e.SetZoom(cur.ZoomFactor - ZoomStep)
	}
}

// HighlightNode marks a node for always-on label drawing; empty clears the
// highlight.
func (e *Engine) HighlightNode(id string) {
	e.mutateView(func(s *Snapshot) { s.HighlightedNode = id })
}

// ToggleLabels flips between drawing every label and only the highlighted
// one.
func (e *Engine) ToggleLabels() {
	e.mutateView(func(s *Snapshot) { s.DrawAllLabels = !s.DrawAllLabels })
}

// ClosestNode hit-tests view coordinates against the published points. Only
// nodes within DragTolerance on both axes qualify; among those the nearest
// by straight-line distance wins. ok is false when nothing is close enough.
func (e *Engine) ClosestNode(x, y int) (string, bool) {
	cur := e.current.Load()
	if cur == nil {
		return "", false
	}

	best := ""
	bestDist := math.MaxFloat64
	for id := range cur.Points {
		px, py, ok := cur.ViewPosition(id)
		if !ok {
			continue
		}
		dx := px - x
		dy := py - y
		if dx < -DragTolerance || dx > DragTolerance || dy < -DragTolerance || dy > DragTolerance {
			continue
		}
		dist := math.Sqrt(float64(dx*dx + dy*dy))
		if dist < bestDist {
			bestDist = dist
			best = id
		}
	}
	return best, best != ""
}

// mutateView publishes a shallow copy of the current snapshot with the view
// fields rewritten. Structural fields (and the ID) are shared with the
// previous snapshot, so readers holding the old pointer are unaffected.
func (e *Engine) mutateView(fn func(*Snapshot)) {
	e.mu.Lock()
	defer e.mu.Unlock()

	cur := e.current.Load()
	if cur == nil {
		return
	}
	next := *cur
	fn(&next)
	e.current.Store(&next)
}

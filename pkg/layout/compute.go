package layout

import (
	"github.com/stepgraph/stepgraph/pkg/errors"
	"github.com/stepgraph/stepgraph/pkg/graph"
)

// Default canvas sizes, picked to fit common displays.
const (
	DefaultWidth  = 1280
	DefaultHeight = 1024
	LargeWidth    = 1440
	LargeHeight   = 900
)

// DefaultSeed is the default jitter seed for reproducible layouts.
const DefaultSeed = uint64(42)

// Options configures one layout computation.
type Options struct {
	Width    int
	Height   int
	Margin   int
	Softness int
	Squeeze  int
	Seed     uint64
}

// withDefaults fills zero fields with package defaults.
func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Margin <= 0 {
		o.Margin = DefaultMargin
	}
	if o.Softness <= 0 {
		o.Softness = DefaultSoftness
	}
	if o.Squeeze <= 0 {
		o.Squeeze = DefaultSqueeze
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	return o
}

// Result is the output of one layout run: a point per reachable node plus
// the region assignment they were derived from.
type Result struct {
	Width  int
	Height int
	Points map[string]*Point
	Reg    *Regions

	// Inconsistencies lists node IDs the clustering pass had to skip
	// because their position was missing from the snapshot. Non-fatal;
	// callers should log them.
	Inconsistencies []string
}

// Compute runs the full layout pipeline for the subgraph reachable from
// head: region assignment, coordinate generation, then clustering. The
// graph must already be simplified; Compute does not rewrite joins but does
// rely on the clustering pass's lazy pruning of stale parent references.
//
// Positions and colors are derived in first-visit traversal order from a
// single seeded source, so output is fully deterministic for a fixed seed.
// An invalid region index aborts with [errors.ErrCodeInvalidRegion] and no
// partial result.
func Compute(g *graph.Graph, head string, opts Options) (*Result, error) {
	opts = opts.withDefaults()

	reg, err := AssignRegions(g, head)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "layout of %s", head)
	}

	grid := NewGrid(opts.Width, opts.Height, opts.Seed)
	grid.Margin = opts.Margin
	grid.Softness = opts.Softness

	points := make(map[string]*Point, reg.Len())
	for _, id := range reg.Order() {
		r, _ := reg.Region(id)
		points[id] = &Point{Color: grid.NextColor(), Region: r}
	}

	// Materialize every position up front, in traversal order, so the
	// jitter sequence is reproducible and the clustering pass sees a
	// complete snapshot.
	for _, id := range reg.Order() {
		if _, _, err := points[id].XY(grid, reg); err != nil {
			return nil, err
		}
	}

	missing := Cluster(g, head, points, opts.Squeeze)

	return &Result{
		Width:           opts.Width,
		Height:          opts.Height,
		Points:          points,
		Reg:             reg,
		Inconsistencies: missing,
	}, nil
}

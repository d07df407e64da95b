package layout

// Position is a two-state pixel coordinate: unresolved until first derived
// from the node's region, fixed afterwards. Once fixed - whether by the grid
// or by user repositioning - it is authoritative and never re-derived.
type Position struct {
	X     int
	Y     int
	fixed bool
}

// Fixed reports whether the position has been materialized.
func (p Position) Fixed() bool { return p.fixed }

// Point carries everything the renderer needs for one node: its plot color,
// its assigned region, and its (lazily materialized) pixel position.
//
// Points live for one layout run; the next recomputation allocates fresh
// points with positions unset, so drag overrides do not survive a
// recomputation.
type Point struct {
	Color  Color
	Region Region
	pos    Position
}

// XY returns the pixel position, deriving it from the region through the
// grid on first access. The derived value is cached; later calls never
// consult the grid again.
func (p *Point) XY(g *Grid, r *Regions) (int, int, error) {
	if p.pos.fixed {
		return p.pos.X, p.pos.Y, nil
	}

	var x int
	var err error
	if p.Region.X == 1 {
		// The head column is pinned near the left edge so every plot has a
		// consistent starting point.
		x = g.Margin
	} else {
		x, err = g.Point(p.Region.X, r.ColumnCount(), g.Width)
		if err != nil {
			return 0, 0, err
		}
	}
	y, err := g.Point(p.Region.Y, r.ColumnSize(p.Region.X), g.Height)
	if err != nil {
		return 0, 0, err
	}

	p.pos = Position{X: x, Y: y, fixed: true}
	return x, y, nil
}

// Pos returns the current position value without deriving anything.
func (p *Point) Pos() Position { return p.pos }

// SetPosition overrides the position directly, as when the user drags the
// node. The position becomes fixed and the region no longer matters.
func (p *Point) SetPosition(x, y int) {
	p.pos = Position{X: x, Y: y, fixed: true}
}

// nudgeY moves an already-fixed position vertically; used by the clustering
// pass. No-op on unresolved positions.
func (p *Point) nudgeY(delta int) {
	if p.pos.fixed {
		p.pos.Y += delta
	}
}

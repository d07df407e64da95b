package layout

import (
	"math/rand/v2"

	"github.com/stepgraph/stepgraph/pkg/errors"
)

// Layout defaults, tuned for readable plots on typical canvases.
const (
	// DefaultSoftness bounds the random jitter applied to slot centers.
	DefaultSoftness = 50
	// DefaultMargin keeps points this many pixels away from every canvas edge.
	DefaultMargin = 50
	// DefaultSqueeze divides the clustering delta; smaller values pull
	// plot groups together harder.
	DefaultSqueeze = 2
)

// Grid maps region indices onto jittered pixel coordinates within a canvas.
//
// Each axis is divided into equal slots, one per region; a node sits at its
// slot center plus a bounded random offset. The jitter direction pushes
// inward when the center is already near an edge, and the final position is
// clamped to [Margin, dimension-Margin]. All randomness comes from a single
// seeded source, so a fixed seed and fixed regions yield identical output.
type Grid struct {
	Width    int
	Height   int
	Margin   int
	Softness int
	rng      *rand.Rand
}

// NewGrid creates a coordinate generator for the given canvas and seed.
func NewGrid(width, height int, seed uint64) *Grid {
	return &Grid{
		Width:    width,
		Height:   height,
		Margin:   DefaultMargin,
		Softness: DefaultSoftness,
		rng:      rand.New(rand.NewPCG(seed, seed^0xdeadbeef)),
	}
}

// Point maps one axis region onto a pixel offset along an axis of extent
// dim. A region outside [1, totalRegions] is an invariant violation in
// region assignment, not bad input, and fails fast with
// [errors.ErrCodeInvalidRegion] instead of being clamped.
func (g *Grid) Point(region, totalRegions, dim int) (int, error) {
	if region < 1 {
		return 0, errors.New(errors.ErrCodeInvalidRegion, "region must be >= 1: %d", region)
	}
	if region > totalRegions {
		return 0, errors.New(errors.ErrCodeInvalidRegion,
			"region beyond total regions: %d / %d", region, totalRegions)
	}

	spacePerRegion := dim / totalRegions
	pos := spacePerRegion/2 + (region-1)*spacePerRegion

	softness := g.rng.IntN(g.Softness)
	if pos < g.Margin || (pos < dim-g.Margin && g.rng.IntN(2) == 0) {
		pos += softness
	} else {
		pos -= softness
	}

	if pos < g.Margin {
		pos = g.Margin
	} else if pos > dim-g.Margin {
		pos = dim - g.Margin
	}
	return pos, nil
}

// Color is a node's plot color. Colors stay dark (each channel below 150)
// so points and edges remain visible on light backgrounds.
type Color struct {
	R uint8
	G uint8
	B uint8
}

const maxColorValue = 150

// NextColor draws the next deterministic node color from the grid's seeded
// source.
func (g *Grid) NextColor() Color {
	return Color{
		R: uint8(g.rng.IntN(maxColorValue)),
		G: uint8(g.rng.IntN(maxColorValue)),
		B: uint8(g.rng.IntN(maxColorValue)),
	}
}

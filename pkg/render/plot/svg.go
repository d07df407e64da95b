package plot

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/stepgraph/stepgraph/pkg/view"
)

const (
	dotRadius        = 5
	previewDotRadius = 2
	labelOffsetX     = 10
	labelOffsetY     = -5
	backgroundGray   = 210
)

// Option configures plot rendering.
type Option func(*renderer)

// WithPreview scales the whole canvas into a thumbnail of the given size.
// Previews draw smaller dots and no labels.
func WithPreview(width, height int) Option {
	return func(r *renderer) {
		r.preview = true
		r.previewW = width
		r.previewH = height
	}
}

type renderer struct {
	preview  bool
	previewW int
	previewH int
}

type placed struct {
	x, y  int
	color string
}

// RenderSVG draws the snapshot as an SVG document. Nodes whose position was
// never materialized are skipped; edges touching them are dropped the same
// way the interactive viewer drops them.
func RenderSVG(snap *view.Snapshot, opts ...Option) []byte {
	r := renderer{}
	for _, opt := range opts {
		opt(&r)
	}

	width, height := snap.Width, snap.Height
	radius := dotRadius
	if r.preview {
		width, height = r.previewW, r.previewH
		radius = previewDotRadius
	}

	points := r.placePoints(snap)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" width="%d" height="%d">`+"\n",
		width, height, width, height)
	fmt.Fprintf(&buf, `  <rect width="100%%" height="100%%" fill="rgb(%d,%d,%d)"/>`+"\n",
		backgroundGray, backgroundGray, backgroundGray)

	// Edges first so dots and labels draw on top of them. Each edge takes
	// its source node's color.
	for _, e := range snap.Edges {
		src, okS := points[e.From]
		dst, okD := points[e.To]
		if !okS || !okD {
			continue
		}
		fmt.Fprintf(&buf, `  <line x1="%d" y1="%d" x2="%d" y2="%d" stroke="%s"/>`+"\n",
			src.x, src.y, dst.x, dst.y, src.color)
	}

	ids := make([]string, 0, len(points))
	for id := range points {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		p := points[id]
		fmt.Fprintf(&buf, `  <circle cx="%d" cy="%d" r="%d" fill="%s"/>`+"\n",
			p.x, p.y, radius, p.color)
	}
	if !r.preview {
		for _, id := range ids {
			if !snap.LabelVisible(id) {
				continue
			}
			name := snap.Labels[id]
			if name == "" {
				// Join nodes are synthetic and intentionally unlabeled.
				continue
			}
			p := points[id]
			fmt.Fprintf(&buf, `  <text x="%d" y="%d" fill="black">%s</text>`+"\n",
				p.x+labelOffsetX, p.y+labelOffsetY, escapeText(name))
		}
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

// placePoints translates every materialized node into output pixels. The
// main view applies zoom and origin; previews rescale the zoomed canvas
// into the thumbnail instead.
func (r renderer) placePoints(snap *view.Snapshot) map[string]placed {
	var xFactor, yFactor float64
	if r.preview {
		xFactor = float64(r.previewW) / (float64(snap.Width) * snap.ZoomFactor)
		yFactor = float64(r.previewH) / (float64(snap.Height) * snap.ZoomFactor)
	}

	points := make(map[string]placed, len(snap.Points))
	for id, pt := range snap.Points {
		pos := pt.Pos()
		if !pos.Fixed() {
			continue
		}
		zx := float64(pos.X) * snap.ZoomFactor
		zy := float64(pos.Y) * snap.ZoomFactor
		var x, y int
		if r.preview {
			x = int(zx * xFactor)
			y = int(zy * yFactor)
		} else {
			x = int(zx) - snap.OriginX
			y = int(zy) - snap.OriginY
		}
		points[id] = placed{
			x: x,
			y: y,
			color: fmt.Sprintf("#%02x%02x%02x",
				pt.Color.R, pt.Color.G, pt.Color.B),
		}
	}
	return points
}

func escapeText(s string) string {
	var buf bytes.Buffer
	for _, r := range s {
		switch r {
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '&':
			buf.WriteString("&amp;")
		default:
			buf.WriteRune(r)
		}
	}
	return buf.String()
}

package pipeline

import (
	"fmt"

	"github.com/stepgraph/stepgraph/pkg/graph"
	"github.com/stepgraph/stepgraph/pkg/graphio"
	"github.com/stepgraph/stepgraph/pkg/layout"
	"github.com/stepgraph/stepgraph/pkg/render"
	"github.com/stepgraph/stepgraph/pkg/render/nodelink"
	"github.com/stepgraph/stepgraph/pkg/render/plot"
	"github.com/stepgraph/stepgraph/pkg/view"
)

// RenderFromLayout generates all requested artifact formats from a
// serialized layout. Cache hits and fresh computations both flow through
// here, so no format can drift between the two paths.
//
// The graph g is only consulted for the DOT format, which renders structure
// rather than positions; pass nil when DOT is not requested.
func RenderFromLayout(l graphio.Layout, g *graph.Graph, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))

	var svg []byte
	needSVG := func() []byte {
		if svg == nil {
			snap := snapshotFromLayout(l)
			var plotOpts []plot.Option
			if opts.Preview {
				plotOpts = append(plotOpts, plot.WithPreview(l.Width/2, l.Height/2))
			}
			svg = plot.RenderSVG(snap, plotOpts...)
		}
		return svg
	}

	for _, format := range opts.Formats {
		switch format {
		case FormatSVG:
			artifacts[format] = needSVG()
		case FormatPNG:
			data, err := render.ToPNG(needSVG(), opts.Scale)
			if err != nil {
				return nil, fmt.Errorf("render png: %w", err)
			}
			artifacts[format] = data
		case FormatPDF:
			data, err := render.ToPDF(needSVG())
			if err != nil {
				return nil, fmt.Errorf("render pdf: %w", err)
			}
			artifacts[format] = data
		case FormatDOT:
			if g == nil {
				return nil, fmt.Errorf("dot format requires the graph")
			}
			artifacts[format] = []byte(nodelink.ToDOT(g, nodelink.Options{}))
		case FormatJSON:
			data, err := graphio.MarshalLayout(l)
			if err != nil {
				return nil, fmt.Errorf("render json: %w", err)
			}
			artifacts[format] = data
		default:
			return nil, fmt.Errorf("unsupported format: %s", format)
		}
	}

	return artifacts, nil
}

// snapshotFromLayout reconstructs a renderable snapshot from a serialized
// layout, whether it came from a fresh computation or from the cache.
func snapshotFromLayout(l graphio.Layout) *view.Snapshot {
	points := make(map[string]*layout.Point, len(l.Points))
	for _, p := range l.Points {
		pt := &layout.Point{
			Color:  parseColor(p.Color),
			Region: layout.Region{X: p.XRegion, Y: p.YRegion},
		}
		pt.SetPosition(p.X, p.Y)
		points[p.ID] = pt
	}

	labels := make(map[string]string, len(l.Nodes))
	for _, n := range l.Nodes {
		if n.IsJoin() {
			labels[n.ID] = ""
		} else {
			labels[n.ID] = n.ID
		}
	}

	edges := make([]graph.Edge, 0, len(l.Edges))
	for _, e := range l.Edges {
		edges = append(edges, graph.Edge{From: e.From, To: e.To})
	}

	return &view.Snapshot{
		ID:            l.ID,
		Width:         l.Width,
		Height:        l.Height,
		Points:        points,
		Edges:         edges,
		Labels:        labels,
		ZoomFactor:    1.0,
		DrawAllLabels: len(points) <= view.MaxNodesDrawAllLabels,
	}
}

// parseColor decodes a #rrggbb string, falling back to black on malformed
// input rather than failing the whole render.
func parseColor(s string) layout.Color {
	var r, g, b uint8
	if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &r, &g, &b); err != nil {
		return layout.Color{}
	}
	return layout.Color{R: r, G: g, B: b}
}

// Package render provides visualization rendering for execution graphs.
//
// # Overview
//
// This package contains the rendering pipeline that transforms computed
// layouts into visual outputs. It provides:
//
//   - Generic format conversion (SVG to PDF/PNG)
//   - Scatter plots of layout snapshots (in [plot] subpackage)
//   - Node-link diagrams (in [nodelink] subpackage)
//
// # Format Conversion
//
// The [ToPDF] and [ToPNG] functions convert any SVG to other formats using
// the external rsvg-convert tool (from librsvg). These are used by both
// renderers.
//
//	svg := plot.RenderSVG(snap)
//	pdf, err := render.ToPDF(svg)
//	png, err := render.ToPNG(svg, 2.0)  // 2x scale
//
// # Plots
//
// The [plot] subpackage draws a published snapshot the way the interactive
// viewer does: one colored dot per node, edges as lines in the source node's
// color, and labels next to the dots. A preview mode scales the whole canvas
// down to a thumbnail.
//
// # Node-Link Diagrams
//
// The [nodelink] subpackage renders traditional directed graph diagrams
// using Graphviz. Tasks appear as boxes connected by arrows; join nodes
// appear as points.
//
//	dot := nodelink.ToDOT(g, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(dot)
//	pdf, err := render.ToPDF(svg)
//
// [plot]: github.com/stepgraph/stepgraph/pkg/render/plot
// [nodelink]: github.com/stepgraph/stepgraph/pkg/render/nodelink
package render

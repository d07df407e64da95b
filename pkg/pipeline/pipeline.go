// Package pipeline provides the core layout pipeline for Stepgraph.
//
// This package implements the complete import → simplify → layout → render
// pipeline that can be used by CLI and server components. By centralizing
// this logic, we ensure consistent behavior across all entry points and
// avoid code duplication.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Import: Load an execution graph from a JSON file
//  2. Simplify: Collapse redundant join nodes in place
//  3. Layout: Compute regions and pixel positions for every node
//  4. Render: Generate output in various formats (SVG, PNG, PDF, DOT, JSON)
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Input:   "plan.json",
//	    Head:    "start",
//	    Formats: []string{"svg"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/stepgraph/stepgraph/pkg/cache"
	"github.com/stepgraph/stepgraph/pkg/graph"
	"github.com/stepgraph/stepgraph/pkg/graphio"
	"github.com/stepgraph/stepgraph/pkg/layout"
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatDOT  = "dot"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatDOT:  true,
	FormatJSON: true,
}

// DefaultScale is the default PNG resolution multiplier.
const DefaultScale = 2.0

// Options contains all configuration for the layout pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Import options
	Input   string `json:"input,omitempty"` // path to a graph JSON file
	Head    string `json:"head"`            // entry node the layout hangs from
	Refresh bool   `json:"refresh,omitempty"`

	// Simplify options
	SkipSimplify bool `json:"skip_simplify,omitempty"`

	// Layout options
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
	Margin   int    `json:"margin,omitempty"`
	Softness int    `json:"softness,omitempty"`
	Squeeze  int    `json:"squeeze,omitempty"`
	Seed     uint64 `json:"seed,omitempty"`

	// Render options
	Formats []string `json:"formats,omitempty"`
	Preview bool     `json:"preview,omitempty"` // thumbnail-sized SVG output
	Scale   float64  `json:"scale,omitempty"`   // PNG resolution multiplier

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Graph is the imported (and simplified) execution graph.
	Graph *graph.Graph

	// GraphHash is the content hash of the simplified graph.
	GraphHash string

	// Layout contains the serialized layout (positions, regions, colors).
	Layout graphio.Layout

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount    int
	EdgeCount    int
	ImportTime   time.Duration
	SimplifyTime time.Duration
	LayoutTime   time.Duration
	RenderTime   time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // Whether the layout came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: svg, png, pdf, dot, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAndSetDefaults checks required fields and applies defaults for the
// full pipeline. This method is idempotent - calling it multiple times has
// the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Head == "" {
		return fmt.Errorf("head is required")
	}
	o.SetLayoutDefaults()
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SetLayoutDefaults sets default values for layout computation.
func (o *Options) SetLayoutDefaults() {
	if o.Width == 0 {
		o.Width = layout.DefaultWidth
	}
	if o.Height == 0 {
		o.Height = layout.DefaultHeight
	}
	if o.Seed == 0 {
		o.Seed = layout.DefaultSeed
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// LayoutOptions converts pipeline options to layout options.
func (o *Options) LayoutOptions() layout.Options {
	return layout.Options{
		Width:    o.Width,
		Height:   o.Height,
		Margin:   o.Margin,
		Softness: o.Softness,
		Squeeze:  o.Squeeze,
		Seed:     o.Seed,
	}
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Width:    o.Width,
		Height:   o.Height,
		Margin:   o.Margin,
		Softness: o.Softness,
		Squeeze:  o.Squeeze,
		Seed:     o.Seed,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:  format,
		Preview: o.Preview,
		Scale:   o.Scale,
	}
}

package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/stepgraph/stepgraph/pkg/cache"
	"github.com/stepgraph/stepgraph/pkg/graph"
	"github.com/stepgraph/stepgraph/pkg/graph/transform"
	"github.com/stepgraph/stepgraph/pkg/graphio"
	"github.com/stepgraph/stepgraph/pkg/layout"
	"github.com/stepgraph/stepgraph/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and server can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete import → simplify → layout → render pipeline
// with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Import
	importStart := time.Now()
	g, err := r.Load(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}
	result.Stats.ImportTime = time.Since(importStart)

	// Stage 2: Simplify
	simplifyStart := time.Now()
	if err := r.Simplify(ctx, g, opts); err != nil {
		return nil, fmt.Errorf("simplify: %w", err)
	}
	result.Graph = g
	result.Stats.SimplifyTime = time.Since(simplifyStart)
	result.Stats.NodeCount = g.NodeCount()
	result.Stats.EdgeCount = len(g.Edges())

	serialized := graphio.FromGraph(g)
	if data, err := graphio.MarshalGraphJSON(serialized); err == nil {
		result.GraphHash = cache.Hash(data)
	}

	r.Logger.Info("imported plan",
		"nodes", result.Stats.NodeCount,
		"edges", result.Stats.EdgeCount,
		"duration", result.Stats.ImportTime)

	// Stage 3: Layout
	layoutStart := time.Now()
	l, layoutHit, err := r.ComputeLayoutWithCacheInfo(ctx, g, result.GraphHash, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Layout = l
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.CacheInfo.LayoutHit = layoutHit

	r.Logger.Info("computed layout",
		"points", len(l.Points),
		"cached", layoutHit,
		"duration", result.Stats.LayoutTime)

	// Stage 4: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, l, g, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Load reads the input graph file.
func (r *Runner) Load(ctx context.Context, opts Options) (*graph.Graph, error) {
	if opts.Input == "" {
		return nil, fmt.Errorf("input is required")
	}

	start := time.Now()
	observability.Pipeline().OnImportStart(ctx, opts.Input)
	g, err := graphio.ImportFile(opts.Input)
	nodes := 0
	if g != nil {
		nodes = g.NodeCount()
	}
	observability.Pipeline().OnImportComplete(ctx, opts.Input, nodes, time.Since(start), err)
	return g, err
}

// Simplify collapses redundant join nodes in place. SkipSimplify leaves the
// raw graph intact so callers can inspect the original join structure.
func (r *Runner) Simplify(ctx context.Context, g *graph.Graph, opts Options) error {
	if opts.SkipSimplify {
		return nil
	}

	start := time.Now()
	before := g.NodeCount()
	err := transform.Simplify(g, opts.Head)
	observability.Pipeline().OnSimplifyComplete(ctx, before, g.NodeCount(), time.Since(start), err)
	if err != nil {
		return err
	}
	r.Logger.Debug("simplified graph", "before", before, "after", g.NodeCount())
	return nil
}

// ComputeLayoutWithCacheInfo computes a layout with caching and returns
// cache hit info. graphHash keys the cache entry; pass the hash of the
// simplified graph.
func (r *Runner) ComputeLayoutWithCacheInfo(ctx context.Context, g *graph.Graph, graphHash string, opts Options) (graphio.Layout, bool, error) {
	opts.SetLayoutDefaults()
	r.applyLogger(&opts)

	cacheKey := r.Keyer.LayoutKey(graphHash, opts.LayoutKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			cached, err := graphio.UnmarshalLayout(data)
			if err == nil {
				observability.Cache().OnCacheHit(ctx, "layout")
				return cached, true, nil
			}
			// Fall through to recompute on deserialization failure
		}
		observability.Cache().OnCacheMiss(ctx, "layout")
	}

	start := time.Now()
	observability.Pipeline().OnLayoutStart(ctx, g.NodeCount())
	res, err := layout.Compute(g, opts.Head, opts.LayoutOptions())
	observability.Pipeline().OnLayoutComplete(ctx, g.NodeCount(), time.Since(start), err)
	if err != nil {
		return graphio.Layout{}, false, err
	}
	for _, id := range res.Inconsistencies {
		r.Logger.Warn("node has edges but no position", "node", id)
	}

	l := graphio.FromResult(res, graphio.FromGraph(g), opts.Seed)
	if data, err := graphio.MarshalLayout(l); err == nil {
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLLayout)
		observability.Cache().OnCacheSet(ctx, "layout", len(data))
	}

	return l, false, nil
}

// ComputeLayout is a convenience wrapper that hashes the graph itself and
// discards the cache hit info.
func (r *Runner) ComputeLayout(ctx context.Context, g *graph.Graph, opts Options) (graphio.Layout, error) {
	var hash string
	if data, err := graphio.MarshalGraphJSON(graphio.FromGraph(g)); err == nil {
		hash = cache.Hash(data)
	}
	l, _, err := r.ComputeLayoutWithCacheInfo(ctx, g, hash, opts)
	return l, err
}

// RenderWithCacheInfo generates artifacts with caching and returns cache
// hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, l graphio.Layout, g *graph.Graph, opts Options) (map[string][]byte, bool, error) {
	opts.SetRenderDefaults()
	if err := ValidateFormats(opts.Formats); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	layoutData, err := graphio.MarshalLayout(l)
	if err != nil {
		return nil, false, fmt.Errorf("serialize layout for cache key: %w", err)
	}
	layoutHash := cache.Hash(layoutData)

	// Try to get all formats from cache
	allCached := true
	artifacts := make(map[string][]byte)

	for _, format := range opts.Formats {
		cacheKey := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			artifacts[format] = data
		} else {
			allCached = false
			break
		}
	}

	if allCached && len(artifacts) == len(opts.Formats) {
		observability.Cache().OnCacheHit(ctx, "artifact")
		return artifacts, true, nil
	}
	observability.Cache().OnCacheMiss(ctx, "artifact")

	start := time.Now()
	observability.Pipeline().OnRenderStart(ctx, opts.Formats)
	rendered, err := RenderFromLayout(l, g, opts)
	observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		cacheKey := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLArtifact)
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}

	return rendered, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and
// discards the cache hit info.
func (r *Runner) Render(ctx context.Context, l graphio.Layout, g *graph.Graph, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, l, g, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

package server

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/stepgraph/stepgraph/pkg/observability"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stepgraph_http_requests_total",
		Help: "Total number of HTTP requests, labelled by method, route and status.",
	}, []string{"method", "route", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stepgraph_http_request_duration_ms",
		Help:    "HTTP request latency in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
	}, []string{"method", "route"})

	graphReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stepgraph_graph_reloads_total",
		Help: "Total number of watched-file graph reloads, labelled by outcome.",
	}, []string{"status"})

	layoutDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "stepgraph_layout_duration_ms",
		Help:    "Layout computation latency in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	})

	layoutNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stepgraph_layout_nodes",
		Help: "Node count of the most recently laid-out graph.",
	})

	renderDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "stepgraph_render_duration_ms",
		Help:    "Artifact rendering latency in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	})

	cacheOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stepgraph_cache_operations_total",
		Help: "Cache operations, labelled by key type and outcome (hit, miss, set).",
	}, []string{"key_type", "outcome"})

	cacheBytesWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stepgraph_cache_bytes_written_total",
		Help: "Bytes written to the cache, labelled by key type.",
	}, []string{"key_type"})
)

// promHooks routes observability hook calls into Prometheus collectors. One
// value implements all three hook interfaces; registerMetricsHooks installs
// it globally.
type promHooks struct {
	observability.NoopPipelineHooks
}

// registerMetricsHooks installs the Prometheus-backed hook implementations.
// Safe to call more than once; the collectors themselves are registered at
// package init.
func registerMetricsHooks() {
	h := &promHooks{}
	observability.SetPipelineHooks(h)
	observability.SetCacheHooks(h)
	observability.SetServerHooks(h)
}

func (*promHooks) OnLayoutStart(ctx context.Context, nodeCount int) {
	layoutNodes.Set(float64(nodeCount))
}

func (*promHooks) OnLayoutComplete(ctx context.Context, nodeCount int, duration time.Duration, err error) {
	if err == nil {
		layoutDuration.Observe(float64(duration.Milliseconds()))
	}
}

func (*promHooks) OnRenderComplete(ctx context.Context, formats []string, duration time.Duration, err error) {
	if err == nil {
		renderDuration.Observe(float64(duration.Milliseconds()))
	}
}

func (*promHooks) OnCacheHit(ctx context.Context, keyType string) {
	cacheOps.WithLabelValues(keyType, "hit").Inc()
}

func (*promHooks) OnCacheMiss(ctx context.Context, keyType string) {
	cacheOps.WithLabelValues(keyType, "miss").Inc()
}

func (*promHooks) OnCacheSet(ctx context.Context, keyType string, size int) {
	cacheOps.WithLabelValues(keyType, "set").Inc()
	cacheBytesWritten.WithLabelValues(keyType).Add(float64(size))
}

func (*promHooks) OnRequest(ctx context.Context, method, route string, statusCode int, duration time.Duration) {
	requestsTotal.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	requestDuration.WithLabelValues(method, route).Observe(float64(duration.Milliseconds()))
}

func (*promHooks) OnGraphReload(ctx context.Context, path string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	graphReloads.WithLabelValues(status).Inc()
}

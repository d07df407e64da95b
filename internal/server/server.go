// Package server exposes the layout engine over HTTP: a live view of the
// current plot, mutation endpoints for pan/zoom/drag, layout persistence,
// and Prometheus metrics. When a watched graph file changes on disk the
// server reloads it and republishes the layout.
package server

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stepgraph/stepgraph/pkg/graphio"
	"github.com/stepgraph/stepgraph/pkg/observability"
	"github.com/stepgraph/stepgraph/pkg/pipeline"
	"github.com/stepgraph/stepgraph/pkg/render/plot"
	"github.com/stepgraph/stepgraph/pkg/store"
	"github.com/stepgraph/stepgraph/pkg/view"
)

// Config carries everything the server needs at startup.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	// Input is the graph JSON file to load and, when Watch is set, to watch
	// for changes.
	Input string

	// Head is the entry node of the graph.
	Head string

	// Watch enables hot-reloading the input file on change.
	Watch bool

	// Pipeline carries the layout and render settings shared with the CLI.
	Pipeline pipeline.Options
}

// Server wires the view engine, the pipeline runner, and layout persistence
// behind one chi router.
type Server struct {
	cfg    Config
	logger *log.Logger
	runner *pipeline.Runner
	store  store.Store
	router chi.Router

	// engine is replaced wholesale when a new graph is loaded; mu guards the
	// swap, not the engine itself (the engine is internally synchronized).
	mu     sync.RWMutex
	engine *view.Engine
}

// New builds a server, loads the initial graph, and publishes the first
// layout. The store may be nil, which disables the layout persistence
// endpoints.
func New(ctx context.Context, cfg Config, runner *pipeline.Runner, st store.Store, logger *log.Logger) (*Server, error) {
	if logger == nil {
		logger = log.Default()
	}
	if runner == nil {
		runner = pipeline.NewRunner(nil, nil, logger)
	}
	registerMetricsHooks()

	s := &Server{
		cfg:    cfg,
		logger: logger,
		runner: runner,
		store:  st,
	}

	if cfg.Input != "" {
		if err := s.loadGraphFile(ctx, cfg.Input); err != nil {
			return nil, fmt.Errorf("load %s: %w", cfg.Input, err)
		}
	}

	s.router = s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server, usable directly with
// httptest in addition to ListenAndServe.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe blocks serving HTTP until the context is canceled, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var stopWatch func()
	if s.cfg.Watch && s.cfg.Input != "" {
		stop, err := s.watchInput(ctx)
		if err != nil {
			return err
		}
		stopWatch = stop
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		if stopWatch != nil {
			stopWatch()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if stopWatch != nil {
			stopWatch()
		}
		return err
	}
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.metricsMiddleware)

	r.Get("/healthz", s.handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/snapshot", s.handleSnapshot)
		r.Get("/plot.svg", s.handlePlotSVG)
		r.Post("/graph", s.handleUploadGraph)
		r.Post("/recompute", s.handleRecompute)

		r.Post("/view/zoom", s.handleZoom)
		r.Post("/view/origin", s.handleOrigin)
		r.Post("/view/highlight", s.handleHighlight)
		r.Post("/view/labels", s.handleToggleLabels)

		r.Post("/nodes/{id}/position", s.handleNodePosition)
		r.Get("/nodes/closest", s.handleClosestNode)

		if s.store != nil {
			r.Get("/layouts", s.handleListLayouts)
			r.Post("/layouts", s.handleSaveLayout)
			r.Get("/layouts/{id}", s.handleGetLayout)
			r.Delete("/layouts/{id}", s.handleDeleteLayout)
		}
	})

	return r
}

// metricsMiddleware reports every request to the server hooks with the chi
// route pattern, so metric cardinality stays bounded.
func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = r.URL.Path
		}
		observability.Server().OnRequest(r.Context(), r.Method, route, ww.Status(), time.Since(start))
	})
}

// loadGraphFile imports the file, swaps in a fresh engine, and publishes a
// layout.
func (s *Server) loadGraphFile(ctx context.Context, path string) error {
	g, err := graphio.ImportFile(path)
	if err != nil {
		return err
	}

	eng := view.NewEngine(g, s.cfg.Head, s.cfg.Pipeline.LayoutOptions(), s.logger)
	if err := eng.Recompute(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	s.engine = eng
	s.mu.Unlock()
	s.logger.Info("graph loaded", "path", path, "nodes", g.NodeCount())
	return nil
}

// currentEngine returns the active engine, or nil when no graph is loaded.
func (s *Server) currentEngine() *view.Engine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// requireEngine writes a 409 when no graph is loaded yet.
func (s *Server) requireEngine(w http.ResponseWriter) *view.Engine {
	eng := s.currentEngine()
	if eng == nil {
		writeError(w, http.StatusConflict, "no graph loaded")
	}
	return eng
}

// GET /healthz
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// pointResponse is one node's placement in the snapshot response.
type pointResponse struct {
	ID    string `json:"id"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Color string `json:"color"`
	Label string `json:"label,omitempty"`
}

// snapshotResponse mirrors the published snapshot for API consumers.
type snapshotResponse struct {
	ID              string          `json:"id"`
	Width           int             `json:"width"`
	Height          int             `json:"height"`
	Zoom            float64         `json:"zoom"`
	OriginX         int             `json:"origin_x"`
	OriginY         int             `json:"origin_y"`
	HighlightedNode string          `json:"highlighted_node,omitempty"`
	DrawAllLabels   bool            `json:"draw_all_labels"`
	Points          []pointResponse `json:"points"`
	Edges           []graphio.Edge  `json:"edges"`
	Inconsistencies []string        `json:"inconsistencies,omitempty"`
}

// GET /v1/snapshot
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	eng := s.requireEngine(w)
	if eng == nil {
		return
	}
	snap := eng.Snapshot()
	if snap == nil {
		writeError(w, http.StatusConflict, "no layout published")
		return
	}

	resp := snapshotResponse{
		ID:              snap.ID,
		Width:           snap.Width,
		Height:          snap.Height,
		Zoom:            snap.ZoomFactor,
		OriginX:         snap.OriginX,
		OriginY:         snap.OriginY,
		HighlightedNode: snap.HighlightedNode,
		DrawAllLabels:   snap.DrawAllLabels,
		Inconsistencies: snap.Inconsistencies,
		Points:          make([]pointResponse, 0, len(snap.Points)),
		Edges:           make([]graphio.Edge, 0, len(snap.Edges)),
	}
	for id, pt := range snap.Points {
		pos := pt.Pos()
		if !pos.Fixed() {
			continue
		}
		resp.Points = append(resp.Points, pointResponse{
			ID:    id,
			X:     pos.X,
			Y:     pos.Y,
			Color: fmt.Sprintf("#%02x%02x%02x", pt.Color.R, pt.Color.G, pt.Color.B),
			Label: snap.Labels[id],
		})
	}
	slices.SortFunc(resp.Points, func(a, b pointResponse) int {
		return cmp.Compare(a.ID, b.ID)
	})
	for _, e := range snap.Edges {
		resp.Edges = append(resp.Edges, graphio.Edge{From: e.From, To: e.To})
	}

	writeJSON(w, http.StatusOK, resp)
}

// GET /v1/plot.svg?preview=1
func (s *Server) handlePlotSVG(w http.ResponseWriter, r *http.Request) {
	eng := s.requireEngine(w)
	if eng == nil {
		return
	}
	snap := eng.Snapshot()
	if snap == nil {
		writeError(w, http.StatusConflict, "no layout published")
		return
	}

	var opts []plot.Option
	if r.URL.Query().Get("preview") == "1" {
		opts = append(opts, plot.WithPreview(snap.Width/2, snap.Height/2))
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(plot.RenderSVG(snap, opts...))
}

// POST /v1/graph — replace the loaded graph with the request body.
func (s *Server) handleUploadGraph(w http.ResponseWriter, r *http.Request) {
	g, err := graphio.ReadJSON(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	eng := view.NewEngine(g, s.cfg.Head, s.cfg.Pipeline.LayoutOptions(), s.logger)
	if err := eng.Recompute(r.Context()); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.mu.Lock()
	s.engine = eng
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"loaded": true,
		"nodes":  g.NodeCount(),
	})
}

// POST /v1/recompute
func (s *Server) handleRecompute(w http.ResponseWriter, r *http.Request) {
	eng := s.requireEngine(w)
	if eng == nil {
		return
	}
	if err := eng.Recompute(r.Context()); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": eng.Snapshot().ID})
}

// POST /v1/view/zoom — either {"factor": 2.5} or {"step": "in"|"out"}.
func (s *Server) handleZoom(w http.ResponseWriter, r *http.Request) {
	eng := s.requireEngine(w)
	if eng == nil {
		return
	}

	var req struct {
		Factor *float64 `json:"factor"`
		Step   string   `json:"step"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}

	switch {
	case req.Factor != nil:
		eng.SetZoom(*req.Factor)
	case req.Step == "in":
		eng.ZoomIn()
	case req.Step == "out":
		eng.ZoomOut()
	default:
		writeError(w, http.StatusBadRequest, "factor or step is required")
		return
	}

	snap := eng.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"zoom":     snap.ZoomFactor,
		"origin_x": snap.OriginX,
		"origin_y": snap.OriginY,
	})
}

// POST /v1/view/origin
func (s *Server) handleOrigin(w http.ResponseWriter, r *http.Request) {
	eng := s.requireEngine(w)
	if eng == nil {
		return
	}

	var req struct {
		X int `json:"x"`
		Y int `json:"y"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}

	eng.SetViewOrigin(req.X, req.Y)
	snap := eng.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"origin_x": snap.OriginX,
		"origin_y": snap.OriginY,
	})
}

// POST /v1/view/highlight — empty id clears the highlight.
func (s *Server) handleHighlight(w http.ResponseWriter, r *http.Request) {
	eng := s.requireEngine(w)
	if eng == nil {
		return
	}

	var req struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}

	eng.HighlightNode(req.ID)
	writeJSON(w, http.StatusOK, map[string]string{"highlighted_node": req.ID})
}

// POST /v1/view/labels
func (s *Server) handleToggleLabels(w http.ResponseWriter, r *http.Request) {
	eng := s.requireEngine(w)
	if eng == nil {
		return
	}
	eng.ToggleLabels()
	writeJSON(w, http.StatusOK, map[string]bool{
		"draw_all_labels": eng.Snapshot().DrawAllLabels,
	})
}

// POST /v1/nodes/{id}/position
func (s *Server) handleNodePosition(w http.ResponseWriter, r *http.Request) {
	eng := s.requireEngine(w)
	if eng == nil {
		return
	}

	var req struct {
		X int `json:"x"`
		Y int `json:"y"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}

	id := chi.URLParam(r, "id")
	if err := eng.SetNodePosition(id, req.X, req.Y); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "x": req.X, "y": req.Y})
}

// GET /v1/nodes/closest?x=120&y=80 — hit test in view coordinates.
func (s *Server) handleClosestNode(w http.ResponseWriter, r *http.Request) {
	eng := s.requireEngine(w)
	if eng == nil {
		return
	}

	x, errX := strconv.Atoi(r.URL.Query().Get("x"))
	y, errY := strconv.Atoi(r.URL.Query().Get("y"))
	if errX != nil || errY != nil {
		writeError(w, http.StatusBadRequest, "x and y query parameters are required integers")
		return
	}

	id, found := eng.ClosestNode(x, y)
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "found": found})
}

// POST /v1/layouts — persist the current layout.
func (s *Server) handleSaveLayout(w http.ResponseWriter, r *http.Request) {
	eng := s.requireEngine(w)
	if eng == nil {
		return
	}
	snap := eng.Snapshot()
	if snap == nil {
		writeError(w, http.StatusConflict, "no layout published")
		return
	}

	l := layoutFromSnapshot(snap)
	id, err := s.store.Save(r.Context(), l)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// GET /v1/layouts
func (s *Server) handleListLayouts(w http.ResponseWriter, r *http.Request) {
	layouts, err := s.store.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"layouts": layouts})
}

// GET /v1/layouts/{id}
func (s *Server) handleGetLayout(w http.ResponseWriter, r *http.Request) {
	l, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// DELETE /v1/layouts/{id}
func (s *Server) handleDeleteLayout(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// layoutFromSnapshot serializes a published snapshot, including any user
// drag overrides in effect.
func layoutFromSnapshot(snap *view.Snapshot) graphio.Layout {
	l := graphio.Layout{
		ID:     snap.ID,
		Width:  snap.Width,
		Height: snap.Height,
		Points: make([]graphio.Point, 0, len(snap.Points)),
	}
	for id, pt := range snap.Points {
		pos := pt.Pos()
		if !pos.Fixed() {
			continue
		}
		l.Points = append(l.Points, graphio.Point{
			ID:      id,
			X:       pos.X,
			Y:       pos.Y,
			XRegion: pt.Region.X,
			YRegion: pt.Region.Y,
			Color:   fmt.Sprintf("#%02x%02x%02x", pt.Color.R, pt.Color.G, pt.Color.B),
		})
	}
	slices.SortFunc(l.Points, func(a, b graphio.Point) int {
		return cmp.Compare(a.ID, b.ID)
	})
	for _, e := range snap.Edges {
		l.Edges = append(l.Edges, graphio.Edge{From: e.From, To: e.To})
	}
	return l
}

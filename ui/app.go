package ui

import (
	"encoding/json"
	"log"
	"net/http"

	"chartcraft/adapters/render"
	"chartcraft/app"
	"chartcraft/domain/grid"
	"chartcraft/domain/visual"
	"chartcraft/internal/errors"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// App is the stateless JSON API. Every call carries its own grid or
// source; nothing is stored between requests.
type App struct {
	router  *chi.Mux
	catalog *visual.Catalog
	renders *app.RenderService
}

// Config holds UI application configuration
type Config struct {
	Port string
}

// NewApp creates the JSON API application
func NewApp(renders *app.RenderService) *App {
	a := &App{
		router:  chi.NewRouter(),
		catalog: renders.Catalog(),
		renders: renders,
	}

	a.setupMiddleware()
	a.setupRoutes()

	return a
}

// MaxRequestBytes caps every API request body.
const MaxRequestBytes = 1 << 20

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.RequestSize(MaxRequestBytes))
	a.router.Use(middleware.Compress(5))
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	a.router.Get("/health", a.handleHealth)

	a.router.Route("/api", func(r chi.Router) {
		r.Get("/kinds", a.handleKinds)
		r.Post("/transform/{kind}", a.handleTransform)
		r.Post("/records", a.handleRecords)
		r.Post("/charts/{kind}/config", a.handleChartConfig)
		r.Get("/plots/{kind}", a.handlePlot)
		r.Post("/diagrams/{family}/{kind}/render", a.handleDiagramRender)
		r.Post("/grid/commit", a.handleGridCommit)
	})

	a.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, errors.NotFound("route "+r.URL.Path))
	})
}

// Handler exposes the router for tests and custom listeners.
func (a *App) Handler() http.Handler {
	return a.router
}

// Start starts the HTTP server
func (a *App) Start(config Config) error {
	addr := ":" + config.Port
	log.Printf("Starting ChartCraft API server on %s", addr)
	return http.ListenAndServe(addr, a.router)
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"compiler": a.renders.CompilerName(),
	})
}

func (a *App) handleKinds(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"families": a.catalog.Groups()})
}

type gridRequest struct {
	Grid *grid.Grid `json:"grid"`
}

func decodeGrid(r *http.Request) (*grid.Grid, error) {
	var req gridRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, errors.Wrap(err, "request body must be {\"grid\": [[...]]}"))
	}
	if req.Grid == nil {
		return nil, errors.InvalidInput("grid is required")
	}
	return req.Grid, nil
}

func (a *App) handleTransform(w http.ResponseWriter, r *http.Request) {
	kind, err := a.catalog.Lookup(visual.FamilyChart, chi.URLParam(r, "kind"))
	if err != nil {
		writeJSONError(w, err)
		return
	}
	g, err := decodeGrid(r)
	if err != nil {
		writeJSONError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, grid.Transform(g, kind.Shape))
}

// handleRecords returns the posted grid as {rowLabel: {header: cell}}.
func (a *App) handleRecords(w http.ResponseWriter, r *http.Request) {
	g, err := decodeGrid(r)
	if err != nil {
		writeJSONError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, grid.Records(g))
}

func (a *App) handleChartConfig(w http.ResponseWriter, r *http.Request) {
	kind, err := a.catalog.Lookup(visual.FamilyChart, chi.URLParam(r, "kind"))
	if err != nil {
		writeJSONError(w, err)
		return
	}
	g, err := decodeGrid(r)
	if err != nil {
		writeJSONError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, render.BuildChartConfig(kind, grid.Transform(g, kind.Shape)))
}

func (a *App) handlePlot(w http.ResponseWriter, r *http.Request) {
	kind, err := a.catalog.Lookup(visual.FamilyPlot3D, chi.URLParam(r, "kind"))
	if err != nil {
		writeJSONError(w, err)
		return
	}
	fig, err := render.BuildFigure(kind, nil)
	if err != nil {
		writeJSONError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fig)
}

type diagramRequest struct {
	Source string `json:"source"`
}

type diagramResponse struct {
	SVG          string `json:"svg,omitempty"`
	ClientRender bool   `json:"client_render"`
	Source       string `json:"source"`
}

// handleDiagramRender accepts the family id or its route segment, so both
// /api/diagrams/flow/... and /api/diagrams/flow_representation/... work.
func (a *App) handleDiagramRender(w http.ResponseWriter, r *http.Request) {
	familyParam := chi.URLParam(r, "family")
	family, ok := a.catalog.FamilyForRoute(familyParam)
	if !ok {
		family = visual.Family(familyParam)
	}
	if !family.Textual() {
		writeJSONError(w, errors.NotFound("diagram family "+familyParam))
		return
	}
	kind, err := a.catalog.Lookup(family, chi.URLParam(r, "kind"))
	if err != nil {
		writeJSONError(w, err)
		return
	}

	var req diagramRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, errors.WithCode(errors.CodeInvalidInput, errors.Wrap(err, "request body must be {\"source\": \"...\"}")))
		return
	}

	inst, err := a.renders.RenderDetached(r.Context(), render.Input{Kind: kind, Source: req.Source})
	if err != nil {
		writeJSONError(w, err)
		return
	}
	if inst.Failed() {
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: inst.Error, Code: errors.CodeRenderFailed})
		return
	}
	writeJSON(w, http.StatusOK, diagramResponse{SVG: inst.SVG, ClientRender: inst.ClientRender, Source: inst.Source})
}

type gridCommitRequest struct {
	Grid  *grid.Grid `json:"grid"`
	Row   int        `json:"row"`
	Col   int        `json:"col"`
	Value string     `json:"value"`
}

// handleGridCommit runs select, input and commit against the posted grid
// and returns the grid after auto-expand.
func (a *App) handleGridCommit(w http.ResponseWriter, r *http.Request) {
	var req gridCommitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, errors.WithCode(errors.CodeInvalidInput, errors.Wrap(err, "invalid commit request")))
		return
	}
	if req.Grid == nil {
		writeJSONError(w, errors.InvalidInput("grid is required"))
		return
	}

	var edit grid.EditState
	if _, err := edit.Select(req.Grid, req.Row, req.Col); err != nil {
		writeJSONError(w, errors.InvalidInput(err.Error()))
		return
	}
	edit.Input(req.Value)
	res := edit.Commit(req.Grid)

	writeJSON(w, http.StatusOK, commitResponse{Grid: req.Grid, Result: res})
}

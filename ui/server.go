package ui

import (
	"html/template"
	"io/fs"
	"log"
	"net/http"

	"chartcraft/app"
	"chartcraft/domain/visual"
	"chartcraft/ui/middleware"

	"github.com/gin-gonic/gin"
)

// MaxBodyBytes caps every page request body, uploads included.
const MaxBodyBytes = 8 << 20

// Server is the page server: one HTML page per visualization kind plus
// the form posts that edit the session workspace.
type Server struct {
	router     *gin.Engine
	templates  map[string]*template.Template
	catalog    *visual.Catalog
	workspaces *app.WorkspaceService
	renders    *app.RenderService
	session    middleware.SessionConfig
}

// ServerDeps are the services behind the pages.
type ServerDeps struct {
	Workspaces *app.WorkspaceService
	Renders    *app.RenderService
	Session    middleware.SessionConfig
}

// NewServer creates a new web server instance
func NewServer(deps ServerDeps) (*Server, error) {
	templates, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		router:     gin.Default(),
		templates:  templates,
		catalog:    deps.Renders.Catalog(),
		workspaces: deps.Workspaces,
		renders:    deps.Renders,
		session:    deps.Session,
	}
	s.router.MaxMultipartMemory = MaxBodyBytes

	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

// setupMiddleware configures Gin middleware
func (s *Server) setupMiddleware() {
	staticFS, err := fs.Sub(embeddedFiles, "static")
	if err != nil {
		log.Printf("[setupMiddleware] Error creating static filesystem: %v", err)
	} else {
		log.Printf("[Static] Serving static files from embedded FS at /static")
		s.router.StaticFS("/static", http.FS(staticFS))
	}
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	pages := s.router.Group("/", middleware.BodyLimit(MaxBodyBytes), middleware.EnsureSession(s.session))

	pages.GET("/", s.handleIndex)

	// 2D charts edit the session grid
	pages.GET("/chart/:kind", s.handleChartPage)
	pages.POST("/chart/:kind/cell/select", s.handleCellSelect)
	pages.POST("/chart/:kind/cell/commit", s.handleCellCommit)
	pages.POST("/chart/:kind/reset", s.handleReset)
	pages.POST("/chart/:kind/import", s.handleImport)
	pages.GET("/chart/:kind/download.png", s.handleChartPNG)
	pages.GET("/chart/:kind/export.xlsx", s.handleExport)
	pages.POST("/export/flatten", s.handleFlatten)

	// 3D plots, reachable under both route names
	pages.GET("/chart3d/:kind", s.handlePlotPage)
	pages.GET("/3dchart/:kind", s.handlePlotPage)

	// Diagrams and flows share the Mermaid page
	for _, family := range []visual.Family{visual.FamilyDiagram, visual.FamilyFlow} {
		route := s.routeOf(family)
		pages.GET("/"+route+"/:kind", s.handleDiagramPage(family))
		pages.POST("/"+route+"/:kind/render", s.handleDiagramRender(family))
	}

	s.router.NoRoute(middleware.EnsureSession(s.session), s.handleNotFound)
}

func (s *Server) routeOf(family visual.Family) string {
	for _, g := range s.catalog.Groups() {
		if g.ID == family {
			return g.Route
		}
	}
	return string(family)
}

// Handler exposes the router for tests and custom listeners.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the web server
func (s *Server) Start(addr string) error {
	log.Printf("Starting ChartCraft UI on http://%s", addr)
	return s.router.Run(addr)
}

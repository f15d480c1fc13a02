package ui

import (
	"net/http"

	"chartcraft/adapters/render"
	"chartcraft/domain/visual"
	"chartcraft/ui/middleware"

	"github.com/gin-gonic/gin"
)

type plotPage struct {
	pageBase
	Kind     visual.Kind
	Instance *render.Instance
	FromGrid bool
}

// handlePlotPage shows a 3D plot. ?data=grid draws surface, contour and bar
// from the session grid instead of the sample data.
func (s *Server) handlePlotPage(c *gin.Context) {
	kind, ok := s.kindParam(c, visual.FamilyPlot3D)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	sid := middleware.SessionID(c)

	in := render.Input{Kind: kind}
	fromGrid := c.Query("data") == "grid"
	if fromGrid {
		ws, err := s.workspaces.Open(ctx, sid)
		if err != nil {
			s.fail(c, err)
			return
		}
		in.Grid = ws.Grid
	}

	inst, err := s.renders.Render(ctx, sid, in)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.renderTemplate(c, http.StatusOK, "chart3d.html", plotPage{
		pageBase: s.base(inst.Title, kind.Path()),
		Kind:     kind,
		Instance: inst,
		FromGrid: fromGrid,
	})
}

type diagramPage struct {
	pageBase
	Kind     visual.Kind
	Instance *render.Instance
	Guide    string
	Compiler string
}

// handleDiagramPage shows the last render of the kind in this session, or
// the kind's starter source.
func (s *Server) handleDiagramPage(family visual.Family) gin.HandlerFunc {
	return func(c *gin.Context) {
		kind, ok := s.kindParam(c, family)
		if !ok {
			return
		}
		sid := middleware.SessionID(c)
		inst := s.renders.Current(sid, kind)
		if inst == nil {
			source, err := visual.DefaultSource(kind)
			if err != nil {
				s.fail(c, err)
				return
			}
			if inst, err = s.renders.Render(c.Request.Context(), sid, render.Input{Kind: kind, Source: source}); err != nil {
				s.fail(c, err)
				return
			}
		}
		s.renderDiagram(c, kind, inst)
	}
}

// handleDiagramRender compiles the posted source, or the starter source
// when the form asks to restore it. A compile failure is shown inline on
// the page; the previous diagram is gone either way.
func (s *Server) handleDiagramRender(family visual.Family) gin.HandlerFunc {
	return func(c *gin.Context) {
		kind, ok := s.kindParam(c, family)
		if !ok {
			return
		}
		source := c.PostForm("source")
		if c.PostForm("restore") != "" {
			def, err := visual.DefaultSource(kind)
			if err != nil {
				s.fail(c, err)
				return
			}
			source = def
		}
		inst, err := s.renders.Render(c.Request.Context(), middleware.SessionID(c), render.Input{
			Kind:   kind,
			Source: source,
		})
		if err != nil {
			s.fail(c, err)
			return
		}
		if wantsJSON(c) {
			status := http.StatusOK
			if inst.Failed() {
				status = http.StatusUnprocessableEntity
			}
			c.JSON(status, inst)
			return
		}
		s.renderDiagram(c, kind, inst)
	}
}

func (s *Server) renderDiagram(c *gin.Context, kind visual.Kind, inst *render.Instance) {
	guide, err := visual.GuideHTML(kind)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.renderTemplate(c, http.StatusOK, "diagram.html", diagramPage{
		pageBase: s.base(kind.Label, kind.Path()),
		Kind:     kind,
		Instance: inst,
		Guide:    guide,
		Compiler: s.renders.CompilerName(),
	})
}

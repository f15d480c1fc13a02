package ui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"chartcraft/adapters/excel"
	"chartcraft/adapters/render"
	"chartcraft/domain/grid"
	"chartcraft/domain/visual"
	"chartcraft/domain/workspace"
	"chartcraft/internal/errors"
	"chartcraft/internal/profiling"
	"chartcraft/ui/middleware"

	"github.com/gin-gonic/gin"
)

type chartPage struct {
	pageBase
	Kind      visual.Kind
	Workspace *workspace.Workspace
	Rows      [][]string
	Instance  *render.Instance
	Summary   []profiling.SeriesSummary
	Records   string
	Error     string
}

type cellForm struct {
	Row   int    `form:"row" json:"row"`
	Col   int    `form:"col" json:"col"`
	Value string `form:"value" json:"value"`
}

type commitResponse struct {
	Grid    *grid.Grid        `json:"grid"`
	Result  grid.CommitResult `json:"result"`
	Version int64             `json:"version"`
}

func (s *Server) handleChartPage(c *gin.Context) {
	kind, ok := s.kindParam(c, visual.FamilyChart)
	if !ok {
		return
	}
	s.renderChart(c, kind, http.StatusOK, "")
}

// renderChart draws the session grid as kind and renders the page. A
// non-empty message is shown above the grid.
func (s *Server) renderChart(c *gin.Context, kind visual.Kind, status int, message string) {
	ctx := c.Request.Context()
	sid := middleware.SessionID(c)

	ws, err := s.workspaces.Open(ctx, sid)
	if err != nil {
		s.fail(c, err)
		return
	}
	if ws.ChartKind != kind.Slug {
		if ws, err = s.workspaces.SetChartKind(ctx, sid, kind.Slug); err != nil {
			s.fail(c, err)
			return
		}
	}

	inst, err := s.renders.Render(ctx, sid, render.Input{Kind: kind, Grid: ws.Grid})
	if err != nil {
		s.fail(c, err)
		return
	}
	summary, err := s.workspaces.Summary(ctx, sid, kind)
	if err != nil {
		s.fail(c, err)
		return
	}
	records, err := json.MarshalIndent(grid.Records(ws.Grid), "", "  ")
	if err != nil {
		s.fail(c, errors.Wrap(err, "failed to encode records"))
		return
	}

	s.renderTemplate(c, status, "chart.html", chartPage{
		pageBase:  s.base(inst.Title, kind.Path()),
		Kind:      kind,
		Workspace: ws,
		Rows:      ws.Grid.Snapshot(),
		Instance:  inst,
		Summary:   summary,
		Records:   string(records),
		Error:     message,
	})
}

// formError re-renders the chart page with the message of a rejected post.
func (s *Server) formError(c *gin.Context, kind visual.Kind, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.fail(c, err)
		return
	}
	if wantsJSON(c) {
		_, body := newErrorResponse(err)
		c.JSON(status, body)
		return
	}
	s.renderChart(c, kind, status, err.Error())
}

func (s *Server) redirectBack(c *gin.Context, kind visual.Kind) {
	c.Redirect(http.StatusSeeOther, kind.Path())
}

func (s *Server) handleCellSelect(c *gin.Context) {
	kind, ok := s.kindParam(c, visual.FamilyChart)
	if !ok {
		return
	}
	var form cellForm
	if err := c.ShouldBind(&form); err != nil {
		s.formError(c, kind, errors.InvalidInput("row and col must be integers"))
		return
	}

	ws, res, err := s.workspaces.Select(c.Request.Context(), middleware.SessionID(c), form.Row, form.Col)
	if err != nil {
		s.formError(c, kind, err)
		return
	}
	if wantsJSON(c) {
		c.JSON(http.StatusOK, commitResponse{Grid: ws.Grid, Result: res, Version: ws.Version})
		return
	}
	s.redirectBack(c, kind)
}

// handleCellCommit performs select, input and commit for one cell, which
// is what the page posts when a cell loses focus.
func (s *Server) handleCellCommit(c *gin.Context) {
	kind, ok := s.kindParam(c, visual.FamilyChart)
	if !ok {
		return
	}
	var form cellForm
	if err := c.ShouldBind(&form); err != nil {
		s.formError(c, kind, errors.InvalidInput("row and col must be integers"))
		return
	}

	ws, res, err := s.workspaces.CommitCell(c.Request.Context(), middleware.SessionID(c), form.Row, form.Col, form.Value)
	if err != nil {
		s.formError(c, kind, err)
		return
	}
	if wantsJSON(c) {
		c.JSON(http.StatusOK, commitResponse{Grid: ws.Grid, Result: res, Version: ws.Version})
		return
	}
	s.redirectBack(c, kind)
}

func (s *Server) handleReset(c *gin.Context) {
	kind, ok := s.kindParam(c, visual.FamilyChart)
	if !ok {
		return
	}
	sid := middleware.SessionID(c)
	if _, err := s.workspaces.Reset(c.Request.Context(), sid); err != nil {
		s.formError(c, kind, err)
		return
	}
	s.redirectBack(c, kind)
}

func (s *Server) handleImport(c *gin.Context) {
	kind, ok := s.kindParam(c, visual.FamilyChart)
	if !ok {
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		s.formError(c, kind, errors.InvalidInput("choose an xlsx or csv file to import"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		s.formError(c, kind, errors.WithCode(errors.CodeInvalidInput, errors.Wrap(err, "failed to open upload")))
		return
	}
	defer f.Close()

	if _, err := s.workspaces.ImportSpreadsheet(c.Request.Context(), middleware.SessionID(c), f, fh.Filename); err != nil {
		s.formError(c, kind, err)
		return
	}
	s.redirectBack(c, kind)
}

func (s *Server) handleChartPNG(c *gin.Context) {
	kind, ok := s.kindParam(c, visual.FamilyChart)
	if !ok {
		return
	}
	ds, err := s.workspaces.Dataset(c.Request.Context(), middleware.SessionID(c), kind)
	if err != nil {
		s.fail(c, err)
		return
	}

	var buf bytes.Buffer
	if err := s.renders.ChartPNG(&buf, kind, ds); err != nil {
		s.fail(c, err)
		return
	}
	attachment(c, render.RasterFilename(time.Now()))
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func (s *Server) handleExport(c *gin.Context) {
	kind, ok := s.kindParam(c, visual.FamilyChart)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := s.workspaces.ExportSpreadsheet(c.Request.Context(), middleware.SessionID(c), &buf); err != nil {
		s.fail(c, err)
		return
	}
	attachment(c, fmt.Sprintf("%s-data-%d.xlsx", kind.Slug, time.Now().UnixMilli()))
	c.Data(http.StatusOK, excel.XLSXContentType, buf.Bytes())
}

// handleFlatten takes a canvas snapshot and returns it on a white
// background, so transparent charts download with an opaque backdrop.
func (s *Server) handleFlatten(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		s.fail(c, errors.InvalidInput("missing canvas image"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		s.fail(c, errors.WithCode(errors.CodeInvalidInput, errors.Wrap(err, "failed to open canvas image")))
		return
	}
	defer f.Close()

	var buf bytes.Buffer
	if err := s.renders.FlattenUpload(&buf, f); err != nil {
		s.fail(c, err)
		return
	}
	attachment(c, render.RasterFilename(time.Now()))
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func attachment(c *gin.Context, filename string) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
}

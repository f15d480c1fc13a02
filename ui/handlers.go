package ui

import (
	"log"
	"net/http"
	"strings"

	"chartcraft/domain/visual"
	"chartcraft/internal/errors"

	"github.com/gin-gonic/gin"
)

// pageBase carries what the layout needs on every page.
type pageBase struct {
	Title  string
	Groups []visual.Group
	Active string
}

func (s *Server) base(title, active string) pageBase {
	return pageBase{Title: title, Groups: s.catalog.Groups(), Active: active}
}

type errorPage struct {
	pageBase
	Status  int
	Message string
}

// fail renders the error page with the status derived from err.
func (s *Server) fail(c *gin.Context, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[Server] ❌ %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	s.renderTemplate(c, status, "error.html", errorPage{
		pageBase: s.base(http.StatusText(status), ""),
		Status:   status,
		Message:  publicMessage(err, status),
	})
}

// kindParam resolves the :kind segment within family. Unknown slugs get the
// 404 page and nothing else is rendered.
func (s *Server) kindParam(c *gin.Context, family visual.Family) (visual.Kind, bool) {
	k, err := s.catalog.Lookup(family, c.Param("kind"))
	if err != nil {
		s.fail(c, err)
		return visual.Kind{}, false
	}
	return k, true
}

func wantsJSON(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}

type indexPage struct {
	pageBase
	Compiler string
}

func (s *Server) handleIndex(c *gin.Context) {
	s.renderTemplate(c, http.StatusOK, "index.html", indexPage{
		pageBase: s.base("ChartCraft", "/"),
		Compiler: s.renders.CompilerName(),
	})
}

func (s *Server) handleNotFound(c *gin.Context) {
	s.fail(c, errors.NotFound("page "+c.Request.URL.Path))
}

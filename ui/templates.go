package ui

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log"
	"strings"

	"github.com/gin-gonic/gin"
)

//go:embed templates static
var embeddedFiles embed.FS

var pageTemplates = []string{"index.html", "chart.html", "chart3d.html", "diagram.html", "error.html"}

var funcMap = template.FuncMap{
	"add": func(a, b int) int { return a + b },
	"until": func(n int) []int {
		res := make([]int, n)
		for i := range res {
			res[i] = i
		}
		return res
	},
	"upper": strings.ToUpper,
	// json embeds a value for a <script type="application/json"> block.
	"json": func(v interface{}) (template.JS, error) {
		data, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return template.JS(data), nil
	},
	"safeHTML": func(s string) template.HTML { return template.HTML(s) },
	"number": func(v float64) string {
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
	},
}

// parseTemplates builds one template set per page, each sharing the layout.
func parseTemplates() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(pageTemplates))
	for _, page := range pageTemplates {
		t, err := template.New(page).Funcs(funcMap).ParseFS(embeddedFiles, "templates/layout.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", page, err)
		}
		pages[page] = t
	}
	log.Printf("[TemplateInit] Parsed %d page templates", len(pages))
	return pages, nil
}

// renderTemplate executes a page into a buffer first so a template error
// never leaves a half-written response.
func (s *Server) renderTemplate(c *gin.Context, status int, page string, data interface{}) {
	t, ok := s.templates[page]
	if !ok {
		log.Printf("Template error: unknown page %s", page)
		c.AbortWithStatus(500)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		log.Printf("Template error for %s: %v", page, err)
		log.Printf("Template data type: %T", data)
		c.AbortWithStatusJSON(500, gin.H{"error": "Template rendering failed"})
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Writer.WriteHeader(status)
	if _, err := buf.WriteTo(c.Writer); err != nil {
		log.Printf("Error writing template response: %v", err)
	}
}

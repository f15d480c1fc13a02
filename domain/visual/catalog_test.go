package visual

import (
	"strings"
	"testing"

	"chartcraft/domain/grid"
	"chartcraft/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogAllowLists(t *testing.T) {
	c := Default()

	tests := []struct {
		family Family
		slugs  []string
	}{
		{FamilyChart, []string{"bar", "doughnut", "line", "pie", "polarArea", "radar"}},
		{FamilyPlot3D, []string{"bar", "contour", "mesh", "network", "scatter", "surface"}},
		{FamilyDiagram, []string{"activity", "block", "class", "component", "dataflow", "dbschema", "deployment", "erd", "network", "object", "sequence", "state", "usecase"}},
		{FamilyFlow, []string{"algoflow", "businessprocess", "decisiontree", "flowchart", "mindmap", "processmap", "swimlane"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.family), func(t *testing.T) {
			assert.Equal(t, tt.slugs, c.Slugs(tt.family))
		})
	}
}

func TestLookupRejectsUnknownSlugs(t *testing.T) {
	c := Default()
	tests := []struct {
		family Family
		slug   string
	}{
		{FamilyChart, "scatter"},
		{FamilyChart, "Bar"},
		{FamilyPlot3D, "pie"},
		{FamilyDiagram, "mindmap"},
		{FamilyFlow, "class"},
		{Family("gantt"), "bar"},
		{FamilyChart, ""},
	}
	for _, tt := range tests {
		_, err := c.Lookup(tt.family, tt.slug)
		require.Error(t, err, "%s/%s", tt.family, tt.slug)
		assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
	}
}

func TestLookupChartShapes(t *testing.T) {
	c := Default()
	single := map[string]bool{"pie": true, "doughnut": true, "polarArea": true, "radar": true}
	for _, k := range c.Kinds(FamilyChart) {
		want := grid.ShapeMulti
		if single[k.Slug] {
			want = grid.ShapeSingle
		}
		assert.Equal(t, want, k.Shape, k.Slug)
	}
}

func TestFamilyForRoute(t *testing.T) {
	c := Default()
	tests := map[string]Family{
		"chart":               FamilyChart,
		"chart3d":             FamilyPlot3D,
		"3dchart":             FamilyPlot3D,
		"diagram":             FamilyDiagram,
		"flow_representation": FamilyFlow,
	}
	for route, want := range tests {
		got, ok := c.FamilyForRoute(route)
		assert.True(t, ok, route)
		assert.Equal(t, want, got, route)
	}
	_, ok := c.FamilyForRoute("flow")
	assert.False(t, ok)
}

func TestKindPath(t *testing.T) {
	k, err := Default().Lookup(FamilyFlow, "mindmap")
	require.NoError(t, err)
	assert.Equal(t, "/flow_representation/mindmap", k.Path())
}

func TestEveryTextualKindHasSourceAndGuide(t *testing.T) {
	c := Default()
	for _, family := range []Family{FamilyDiagram, FamilyFlow} {
		for _, k := range c.Kinds(family) {
			src, err := DefaultSource(k)
			require.NoError(t, err, k.Slug)
			_, ok := Header(src)
			assert.True(t, ok, "%s/%s default source lacks a diagram header", family, k.Slug)

			html, err := GuideHTML(k)
			require.NoError(t, err, k.Slug)
			assert.Contains(t, html, "<code>", k.Slug)
		}
	}
}

func TestDefaultSourceOnlyForTextualFamilies(t *testing.T) {
	k, err := Default().Lookup(FamilyChart, "bar")
	require.NoError(t, err)
	_, err = DefaultSource(k)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestParseRejectsBadCatalogs(t *testing.T) {
	tests := map[string]string{
		"duplicate slug": `
families:
  - id: chart
    route: chart
    kinds:
      - {slug: bar, shape: multi}
      - {slug: bar, shape: multi}`,
		"missing shape": `
families:
  - id: chart
    route: chart
    kinds:
      - {slug: bar}`,
		"missing route": `
families:
  - id: diagram
    kinds: []`,
		"not yaml": "families: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(strings.TrimSpace(doc)))
			assert.Error(t, err)
		})
	}
}

func TestHeader(t *testing.T) {
	tests := []struct {
		src  string
		want string
		ok   bool
	}{
		{"graph TD\nA-->B", "graph", true},
		{"\n\n  sequenceDiagram\n", "sequenceDiagram", true},
		{"%%{init: {'theme': 'base'}}%%\n  flowchart TB", "flowchart", true},
		{"%% comment\nmindmap\n  root", "mindmap", true},
		{"---\ntitle: Orders\n---\nflowchart LR\n  A-->B", "flowchart", true},
		{"\n---\nconfig:\n  theme: dark\n---\n%% note\nsequenceDiagram", "sequenceDiagram", true},
		{"xychart-beta\n  bar [1, 2]", "xychart-beta", true},
		{"C4Container\n  title System", "C4Container", true},
		{"sankey-beta\nA,B,10", "sankey-beta", true},
		{"architecture-beta\n  service db(database)", "architecture-beta", true},
		{"---\ntitle: never closed\nflowchart LR", "---", false},
		{"grph TD", "grph", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := Header(tt.src)
		assert.Equal(t, tt.want, got, tt.src)
		assert.Equal(t, tt.ok, ok, tt.src)
	}
}

func TestPaletteCycles(t *testing.T) {
	assert.Equal(t, 6, PaletteSize)
	for i := 0; i < 3*PaletteSize; i++ {
		assert.Equal(t, PaletteColor(i%PaletteSize), PaletteColor(i))
	}
	assert.Equal(t, "rgba(54, 162, 235, 0.5)", PaletteColor(0).Background)
	assert.Equal(t, "rgb(255, 159, 64)", PaletteColor(5).Border)
	assert.NotEqual(t, PaletteColor(0), PaletteColor(1))
}

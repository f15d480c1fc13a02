package render

import (
	"context"
	"strings"

	"chartcraft/domain/grid"
	"chartcraft/domain/visual"
	"chartcraft/internal/errors"
)

// ChartConfig is the object handed to `new Chart(canvas, config)`.
type ChartConfig struct {
	Type    string       `json:"type"`
	Data    ChartData    `json:"data"`
	Options ChartOptions `json:"options"`
}

type ChartData struct {
	Labels   []string       `json:"labels"`
	Datasets []ChartDataset `json:"datasets"`
}

// ChartDataset colours are a single CSS colour for multi-series kinds and
// one colour per slice for single-series kinds.
type ChartDataset struct {
	Label           string      `json:"label,omitempty"`
	Data            []float64   `json:"data"`
	BackgroundColor interface{} `json:"backgroundColor"`
	BorderColor     interface{} `json:"borderColor"`
	BorderWidth     int         `json:"borderWidth"`
	Tension         *float64    `json:"tension,omitempty"`
	Fill            *bool       `json:"fill,omitempty"`
}

type ChartOptions struct {
	Responsive bool         `json:"responsive"`
	Plugins    ChartPlugins `json:"plugins"`
	Scales     *ChartScales `json:"scales,omitempty"`
}

type ChartPlugins struct {
	Title  ChartTitle  `json:"title"`
	Legend ChartLegend `json:"legend"`
}

type ChartTitle struct {
	Display bool   `json:"display"`
	Text    string `json:"text"`
}

type ChartLegend struct {
	Position string `json:"position"`
}

type ChartScales struct {
	Y ChartAxis `json:"y"`
}

type ChartAxis struct {
	BeginAtZero bool `json:"beginAtZero"`
}

// radialKinds have no cartesian y axis.
var radialKinds = map[string]bool{"pie": true, "doughnut": true, "polarArea": true}

// curvedKinds draw thin unfilled lines.
var curvedKinds = map[string]bool{"line": true, "radar": true}

// ChartTitleText is the title shown above a chart, e.g.
// "Data Visualization (PolarArea Chart)".
func ChartTitleText(slug string) string {
	return "Data Visualization (" + upperFirst(slug) + " Chart)"
}

// Plot3DTitleText is the layout title of a 3D plot, e.g. "3D Surface Chart".
func Plot3DTitleText(slug string) string {
	return "3D " + upperFirst(slug) + " Chart"
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// BuildChartConfig turns a dataset into a Chart.js config for kind. Colours
// come from the palette by series index (or slice index for single-series
// kinds), so a series keeps its colour across re-renders.
func BuildChartConfig(kind visual.Kind, ds grid.Dataset) ChartConfig {
	cfg := ChartConfig{
		Type: kind.Slug,
		Data: ChartData{Labels: ds.Labels, Datasets: []ChartDataset{}},
		Options: ChartOptions{
			Responsive: true,
			Plugins: ChartPlugins{
				Title:  ChartTitle{Display: true, Text: ChartTitleText(kind.Slug)},
				Legend: ChartLegend{Position: "top"},
			},
		},
	}
	if cfg.Data.Labels == nil {
		cfg.Data.Labels = []string{}
	}
	if !radialKinds[kind.Slug] {
		cfg.Options.Scales = &ChartScales{Y: ChartAxis{BeginAtZero: true}}
	}

	if kind.Shape == grid.ShapeSingle {
		for _, s := range ds.Series {
			bg := make([]string, len(s.Values))
			border := make([]string, len(s.Values))
			for j := range s.Values {
				c := visual.PaletteColor(j)
				bg[j], border[j] = c.Background, c.Border
			}
			cfg.Data.Datasets = append(cfg.Data.Datasets, ChartDataset{
				Data:            s.Values,
				BackgroundColor: bg,
				BorderColor:     border,
				BorderWidth:     1,
			})
		}
		return cfg
	}

	curved := curvedKinds[kind.Slug]
	for i, s := range ds.Series {
		c := visual.PaletteColor(i)
		d := ChartDataset{
			Label:           s.Name,
			Data:            s.Values,
			BackgroundColor: c.Background,
			BorderColor:     c.Border,
			BorderWidth:     1,
			Tension:         floatPtr(0),
			Fill:            boolPtr(true),
		}
		if curved {
			d.BorderWidth = 2
			d.Tension = floatPtr(0.1)
			d.Fill = boolPtr(false)
		}
		cfg.Data.Datasets = append(cfg.Data.Datasets, d)
	}
	return cfg
}

func floatPtr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool        { return &v }

// ChartAdapter renders the 2D chart family from a workspace grid.
type ChartAdapter struct{}

// NewChartAdapter creates the chart family adapter
func NewChartAdapter() *ChartAdapter {
	return &ChartAdapter{}
}

func (a *ChartAdapter) Family() visual.Family { return visual.FamilyChart }

// Render replaces the mount's chart with one built from in.Grid.
func (a *ChartAdapter) Render(ctx context.Context, m *Mount, in Input) (*Instance, error) {
	if in.Kind.Family != visual.FamilyChart {
		return nil, errors.InvalidInput("chart adapter cannot render " + string(in.Kind.Family))
	}
	if in.Grid == nil {
		return nil, errors.InvalidInput("chart render needs a grid")
	}
	cfg := BuildChartConfig(in.Kind, grid.Transform(in.Grid, in.Kind.Shape))
	return m.replace(func() *Instance {
		return &Instance{
			Family:  visual.FamilyChart,
			Kind:    in.Kind.Slug,
			Title:   cfg.Options.Plugins.Title.Text,
			Payload: cfg,
		}
	}), nil
}

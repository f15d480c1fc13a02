package render

import (
	"context"
	"fmt"

	"chartcraft/domain/grid"
	"chartcraft/domain/visual"
	"chartcraft/internal/errors"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Figure is the argument triple of `Plotly.newPlot(el, data, layout, config)`.
type Figure struct {
	Data   []Trace                `json:"data"`
	Layout Layout                 `json:"layout"`
	Config map[string]interface{} `json:"config"`
}

// Trace is one Plotly trace. Trace attributes differ per type, so they are
// kept as a map.
type Trace map[string]interface{}

type Layout struct {
	Title    string `json:"title"`
	Autosize bool   `json:"autosize"`
	Height   int    `json:"height"`
	Scene    Scene  `json:"scene"`
	Margin   Margin `json:"margin"`
}

type Scene struct {
	XAxis AxisTitle `json:"xaxis"`
	YAxis AxisTitle `json:"yaxis"`
	ZAxis AxisTitle `json:"zaxis"`
}

type AxisTitle struct {
	Title string `json:"title"`
}

type Margin struct {
	L   int `json:"l"`
	R   int `json:"r"`
	B   int `json:"b"`
	T   int `json:"t"`
	Pad int `json:"pad"`
}

var (
	sampleSurface = mat.NewDense(4, 4, []float64{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
		13, 14, 15, 16,
	})
	sampleContour = mat.NewDense(4, 5, []float64{
		2, 4, 6, 8, 10,
		1, 3, 5, 7, 9,
		10, 8, 6, 4, 2,
		9, 7, 5, 3, 1,
	})
)

// BuildFigure returns the Plotly figure for a 3D kind. Surface, contour and
// bar read their z matrix from g when it holds data; otherwise, and for the
// other kinds, fixed sample data is used.
func BuildFigure(kind visual.Kind, g *grid.Grid) (Figure, error) {
	fig := Figure{
		Layout: Layout{
			Title:    Plot3DTitleText(kind.Slug),
			Autosize: true,
			Height:   500,
			Scene: Scene{
				XAxis: AxisTitle{Title: "X Axis"},
				YAxis: AxisTitle{Title: "Y Axis"},
				ZAxis: AxisTitle{Title: "Z Axis"},
			},
			Margin: Margin{L: 0, R: 0, B: 0, T: 50, Pad: 4},
		},
		Config: map[string]interface{}{"responsive": true},
	}

	var z *mat.Dense
	var ds grid.Dataset
	if g != nil {
		z, ds = gridMatrix(g)
	}

	switch kind.Slug {
	case "surface":
		if z == nil {
			z = sampleSurface
		}
		fig.Data = []Trace{{
			"type":       "surface",
			"z":          rows(z),
			"colorscale": "Viridis",
			"cmin":       mat.Min(z),
			"cmax":       mat.Max(z),
		}}
	case "contour":
		if z == nil {
			z = sampleContour
		}
		fig.Data = []Trace{{
			"type": "surface",
			"z":    rows(z),
			"contours": map[string]interface{}{
				"z": map[string]interface{}{
					"show":           true,
					"usecolormap":    true,
					"highlightcolor": "#42f462",
					"project":        map[string]interface{}{"z": true},
				},
			},
		}}
	case "mesh":
		fig.Data = []Trace{{
			"type":       "mesh3d",
			"x":          []float64{0, 1, 2, 0, 1, 2, 0, 1, 2},
			"y":          []float64{0, 0, 0, 1, 1, 1, 2, 2, 2},
			"z":          []float64{0, 1, 0, 1, 2, 1, 0, 1, 0},
			"intensity":  []float64{0, 0.5, 1, 0.5, 1, 0.5, 1, 0.5, 0},
			"colorscale": "Viridis",
		}}
	case "network":
		axis := []float64{0, 1, 2, 3, 4}
		fig.Data = []Trace{{
			"type": "scatter3d",
			"mode": "markers+lines",
			"x":    axis,
			"y":    axis,
			"z":    axis,
			"marker": map[string]interface{}{
				"size":  12,
				"color": "rgb(127, 127, 127)",
			},
			"line": map[string]interface{}{"color": "rgb(127, 127, 127)", "width": 2},
		}}
	case "scatter":
		x := make([]float64, 9)
		y := make([]float64, 9)
		zs := make([]float64, 9)
		for i := range x {
			x[i] = float64(i + 1)
			y[i] = float64(i + 2)
			zs[i] = float64(2*i + 3)
		}
		fig.Data = []Trace{{
			"type": "scatter3d",
			"mode": "markers",
			"x":    x,
			"y":    y,
			"z":    zs,
			"marker": map[string]interface{}{
				"size":    8,
				"color":   "rgba(0, 128, 255, 0.8)",
				"opacity": 0.8,
			},
		}}
	case "bar":
		if z == nil {
			z = sampleSurface
			ds = grid.Dataset{}
		}
		fig.Data = barTraces(z, ds)
	default:
		return Figure{}, errors.NotFound(fmt.Sprintf("3D kind %q", kind.Slug))
	}
	return fig, nil
}

// gridMatrix reads the multi-series dataset of g as a series x label
// matrix. A grid without series or labels yields nil.
func gridMatrix(g *grid.Grid) (*mat.Dense, grid.Dataset) {
	ds := grid.Transform(g, grid.ShapeMulti)
	if len(ds.Series) == 0 || len(ds.Labels) == 0 {
		return nil, ds
	}
	z := mat.NewDense(len(ds.Series), len(ds.Labels), nil)
	for i, s := range ds.Series {
		z.SetRow(i, s.Values)
	}
	return z, ds
}

func rows(m *mat.Dense) [][]float64 {
	r, _ := m.Dims()
	out := make([][]float64, r)
	for i := 0; i < r; i++ {
		out[i] = mat.Row(nil, i, m)
	}
	return out
}

// barTraces draws one scatter3d trace per series: a vertical segment from
// the floor to each value, broken by nulls between bars.
func barTraces(z *mat.Dense, ds grid.Dataset) []Trace {
	r, c := z.Dims()
	traces := make([]Trace, 0, r)
	for i := 0; i < r; i++ {
		row := mat.Row(nil, i, z)
		floor := floats.Min(row)
		if floor > 0 {
			floor = 0
		}
		var xs, ys, zs, text []interface{}
		for j := 0; j < c; j++ {
			label := fmt.Sprintf("%d", j+1)
			if j < len(ds.Labels) {
				label = ds.Labels[j]
			}
			xs = append(xs, j, j, nil)
			ys = append(ys, i, i, nil)
			zs = append(zs, floor, row[j], nil)
			text = append(text, label, label, nil)
		}
		name := fmt.Sprintf("Series %d", i+1)
		if i < len(ds.Series) && ds.Series[i].Name != "" {
			name = ds.Series[i].Name
		}
		color := visual.PaletteColor(i)
		traces = append(traces, Trace{
			"type": "scatter3d",
			"mode": "lines",
			"name": name,
			"x":    xs,
			"y":    ys,
			"z":    zs,
			"line": map[string]interface{}{"color": color.Border, "width": 12},
			"text": text,
		})
	}
	return traces
}

// Plot3DAdapter renders the 3D family.
type Plot3DAdapter struct{}

// NewPlot3DAdapter creates the 3D family adapter
func NewPlot3DAdapter() *Plot3DAdapter {
	return &Plot3DAdapter{}
}

func (a *Plot3DAdapter) Family() visual.Family { return visual.FamilyPlot3D }

// Render replaces the mount's plot with the figure for in.Kind.
func (a *Plot3DAdapter) Render(ctx context.Context, m *Mount, in Input) (*Instance, error) {
	if in.Kind.Family != visual.FamilyPlot3D {
		return nil, errors.InvalidInput("3D adapter cannot render " + string(in.Kind.Family))
	}
	fig, err := BuildFigure(in.Kind, in.Grid)
	if err != nil {
		return nil, err
	}
	return m.replace(func() *Instance {
		return &Instance{
			Family:  visual.FamilyPlot3D,
			Kind:    in.Kind.Slug,
			Title:   fig.Layout.Title,
			Payload: fig,
		}
	}), nil
}

package grid

import (
	"regexp"
	"strconv"
	"strings"
)

// Shape selects how rows are turned into series.
type Shape string

const (
	// ShapeMulti emits one named series per labelled data row.
	ShapeMulti Shape = "multi"
	// ShapeSingle emits one unnamed series from data row 1 only.
	ShapeSingle Shape = "single"
)

// Series is one named run of values aligned with Dataset.Labels.
type Series struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// Dataset is derived from a grid on every read; it is never stored.
type Dataset struct {
	Labels []string `json:"labels"`
	Series []Series `json:"series"`
}

// Transform converts the grid into labels and series. Labels are the
// non-blank headers of columns 1..lastCol-1; only those columns contribute
// values, so every series lines up with Labels. Cells that do not parse as
// numbers become 0.
func Transform(g *Grid, shape Shape) Dataset {
	cols := valueColumns(g)
	labels := make([]string, 0, len(cols))
	for _, c := range cols {
		labels = append(labels, g.cells[0][c])
	}

	ds := Dataset{Labels: labels, Series: []Series{}}
	if shape == ShapeSingle {
		values := make([]float64, len(cols))
		if g.Rows() > 1 {
			for i, c := range cols {
				values[i] = ParseNumber(g.cells[1][c])
			}
		}
		ds.Series = append(ds.Series, Series{Values: values})
		return ds
	}

	for r := 1; r < g.Rows()-1; r++ {
		name := g.cells[r][0]
		if isBlank(name) {
			continue
		}
		values := make([]float64, len(cols))
		for i, c := range cols {
			values[i] = ParseNumber(g.cells[r][c])
		}
		ds.Series = append(ds.Series, Series{Name: name, Values: values})
	}
	return ds
}

// Records is the table keyed by row label, then by column header, holding
// the raw cell text. Only labelled data rows and columns with a non-blank
// header appear. A repeated row label or header keeps the last occurrence.
func Records(g *Grid) map[string]map[string]string {
	out := map[string]map[string]string{}
	cols := valueColumns(g)
	for r := 1; r < g.Rows()-1; r++ {
		label := g.cells[r][0]
		if isBlank(label) {
			continue
		}
		rec := make(map[string]string, len(cols))
		for _, c := range cols {
			rec[g.cells[0][c]] = g.cells[r][c]
		}
		out[label] = rec
	}
	return out
}

// valueColumns lists the column indexes between the label column and the
// growth column whose header is non-blank.
func valueColumns(g *Grid) []int {
	if g.Rows() == 0 {
		return nil
	}
	var cols []int
	for c := 1; c < g.Cols()-1; c++ {
		if !isBlank(g.cells[0][c]) {
			cols = append(cols, c)
		}
	}
	return cols
}

var numericPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// ParseNumber reads the longest numeric prefix of s after leading
// whitespace, the way a browser's parseFloat does. Text without a numeric
// prefix, and values that overflow to infinity, yield 0.
func ParseNumber(s string) float64 {
	prefix := numericPrefix.FindString(strings.TrimLeft(s, " \t\n\r\v\f"))
	if prefix == "" {
		return 0
	}
	v, err := strconv.ParseFloat(prefix, 64)
	if err != nil {
		// ParseFloat only fails here on overflow.
		return 0
	}
	return v
}

package grid

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exampleGrid() *Grid {
	return FromRows([][]string{
		{"", "Jan", "Feb", "Mar", "Apr", ""},
		{"2023", "65", "8", "90", "81", ""},
		{"2024", "219", "48", "40", "19", ""},
		{"", "", "", "", "", ""},
	})
}

func commit(t *testing.T, g *Grid, row, col int, value string) CommitResult {
	t.Helper()
	var e EditState
	_, err := e.Select(g, row, col)
	require.NoError(t, err)
	e.Input(value)
	return e.Commit(g)
}

func TestTransformMultiSeries(t *testing.T) {
	got := Transform(exampleGrid(), ShapeMulti)
	want := Dataset{
		Labels: []string{"Jan", "Feb", "Mar", "Apr"},
		Series: []Series{
			{Name: "2023", Values: []float64{65, 8, 90, 81}},
			{Name: "2024", Values: []float64{219, 48, 40, 19}},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Transform() mismatch (-want +got):\n%s", diff)
	}
}

func TestTransformSingleSeries(t *testing.T) {
	got := Transform(exampleGrid(), ShapeSingle)
	require.Len(t, got.Series, 1)
	assert.Equal(t, "", got.Series[0].Name)
	assert.Equal(t, []float64{65, 8, 90, 81}, got.Series[0].Values)
}

func TestTransformSingleSeriesOnEmptyGrid(t *testing.T) {
	g := FromRows([][]string{{"", "A", "B", ""}})
	require.Equal(t, 2, g.Rows(), "header-only grid gains a growth row")

	got := Transform(g, ShapeSingle)
	require.Len(t, got.Series, 1)
	assert.Equal(t, []float64{0, 0}, got.Series[0].Values)
	assert.Equal(t, len(got.Labels), len(got.Series[0].Values))
}

func TestTransformSkipsBlankLabels(t *testing.T) {
	g := FromRows([][]string{
		{"", "A", "", "C", ""},
		{"s1", "1", "2", "3", ""},
		{"", "9", "9", "9", ""},
		{"s3", "4", "5", "6", ""},
		{"", "", "", "", ""},
	})
	got := Transform(g, ShapeMulti)
	assert.Equal(t, []string{"A", "C"}, got.Labels)
	require.Len(t, got.Series, 2)
	assert.Equal(t, Series{Name: "s1", Values: []float64{1, 3}}, got.Series[0])
	assert.Equal(t, Series{Name: "s3", Values: []float64{4, 6}}, got.Series[1])
}

func TestTransformShapeCounts(t *testing.T) {
	tests := []struct {
		name       string
		rows       [][]string
		wantSeries int
		wantValues int
	}{
		{"seed", Seed().Snapshot(), 2, 4},
		{"no data rows", [][]string{{"", "x", ""}, {"", "", ""}}, 0, 1},
		{"unlabelled rows", [][]string{{"", "x", "y", ""}, {"", "1", "2", ""}, {"", "", "", ""}}, 0, 2},
		{"ragged input", [][]string{{"", "x", "y"}, {"a", "1"}, {"b"}}, 2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := Transform(FromRows(tt.rows), ShapeMulti)
			if len(ds.Series) != tt.wantSeries {
				t.Errorf("Expected %d series, got %d", tt.wantSeries, len(ds.Series))
			}
			if len(ds.Labels) != tt.wantValues {
				t.Errorf("Expected %d labels, got %d", tt.wantValues, len(ds.Labels))
			}
			for _, s := range ds.Series {
				if len(s.Values) != len(ds.Labels) {
					t.Errorf("Series %q has %d values, want %d", s.Name, len(s.Values), len(ds.Labels))
				}
			}
		})
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"65", 65},
		{"  3.5", 3.5},
		{"-2", -2},
		{"+7", 7},
		{".5", 0.5},
		{"1e3", 1000},
		{"12abc", 12},
		{"1e", 1},
		{"abc", 0},
		{"", 0},
		{"NaN", 0},
		{"1e999", 0},
	}
	for _, tt := range tests {
		if got := ParseNumber(tt.in); got != tt.want {
			t.Errorf("ParseNumber(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNonNumericCellBecomesZero(t *testing.T) {
	g := exampleGrid()
	commit(t, g, 1, 2, "abc")

	ds := Transform(g, ShapeMulti)
	assert.Equal(t, []float64{65, 0, 90, 81}, ds.Series[0].Values)
}

func TestAutoExpandLastColumn(t *testing.T) {
	for row := 0; row < 4; row++ {
		g := exampleGrid()
		res := commit(t, g, row, 5, "x")

		assert.True(t, res.Growth.Cols, "row %d", row)
		assert.Equal(t, 7, g.Cols(), "row %d", row)
		for r := 0; r < g.Rows(); r++ {
			v, err := g.Cell(r, 6)
			require.NoError(t, err)
			assert.Empty(t, v, "new last column must be blank")
		}
	}
}

func TestAutoExpandLastRow(t *testing.T) {
	g := exampleGrid()
	res := commit(t, g, 3, 0, "2025")

	assert.True(t, res.Growth.Rows)
	assert.False(t, res.Growth.Cols)
	assert.Equal(t, 5, g.Rows())
	assert.Equal(t, 6, g.Cols())
}

func TestAutoExpandBothAxes(t *testing.T) {
	g := exampleGrid()
	res := commit(t, g, 3, 5, "corner")

	assert.Equal(t, Growth{Rows: true, Cols: true}, res.Growth)
	assert.Equal(t, 5, g.Rows())
	assert.Equal(t, 7, g.Cols())
	for _, row := range g.Snapshot() {
		assert.Len(t, row, 7)
	}
}

func TestAutoExpandNeverShrinks(t *testing.T) {
	g := exampleGrid()
	commit(t, g, 3, 5, "x")
	rows, cols := g.Rows(), g.Cols()

	commit(t, g, 3, 5, "")
	assert.Equal(t, rows, g.Rows())
	assert.Equal(t, cols, g.Cols())
}

func TestCommitUnchangedDoesNotGrow(t *testing.T) {
	g := exampleGrid()
	before := g.Snapshot()

	for r := 0; r < g.Rows(); r++ {
		for c := 0; c < g.Cols(); c++ {
			v, _ := g.Cell(r, c)
			res := commit(t, g, r, c, v)
			assert.False(t, res.Changed)
			assert.False(t, res.Growth.Any(), "(%d,%d)", r, c)
		}
	}
	assert.Equal(t, before, g.Snapshot())
}

func TestGrowthMonotonic(t *testing.T) {
	g := exampleGrid()
	edits := []struct {
		row, col int
		value    string
	}{
		{3, 0, "2025"}, {4, 1, "5"}, {0, 5, "May"}, {4, 1, ""}, {0, 5, ""}, {2, 2, "1"},
	}
	rows, cols := g.Rows(), g.Cols()
	for _, e := range edits {
		commit(t, g, e.row, e.col, e.value)
		if g.Rows() < rows || g.Cols() < cols {
			t.Fatalf("grid shrank to %dx%d after %+v", g.Rows(), g.Cols(), e)
		}
		rows, cols = g.Rows(), g.Cols()
	}
}

func TestEditStateMachine(t *testing.T) {
	g := exampleGrid()
	var e EditState
	assert.False(t, e.Editing())

	_, err := e.Select(g, 1, 1)
	require.NoError(t, err)
	assert.True(t, e.Editing())
	assert.Equal(t, "65", e.Buffer)

	e.Input("70")
	v, _ := g.Cell(1, 1)
	assert.Equal(t, "65", v, "input must not touch the grid")

	res := e.Commit(g)
	assert.True(t, res.Committed)
	assert.Equal(t, Coord{Row: 1, Col: 1}, res.At)
	assert.False(t, e.Editing())
	v, _ = g.Cell(1, 1)
	assert.Equal(t, "70", v)

	assert.Equal(t, CommitResult{}, e.Commit(g), "commit while idle is a no-op")
}

func TestSelectCommitsPendingEdit(t *testing.T) {
	g := exampleGrid()
	var e EditState
	_, err := e.Select(g, 1, 1)
	require.NoError(t, err)
	e.Input("1")

	prior, err := e.Select(g, 2, 2)
	require.NoError(t, err)
	assert.True(t, prior.Committed)
	assert.Equal(t, Coord{Row: 1, Col: 1}, prior.At)

	v, _ := g.Cell(1, 1)
	assert.Equal(t, "1", v)
	assert.Equal(t, "48", e.Buffer)
	assert.Equal(t, &Coord{Row: 2, Col: 2}, e.Selected)
}

func TestSelectOutOfRange(t *testing.T) {
	g := exampleGrid()
	var e EditState
	_, err := e.Select(g, 9, 0)
	assert.True(t, errors.Is(err, ErrOutOfRange))
	_, err = e.Select(g, 0, -1)
	assert.True(t, errors.Is(err, ErrOutOfRange))
	assert.False(t, e.Editing())
}

func TestInputWhileIdleIgnored(t *testing.T) {
	var e EditState
	e.Input("x")
	assert.Empty(t, e.Buffer)
}

func TestRecords(t *testing.T) {
	tests := []struct {
		name string
		rows [][]string
		want map[string]map[string]string
	}{
		{
			name: "seed keeps raw text",
			rows: Seed().Snapshot(),
			want: map[string]map[string]string{
				"2023": {"January": "65", "February": "8", "March": "90", "April": "81"},
				"2024": {"January": "219", "February": "48", "March": "40", "April": "19"},
			},
		},
		{
			name: "blank labels and headers are skipped",
			rows: [][]string{
				{"", "Q1", "", "Q3", ""},
				{"north", "1.5", "x", "abc", ""},
				{"", "9", "9", "9", ""},
				{"", "", "", "", ""},
			},
			want: map[string]map[string]string{
				"north": {"Q1": "1.5", "Q3": "abc"},
			},
		},
		{
			name: "repeated labels keep the last",
			rows: [][]string{
				{"", "A", "A", ""},
				{"r", "1", "2", ""},
				{"r", "3", "4", ""},
				{"", "", "", ""},
			},
			want: map[string]map[string]string{
				"r": {"A": "4"},
			},
		},
		{
			name: "empty grid",
			rows: nil,
			want: map[string]map[string]string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Records(FromRows(tt.rows))); diff != "" {
				t.Errorf("records mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFromRowsNormalizes(t *testing.T) {
	g := FromRows([][]string{{"", "a", "b"}, {"r", "1"}})

	assert.Equal(t, 3, g.Rows())
	assert.Equal(t, 4, g.Cols())
	for _, row := range g.Snapshot() {
		assert.Len(t, row, 4)
	}
	assert.Equal(t, [][]string{{"", "a", "b"}, {"r", "1", ""}}, g.DataRows())
}

func TestFromRowsEmpty(t *testing.T) {
	g := FromRows(nil)
	assert.Equal(t, 2, g.Rows())
	assert.Equal(t, 2, g.Cols())
}

func TestGridJSONRoundTripKeepsInvariant(t *testing.T) {
	data, err := json.Marshal(exampleGrid())
	require.NoError(t, err)

	var g Grid
	require.NoError(t, json.Unmarshal(data, &g))
	assert.Equal(t, exampleGrid().Snapshot(), g.Snapshot())

	require.NoError(t, json.Unmarshal([]byte(`[["","a"],["r","1"]]`), &g))
	assert.Equal(t, 3, g.Rows())
	assert.Equal(t, 3, g.Cols())
}

func TestUnmarshalRejectsOversizedGrids(t *testing.T) {
	wide := `["` + strings.Repeat(`x","`, 20000) + `x"]`
	tests := []struct {
		name string
		data string
	}{
		{"one wide row with many empty rows", `[` + wide + strings.Repeat(`,[]`, 2000) + `]`},
		{"too many rows", `[` + strings.TrimSuffix(strings.Repeat(`[],`, MaxRows+1), ",") + `]`},
		{"too many columns", `[["` + strings.Repeat(`","`, MaxCols) + `"]]`},
		{"growth column pushes past the limit", `[["` + strings.Repeat(`","`, MaxCols-1) + `x"]]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var g Grid
			err := json.Unmarshal([]byte(tt.data), &g)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrTooLarge), err.Error())
			assert.Zero(t, g.Rows())
		})
	}

	var g Grid
	require.NoError(t, json.Unmarshal([]byte(`[["`+strings.Repeat(`","`, MaxCols-1)+`"]]`), &g))
	assert.Equal(t, MaxCols, g.Cols())
}

func TestFullGridRefusesGrowthCells(t *testing.T) {
	rows := make([][]string, MaxRows-1)
	for i := range rows {
		rows[i] = []string{"r", "1"}
	}
	g := FromRows(rows)
	require.Equal(t, MaxRows, g.Rows())

	var e EditState
	_, err := e.Select(g, MaxRows-1, 0)
	assert.True(t, errors.Is(err, ErrTooLarge))
	assert.False(t, e.Editing())

	commit(t, g, 0, 2, "wider")
	assert.Equal(t, MaxRows, g.Rows())
	assert.Equal(t, 4, g.Cols())
}

func TestCloneIsIndependent(t *testing.T) {
	g := exampleGrid()
	c := g.Clone()
	commit(t, c, 1, 1, "0")

	v, _ := g.Cell(1, 1)
	assert.Equal(t, "65", v)
}

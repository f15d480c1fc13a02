// Package grid holds the editable spreadsheet that feeds every 2D chart:
// the cell model, the grid-to-series transform, the auto-expand policy and
// the single-cell edit state machine.
package grid

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrOutOfRange is returned when a coordinate falls outside the grid.
var ErrOutOfRange = errors.New("cell coordinate out of range")

// ErrTooLarge is returned when a grid would exceed MaxRows or MaxCols.
var ErrTooLarge = errors.New("grid too large")

// Size limits, growth row and column included. Spreadsheet imports are
// capped lower, so an imported grid always has room to grow.
const (
	MaxRows = 1000
	MaxCols = 200
)

// Grid is a rectangular table of string cells. Row 0 carries the category
// labels, column 0 the series labels. The last row and the last column are
// kept blank so the table can grow.
type Grid struct {
	cells [][]string
}

// Coord addresses one cell.
type Coord struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// Seed returns the grid every new workspace starts with: four months of
// labels and two example years, plus the growth row and column.
func Seed() *Grid {
	return &Grid{cells: [][]string{
		{"", "January", "February", "March", "April", ""},
		{"2023", "65", "8", "90", "81", ""},
		{"2024", "219", "48", "40", "19", ""},
		{"", "", "", "", "", ""},
	}}
}

// FromRows builds a grid from arbitrary rows. Short rows are padded to the
// widest row and the growth invariant is restored, so the result always has
// a blank trailing row and column.
func FromRows(rows [][]string) *Grid {
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	if width == 0 {
		width = 1
	}

	cells := make([][]string, 0, len(rows)+1)
	for _, row := range rows {
		padded := make([]string, width)
		copy(padded, row)
		cells = append(cells, padded)
	}
	if len(cells) == 0 {
		cells = append(cells, make([]string, width))
	}

	g := &Grid{cells: cells}
	g.AutoExpand()
	// A header-only grid still needs a growth row under it and a growth
	// column beside the label column.
	if g.Rows() < 2 {
		g.appendRow()
	}
	if g.Cols() < 2 {
		g.appendCol()
	}
	return g
}

// Rows returns the number of rows, growth row included.
func (g *Grid) Rows() int {
	return len(g.cells)
}

// Cols returns the number of columns, growth column included.
func (g *Grid) Cols() int {
	if len(g.cells) == 0 {
		return 0
	}
	return len(g.cells[0])
}

// Cell returns the raw text at (row, col).
func (g *Grid) Cell(row, col int) (string, error) {
	if !g.inRange(row, col) {
		return "", fmt.Errorf("%w: (%d,%d) in %dx%d grid", ErrOutOfRange, row, col, g.Rows(), g.Cols())
	}
	return g.cells[row][col], nil
}

// Snapshot returns a deep copy of the cells.
func (g *Grid) Snapshot() [][]string {
	out := make([][]string, len(g.cells))
	for i, row := range g.cells {
		out[i] = append([]string(nil), row...)
	}
	return out
}

// Clone returns an independent copy of the grid.
func (g *Grid) Clone() *Grid {
	return &Grid{cells: g.Snapshot()}
}

// DataRows returns the cells without the growth row and column.
func (g *Grid) DataRows() [][]string {
	rows := g.Rows() - 1
	cols := g.Cols() - 1
	if rows <= 0 || cols <= 0 {
		return nil
	}
	out := make([][]string, rows)
	for i := 0; i < rows; i++ {
		out[i] = append([]string(nil), g.cells[i][:cols]...)
	}
	return out
}

func (g *Grid) inRange(row, col int) bool {
	return row >= 0 && row < g.Rows() && col >= 0 && col < g.Cols()
}

func (g *Grid) set(row, col int, value string) {
	g.cells[row][col] = value
}

// MarshalJSON encodes the grid as a plain array of rows.
func (g *Grid) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.cells)
}

// UnmarshalJSON decodes an array of rows and restores the growth invariant.
// Rows are checked against the size limits before any padding happens.
func (g *Grid) UnmarshalJSON(data []byte) error {
	var rows [][]string
	if err := json.Unmarshal(data, &rows); err != nil {
		return fmt.Errorf("decode grid: %w", err)
	}
	if err := checkSize(rows); err != nil {
		return err
	}
	decoded := FromRows(rows)
	if decoded.Rows() > MaxRows || decoded.Cols() > MaxCols {
		return fmt.Errorf("%w: %dx%d grid, limit is %dx%d", ErrTooLarge, decoded.Rows(), decoded.Cols(), MaxRows, MaxCols)
	}
	g.cells = decoded.cells
	return nil
}

func checkSize(rows [][]string) error {
	if len(rows) > MaxRows {
		return fmt.Errorf("%w: %d rows, limit is %d", ErrTooLarge, len(rows), MaxRows)
	}
	for i, row := range rows {
		if len(row) > MaxCols {
			return fmt.Errorf("%w: row %d has %d cells, limit is %d", ErrTooLarge, i, len(row), MaxCols)
		}
	}
	return nil
}

// full reports whether writing to (row, col) could grow the grid past its
// limits.
func (g *Grid) full(row, col int) bool {
	return (row == g.Rows()-1 && g.Rows() >= MaxRows) || (col == g.Cols()-1 && g.Cols() >= MaxCols)
}

func isBlank(s string) bool {
	return s == ""
}

// String renders the grid as pipe-separated rows, used in logs and test
// failure output.
func (g *Grid) String() string {
	var b strings.Builder
	for _, row := range g.cells {
		b.WriteString("|")
		b.WriteString(strings.Join(row, "|"))
		b.WriteString("|\n")
	}
	return b.String()
}

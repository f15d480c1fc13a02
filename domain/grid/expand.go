package grid

// Growth reports which axes AutoExpand extended.
type Growth struct {
	Rows bool `json:"rows"`
	Cols bool `json:"cols"`
}

// Any reports whether the grid grew at all.
func (g Growth) Any() bool {
	return g.Rows || g.Cols
}

// AutoExpand restores the growth invariant after a cell changed. A non-blank
// cell in the last row appends a blank row; afterwards a non-blank cell in
// the last column (checked across all rows, including a row appended in the
// same call) appends a blank cell to every row. The grid never shrinks, even
// when trailing rows or columns become blank again.
func (g *Grid) AutoExpand() Growth {
	var grown Growth
	if g.Rows() == 0 {
		return grown
	}

	last := g.cells[g.Rows()-1]
	for _, cell := range last {
		if !isBlank(cell) {
			g.appendRow()
			grown.Rows = true
			break
		}
	}

	lastCol := g.Cols() - 1
	if lastCol < 0 {
		return grown
	}
	for _, row := range g.cells {
		if !isBlank(row[lastCol]) {
			g.appendCol()
			grown.Cols = true
			break
		}
	}
	return grown
}

func (g *Grid) appendRow() {
	g.cells = append(g.cells, make([]string, g.Cols()))
}

func (g *Grid) appendCol() {
	for i := range g.cells {
		g.cells[i] = append(g.cells[i], "")
	}
}

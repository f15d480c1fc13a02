package grid

import "fmt"

// EditState is the single active edit: at most one selected coordinate and
// the pending text for it. A nil Selected means Idle.
type EditState struct {
	Selected *Coord `json:"selected,omitempty"`
	Buffer   string `json:"buffer"`
}

// CommitResult describes what a commit did.
type CommitResult struct {
	Committed bool   `json:"committed"`
	At        Coord  `json:"at"`
	Changed   bool   `json:"changed"`
	Growth    Growth `json:"growth"`
}

// Editing reports whether a cell is selected.
func (e *EditState) Editing() bool {
	return e.Selected != nil
}

// Select moves to Editing on (row, col) and seeds the buffer with the
// stored value. Growth cells of a grid at its size limit cannot be selected. A pending edit on another cell is committed first; the
// result of that commit is returned.
func (e *EditState) Select(g *Grid, row, col int) (CommitResult, error) {
	if !g.inRange(row, col) {
		return CommitResult{}, fmt.Errorf("%w: select (%d,%d) in %dx%d grid", ErrOutOfRange, row, col, g.Rows(), g.Cols())
	}
	if g.full(row, col) {
		return CommitResult{}, fmt.Errorf("%w: (%d,%d) is a growth cell of a %dx%d grid", ErrTooLarge, row, col, g.Rows(), g.Cols())
	}

	var prior CommitResult
	if e.Selected != nil && (e.Selected.Row != row || e.Selected.Col != col) {
		prior = e.Commit(g)
	}

	e.Selected = &Coord{Row: row, Col: col}
	e.Buffer = g.cells[row][col]
	return prior, nil
}

// Input replaces the buffer. The grid is untouched until Commit. Input
// while Idle is ignored.
func (e *EditState) Input(text string) {
	if e.Selected == nil {
		return
	}
	e.Buffer = text
}

// Commit writes the buffer into the grid at the selected coordinate, runs
// AutoExpand and returns to Idle. Committing while Idle does nothing.
func (e *EditState) Commit(g *Grid) CommitResult {
	if e.Selected == nil {
		return CommitResult{}
	}
	at := *e.Selected
	e.Selected = nil
	buffer := e.Buffer
	e.Buffer = ""

	// The grid may have been replaced under a stale selection.
	if !g.inRange(at.Row, at.Col) || g.full(at.Row, at.Col) {
		return CommitResult{At: at}
	}

	res := CommitResult{Committed: true, At: at}
	res.Changed = g.cells[at.Row][at.Col] != buffer
	g.set(at.Row, at.Col, buffer)
	res.Growth = g.AutoExpand()
	return res
}

// Cancel drops the pending edit without touching the grid.
func (e *EditState) Cancel() {
	e.Selected = nil
	e.Buffer = ""
}

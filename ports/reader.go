package ports

import (
	"io"

	"chartcraft/domain/grid"
)

// SpreadsheetCodec moves workspace grids in and out of spreadsheet files.
type SpreadsheetCodec interface {
	// ReadGrid parses an upload; name selects the format (xlsx or csv)
	ReadGrid(src io.Reader, name string) (*grid.Grid, error)

	// WriteGrid writes the grid without its growth row and column as xlsx
	WriteGrid(w io.Writer, g *grid.Grid) error
}

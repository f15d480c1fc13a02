package excel

import (
	"io"
	"strconv"
	"strings"

	"chartcraft/domain/grid"
	"chartcraft/internal/errors"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Sheet1"

// WriteGrid writes the grid, without its growth row and column, as an
// xlsx workbook. Cells that read fully as numbers are stored as numbers.
func WriteGrid(w io.Writer, g *grid.Grid) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, row := range g.DataRows() {
		values := make([]interface{}, len(row))
		for j, cell := range row {
			values[j] = cellValue(cell, i == 0 || j == 0)
		}
		addr, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return errors.Wrap(err, "failed to address export row")
		}
		if err := f.SetSheetRow(exportSheet, addr, &values); err != nil {
			return errors.Wrap(err, "failed to write export row")
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return errors.Wrap(err, "failed to write workbook")
	}
	return nil
}

// cellValue keeps labels as text so a year like "2023" stays a label.
func cellValue(cell string, label bool) interface{} {
	if label {
		return cell
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64); err == nil {
		return v
	}
	return cell
}

// Codec reads uploads with a DataReader and writes xlsx exports.
type Codec struct {
	*DataReader
}

// NewCodec creates a codec with the given upload limits
func NewCodec(config ExcelConfig) *Codec {
	return &Codec{DataReader: NewDataReader(config)}
}

// WriteGrid writes g as an xlsx workbook.
func (c *Codec) WriteGrid(w io.Writer, g *grid.Grid) error {
	return WriteGrid(w, g)
}

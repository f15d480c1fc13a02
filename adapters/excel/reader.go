package excel

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"chartcraft/domain/grid"
	"chartcraft/internal/errors"

	"github.com/xuri/excelize/v2"
)

// DataReader turns an uploaded workbook or CSV file into a workspace grid.
type DataReader struct {
	config ExcelConfig
}

// NewDataReader creates a reader with the given limits
func NewDataReader(config ExcelConfig) *DataReader {
	return &DataReader{config: config}
}

// ReadFile reads a grid from a file on disk
func (r *DataReader) ReadFile(path string) (*grid.Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound("spreadsheet " + path)
		}
		return nil, errors.Wrap(err, "failed to open spreadsheet")
	}
	defer f.Close()
	return r.ReadGrid(f, path)
}

// ReadGrid reads a grid from src. name only selects the format. The first
// row becomes the category labels, the first column the series labels, and
// the growth row and column are added.
func (r *DataReader) ReadGrid(src io.Reader, name string) (*grid.Grid, error) {
	fileType := DetectFileType(name)
	log.Printf("[DataReader] Starting to read %s upload: %s", fileType, name)

	limited := src
	if r.config.MaxBytes > 0 {
		limited = io.LimitReader(src, r.config.MaxBytes+1)
	}
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read upload")
	}
	if r.config.MaxBytes > 0 && int64(len(data)) > r.config.MaxBytes {
		return nil, errors.InvalidInput(fmt.Sprintf("upload exceeds %d bytes", r.config.MaxBytes))
	}

	var rows [][]string
	switch fileType {
	case FileTypeCSV:
		rows, err = r.readCSVRows(data)
	default:
		rows, err = r.readExcelRows(data)
	}
	if err != nil {
		return nil, err
	}
	return r.processRows(rows, fileType)
}

// readExcelRows reads the configured sheet, or the first one
func (r *DataReader) readExcelRows(data []byte) ([][]string, error) {
	startTime := time.Now()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, errors.Wrap(err, "failed to open Excel file"))
	}
	defer f.Close()

	sheet := r.config.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.InvalidInput("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, errors.Wrapf(err, "failed to read sheet %q", sheet))
	}
	log.Printf("[DataReader] Sheet %q read in %.2fms (%d rows)", sheet, float64(time.Since(startTime).Nanoseconds())/1e6, len(rows))
	return rows, nil
}

// readCSVRows reads comma separated rows. Ragged rows are allowed.
func (r *DataReader) readCSVRows(data []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, errors.Wrap(err, "failed to read CSV file"))
	}
	return rows, nil
}

// processRows trims cells and trailing blank rows, enforces the size limits
// and builds the grid
func (r *DataReader) processRows(rows [][]string, fileType FileType) (*grid.Grid, error) {
	cleaned := make([][]string, 0, len(rows))
	for _, row := range rows {
		out := make([]string, len(row))
		for j, cell := range row {
			out[j] = strings.TrimSpace(cell)
		}
		cleaned = append(cleaned, trimTrailingBlank(out))
	}
	for len(cleaned) > 0 && len(cleaned[len(cleaned)-1]) == 0 {
		cleaned = cleaned[:len(cleaned)-1]
	}

	if len(cleaned) == 0 {
		return nil, errors.InvalidInput(fmt.Sprintf("%s file has no data", strings.ToUpper(string(fileType))))
	}
	if r.config.MaxRows > 0 && len(cleaned) > r.config.MaxRows {
		return nil, errors.InvalidInput(fmt.Sprintf("%s file has %d rows, limit is %d", strings.ToUpper(string(fileType)), len(cleaned), r.config.MaxRows))
	}
	width := 0
	for _, row := range cleaned {
		if len(row) > width {
			width = len(row)
		}
	}
	if r.config.MaxCols > 0 && width > r.config.MaxCols {
		return nil, errors.InvalidInput(fmt.Sprintf("%s file has %d columns, limit is %d", strings.ToUpper(string(fileType)), width, r.config.MaxCols))
	}

	g := grid.FromRows(cleaned)
	log.Printf("[DataReader] %s file processed (%d columns, %d rows)", strings.ToUpper(string(fileType)), g.Cols(), g.Rows())
	return g, nil
}

func trimTrailingBlank(row []string) []string {
	end := len(row)
	for end > 0 && row[end-1] == "" {
		end--
	}
	return row[:end]
}

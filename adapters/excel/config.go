package excel

// ExcelConfig bounds what an upload may bring into a workspace grid.
type ExcelConfig struct {
	MaxRows  int    `json:"max_rows"`
	MaxCols  int    `json:"max_cols"`
	MaxBytes int64  `json:"max_bytes"`
	Sheet    string `json:"sheet"` // empty selects the first sheet
}

// DefaultExcelConfig returns sensible defaults for chart data uploads
func DefaultExcelConfig() ExcelConfig {
	return ExcelConfig{
		MaxRows:  500,
		MaxCols:  100,
		MaxBytes: 5 << 20,
	}
}

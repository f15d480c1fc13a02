package excel

import (
	"path/filepath"
	"strings"
)

// FileType is the spreadsheet format of an upload.
type FileType string

const (
	FileTypeXLSX FileType = "xlsx"
	FileTypeCSV  FileType = "csv"
)

// DetectFileType picks the format from a file name. Anything that is not
// .csv is treated as a workbook.
func DetectFileType(name string) FileType {
	if strings.ToLower(filepath.Ext(name)) == ".csv" {
		return FileTypeCSV
	}
	return FileTypeXLSX
}

// XLSXContentType is the MIME type of exported workbooks.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

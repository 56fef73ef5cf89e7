package spreadsheet

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "github.com/nconklindev/stockboard/internal/errors"
	"github.com/nconklindev/stockboard/internal/inventory"
	"github.com/nconklindev/stockboard/internal/types"
)

const (
	MIMEXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MIMEXLS  = "application/vnd.ms-excel"
)

// PreviewLimit is the number of data rows shown before analysis.
const PreviewLimit = 10

// AllowedExtensions are the file picker filters matching the accepted MIME types.
var AllowedExtensions = []string{".xlsx", ".xls"}

// ValidateMIME accepts only the two spreadsheet content types. Parameters
// such as "; charset=binary" are ignored.
func ValidateMIME(mime string) error {
	base := strings.TrimSpace(strings.ToLower(strings.SplitN(mime, ";", 2)[0]))
	switch base {
	case MIMEXLSX, MIMEXLS:
		return nil
	}
	return apperrors.InvalidFileType(mime)
}

// MIMEForPath maps a file extension to its spreadsheet content type, or "" if none.
func MIMEForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return MIMEXLSX
	case ".xls":
		return MIMEXLS
	}
	return ""
}

// ReadFile validates the file type by extension and decodes the first sheet.
func ReadFile(path string) (*types.RawTable, error) {
	if err := ValidateMIME(MIMEForPath(path)); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.ReadFailure(err)
	}
	defer f.Close()

	return Decode(f)
}

// Decode reads a workbook and returns its first sheet. The first row is the
// header row; a sheet with fewer than two rows is rejected as empty.
func Decode(r io.Reader) (*types.RawTable, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperrors.DecodeFailure(err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, apperrors.DecodeFailure(fmt.Errorf("workbook has no sheets"))
	}

	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, apperrors.DecodeFailure(err)
	}

	if len(rows) < 2 {
		return nil, apperrors.EmptyFile()
	}

	table := &types.RawTable{
		Headers: rows[0],
		Rows:    make([][]any, 0, len(rows)-1),
	}
	for r, row := range rows[1:] {
		cells := make([]any, len(row))
		for c, cell := range row {
			v, err := cellValue(f, sheetName, c+1, r+2, cell)
			if err != nil {
				return nil, apperrors.DecodeFailure(err)
			}
			cells[c] = v
		}
		table.Rows = append(table.Rows, cells)
	}
	return table, nil
}

// cellValue converts only cells the workbook stores as numbers. Text cells
// such as an SBU code "01" stay strings.
func cellValue(f *excelize.File, sheet string, col, row int, raw string) (any, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return nil, err
	}
	typ, err := f.GetCellType(sheet, name)
	if err != nil {
		return nil, err
	}
	switch typ {
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
		return inventory.Coerce(raw), nil
	}
	return inventory.CoerceText(raw), nil
}

// NewPreview returns the headers and up to limit data rows rendered as text.
func NewPreview(table *types.RawTable, limit int) types.Preview {
	n := len(table.Rows)
	if limit >= 0 && n > limit {
		n = limit
	}

	p := types.Preview{
		Headers:   table.Headers,
		Rows:      make([][]string, n),
		TotalRows: len(table.Rows),
	}
	for i := 0; i < n; i++ {
		row := make([]string, len(table.Headers))
		for j := range table.Headers {
			if j < len(table.Rows[i]) {
				row[j], _ = inventory.Text(table.Rows[i][j])
			}
		}
		p.Rows[i] = row
	}
	return p
}

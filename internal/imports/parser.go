package imports

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Sheet is one parsed worksheet: a trimmed name, its header row, and its
// data rows in workbook order.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]string
}

// ParseWorkbook reads an xlsx workbook into ordered sheets. Sheet names are
// trimmed of surrounding whitespace; the first row of each sheet is its
// header.
func ParseWorkbook(r io.Reader) ([]Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	var sheets []Sheet
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", name, err)
		}

		sheet := Sheet{Name: strings.TrimSpace(name)}
		if len(rows) > 0 {
			sheet.Header = rows[0]
			sheet.Rows = rows[1:]
		}
		sheets = append(sheets, sheet)
	}

	return sheets, nil
}

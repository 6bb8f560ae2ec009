package upload

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// ReadXLSX returns every row of the named sheet (or the first sheet when
// sheetName is empty) as string slices.
func ReadXLSX(path, sheetName string) ([][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}

	sheet, err := getSheet(f, sheetName)
	if err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		if row == nil {
			continue
		}
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

func getSheet(f *xlsx.File, name string) (*xlsx.Sheet, error) {
	if name != "" {
		sheet, ok := f.Sheet[name]
		if !ok {
			return nil, eris.Errorf("xlsx: sheet %q not found", name)
		}
		return sheet, nil
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("xlsx: workbook has no sheets")
	}
	return f.Sheets[0], nil
}

// ParseXLSX reads a purchase-order workbook. The first row is the header.
func ParseXLSX(path string, opts Options) (*Result, error) {
	rows, err := ReadXLSX(path, opts.SheetName)
	if err != nil {
		return nil, err
	}
	agg := newAggregator(opts.MaxRows)
	for _, row := range rows {
		if err := agg.add(trimAll(row)); err != nil {
			return nil, err
		}
	}
	return agg.result("xlsx")
}

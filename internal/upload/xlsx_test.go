package upload

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func createTestXLSX(t *testing.T, sheets map[string][][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	for name, rows := range sheets {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range rows {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				cell := row.AddCell()
				cell.SetString(cellData)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "po.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

var sampleSheet = [][]string{
	{"SKU", "Origin Country", "Supplier", "Quantity", "Unit Cost"},
	{"WID-1", "CN", "Shenzhen Parts", "10", "4"},
	{"WID-2", "VN", "Hanoi Textiles", "5", "8"},
}

func TestParseXLSX(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{"Orders": sampleSheet})

	res, err := ParseXLSX(path, Options{})
	require.NoError(t, err)
	require.Len(t, res.Products, 2)
	assert.Equal(t, "xlsx", res.Meta.Format)
	assert.InDelta(t, 80, res.TotalImportValue(), 0.001)
}

func TestParseXLSX_SheetName(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{"Orders": sampleSheet})

	_, err := ParseXLSX(path, Options{SheetName: "Missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	res, err := ParseXLSX(path, Options{SheetName: "Orders"})
	require.NoError(t, err)
	assert.Len(t, res.Products, 2)
}

func TestParseFile_Dispatch(t *testing.T) {
	ctx := context.Background()

	xlsxPath := createTestXLSX(t, map[string][][]string{"Orders": sampleSheet})
	res, err := ParseFile(ctx, xlsxPath, Options{})
	require.NoError(t, err)
	assert.Equal(t, "po.xlsx", res.Meta.FileName)

	csvPath := filepath.Join(t.TempDir(), "orders.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(samplePO), 0o644))
	res, err = ParseFile(ctx, csvPath, Options{})
	require.NoError(t, err)
	assert.Equal(t, "orders.csv", res.Meta.FileName)
	assert.Len(t, res.Products, 2)

	_, err = ParseFile(ctx, filepath.Join(t.TempDir(), "orders.pdf"), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")

	_, err = ParseFile(ctx, filepath.Join(t.TempDir(), "missing.csv"), Options{})
	assert.Error(t, err)
}

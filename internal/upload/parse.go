package upload

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/tariff-impact/internal/model"
)

// Purchase-order columns. Header names are matched case-insensitively with
// spaces and dashes treated as underscores.
const (
	ColSKU           = "sku"
	ColDescription   = "description"
	ColHTSCode       = "hts_code"
	ColOriginCountry = "origin_country"
	ColSupplier      = "supplier"
	ColQuantity      = "quantity"
	ColUnitCost      = "unit_cost"
)

var requiredColumns = []string{ColSKU, ColOriginCountry, ColQuantity, ColUnitCost}

// Options configures purchase-order parsing.
type Options struct {
	Charset   string
	Delimiter string
	SheetName string
	MaxRows   int
}

// Result is a parsed purchase order.
type Result struct {
	Products []model.Product
	Meta     model.FileMetadata
}

// TotalImportValue sums the import value of every product.
func (r *Result) TotalImportValue() float64 {
	var total float64
	for _, p := range r.Products {
		total += p.ImportValue
	}
	return total
}

// ParseFile parses a .csv, .txt or .xlsx purchase order by extension.
func ParseFile(ctx context.Context, path string, opts Options) (*Result, error) {
	var (
		res *Result
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		f, openErr := os.Open(path)
		if openErr != nil {
			return nil, eris.Wrap(openErr, "upload: open file")
		}
		defer f.Close() //nolint:errcheck
		res, err = ParseCSV(ctx, f, opts)
	case ".xlsx":
		res, err = ParseXLSX(path, opts)
	default:
		return nil, eris.Errorf("upload: unsupported file type %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, eris.Wrapf(err, "upload: parse %s", filepath.Base(path))
	}
	res.Meta.FileName = filepath.Base(path)

	zap.L().Info("upload: parsed purchase order",
		zap.String("file", res.Meta.FileName),
		zap.Int("rows", res.Meta.RowCount),
		zap.Int("skipped", res.Meta.SkippedRows),
		zap.Int("products", len(res.Products)),
	)
	return res, nil
}

// aggregator maps header columns and sums purchase-order lines per SKU.
type aggregator struct {
	maxRows  int
	cols     map[string]int
	rows     int
	skipped  int
	order    []string
	products map[string]*model.Product
}

func newAggregator(maxRows int) *aggregator {
	return &aggregator{maxRows: maxRows, products: make(map[string]*model.Product)}
}

func (a *aggregator) add(row []string) error {
	if a.cols == nil {
		cols, err := mapColumns(row)
		if err != nil {
			return err
		}
		a.cols = cols
		return nil
	}
	if isBlank(row) {
		return nil
	}

	a.rows++
	if a.maxRows > 0 && a.rows > a.maxRows {
		return eris.Errorf("upload: more than %d data rows", a.maxRows)
	}

	line, ok := a.parseLine(row)
	if !ok {
		a.skipped++
		return nil
	}

	p, seen := a.products[line.SKU]
	if !seen {
		p = &model.Product{
			SKU:           line.SKU,
			Description:   line.Description,
			HTSCode:       line.HTSCode,
			OriginCountry: line.OriginCountry,
			Supplier:      line.Supplier,
		}
		a.products[line.SKU] = p
		a.order = append(a.order, line.SKU)
	}
	p.Quantity += line.Quantity
	p.ImportValue += line.Quantity * line.UnitCost
	if p.Quantity > 0 {
		p.UnitCost = p.ImportValue / p.Quantity
	}
	return nil
}

func (a *aggregator) parseLine(row []string) (model.Product, bool) {
	get := func(col string) string {
		i, ok := a.cols[col]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	sku := get(ColSKU)
	if sku == "" {
		return model.Product{}, false
	}
	qty, err := parseNumber(get(ColQuantity))
	if err != nil || qty <= 0 {
		return model.Product{}, false
	}
	cost, err := parseNumber(get(ColUnitCost))
	if err != nil || cost < 0 {
		return model.Product{}, false
	}
	return model.Product{
		SKU:           sku,
		Description:   get(ColDescription),
		HTSCode:       normalizeHTS(get(ColHTSCode)),
		OriginCountry: strings.ToUpper(get(ColOriginCountry)),
		Supplier:      get(ColSupplier),
		Quantity:      qty,
		UnitCost:      cost,
	}, true
}

func (a *aggregator) result(format string) (*Result, error) {
	if a.cols == nil {
		return nil, eris.New("upload: file has no header row")
	}
	if len(a.order) == 0 {
		return nil, eris.Errorf("upload: no valid purchase-order lines (%d skipped)", a.skipped)
	}

	products := make([]model.Product, 0, len(a.order))
	for _, sku := range a.order {
		products = append(products, *a.products[sku])
	}
	return &Result{
		Products: products,
		Meta: model.FileMetadata{
			UploadID:         uuid.New().String(),
			Format:           format,
			RowCount:         a.rows,
			SkippedRows:      a.skipped,
			UploadedAt:       time.Now().UTC(),
			ProcessingStatus: model.ProcessingCompleted,
		},
	}, nil
}

func mapColumns(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		key := normalizeHeader(h)
		if _, dup := cols[key]; !dup {
			cols[key] = i
		}
	}
	var missing []string
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, eris.Errorf("upload: missing required columns: %s", strings.Join(missing, ", "))
	}
	return cols, nil
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(h)
}

// normalizeHTS strips the dots from an HTS code ("8471.30.0100" -> "8471300100").
func normalizeHTS(code string) string {
	return strings.ReplaceAll(strings.TrimSpace(code), ".", "")
}

// parseNumber accepts plain numbers plus "$1,234.50" style money values.
// NaN and infinities are rejected.
func parseNumber(s string) (float64, error) {
	s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	if s == "" {
		return 0, eris.New("upload: empty number")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, eris.Wrapf(err, "upload: parse number %q", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, eris.Errorf("upload: non-finite number %q", s)
	}
	return v, nil
}

func isBlank(row []string) bool {
	return !slices.ContainsFunc(row, func(s string) bool { return s != "" })
}

func trimAll(row []string) []string {
	out := make([]string, len(row))
	for i, s := range row {
		out[i] = strings.TrimSpace(s)
	}
	return out
}

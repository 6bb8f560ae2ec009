package upload

import (
	"context"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/tariff-impact/internal/model"
)

// ProfileWriter is the part of the profile store the importer writes to.
type ProfileWriter interface {
	UpdateMultipleFields(ctx context.Context, fields map[model.Field]model.Point) error
	SetUploadStatus(ctx context.Context, status model.UploadStatus) error
	ClearTemplateData(ctx context.Context) int
}

// Apply writes a parsed purchase order into the profile, marks the upload
// completed and flags every remaining template field for validation. It
// returns the number of template fields flagged.
func Apply(ctx context.Context, w ProfileWriter, res *Result) (int, error) {
	if res == nil || len(res.Products) == 0 {
		return 0, eris.New("upload: nothing to apply")
	}
	now := time.Now().UTC()

	products := model.NewDataPoint(res.Products, model.SourceUserUpload, false, now)
	meta := model.NewDataPoint(res.Meta, model.SourceUserUpload, false, now)
	total := model.NewDataPoint(res.TotalImportValue(), model.SourceCalculated, false, now)
	suppliers := model.NewDataPoint(Suppliers(res.Products), model.SourceCalculated, false, now)
	countries := model.NewDataPoint(Countries(res.Products), model.SourceCalculated, false, now)

	if err := w.UpdateMultipleFields(ctx, map[model.Field]model.Point{
		model.FieldImportedProducts:  &products,
		model.FieldFileMetadata:      &meta,
		model.FieldTotalImportValue:  &total,
		model.FieldSuppliers:         &suppliers,
		model.FieldSupplierCountries: &countries,
	}); err != nil {
		return 0, eris.Wrap(err, "upload: apply")
	}
	if err := w.SetUploadStatus(ctx, model.UploadCompleted); err != nil {
		return 0, eris.Wrap(err, "upload: mark completed")
	}
	flagged := w.ClearTemplateData(ctx)

	zap.L().Info("upload: applied purchase order",
		zap.String("upload_id", res.Meta.UploadID),
		zap.Int("products", len(res.Products)),
		zap.Float64("total_import_value", total.Value),
		zap.Int("template_fields_flagged", flagged),
	)
	return flagged, nil
}

// Suppliers groups products by supplier name. Products without a supplier
// are grouped under their origin country.
func Suppliers(products []model.Product) []model.Supplier {
	idx := make(map[string]int)
	var out []model.Supplier
	for _, p := range products {
		name := p.Supplier
		if name == "" {
			name = "Unknown (" + p.OriginCountry + ")"
		}
		i, ok := idx[name]
		if !ok {
			i = len(out)
			idx[name] = i
			out = append(out, model.Supplier{Name: name, Country: p.OriginCountry})
		}
		out[i].ProductCount++
		out[i].ImportValue += p.ImportValue
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].ImportValue > out[b].ImportValue })
	return out
}

// Countries returns the sorted distinct origin countries.
func Countries(products []model.Product) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, p := range products {
		if p.OriginCountry == "" {
			continue
		}
		if _, ok := seen[p.OriginCountry]; ok {
			continue
		}
		seen[p.OriginCountry] = struct{}{}
		out = append(out, p.OriginCountry)
	}
	sort.Strings(out)
	return out
}

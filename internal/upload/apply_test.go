package upload

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/tariff-impact/internal/kv"
	"github.com/sells-group/tariff-impact/internal/model"
	"github.com/sells-group/tariff-impact/internal/profile"
	"github.com/sells-group/tariff-impact/internal/validate"
)

func TestApply_WritesProfileAndGatesTemplates(t *testing.T) {
	ctx := context.Background()
	store := profile.New(ctx, kv.NewMemory(), nil, profile.Options{})

	res, err := ParseCSV(ctx, strings.NewReader(samplePO), Options{})
	require.NoError(t, err)

	flagged, err := Apply(ctx, store, res)
	require.NoError(t, err)
	assert.Equal(t, len(model.AllFields)-5, flagged)

	snap, err := store.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, model.UploadCompleted, snap.UploadStatus)
	assert.Equal(t, model.SourceUserUpload, snap.ImportedProducts.Source)
	assert.Equal(t, model.SourceUserUpload, snap.FileMetadata.Source)
	assert.Equal(t, model.SourceCalculated, snap.TotalImportValue.Source)
	assert.InDelta(t, 1000, snap.TotalImportValue.Value, 0.001)
	assert.Equal(t, []string{"CN", "MX"}, snap.SupplierCountries.Value)
	require.Len(t, snap.Suppliers.Value, 2)
	assert.Equal(t, "Shenzhen Parts", snap.Suppliers.Value[0].Name)

	assert.True(t, snap.TariffRates.RequiresValidation)
	assert.False(t, snap.TariffRates.Validated)

	dataImport := store.ValidateStep(validate.StepDataImport)
	assert.True(t, dataImport.CanProceed)

	costs := store.ValidateStep(validate.StepCostAnalysis)
	assert.False(t, costs.CanProceed)
}

func TestApply_Empty(t *testing.T) {
	_, err := Apply(context.Background(), nil, &Result{})
	assert.Error(t, err)
}

func TestSuppliersAndCountries(t *testing.T) {
	products := []model.Product{
		{SKU: "A", OriginCountry: "CN", Supplier: "S1", ImportValue: 100},
		{SKU: "B", OriginCountry: "CN", Supplier: "S1", ImportValue: 50},
		{SKU: "C", OriginCountry: "VN", ImportValue: 500},
	}

	sup := Suppliers(products)
	require.Len(t, sup, 2)
	assert.Equal(t, "Unknown (VN)", sup[0].Name)
	assert.Equal(t, 2, sup[1].ProductCount)
	assert.InDelta(t, 150, sup[1].ImportValue, 0.001)

	assert.Equal(t, []string{"CN", "VN"}, Countries(products))
}

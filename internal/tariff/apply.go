package tariff

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/tariff-impact/internal/model"
)

// ProfileAccess is the part of the profile store the calculator uses.
type ProfileAccess interface {
	Snapshot() (*model.Profile, error)
	UpdateMultipleFields(ctx context.Context, fields map[model.Field]model.Point) error
}

// Report is the outcome of one calculation.
type Report struct {
	Impacts   []model.ProductImpact
	TotalCost float64
}

// Apply computes impacts for the profile's imported products and writes
// productImpacts and totalTariffCost as calculated data. Country rates come
// from the profile's tariffRates layered over base; HTS overrides in base
// always apply.
func Apply(ctx context.Context, p ProfileAccess, base Rates) (*Report, error) {
	snap, err := p.Snapshot()
	if err != nil {
		return nil, eris.Wrap(err, "tariff: snapshot")
	}
	if len(snap.ImportedProducts.Value) == 0 {
		return nil, eris.New("tariff: no imported products, upload a purchase order first")
	}

	calc, err := NewCalculator(base.Merge(Rates{Countries: snap.TariffRates.Value}))
	if err != nil {
		return nil, err
	}
	impacts, total := calc.Impacts(snap.ImportedProducts.Value)

	now := time.Now().UTC()
	impactsPt := model.NewDataPoint(impacts, model.SourceCalculated, false, now)
	totalPt := model.NewDataPoint(total, model.SourceCalculated, false, now)
	if err := p.UpdateMultipleFields(ctx, map[model.Field]model.Point{
		model.FieldProductImpacts:  &impactsPt,
		model.FieldTotalTariffCost: &totalPt,
	}); err != nil {
		return nil, eris.Wrap(err, "tariff: write impacts")
	}

	zap.L().Info("tariff: impacts calculated",
		zap.Int("products", len(impacts)),
		zap.Float64("total_tariff_cost", total),
		zap.Bool("template_rates", snap.TariffRates.Source.IsTemplate()),
	)
	return &Report{Impacts: impacts, TotalCost: total}, nil
}

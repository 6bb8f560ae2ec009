package tariff

import (
	"math"

	"github.com/sells-group/tariff-impact/internal/model"
)

// Rate sources reported on each ProductImpact.
const (
	RateSourceHTS     = "hts"
	RateSourceCountry = "country"
	RateSourceDefault = "default"
)

// Calculator applies a rate table to products.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator. Rates outside [0, 5] are rejected.
func NewCalculator(rates Rates) (*Calculator, error) {
	rates = rates.normalized()
	if err := rates.validate(); err != nil {
		return nil, err
	}
	return &Calculator{rates: rates}, nil
}

// Rate returns the rate for p and where it came from. The longest matching
// HTS prefix wins over the origin-country rate, which wins over the default.
func (c *Calculator) Rate(p model.Product) (float64, string) {
	best := -1
	var rate float64
	for prefix, r := range c.rates.HTS {
		if len(prefix) > best && len(prefix) <= len(p.HTSCode) && p.HTSCode[:len(prefix)] == prefix {
			best = len(prefix)
			rate = r
		}
	}
	if best >= 0 {
		return rate, RateSourceHTS
	}
	if r, ok := c.rates.Countries[p.OriginCountry]; ok {
		return r, RateSourceCountry
	}
	return c.rates.Default, RateSourceDefault
}

// Impacts computes the tariff cost of every product and their total.
func (c *Calculator) Impacts(products []model.Product) ([]model.ProductImpact, float64) {
	out := make([]model.ProductImpact, 0, len(products))
	var total float64
	for _, p := range products {
		rate, src := c.Rate(p)
		cost := roundCents(p.ImportValue * rate)
		out = append(out, model.ProductImpact{
			SKU:           p.SKU,
			HTSCode:       p.HTSCode,
			OriginCountry: p.OriginCountry,
			ImportValue:   p.ImportValue,
			TariffRate:    rate,
			TariffCost:    cost,
			RateSource:    src,
		})
		total += cost
	}
	return out, roundCents(total)
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

package profile

import (
	"math"
	"time"

	"github.com/sells-group/tariff-impact/internal/model"
)

// CalculateCompleteness summarizes the provenance of every field of p. The
// score counts only USER_INPUT and USER_UPLOAD fields, which makes it
// stricter than the per-step completeness of the validator, where calculated
// and external data also count.
func CalculateCompleteness(p *model.Profile, now time.Time) model.DataCompleteness {
	dc := model.DataCompleteness{
		TotalFields: len(model.AllFields),
		LastUpdated: now,
	}
	for _, f := range model.AllFields {
		switch src := p.Point(f).Meta().Source; {
		case src.IsUserProvided():
			dc.UserProvidedFields++
		case src.IsTemplate():
			dc.TemplateFields++
		case src == model.SourceCalculated:
			dc.CalculatedFields++
		case src == model.SourceExternalAPI:
			dc.ExternalFields++
		}
	}
	if dc.TotalFields > 0 {
		dc.CompletenessScore = int(math.Round(float64(dc.UserProvidedFields) / float64(dc.TotalFields) * 100))
	}
	return dc
}

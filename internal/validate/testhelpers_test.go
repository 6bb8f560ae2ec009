package validate

import (
	"time"

	"github.com/sells-group/tariff-impact/internal/model"
)

var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

// realProfile returns a profile where every field holds user-entered data.
func realProfile(now time.Time) *model.Profile {
	p := model.NewProfile(now)
	src := model.SourceUserInput

	p.ImportedProducts = model.NewDataPoint([]model.Product{{SKU: "WID-1", OriginCountry: "CN", ImportValue: 5000}}, model.SourceUserUpload, false, now)
	p.FileMetadata = model.NewDataPoint(model.FileMetadata{FileName: "po.csv", RowCount: 1, ProcessingStatus: model.ProcessingCompleted}, model.SourceUserUpload, false, now)
	p.TotalImportValue = model.NewDataPoint(5000.0, model.SourceCalculated, false, now)
	p.TariffRates = model.NewDataPoint(map[string]float64{"CN": 0.25}, src, false, now)
	p.ProductImpacts = model.NewDataPoint([]model.ProductImpact{{SKU: "WID-1", TariffCost: 1250}}, model.SourceCalculated, false, now)
	p.TotalTariffCost = model.NewDataPoint(1250.0, model.SourceCalculated, false, now)
	p.ProfitMargin = model.NewDataPoint(0.18, src, false, now)
	p.Suppliers = model.NewDataPoint([]model.Supplier{{Name: "Shenzhen Parts", Country: "CN"}}, model.SourceCalculated, false, now)
	p.SupplierCountries = model.NewDataPoint([]string{"CN"}, model.SourceCalculated, false, now)
	p.AlternativeSuppliers = model.NewDataPoint([]model.Supplier{{Name: "Monterrey Metal", Country: "MX"}}, src, false, now)
	p.DiversificationBudget = model.NewDataPoint(20000.0, src, false, now)
	p.InventoryLevels = model.NewDataPoint(map[string]float64{"WID-1": 300}, src, false, now)
	p.AverageLeadTimeDays = model.NewDataPoint(45.0, src, false, now)
	p.ShippingRoutes = model.NewDataPoint([]string{"Shanghai-LongBeach"}, src, false, now)
	p.MonthlyCashFlow = model.NewDataPoint([]float64{12000, 9000, 15000}, src, false, now)
	p.CurrentHeadCount = model.NewDataPoint(14, src, false, now)
	p.AverageHourlyWage = model.NewDataPoint(27.5, src, false, now)
	p.PlannedHires = model.NewDataPoint(2, src, false, now)
	p.AlertConfig = model.NewDataPoint(model.AlertConfig{Enabled: true, ImpactThresholdUSD: 500}, src, false, now)
	p.MonitoredProducts = model.NewDataPoint([]string{"WID-1"}, src, false, now)
	p.BusinessGoals = model.NewDataPoint([]string{"cut landed cost"}, src, false, now)
	p.RiskTolerance = model.NewDataPoint("low", src, false, now)
	p.TariffNotices = model.NewExternalDataPoint([]model.TariffNotice{{DocumentNumber: "2026-01234"}}, 0.9, false, now)
	p.AIRecommendations = model.NewExternalDataPoint([]model.Recommendation{{Title: "Dual source"}}, 0.9, false, now)
	p.CompanyName = model.NewDataPoint("Acme Widgets", src, false, now)
	p.Industry = model.NewDataPoint("hardware", src, false, now)
	p.AnnualRevenue = model.NewDataPoint(2_500_000.0, src, false, now)
	p.PrimaryMarkets = model.NewDataPoint([]string{"US"}, src, false, now)
	p.UploadStatus = model.UploadCompleted
	return p
}

func hasCode(issues []Issue, code Code, field model.Field) bool {
	for _, is := range issues {
		if is.Code == code && is.Field == field {
			return true
		}
	}
	return false
}

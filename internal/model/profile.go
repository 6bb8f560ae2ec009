package model

import (
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
)

// UploadStatus is the single source of truth for whether a purchase-order
// upload has finished. Only the upload importer moves it to completed.
type UploadStatus string

const (
	UploadPending   UploadStatus = "PENDING"
	UploadCompleted UploadStatus = "COMPLETED"
)

// DataCompleteness summarizes the provenance mix of a whole profile.
type DataCompleteness struct {
	TotalFields        int       `json:"totalFields"`
	UserProvidedFields int       `json:"userProvidedFields"`
	TemplateFields     int       `json:"templateFields"`
	CalculatedFields   int       `json:"calculatedFields"`
	ExternalFields     int       `json:"externalFields"`
	CompletenessScore  int       `json:"completenessScore"`
	LastUpdated        time.Time `json:"lastUpdated"`
}

// Profile is the business data profile for one session. Every field is a
// DataPoint so its provenance travels with the value.
type Profile struct {
	ImportedProducts DataPoint[[]Product]    `json:"importedProducts"`
	FileMetadata     DataPoint[FileMetadata] `json:"fileMetadata"`
	TotalImportValue DataPoint[float64]      `json:"totalImportValue"`

	TariffRates     DataPoint[map[string]float64] `json:"tariffRates"`
	ProductImpacts  DataPoint[[]ProductImpact]    `json:"productImpacts"`
	TotalTariffCost DataPoint[float64]            `json:"totalTariffCost"`
	ProfitMargin    DataPoint[float64]            `json:"profitMargin"`

	Suppliers             DataPoint[[]Supplier] `json:"suppliers"`
	SupplierCountries     DataPoint[[]string]   `json:"supplierCountries"`
	AlternativeSuppliers  DataPoint[[]Supplier] `json:"alternativeSuppliers"`
	DiversificationBudget DataPoint[float64]    `json:"diversificationBudget"`

	InventoryLevels     DataPoint[map[string]float64] `json:"inventoryLevels"`
	AverageLeadTimeDays DataPoint[float64]            `json:"averageLeadTimeDays"`
	ShippingRoutes      DataPoint[[]string]           `json:"shippingRoutes"`
	MonthlyCashFlow     DataPoint[[]float64]          `json:"monthlyCashFlow"`

	CurrentHeadCount  DataPoint[int]     `json:"currentHeadCount"`
	AverageHourlyWage DataPoint[float64] `json:"averageHourlyWage"`
	PlannedHires      DataPoint[int]     `json:"plannedHires"`

	AlertConfig       DataPoint[AlertConfig] `json:"alertConfig"`
	MonitoredProducts DataPoint[[]string]    `json:"monitoredProducts"`

	BusinessGoals     DataPoint[[]string]         `json:"businessGoals"`
	RiskTolerance     DataPoint[string]           `json:"riskTolerance"`
	TariffNotices     DataPoint[[]TariffNotice]   `json:"tariffNotices"`
	AIRecommendations DataPoint[[]Recommendation] `json:"aiRecommendations"`

	CompanyName    DataPoint[string]   `json:"companyName"`
	Industry       DataPoint[string]   `json:"industry"`
	AnnualRevenue  DataPoint[float64]  `json:"annualRevenue"`
	PrimaryMarkets DataPoint[[]string] `json:"primaryMarkets"`

	UploadStatus     UploadStatus     `json:"uploadStatus"`
	DataCompleteness DataCompleteness `json:"dataCompleteness"`
}

// Placeholder values shipped with a fresh profile.
var (
	TemplateTariffRates = map[string]float64{
		"CN": 0.25,
		"MX": 0.0,
		"CA": 0.0,
		"VN": 0.10,
	}
	TemplateAlertConfig = AlertConfig{
		Enabled:            true,
		ImpactThresholdUSD: 10000,
		ImpactSharePct:     10,
	}
	TemplateRiskTolerance = "moderate"
)

// NewProfile returns a profile with every field at SYSTEM_DEFAULT, except the
// few that ship with TEMPLATE placeholders.
func NewProfile(now time.Time) *Profile {
	p := &Profile{UploadStatus: UploadPending}
	for _, f := range AllFields {
		m := p.Point(f).Meta()
		m.Source = SourceSystemDefault
		m.Validated = true
		m.Stamp(now)
		m.Classify()
	}

	rates := make(map[string]float64, len(TemplateTariffRates))
	for k, v := range TemplateTariffRates {
		rates[k] = v
	}
	p.TariffRates = NewDataPoint(rates, SourceTemplate, false, now)
	p.AlertConfig = NewDataPoint(TemplateAlertConfig, SourceTemplate, false, now)
	p.RiskTolerance = NewDataPoint(TemplateRiskTolerance, SourceTemplate, false, now)
	return p
}

// Point returns the data point for f, or nil when f is not a profile field.
// The returned point aliases the profile, so Meta() updates apply in place.
func (p *Profile) Point(f Field) Point {
	switch f {
	case FieldImportedProducts:
		return &p.ImportedProducts
	case FieldFileMetadata:
		return &p.FileMetadata
	case FieldTotalImportValue:
		return &p.TotalImportValue
	case FieldTariffRates:
		return &p.TariffRates
	case FieldProductImpacts:
		return &p.ProductImpacts
	case FieldTotalTariffCost:
		return &p.TotalTariffCost
	case FieldProfitMargin:
		return &p.ProfitMargin
	case FieldSuppliers:
		return &p.Suppliers
	case FieldSupplierCountries:
		return &p.SupplierCountries
	case FieldAlternativeSuppliers:
		return &p.AlternativeSuppliers
	case FieldDiversificationBudget:
		return &p.DiversificationBudget
	case FieldInventoryLevels:
		return &p.InventoryLevels
	case FieldAverageLeadTimeDays:
		return &p.AverageLeadTimeDays
	case FieldShippingRoutes:
		return &p.ShippingRoutes
	case FieldMonthlyCashFlow:
		return &p.MonthlyCashFlow
	case FieldCurrentHeadCount:
		return &p.CurrentHeadCount
	case FieldAverageHourlyWage:
		return &p.AverageHourlyWage
	case FieldPlannedHires:
		return &p.PlannedHires
	case FieldAlertConfig:
		return &p.AlertConfig
	case FieldMonitoredProducts:
		return &p.MonitoredProducts
	case FieldBusinessGoals:
		return &p.BusinessGoals
	case FieldRiskTolerance:
		return &p.RiskTolerance
	case FieldTariffNotices:
		return &p.TariffNotices
	case FieldAIRecommendations:
		return &p.AIRecommendations
	case FieldCompanyName:
		return &p.CompanyName
	case FieldIndustry:
		return &p.Industry
	case FieldAnnualRevenue:
		return &p.AnnualRevenue
	case FieldPrimaryMarkets:
		return &p.PrimaryMarkets
	}
	return nil
}

// Set replaces the data point for f. pt must be a *DataPoint of the field's
// value type.
func (p *Profile) Set(f Field, pt Point) error {
	switch f {
	case FieldImportedProducts:
		return assign(&p.ImportedProducts, f, pt)
	case FieldFileMetadata:
		return assign(&p.FileMetadata, f, pt)
	case FieldTotalImportValue:
		return assign(&p.TotalImportValue, f, pt)
	case FieldTariffRates:
		return assign(&p.TariffRates, f, pt)
	case FieldProductImpacts:
		return assign(&p.ProductImpacts, f, pt)
	case FieldTotalTariffCost:
		return assign(&p.TotalTariffCost, f, pt)
	case FieldProfitMargin:
		return assign(&p.ProfitMargin, f, pt)
	case FieldSuppliers:
		return assign(&p.Suppliers, f, pt)
	case FieldSupplierCountries:
		return assign(&p.SupplierCountries, f, pt)
	case FieldAlternativeSuppliers:
		return assign(&p.AlternativeSuppliers, f, pt)
	case FieldDiversificationBudget:
		return assign(&p.DiversificationBudget, f, pt)
	case FieldInventoryLevels:
		return assign(&p.InventoryLevels, f, pt)
	case FieldAverageLeadTimeDays:
		return assign(&p.AverageLeadTimeDays, f, pt)
	case FieldShippingRoutes:
		return assign(&p.ShippingRoutes, f, pt)
	case FieldMonthlyCashFlow:
		return assign(&p.MonthlyCashFlow, f, pt)
	case FieldCurrentHeadCount:
		return assign(&p.CurrentHeadCount, f, pt)
	case FieldAverageHourlyWage:
		return assign(&p.AverageHourlyWage, f, pt)
	case FieldPlannedHires:
		return assign(&p.PlannedHires, f, pt)
	case FieldAlertConfig:
		return assign(&p.AlertConfig, f, pt)
	case FieldMonitoredProducts:
		return assign(&p.MonitoredProducts, f, pt)
	case FieldBusinessGoals:
		return assign(&p.BusinessGoals, f, pt)
	case FieldRiskTolerance:
		return assign(&p.RiskTolerance, f, pt)
	case FieldTariffNotices:
		return assign(&p.TariffNotices, f, pt)
	case FieldAIRecommendations:
		return assign(&p.AIRecommendations, f, pt)
	case FieldCompanyName:
		return assign(&p.CompanyName, f, pt)
	case FieldIndustry:
		return assign(&p.Industry, f, pt)
	case FieldAnnualRevenue:
		return assign(&p.AnnualRevenue, f, pt)
	case FieldPrimaryMarkets:
		return assign(&p.PrimaryMarkets, f, pt)
	}
	return eris.Errorf("model: unknown field %q", f)
}

func assign[T any](dst *DataPoint[T], f Field, pt Point) error {
	src, ok := pt.(*DataPoint[T])
	if !ok || src == nil {
		return eris.Errorf("model: field %s expects %T, got %T", f, dst, pt)
	}
	*dst = *src
	return nil
}

// BlankPoint returns a zero data point of the value type f expects, ready to
// be decoded into. Returns nil for unknown fields.
func BlankPoint(f Field) Point {
	var p Profile
	return p.Point(f)
}

// Clone returns a deep copy of the profile.
func (p *Profile) Clone() (*Profile, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, eris.Wrap(err, "model: marshal profile")
	}
	var out Profile
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, eris.Wrap(err, "model: unmarshal profile")
	}
	return &out, nil
}

// UploadComplete reports whether a purchase-order upload has finished.
func (p *Profile) UploadComplete() bool {
	return p.UploadStatus == UploadCompleted
}

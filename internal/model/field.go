package model

import "github.com/rotisserie/eris"

// Field names one entry of the business data profile. The string value is the
// JSON key used in persisted and exported profiles.
type Field string

const (
	// Import.
	FieldImportedProducts Field = "importedProducts"
	FieldFileMetadata     Field = "fileMetadata"
	FieldTotalImportValue Field = "totalImportValue"

	// Cost analysis.
	FieldTariffRates     Field = "tariffRates"
	FieldProductImpacts  Field = "productImpacts"
	FieldTotalTariffCost Field = "totalTariffCost"
	FieldProfitMargin    Field = "profitMargin"

	// Supplier diversification.
	FieldSuppliers             Field = "suppliers"
	FieldSupplierCountries     Field = "supplierCountries"
	FieldAlternativeSuppliers  Field = "alternativeSuppliers"
	FieldDiversificationBudget Field = "diversificationBudget"

	// Supply-chain planning.
	FieldInventoryLevels     Field = "inventoryLevels"
	FieldAverageLeadTimeDays Field = "averageLeadTimeDays"
	FieldShippingRoutes      Field = "shippingRoutes"
	FieldMonthlyCashFlow     Field = "monthlyCashFlow"

	// Workforce planning.
	FieldCurrentHeadCount  Field = "currentHeadCount"
	FieldAverageHourlyWage Field = "averageHourlyWage"
	FieldPlannedHires      Field = "plannedHires"

	// Alerts.
	FieldAlertConfig       Field = "alertConfig"
	FieldMonitoredProducts Field = "monitoredProducts"

	// AI recommendation inputs.
	FieldBusinessGoals     Field = "businessGoals"
	FieldRiskTolerance     Field = "riskTolerance"
	FieldTariffNotices     Field = "tariffNotices"
	FieldAIRecommendations Field = "aiRecommendations"

	// Business profile.
	FieldCompanyName    Field = "companyName"
	FieldIndustry       Field = "industry"
	FieldAnnualRevenue  Field = "annualRevenue"
	FieldPrimaryMarkets Field = "primaryMarkets"
)

// AllFields lists every profile field in declaration order.
var AllFields = []Field{
	FieldImportedProducts,
	FieldFileMetadata,
	FieldTotalImportValue,
	FieldTariffRates,
	FieldProductImpacts,
	FieldTotalTariffCost,
	FieldProfitMargin,
	FieldSuppliers,
	FieldSupplierCountries,
	FieldAlternativeSuppliers,
	FieldDiversificationBudget,
	FieldInventoryLevels,
	FieldAverageLeadTimeDays,
	FieldShippingRoutes,
	FieldMonthlyCashFlow,
	FieldCurrentHeadCount,
	FieldAverageHourlyWage,
	FieldPlannedHires,
	FieldAlertConfig,
	FieldMonitoredProducts,
	FieldBusinessGoals,
	FieldRiskTolerance,
	FieldTariffNotices,
	FieldAIRecommendations,
	FieldCompanyName,
	FieldIndustry,
	FieldAnnualRevenue,
	FieldPrimaryMarkets,
}

var fieldIndex = func() map[Field]struct{} {
	m := make(map[Field]struct{}, len(AllFields))
	for _, f := range AllFields {
		m[f] = struct{}{}
	}
	return m
}()

// Known reports whether f names a profile field.
func (f Field) Known() bool {
	_, ok := fieldIndex[f]
	return ok
}

// ParseField converts a string to a known Field.
func ParseField(s string) (Field, error) {
	f := Field(s)
	if !f.Known() {
		return "", eris.Errorf("model: unknown field %q", s)
	}
	return f, nil
}

// Package validate decides whether a workflow step may proceed given the
// provenance of the business data it depends on.
package validate

import (
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/tariff-impact/internal/model"
)

// Workflow step names.
const (
	StepDataImport              = "data-import"
	StepCostAnalysis            = "cost-analysis"
	StepSupplierDiversification = "supplier-diversification"
	StepSupplyChainPlanning     = "supply-chain-planning"
	StepWorkforcePlanning       = "workforce-planning"
	StepAlerts                  = "alerts"
	StepAIRecommendations       = "ai-recommendations"
	StepBusinessProfile         = "business-profile"
)

// StepConfig is the validation rule set for one workflow step.
type StepConfig struct {
	RequiredFields      []model.Field `yaml:"required_fields" json:"requiredFields"`
	CriticalFields      []model.Field `yaml:"critical_fields" json:"criticalFields"`
	MinimumCompleteness float64       `yaml:"minimum_completeness" json:"minimumCompleteness"`
	AllowTemplateData   bool          `yaml:"allow_template_data" json:"allowTemplateData"`
	RequiresHumanInput  []model.Field `yaml:"requires_human_input" json:"requiresHumanInput"`
}

// IsCritical reports whether f is a critical field for the step.
func (c StepConfig) IsCritical(f model.Field) bool {
	return slices.Contains(c.CriticalFields, f)
}

// NeedsHumanInput reports whether f must be confirmed by a person.
func (c StepConfig) NeedsHumanInput(f model.Field) bool {
	return slices.Contains(c.RequiresHumanInput, f)
}

// Config maps step names to their rule sets.
type Config struct {
	Steps map[string]StepConfig `yaml:"steps"`
}

// Step returns the rule set for a step and whether it exists.
func (c *Config) Step(name string) (StepConfig, bool) {
	if c == nil {
		return StepConfig{}, false
	}
	sc, ok := c.Steps[name]
	return sc, ok
}

// StepNames returns the configured step names in sorted order.
func (c *Config) StepNames() []string {
	names := make([]string, 0, len(c.Steps))
	for name := range c.Steps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultConfig returns the compiled-in step table.
func DefaultConfig() *Config {
	return &Config{Steps: map[string]StepConfig{
		StepDataImport: {
			RequiredFields:      []model.Field{model.FieldImportedProducts, model.FieldFileMetadata, model.FieldTotalImportValue},
			CriticalFields:      []model.Field{model.FieldImportedProducts, model.FieldFileMetadata},
			MinimumCompleteness: 100,
		},
		StepCostAnalysis: {
			RequiredFields: []model.Field{
				model.FieldImportedProducts, model.FieldTariffRates, model.FieldProductImpacts,
				model.FieldTotalTariffCost, model.FieldProfitMargin,
			},
			CriticalFields:      []model.Field{model.FieldImportedProducts, model.FieldTariffRates},
			MinimumCompleteness: 80,
			RequiresHumanInput:  []model.Field{model.FieldProfitMargin},
		},
		StepSupplierDiversification: {
			RequiredFields: []model.Field{
				model.FieldSuppliers, model.FieldSupplierCountries,
				model.FieldAlternativeSuppliers, model.FieldDiversificationBudget,
			},
			CriticalFields:      []model.Field{model.FieldSuppliers},
			MinimumCompleteness: 60,
			AllowTemplateData:   true,
			RequiresHumanInput:  []model.Field{model.FieldDiversificationBudget},
		},
		StepSupplyChainPlanning: {
			RequiredFields: []model.Field{
				model.FieldInventoryLevels, model.FieldAverageLeadTimeDays,
				model.FieldShippingRoutes, model.FieldMonthlyCashFlow,
			},
			CriticalFields:      []model.Field{model.FieldInventoryLevels},
			MinimumCompleteness: 70,
			AllowTemplateData:   true,
		},
		StepWorkforcePlanning: {
			RequiredFields:      []model.Field{model.FieldCurrentHeadCount, model.FieldAverageHourlyWage, model.FieldPlannedHires},
			CriticalFields:      []model.Field{model.FieldCurrentHeadCount},
			MinimumCompleteness: 100,
			RequiresHumanInput:  []model.Field{model.FieldCurrentHeadCount},
		},
		StepAlerts: {
			RequiredFields:      []model.Field{model.FieldAlertConfig, model.FieldMonitoredProducts},
			CriticalFields:      []model.Field{model.FieldAlertConfig},
			MinimumCompleteness: 50,
			AllowTemplateData:   true,
			RequiresHumanInput:  []model.Field{model.FieldAlertConfig},
		},
		StepAIRecommendations: {
			RequiredFields: []model.Field{
				model.FieldImportedProducts, model.FieldBusinessGoals, model.FieldRiskTolerance,
				model.FieldIndustry, model.FieldAnnualRevenue,
			},
			CriticalFields:      []model.Field{model.FieldImportedProducts},
			MinimumCompleteness: 60,
			AllowTemplateData:   true,
			RequiresHumanInput:  []model.Field{model.FieldRiskTolerance},
		},
		StepBusinessProfile: {
			RequiredFields: []model.Field{
				model.FieldCompanyName, model.FieldIndustry,
				model.FieldAnnualRevenue, model.FieldPrimaryMarkets,
			},
			CriticalFields:      []model.Field{model.FieldCompanyName},
			MinimumCompleteness: 75,
		},
	}}
}

// LoadConfig reads a step table from a YAML file. Steps in the file replace
// the compiled-in step of the same name; other compiled-in steps are kept.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "validate: read config %s", path)
	}

	// The YAML has a top-level "validation" key
	var wrapper struct {
		Validation Config `yaml:"validation"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "validate: parse config")
	}

	cfg := DefaultConfig()
	for name, sc := range wrapper.Validation.Steps {
		cfg.Steps[name] = sc
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ValidateConfig checks that every step's critical and human-input fields are
// required fields, that every field is known, and that thresholds are 0–100.
func ValidateConfig(c *Config) error {
	var errs []string
	for _, name := range c.StepNames() {
		sc := c.Steps[name]
		for _, f := range sc.RequiredFields {
			if !f.Known() {
				errs = append(errs, name+": unknown required field "+string(f))
			}
		}
		for _, f := range sc.CriticalFields {
			if !slices.Contains(sc.RequiredFields, f) {
				errs = append(errs, name+": critical field "+string(f)+" is not required")
			}
		}
		for _, f := range sc.RequiresHumanInput {
			if !slices.Contains(sc.RequiredFields, f) {
				errs = append(errs, name+": human-input field "+string(f)+" is not required")
			}
		}
		if sc.MinimumCompleteness < 0 || sc.MinimumCompleteness > 100 {
			errs = append(errs, name+": minimum_completeness out of range")
		}
	}
	if len(errs) > 0 {
		return eris.Errorf("validate: invalid step config: %s", strings.Join(errs, "; "))
	}
	return nil
}

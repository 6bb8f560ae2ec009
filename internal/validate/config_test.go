package validate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/tariff-impact/internal/model"
)

func TestDefaultConfig_Invariants(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, ValidateConfig(cfg))
	assert.Len(t, cfg.Steps, 8)

	wf, ok := cfg.Step(StepWorkforcePlanning)
	require.True(t, ok)
	assert.Equal(t, 100.0, wf.MinimumCompleteness)
	assert.False(t, wf.AllowTemplateData)
	assert.True(t, wf.IsCritical(model.FieldCurrentHeadCount))
	assert.True(t, wf.NeedsHumanInput(model.FieldCurrentHeadCount))
}

func TestConfig_StepOnNil(t *testing.T) {
	var cfg *Config
	_, ok := cfg.Step(StepAlerts)
	assert.False(t, ok)
}

func TestValidateConfig_Violations(t *testing.T) {
	cfg := &Config{Steps: map[string]StepConfig{
		"broken": {
			RequiredFields:      []model.Field{model.FieldCompanyName, "ghost"},
			CriticalFields:      []model.Field{model.FieldIndustry},
			RequiresHumanInput:  []model.Field{model.FieldAnnualRevenue},
			MinimumCompleteness: 120,
		},
	}}
	err := ValidateConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown required field ghost")
	assert.Contains(t, err.Error(), "critical field industry is not required")
	assert.Contains(t, err.Error(), "human-input field annualRevenue is not required")
	assert.Contains(t, err.Error(), "minimum_completeness out of range")
}

func TestLoadConfig_OverridesStep(t *testing.T) {
	path := filepath.Join(t.TempDir(), "steps.yaml")
	yml := `validation:
  steps:
    workforce-planning:
      required_fields: [currentHeadCount]
      critical_fields: [currentHeadCount]
      minimum_completeness: 50
      allow_template_data: true
    onboarding:
      required_fields: [companyName, industry]
      minimum_completeness: 40
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	wf := cfg.Steps[StepWorkforcePlanning]
	assert.Equal(t, []model.Field{model.FieldCurrentHeadCount}, wf.RequiredFields)
	assert.Equal(t, 50.0, wf.MinimumCompleteness)
	assert.True(t, wf.AllowTemplateData)
	assert.Empty(t, wf.RequiresHumanInput)

	assert.Contains(t, cfg.Steps, "onboarding")
	assert.Contains(t, cfg.Steps, StepCostAnalysis)
}

func TestLoadConfig_RejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "steps.yaml")
	yml := `validation:
  steps:
    alerts:
      required_fields: [alertConfig]
      critical_fields: [monitoredProducts]
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

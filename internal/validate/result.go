package validate

import "github.com/sells-group/tariff-impact/internal/model"

// Severity orders warnings for display. It never affects gating.
type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

// Code identifies the rule that produced an issue.
type Code string

const (
	CodeMissingField          Code = "missing_field"
	CodeUnclearSource         Code = "unclear_source"
	CodeTemplateAfterUpload   Code = "template_after_upload"
	CodeTemplateData          Code = "template_data"
	CodeCriticalEmpty         Code = "critical_empty"
	CodeCriticalTemplate      Code = "critical_template"
	CodeStaleData             Code = "stale_data"
	CodeHumanInputUnvalidated Code = "human_input_unvalidated"
	CodeUnvalidated           Code = "unvalidated"
	CodeLowConfidence         Code = "low_confidence"
	CodeTemplateRemaining     Code = "template_remaining"
	CodeBelowCompleteness     Code = "below_completeness"
)

// Issue is a single validation finding. Errors always block; warnings never do.
type Issue struct {
	Field           model.Field `json:"field,omitempty"`
	Code            Code        `json:"code"`
	Message         string      `json:"message"`
	Severity        Severity    `json:"severity,omitempty"`
	BlocksProceed   bool        `json:"blocksProceed"`
	SuggestedAction string      `json:"suggestedAction,omitempty"`
}

// Result is the outcome of validating one step against a profile.
type Result struct {
	Step                  string        `json:"step"`
	IsValid               bool          `json:"isValid"`
	Completeness          float64       `json:"completeness"`
	Warnings              []Issue       `json:"warnings"`
	Errors                []Issue       `json:"errors"`
	CanProceed            bool          `json:"canProceed"`
	RecommendedActions    []string      `json:"recommendedActions"`
	CriticalFieldsMissing []model.Field `json:"criticalFieldsMissing"`
	TemplateDataCount     int           `json:"templateDataCount"`
	UserDataCount         int           `json:"userDataCount"`
	DataQualityScore      int           `json:"dataQualityScore"`
}

// Penalties subtracted from the data quality score per finding.
const (
	penaltyMissing              = 20
	penaltyUnclearSource        = 15
	penaltyTemplateAfterUpload  = 50
	penaltyTemplateBeforeUpload = 25
	penaltyCriticalEmpty        = 15
	penaltyCriticalTemplate     = 35
	penaltyStale                = 5
	penaltyHumanUnvalidated     = 20
	penaltyUnvalidated          = 10
	penaltyLowConfidence        = 8

	penaltyTemplatesRemainAfterUpload  = 50
	penaltyTemplatesRemainBeforeUpload = 35
	penaltyBelowMinAfterUpload         = 50
	penaltyBelowMinBeforeUpload        = 30
)

package validate

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/sells-group/tariff-impact/internal/model"
)

// Validator evaluates profiles against a step table.
type Validator struct {
	cfg  *Config
	opts Options
	now  func() time.Time
}

// New creates a Validator. A nil cfg uses DefaultConfig.
func New(cfg *Config, opts Options) *Validator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Validator{cfg: cfg, opts: opts.withDefaults(), now: time.Now}
}

// WithClock returns a copy of v that reads the current time from now.
func (v *Validator) WithClock(now func() time.Time) *Validator {
	cp := *v
	cp.now = now
	return &cp
}

// Config returns the step table in use.
func (v *Validator) Config() *Config {
	return v.cfg
}

// Validate checks profile against the named step. Unknown steps pass.
func (v *Validator) Validate(profile *model.Profile, step string) *Result {
	sc, ok := v.cfg.Step(step)
	if !ok {
		return passResult(step)
	}
	return ValidateStepData(profile, step, sc, v.opts, v.now())
}

func passResult(step string) *Result {
	return &Result{
		Step:                  step,
		IsValid:               true,
		Completeness:          100,
		CanProceed:            true,
		DataQualityScore:      100,
		Warnings:              []Issue{},
		Errors:                []Issue{},
		RecommendedActions:    []string{},
		CriticalFieldsMissing: []model.Field{},
	}
}

// ValidateStepData evaluates every required field of sc against profile. It
// never mutates profile and reads no clock of its own: now drives the
// staleness check, so equal inputs always yield equal results.
func ValidateStepData(profile *model.Profile, step string, sc StepConfig, opts Options, now time.Time) *Result {
	opts = opts.withDefaults()
	res := passResult(step)
	score := 100
	uploaded := profile.UploadComplete()

	for _, f := range sc.RequiredFields {
		critical := sc.IsCritical(f)

		pt := profile.Point(f)
		if pt == nil || pt.Meta().Source == "" {
			res.addError(Issue{
				Field:           f,
				Code:            CodeMissingField,
				Message:         fmt.Sprintf("Required field %s is missing", f),
				SuggestedAction: fmt.Sprintf("Provide a value for %s", f),
			})
			res.markCriticalMissing(f)
			score -= penaltyMissing
			continue
		}
		meta := pt.Meta()

		template := false
		switch {
		case meta.Source.IsTemplate():
			template = true
			res.TemplateDataCount++
		case meta.Source.IsReal():
			res.UserDataCount++
		default:
			res.addWarning(Issue{
				Field:           f,
				Code:            CodeUnclearSource,
				Message:         fmt.Sprintf("Data source %q for %s is unclear", meta.Source, f),
				Severity:        SeverityMedium,
				SuggestedAction: fmt.Sprintf("Re-enter %s so its origin is recorded", f),
			})
			score -= penaltyUnclearSource
		}

		if template {
			if uploaded {
				res.addError(Issue{
					Field:           f,
					Code:            CodeTemplateAfterUpload,
					Message:         fmt.Sprintf("%s still holds template data after your upload completed", f),
					SuggestedAction: fmt.Sprintf("Replace the placeholder in %s with your own data", f),
				})
				score -= penaltyTemplateAfterUpload
			} else {
				sev := SeverityMedium
				if sc.AllowTemplateData {
					sev = SeverityLow
				}
				res.addWarning(Issue{
					Field:           f,
					Code:            CodeTemplateData,
					Message:         fmt.Sprintf("%s is using template data", f),
					Severity:        sev,
					SuggestedAction: fmt.Sprintf("Upload purchase orders or enter %s directly", f),
				})
				score -= penaltyTemplateBeforeUpload
			}
		}

		if critical && pt.IsEmpty() {
			res.addError(Issue{
				Field:           f,
				Code:            CodeCriticalEmpty,
				Message:         fmt.Sprintf("Critical field %s is empty", f),
				SuggestedAction: fmt.Sprintf("Provide a value for %s", f),
			})
			res.markCriticalMissing(f)
			score -= penaltyCriticalEmpty
		}

		if critical && template {
			res.addError(Issue{
				Field:           f,
				Code:            CodeCriticalTemplate,
				Message:         fmt.Sprintf("Critical field %s cannot rely on template data", f),
				SuggestedAction: fmt.Sprintf("Enter real data for %s", f),
			})
			res.markCriticalMissing(f)
			score -= penaltyCriticalTemplate
		}

		if IsStale(meta.Timestamp, now, opts.StaleAfter) {
			res.addWarning(Issue{
				Field:           f,
				Code:            CodeStaleData,
				Message:         fmt.Sprintf("%s was last updated %d days ago", f, AgeDays(meta.Timestamp, now)),
				Severity:        SeverityLow,
				SuggestedAction: fmt.Sprintf("Review %s for recent changes", f),
			})
			score -= penaltyStale
		}

		if meta.RequiresValidation && !meta.Validated {
			if sc.NeedsHumanInput(f) {
				res.addError(Issue{
					Field:           f,
					Code:            CodeHumanInputUnvalidated,
					Message:         fmt.Sprintf("%s must be confirmed before continuing", f),
					SuggestedAction: fmt.Sprintf("Review and confirm %s", f),
				})
				score -= penaltyHumanUnvalidated
			} else {
				res.addWarning(Issue{
					Field:           f,
					Code:            CodeUnvalidated,
					Message:         fmt.Sprintf("%s has not been confirmed", f),
					Severity:        SeverityMedium,
					SuggestedAction: fmt.Sprintf("Review and confirm %s", f),
				})
				score -= penaltyUnvalidated
			}
		}

		if meta.Source == model.SourceExternalAPI && meta.Confidence != nil && *meta.Confidence < opts.MinExternalConfidence {
			res.addWarning(Issue{
				Field:           f,
				Code:            CodeLowConfidence,
				Message:         fmt.Sprintf("%s came from an external source with %.0f%% confidence", f, *meta.Confidence*100),
				Severity:        SeverityHigh,
				SuggestedAction: fmt.Sprintf("Verify %s manually", f),
			})
			score -= penaltyLowConfidence
		}
	}

	total := len(sc.RequiredFields)
	if total > 0 {
		res.Completeness = math.Round(float64(res.UserDataCount) / float64(total) * 100)
	}

	if res.TemplateDataCount > 0 {
		if uploaded {
			res.addError(Issue{
				Code:            CodeTemplateRemaining,
				Message:         fmt.Sprintf("%d field(s) still use template data after upload", res.TemplateDataCount),
				SuggestedAction: "Replace all template data with your own business data",
			})
			score -= penaltyTemplatesRemainAfterUpload
		} else {
			res.addWarning(Issue{
				Code:            CodeTemplateRemaining,
				Message:         fmt.Sprintf("%d field(s) use template data", res.TemplateDataCount),
				Severity:        SeverityHigh,
				SuggestedAction: "Upload your purchase orders to replace template data",
			})
			score -= penaltyTemplatesRemainBeforeUpload
		}
	}

	if res.Completeness < sc.MinimumCompleteness {
		msg := fmt.Sprintf("Real data completeness %.0f%% is below the required %.0f%%", res.Completeness, sc.MinimumCompleteness)
		if uploaded {
			res.addError(Issue{
				Code:            CodeBelowCompleteness,
				Message:         msg,
				SuggestedAction: "Complete the remaining required fields",
			})
			score -= penaltyBelowMinAfterUpload
		} else {
			res.addWarning(Issue{
				Code:            CodeBelowCompleteness,
				Message:         msg,
				Severity:        SeverityHigh,
				SuggestedAction: "Complete the remaining required fields",
			})
			score -= penaltyBelowMinBeforeUpload
		}
	}

	res.DataQualityScore = max(score, 0)
	res.IsValid = len(res.Errors) == 0
	res.CanProceed = res.IsValid &&
		res.Completeness >= sc.MinimumCompleteness &&
		(!uploaded || res.TemplateDataCount == 0) &&
		res.UserDataCount > 0
	return res
}

func (r *Result) addError(is Issue) {
	is.BlocksProceed = true
	is.Severity = SeverityHigh
	r.Errors = append(r.Errors, is)
	r.recommend(is.SuggestedAction)
}

func (r *Result) addWarning(is Issue) {
	is.BlocksProceed = false
	r.Warnings = append(r.Warnings, is)
	r.recommend(is.SuggestedAction)
}

func (r *Result) recommend(action string) {
	if action == "" || slices.Contains(r.RecommendedActions, action) {
		return
	}
	r.RecommendedActions = append(r.RecommendedActions, action)
}

func (r *Result) markCriticalMissing(f model.Field) {
	if !slices.Contains(r.CriticalFieldsMissing, f) {
		r.CriticalFieldsMissing = append(r.CriticalFieldsMissing, f)
	}
}

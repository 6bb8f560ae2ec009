package model

import (
	"reflect"
	"time"
)

// Source classifies where a field value came from.
type Source string

const (
	SourceUserInput     Source = "USER_INPUT"
	SourceUserUpload    Source = "USER_UPLOAD"
	SourceTemplate      Source = "TEMPLATE"
	SourceCalculated    Source = "CALCULATED"
	SourceExternalAPI   Source = "EXTERNAL_API"
	SourceSystemDefault Source = "SYSTEM_DEFAULT"
)

// Sources lists every known source kind.
var Sources = []Source{
	SourceUserInput,
	SourceUserUpload,
	SourceTemplate,
	SourceCalculated,
	SourceExternalAPI,
	SourceSystemDefault,
}

// Valid reports whether s is one of the enumerated source kinds.
func (s Source) Valid() bool {
	switch s {
	case SourceUserInput, SourceUserUpload, SourceTemplate,
		SourceCalculated, SourceExternalAPI, SourceSystemDefault:
		return true
	}
	return false
}

// IsTemplate reports whether s is a placeholder (template or system default).
func (s Source) IsTemplate() bool {
	return s == SourceTemplate || s == SourceSystemDefault
}

// IsUserProvided reports whether s came directly from the user.
func (s Source) IsUserProvided() bool {
	return s == SourceUserInput || s == SourceUserUpload
}

// IsReal reports whether s counts as real data for step validation:
// direct user data plus calculated and external values.
func (s Source) IsReal() bool {
	return s.IsUserProvided() || s == SourceCalculated || s == SourceExternalAPI
}

// Provenance is the metadata every data point carries alongside its value.
type Provenance struct {
	Source             Source    `json:"source"`
	Timestamp          time.Time `json:"timestamp"`
	LastUpdated        time.Time `json:"lastUpdated"`
	Validated          bool      `json:"validated"`
	RequiresValidation bool      `json:"requiresValidation"`
	Confidence         *float64  `json:"confidence,omitempty"`

	// Derived from Source on every store mutation.
	TemplateData        bool `json:"templateData"`
	UserProvided        bool `json:"userProvided"`
	DerivedFromUserData bool `json:"derivedFromUserData"`
}

// Classify recomputes the derived flags from Source.
func (p *Provenance) Classify() {
	p.TemplateData = p.Source.IsTemplate()
	p.UserProvided = p.Source.IsUserProvided()
	p.DerivedFromUserData = p.Source == SourceCalculated
}

// Stamp sets both timestamps to now.
func (p *Provenance) Stamp(now time.Time) {
	p.Timestamp = now
	p.LastUpdated = now
}

// Point is the type-erased view of a DataPoint used by the store and validator.
type Point interface {
	Meta() *Provenance
	IsEmpty() bool
	Raw() any
}

// DataPoint wraps a field value with its provenance.
type DataPoint[T any] struct {
	Value T `json:"value"`
	Provenance
}

// NewDataPoint returns a point stamped with now. Validated is the inverse of
// requiresValidation.
func NewDataPoint[T any](value T, source Source, requiresValidation bool, now time.Time) DataPoint[T] {
	dp := DataPoint[T]{
		Value: value,
		Provenance: Provenance{
			Source:             source,
			Validated:          !requiresValidation,
			RequiresValidation: requiresValidation,
		},
	}
	dp.Stamp(now)
	dp.Classify()
	return dp
}

// NewExternalDataPoint returns an EXTERNAL_API point with the given confidence.
func NewExternalDataPoint[T any](value T, confidence float64, requiresValidation bool, now time.Time) DataPoint[T] {
	dp := NewDataPoint(value, SourceExternalAPI, requiresValidation, now)
	dp.Confidence = &confidence
	return dp
}

// Meta returns the provenance metadata for in-place updates.
func (d *DataPoint[T]) Meta() *Provenance {
	return &d.Provenance
}

// Raw returns the wrapped value.
func (d *DataPoint[T]) Raw() any {
	return d.Value
}

// IsEmpty reports whether the value is nil, a zero scalar, or an empty
// string, slice, map or struct.
func (d *DataPoint[T]) IsEmpty() bool {
	return isEmptyValue(reflect.ValueOf(any(d.Value)))
}

func isEmptyValue(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Slice, reflect.Map, reflect.String, reflect.Array:
		return v.Len() == 0
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return true
		}
		return isEmptyValue(v.Elem())
	default:
		return v.IsZero()
	}
}

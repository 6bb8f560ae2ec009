// Package profile owns the session's business data profile: it stamps and
// classifies every mutation, keeps the completeness summary current and
// writes the profile through to a key-value store.
package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/tariff-impact/internal/kv"
	"github.com/sells-group/tariff-impact/internal/model"
	"github.com/sells-group/tariff-impact/internal/validate"
)

// Default persistence keys.
const (
	DefaultProfileKey = "tariff_business_data"
	DefaultSummaryKey = "tariff_data_summary"
)

// Options configures a Store.
type Options struct {
	ProfileKey string
	SummaryKey string
	Now        func() time.Time
}

func (o Options) withDefaults() Options {
	if o.ProfileKey == "" {
		o.ProfileKey = DefaultProfileKey
	}
	if o.SummaryKey == "" {
		o.SummaryKey = DefaultSummaryKey
	}
	if o.Now == nil {
		o.Now = func() time.Time { return time.Now().UTC() }
	}
	return o
}

// Progress counts the confirmed required fields of one step.
type Progress struct {
	Completed  int `json:"completed"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// Summary is the lightweight record written next to the profile. It is never
// read back.
type Summary struct {
	LastUpdated       time.Time `json:"lastUpdated"`
	CompletenessScore int       `json:"completenessScore"`
	UserFields        int       `json:"userFields"`
	TotalFields       int       `json:"totalFields"`
}

// Store holds the current profile. All methods are safe for concurrent use
// and each runs atomically under the store's lock.
type Store struct {
	mu        sync.Mutex
	kv        kv.Store
	validator *validate.Validator
	opts      Options
	profile   *model.Profile
}

// New creates a Store backed by st. A previously persisted profile is loaded
// when present; otherwise the store starts from a fresh profile without
// writing it.
func New(ctx context.Context, st kv.Store, v *validate.Validator, opts Options) *Store {
	if v == nil {
		v = validate.New(nil, validate.DefaultOptions())
	}
	s := &Store{kv: st, validator: v, opts: opts.withDefaults()}
	s.profile = s.load(ctx)
	return s
}

func (s *Store) load(ctx context.Context) *model.Profile {
	now := s.opts.Now()
	data, err := s.kv.Get(ctx, s.opts.ProfileKey)
	if err != nil {
		zap.L().Warn("profile: load persisted profile failed, starting fresh", zap.Error(err))
		return model.NewProfile(now)
	}
	if data == nil {
		return model.NewProfile(now)
	}

	p, err := decode(data, now)
	if err != nil {
		zap.L().Warn("profile: persisted profile is corrupt, starting fresh", zap.Error(err))
		return model.NewProfile(now)
	}
	p.DataCompleteness = CalculateCompleteness(p, now)
	zap.L().Debug("profile: loaded persisted profile",
		zap.Int("completeness", p.DataCompleteness.CompletenessScore),
	)
	return p
}

// decode reads a profile document. Fields the document leaves out, or
// carries without a source, fall back to the fresh-profile defaults.
func decode(data []byte, now time.Time) (*model.Profile, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, eris.New("profile: decode: document must be a JSON object")
	}
	var p model.Profile
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return nil, eris.Wrap(err, "profile: decode")
	}
	defaults := model.NewProfile(now)
	for _, f := range model.AllFields {
		if p.Point(f).Meta().Source == "" {
			_ = p.Set(f, defaults.Point(f))
		}
	}
	if p.UploadStatus == "" {
		p.UploadStatus = model.UploadPending
	}
	return &p, nil
}

// Validator returns the validator used by ValidateStep.
func (s *Store) Validator() *validate.Validator {
	return s.validator
}

// UpdateData replaces one field. Its timestamps are re-stamped and its
// derived flags reclassified from the source. Unknown fields, mismatched
// value types and unknown sources are rejected without touching state.
func (s *Store) UpdateData(ctx context.Context, f model.Field, pt model.Point) error {
	return s.UpdateMultipleFields(ctx, map[model.Field]model.Point{f: pt})
}

// UpdateMultipleFields replaces several fields in one pass. Either every
// field is applied or none is.
func (s *Store) UpdateMultipleFields(ctx context.Context, fields map[model.Field]model.Point) error {
	if len(fields) == 0 {
		return nil
	}

	var scratch model.Profile
	for f, pt := range fields {
		if pt == nil {
			return eris.Errorf("profile: nil data point for %s", f)
		}
		if err := scratch.Set(f, pt); err != nil {
			return eris.Wrap(err, "profile: update")
		}
		if src := pt.Meta().Source; !src.Valid() {
			return eris.Errorf("profile: field %s has unknown source %q", f, src)
		}
		if _, err := json.Marshal(pt); err != nil {
			return eris.Wrapf(err, "profile: field %s does not encode", f)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.opts.Now()
	for f, pt := range fields {
		// Checked against scratch above.
		_ = s.profile.Set(f, pt)
		m := s.profile.Point(f).Meta()
		m.Stamp(now)
		m.Classify()
	}
	s.commit(ctx, now)
	return nil
}

// MarkAsValidated confirms one field without changing its value or source.
func (s *Store) MarkAsValidated(ctx context.Context, f model.Field) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pt := s.profile.Point(f)
	if pt == nil {
		return eris.Errorf("profile: unknown field %q", f)
	}
	now := s.opts.Now()
	m := pt.Meta()
	m.Validated = true
	m.LastUpdated = now
	s.commit(ctx, now)
	return nil
}

// ResetData replaces the profile with a fresh one and deletes the persisted
// copies. The fresh profile is not written, so a later load cannot tell it
// apart from a store that was never used.
func (s *Store) ResetData(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.profile = model.NewProfile(s.opts.Now())
	for _, key := range []string{s.opts.ProfileKey, s.opts.SummaryKey} {
		if err := s.kv.Delete(ctx, key); err != nil {
			zap.L().Warn("profile: delete persisted data failed", zap.String("key", key), zap.Error(err))
		}
	}
	zap.L().Info("profile: reset")
}

// ExportData returns the profile as JSON.
func (s *Store) ExportData() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(s.profile, "", "  ")
	if err != nil {
		return nil, eris.Wrap(err, "profile: export")
	}
	return data, nil
}

// ImportData replaces the profile with one decoded from data. Malformed input
// returns an error and leaves the current profile in place.
func (s *Store) ImportData(ctx context.Context, data []byte) error {
	p, err := decode(data, s.opts.Now())
	if err != nil {
		return eris.Wrap(err, "profile: import")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.profile = p
	s.commit(ctx, s.opts.Now())
	zap.L().Info("profile: imported",
		zap.Int("completeness", p.DataCompleteness.CompletenessScore),
	)
	return nil
}

// GetStepProgress counts the required fields of step that hold confirmed,
// non-template data. Unknown steps report zero progress.
func (s *Store) GetStepProgress(step string) Progress {
	sc, ok := s.validator.Config().Step(step)
	if !ok {
		return Progress{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prog := Progress{Total: len(sc.RequiredFields)}
	for _, f := range sc.RequiredFields {
		pt := s.profile.Point(f)
		if pt == nil {
			continue
		}
		m := pt.Meta()
		if m.Source != "" && !m.Source.IsTemplate() && m.Validated {
			prog.Completed++
		}
	}
	if prog.Total > 0 {
		prog.Percentage = int(math.Round(float64(prog.Completed) / float64(prog.Total) * 100))
	}
	return prog
}

// ClearTemplateData turns every remaining template or system-default field
// into an explicit follow-up (requires validation, not validated) once an
// upload has completed. It returns the number of fields changed.
func (s *Store) ClearTemplateData(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.profile.UploadComplete() {
		return 0
	}

	now := s.opts.Now()
	flipped := 0
	for _, f := range model.AllFields {
		m := s.profile.Point(f).Meta()
		if !m.Source.IsTemplate() {
			continue
		}
		if m.RequiresValidation && !m.Validated {
			continue
		}
		m.RequiresValidation = true
		m.Validated = false
		m.LastUpdated = now
		flipped++
	}
	if flipped > 0 {
		s.commit(ctx, now)
		zap.L().Info("profile: template data flagged for validation", zap.Int("fields", flipped))
	}
	return flipped
}

// SetUploadStatus records whether a purchase-order upload has completed.
func (s *Store) SetUploadStatus(ctx context.Context, status model.UploadStatus) error {
	if status != model.UploadPending && status != model.UploadCompleted {
		return eris.Errorf("profile: unknown upload status %q", status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.profile.UploadStatus = status
	s.commit(ctx, s.opts.Now())
	return nil
}

// UploadStatus returns the current upload status.
func (s *Store) UploadStatus() model.UploadStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile.UploadStatus
}

// ValidateStep validates the current profile against step.
func (s *Store) ValidateStep(step string) *validate.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validator.Validate(s.profile, step)
}

// Snapshot returns a deep copy of the current profile.
func (s *Store) Snapshot() (*model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile.Clone()
}

// Completeness returns the current whole-profile summary.
func (s *Store) Completeness() model.DataCompleteness {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile.DataCompleteness
}

// commit recomputes the summary and writes the profile through. Persistence
// is best-effort: failures are logged and the in-memory state is kept.
// Callers hold s.mu.
func (s *Store) commit(ctx context.Context, now time.Time) {
	s.profile.DataCompleteness = CalculateCompleteness(s.profile, now)
	if err := s.persist(ctx); err != nil {
		zap.L().Warn("profile: persist failed, keeping in-memory state", zap.Error(err))
	}
}

func (s *Store) persist(ctx context.Context) error {
	data, err := json.Marshal(s.profile)
	if err != nil {
		return eris.Wrap(err, "profile: marshal")
	}
	if err := s.kv.Set(ctx, s.opts.ProfileKey, data); err != nil {
		return err
	}

	dc := s.profile.DataCompleteness
	summary, err := json.Marshal(Summary{
		LastUpdated:       dc.LastUpdated,
		CompletenessScore: dc.CompletenessScore,
		UserFields:        dc.UserProvidedFields,
		TotalFields:       dc.TotalFields,
	})
	if err != nil {
		return eris.Wrap(err, "profile: marshal summary")
	}
	return s.kv.Set(ctx, s.opts.SummaryKey, summary)
}

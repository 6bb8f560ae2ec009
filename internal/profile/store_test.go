package profile

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/tariff-impact/internal/kv"
	"github.com/sells-group/tariff-impact/internal/model"
	"github.com/sells-group/tariff-impact/internal/validate"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

// clock is a settable time source shared by the store and its validator.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(t *testing.T, st kv.Store) (*Store, *clock) {
	t.Helper()
	clk := &clock{now: testNow}
	v := validate.New(nil, validate.DefaultOptions()).WithClock(clk.Now)
	return New(context.Background(), st, v, Options{Now: clk.Now}), clk
}

// failingKV rejects every operation.
type failingKV struct{}

func (failingKV) Get(context.Context, string) ([]byte, error) { return nil, errors.New("quota exceeded") }
func (failingKV) Set(context.Context, string, []byte) error   { return errors.New("quota exceeded") }
func (failingKV) Delete(context.Context, string) error        { return errors.New("quota exceeded") }
func (failingKV) Close() error                                { return nil }

func userPoint[T any](v T) *model.DataPoint[T] {
	dp := model.NewDataPoint(v, model.SourceUserInput, false, testNow)
	return &dp
}

func TestNew_FreshProfileIsNotPersisted(t *testing.T) {
	mem := kv.NewMemory()
	s, _ := newTestStore(t, mem)

	assert.Zero(t, mem.Keys())
	assert.Equal(t, model.UploadPending, s.UploadStatus())
	dc := s.Completeness()
	assert.Zero(t, dc.CompletenessScore)

	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, model.SourceSystemDefault, snap.CompanyName.Source)
	assert.Equal(t, model.SourceTemplate, snap.TariffRates.Source)
}

func TestUpdateData_StampsClassifiesAndPersists(t *testing.T) {
	mem := kv.NewMemory()
	s, clk := newTestStore(t, mem)
	ctx := context.Background()

	clk.Advance(time.Hour)
	dp := model.NewDataPoint("Acme Widgets", model.SourceUserInput, false, testNow.Add(-72*time.Hour))
	dp.TemplateData = true // stale derived flag, must be recomputed
	require.NoError(t, s.UpdateData(ctx, model.FieldCompanyName, &dp))

	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, "Acme Widgets", snap.CompanyName.Value)
	assert.False(t, snap.CompanyName.TemplateData)
	assert.True(t, snap.CompanyName.UserProvided)
	assert.Equal(t, testNow.Add(time.Hour), snap.CompanyName.Timestamp)
	assert.Equal(t, testNow.Add(time.Hour), snap.CompanyName.LastUpdated)
	assert.Equal(t, 1, snap.DataCompleteness.UserProvidedFields)
	assert.Equal(t, 4, snap.DataCompleteness.CompletenessScore)

	raw, err := mem.Get(ctx, DefaultProfileKey)
	require.NoError(t, err)
	var persisted model.Profile
	require.NoError(t, json.Unmarshal(raw, &persisted))
	assert.Equal(t, "Acme Widgets", persisted.CompanyName.Value)

	raw, err = mem.Get(ctx, DefaultSummaryKey)
	require.NoError(t, err)
	var sum Summary
	require.NoError(t, json.Unmarshal(raw, &sum))
	assert.Equal(t, 4, sum.CompletenessScore)
	assert.Equal(t, 1, sum.UserFields)
	assert.Equal(t, len(model.AllFields), sum.TotalFields)
}

func TestUpdateData_ClassificationIdempotent(t *testing.T) {
	s, _ := newTestStore(t, kv.NewMemory())
	ctx := context.Background()

	for _, src := range model.Sources {
		dp := model.NewDataPoint([]string{"US", "CA"}, src, false, testNow)

		require.NoError(t, s.UpdateData(ctx, model.FieldPrimaryMarkets, &dp))
		first, err := s.Snapshot()
		require.NoError(t, err)

		require.NoError(t, s.UpdateData(ctx, model.FieldPrimaryMarkets, &dp))
		second, err := s.Snapshot()
		require.NoError(t, err)

		assert.Equal(t, first.PrimaryMarkets.TemplateData, second.PrimaryMarkets.TemplateData, src)
		assert.Equal(t, first.PrimaryMarkets.UserProvided, second.PrimaryMarkets.UserProvided, src)
		assert.Equal(t, first.PrimaryMarkets.DerivedFromUserData, second.PrimaryMarkets.DerivedFromUserData, src)
	}
}

func TestUpdateData_CompletenessMonotonic(t *testing.T) {
	s, _ := newTestStore(t, kv.NewMemory())
	ctx := context.Background()

	prev := s.Completeness().CompletenessScore
	for _, f := range model.AllFields {
		pt := model.BlankPoint(f)
		pt.Meta().Source = model.SourceUserInput
		require.NoError(t, s.UpdateData(ctx, f, pt))

		cur := s.Completeness().CompletenessScore
		assert.GreaterOrEqual(t, cur, prev, "field %s", f)
		prev = cur
	}
	assert.Equal(t, 100, prev)
}

func TestUpdateData_Rejects(t *testing.T) {
	mem := kv.NewMemory()
	s, _ := newTestStore(t, mem)
	ctx := context.Background()

	err := s.UpdateData(ctx, "ghost", userPoint("x"))
	assert.Error(t, err)

	err = s.UpdateData(ctx, model.FieldCurrentHeadCount, userPoint("fourteen"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "currentHeadCount")

	bad := model.NewDataPoint(14, model.Source("GUESS"), false, testNow)
	err = s.UpdateData(ctx, model.FieldCurrentHeadCount, &bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown source")

	var nilPoint *model.DataPoint[int]
	assert.Error(t, s.UpdateData(ctx, model.FieldCurrentHeadCount, nilPoint))

	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, model.SourceSystemDefault, snap.CurrentHeadCount.Source)
	assert.Zero(t, mem.Keys())
}

func TestUpdateMultipleFields_AllOrNothing(t *testing.T) {
	s, _ := newTestStore(t, kv.NewMemory())
	ctx := context.Background()

	err := s.UpdateMultipleFields(ctx, map[model.Field]model.Point{
		model.FieldCompanyName:      userPoint("Acme"),
		model.FieldCurrentHeadCount: userPoint(3.5),
	})
	require.Error(t, err)

	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.Empty(t, snap.CompanyName.Value)

	require.NoError(t, s.UpdateMultipleFields(ctx, map[model.Field]model.Point{
		model.FieldCompanyName:      userPoint("Acme"),
		model.FieldCurrentHeadCount: userPoint(14),
	}))
	snap, err = s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, "Acme", snap.CompanyName.Value)
	assert.Equal(t, 14, snap.CurrentHeadCount.Value)
	assert.Equal(t, 2, snap.DataCompleteness.UserProvidedFields)
}

func TestMarkAsValidated(t *testing.T) {
	s, clk := newTestStore(t, kv.NewMemory())
	ctx := context.Background()

	dp := model.NewDataPoint(14, model.SourceUserInput, true, testNow)
	require.NoError(t, s.UpdateData(ctx, model.FieldCurrentHeadCount, &dp))

	clk.Advance(time.Minute)
	require.NoError(t, s.MarkAsValidated(ctx, model.FieldCurrentHeadCount))

	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.True(t, snap.CurrentHeadCount.Validated)
	assert.Equal(t, 14, snap.CurrentHeadCount.Value)
	assert.Equal(t, model.SourceUserInput, snap.CurrentHeadCount.Source)
	assert.Equal(t, testNow, snap.CurrentHeadCount.Timestamp)

	assert.Error(t, s.MarkAsValidated(ctx, "ghost"))
}

func TestResetData_DeletesWithoutRepersisting(t *testing.T) {
	mem := kv.NewMemory()
	s, _ := newTestStore(t, mem)
	ctx := context.Background()

	require.NoError(t, s.UpdateData(ctx, model.FieldCompanyName, userPoint("Acme")))
	assert.Equal(t, 2, mem.Keys())

	s.ResetData(ctx)
	assert.Zero(t, mem.Keys())

	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, model.SourceSystemDefault, snap.CompanyName.Source)
	assert.Zero(t, s.Completeness().CompletenessScore)
}

func TestNew_LoadsPersistedProfile(t *testing.T) {
	mem := kv.NewMemory()
	s, _ := newTestStore(t, mem)
	ctx := context.Background()

	require.NoError(t, s.UpdateData(ctx, model.FieldIndustry, userPoint("hardware")))
	require.NoError(t, s.SetUploadStatus(ctx, model.UploadCompleted))

	reloaded, _ := newTestStore(t, mem)
	snap, err := reloaded.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, "hardware", snap.Industry.Value)
	assert.Equal(t, model.UploadCompleted, snap.UploadStatus)
	assert.Equal(t, s.Completeness().CompletenessScore, reloaded.Completeness().CompletenessScore)
}

func TestNew_CorruptPersistedProfileStartsFresh(t *testing.T) {
	mem := kv.NewMemory()
	require.NoError(t, mem.Set(context.Background(), DefaultProfileKey, []byte("{not json")))

	s, _ := newTestStore(t, mem)
	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, model.SourceSystemDefault, snap.CompanyName.Source)
}

func TestExportImport_RoundTrip(t *testing.T) {
	s, _ := newTestStore(t, kv.NewMemory())
	ctx := context.Background()

	require.NoError(t, s.UpdateMultipleFields(ctx, map[model.Field]model.Point{
		model.FieldCompanyName:   userPoint("Acme"),
		model.FieldIndustry:      userPoint("hardware"),
		model.FieldAnnualRevenue: userPoint(1_200_000.0),
	}))
	before := s.Completeness().CompletenessScore

	data, err := s.ExportData()
	require.NoError(t, err)

	other, _ := newTestStore(t, kv.NewMemory())
	require.NoError(t, other.ImportData(ctx, data))
	assert.Equal(t, before, other.Completeness().CompletenessScore)

	require.NoError(t, s.ImportData(ctx, data))
	assert.Equal(t, before, s.Completeness().CompletenessScore)
}

func TestImportData_MalformedLeavesStateUnchanged(t *testing.T) {
	mem := kv.NewMemory()
	s, _ := newTestStore(t, mem)
	ctx := context.Background()

	require.NoError(t, s.UpdateData(ctx, model.FieldCompanyName, userPoint("Acme")))
	before, err := s.ExportData()
	require.NoError(t, err)

	err = s.ImportData(ctx, []byte(`{"companyName": {"value": 12`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "profile: import")

	after, err := s.ExportData()
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
}

func TestImportData_DefaultsUploadStatus(t *testing.T) {
	s, _ := newTestStore(t, kv.NewMemory())
	require.NoError(t, s.ImportData(context.Background(), []byte(`{}`)))
	assert.Equal(t, model.UploadPending, s.UploadStatus())
}

func TestImportData_RejectsNonObject(t *testing.T) {
	mem := kv.NewMemory()
	s, _ := newTestStore(t, mem)
	ctx := context.Background()

	require.NoError(t, s.UpdateData(ctx, model.FieldCompanyName, userPoint("Acme")))
	before, err := s.ExportData()
	require.NoError(t, err)

	for _, doc := range []string{`null`, ` null `, `[]`, `"profile"`, `42`, ``} {
		err := s.ImportData(ctx, []byte(doc))
		require.Error(t, err, "doc %q", doc)
		assert.Contains(t, err.Error(), "profile: import")
	}

	after, err := s.ExportData()
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))

	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, model.SourceTemplate, snap.TariffRates.Source)
}

func TestImportData_PartialDocumentKeepsDefaults(t *testing.T) {
	s, _ := newTestStore(t, kv.NewMemory())
	ctx := context.Background()

	doc := `{"companyName": {"value": "Acme", "source": "USER_INPUT", "validated": true}}`
	require.NoError(t, s.ImportData(ctx, []byte(doc)))

	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, "Acme", snap.CompanyName.Value)
	assert.Equal(t, model.SourceUserInput, snap.CompanyName.Source)
	for _, f := range model.AllFields {
		assert.NotEmpty(t, snap.Point(f).Meta().Source, "field %s", f)
	}
	assert.Equal(t, model.SourceSystemDefault, snap.CurrentHeadCount.Source)
	assert.Equal(t, model.SourceTemplate, snap.TariffRates.Source)
	assert.Equal(t, model.TemplateTariffRates, snap.TariffRates.Value)
	assert.Equal(t, model.SourceTemplate, snap.AlertConfig.Source)
}

func TestImportData_UnknownSourceIsKept(t *testing.T) {
	s, _ := newTestStore(t, kv.NewMemory())
	ctx := context.Background()

	doc := `{"companyName": {"value": "Acme", "source": "BOGUS"}}`
	require.NoError(t, s.ImportData(ctx, []byte(doc)))

	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, model.Source("BOGUS"), snap.CompanyName.Source)
	assert.Equal(t, model.SourceSystemDefault, snap.Industry.Source)
}

func TestUpdateData_RejectsNonFiniteValue(t *testing.T) {
	mem := kv.NewMemory()
	s, _ := newTestStore(t, mem)
	ctx := context.Background()

	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		pt := model.NewDataPoint(v, model.SourceCalculated, false, testNow)
		err := s.UpdateData(ctx, model.FieldTotalImportValue, &pt)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "does not encode")
	}

	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, model.SourceSystemDefault, snap.TotalImportValue.Source)
	assert.Zero(t, mem.Keys())

	_, err = s.ExportData()
	assert.NoError(t, err)
}

func TestGetStepProgress(t *testing.T) {
	s, _ := newTestStore(t, kv.NewMemory())
	ctx := context.Background()

	assert.Equal(t, Progress{}, s.GetStepProgress("nonexistent-step"))
	assert.Equal(t, Progress{Completed: 0, Total: 3}, s.GetStepProgress(validate.StepWorkforcePlanning))

	require.NoError(t, s.UpdateData(ctx, model.FieldCurrentHeadCount, userPoint(14)))
	unconfirmed := model.NewDataPoint(27.5, model.SourceUserInput, true, testNow)
	require.NoError(t, s.UpdateData(ctx, model.FieldAverageHourlyWage, &unconfirmed))

	assert.Equal(t, Progress{Completed: 1, Total: 3, Percentage: 33}, s.GetStepProgress(validate.StepWorkforcePlanning))

	require.NoError(t, s.MarkAsValidated(ctx, model.FieldAverageHourlyWage))
	assert.Equal(t, Progress{Completed: 2, Total: 3, Percentage: 67}, s.GetStepProgress(validate.StepWorkforcePlanning))
}

func TestClearTemplateData(t *testing.T) {
	s, _ := newTestStore(t, kv.NewMemory())
	ctx := context.Background()

	assert.Zero(t, s.ClearTemplateData(ctx), "no upload yet")

	require.NoError(t, s.UpdateData(ctx, model.FieldCompanyName, userPoint("Acme")))
	require.NoError(t, s.SetUploadStatus(ctx, model.UploadCompleted))

	n := s.ClearTemplateData(ctx)
	assert.Equal(t, len(model.AllFields)-1, n)

	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.True(t, snap.TariffRates.RequiresValidation)
	assert.False(t, snap.TariffRates.Validated)
	assert.Equal(t, model.SourceTemplate, snap.TariffRates.Source)
	assert.True(t, snap.CompanyName.Validated)
	assert.False(t, snap.CompanyName.RequiresValidation)

	assert.Zero(t, s.ClearTemplateData(ctx), "already flagged")
}

func TestSetUploadStatus_RejectsUnknown(t *testing.T) {
	s, _ := newTestStore(t, kv.NewMemory())
	assert.Error(t, s.SetUploadStatus(context.Background(), "DONE"))
	assert.Equal(t, model.UploadPending, s.UploadStatus())
}

func TestValidateStep_WorkforceDefaultHeadCount(t *testing.T) {
	s, _ := newTestStore(t, kv.NewMemory())

	res := s.ValidateStep(validate.StepWorkforcePlanning)
	assert.False(t, res.CanProceed)
	assert.Contains(t, res.CriticalFieldsMissing, model.FieldCurrentHeadCount)

	blocking := false
	for _, e := range res.Errors {
		if e.Field == model.FieldCurrentHeadCount && e.BlocksProceed {
			blocking = true
		}
	}
	assert.True(t, blocking)
}

func TestValidateStep_UploadGatesTemplates(t *testing.T) {
	s, _ := newTestStore(t, kv.NewMemory())
	ctx := context.Background()

	require.NoError(t, s.UpdateMultipleFields(ctx, map[model.Field]model.Point{
		model.FieldSuppliers:            userPoint([]model.Supplier{{Name: "Shenzhen Parts", Country: "CN"}}),
		model.FieldSupplierCountries:    userPoint([]string{"CN"}),
		model.FieldAlternativeSuppliers: userPoint([]model.Supplier{{Name: "Monterrey Metal", Country: "MX"}}),
	}))
	before := s.ValidateStep(validate.StepSupplierDiversification)
	assert.Empty(t, filterField(before.Errors, model.FieldDiversificationBudget))

	require.NoError(t, s.SetUploadStatus(ctx, model.UploadCompleted))
	after := s.ValidateStep(validate.StepSupplierDiversification)
	assert.False(t, after.IsValid)
	assert.False(t, after.CanProceed)
	assert.NotEmpty(t, filterField(after.Errors, model.FieldDiversificationBudget))
}

func TestStore_PersistenceFailureIsNotFatal(t *testing.T) {
	s, _ := newTestStore(t, failingKV{})
	ctx := context.Background()

	require.NoError(t, s.UpdateData(ctx, model.FieldCompanyName, userPoint("Acme")))
	require.NoError(t, s.ImportData(ctx, []byte(`{"uploadStatus":"COMPLETED"}`)))
	s.ResetData(ctx)

	require.NoError(t, s.UpdateData(ctx, model.FieldIndustry, userPoint("hardware")))
	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, "hardware", snap.Industry.Value)
}

func TestStore_ConcurrentUpdates(t *testing.T) {
	s, _ := newTestStore(t, kv.NewMemory())
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, f := range model.AllFields {
		wg.Add(1)
		go func(f model.Field) {
			defer wg.Done()
			pt := model.BlankPoint(f)
			pt.Meta().Source = model.SourceUserUpload
			assert.NoError(t, s.UpdateData(ctx, f, pt))
			_ = s.ValidateStep(validate.StepCostAnalysis)
			_ = s.GetStepProgress(validate.StepAlerts)
		}(f)
	}
	wg.Wait()

	assert.Equal(t, 100, s.Completeness().CompletenessScore)
}

func filterField(issues []validate.Issue, f model.Field) []validate.Issue {
	var out []validate.Issue
	for _, is := range issues {
		if is.Field == f {
			out = append(out, is)
		}
	}
	return out
}

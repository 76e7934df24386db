package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-listings-must-flow/internal/classification"
	"github.com/Veraticus/the-listings-must-flow/internal/model"
	"github.com/Veraticus/the-listings-must-flow/internal/service"
	"github.com/Veraticus/the-listings-must-flow/internal/testutil"
)

func seedStale(t *testing.T) *testutil.TestDB {
	t.Helper()
	db := testutil.SetupTestDB(t)
	db.Seed(
		// Contact number left behind by an older scrubber.
		testutil.NewRecord("phone").
			WithMessage("فيلا للإيجار في التجمع الخامس واتساب 01012345678").
			Build(),
		// Stored type contradicts the text.
		testutil.NewRecord("type").
			WithMessage("شقة للبيع").
			Classified(model.CategoryOther, model.PropertyLand, model.PurposeOther, model.RegionOther).
			CreatedAfter(1).
			Build(),
		// Region decided earlier that the rules cannot see.
		testutil.NewRecord("kept").
			WithMessage("شقة للبيع").
			Classified(model.CategoryOffered, model.PropertyApartment, model.PurposeSale, "Maadi").
			CreatedAfter(2).
			Build(),
		testutil.NewRecord("plain").
			WithMessage("صباح الخير").
			CreatedAfter(3).
			Build(),
	)
	return db
}

func byID(records []model.Record) map[string]model.Record {
	out := make(map[string]model.Record, len(records))
	for _, r := range records {
		out[r.ID] = r
	}
	return out
}

func TestReprocessor_Run(t *testing.T) {
	db := seedStale(t)
	rp := NewReprocessor(db.Storage, nil, 2, nil, nil)

	report, err := rp.Run(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, model.ReprocessReport{Scanned: 4, Updated: 2}, report)

	records := byID(db.MustFind("test.txt"))

	phone := records["phone"]
	assert.Equal(t, "فيلا للإيجار في التجمع الخامس واتساب", phone.Message)
	assert.Equal(t, model.PropertyVilla, phone.PropertyType)
	assert.Equal(t, model.PurposeRent, phone.Purpose)
	assert.Equal(t, "Fifth Settlement", phone.Region)

	typ := records["type"]
	assert.Equal(t, model.PropertyApartment, typ.PropertyType)
	assert.Equal(t, model.PurposeSale, typ.Purpose)

	kept := records["kept"]
	assert.Equal(t, "Maadi", kept.Region)
	assert.Equal(t, model.CategoryOffered, kept.Category)
}

func TestReprocessor_Idempotent(t *testing.T) {
	db := seedStale(t)
	enricher := &fakeEnricher{ok: true, suggestion: classification.Result{Region: "Maadi", Category: model.CategoryOffered}}
	rp := NewReprocessor(db.Storage, enricher, 3, nil, nil)
	ctx := context.Background()

	first, err := rp.Run(ctx, false)
	require.NoError(t, err)
	assert.Positive(t, first.Updated)
	assert.Positive(t, first.Enriched)
	after := db.MustFind("test.txt")

	second, err := rp.Run(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, model.ReprocessReport{Scanned: 4}, second)
	assert.Equal(t, after, db.MustFind("test.txt"))
}

func TestReprocessor_ContactOnlyRecordsAreCounted(t *testing.T) {
	db := testutil.SetupTestDB(t)
	db.Seed(
		testutil.NewRecord("keyword").WithMessage("واتساب 01012345678").Build(),
		testutil.NewRecord("number").WithMessage("+20 101 234 5678").CreatedAfter(1).Build(),
		testutil.NewRecord("listing").WithMessage("شقة للبيع 01012345678").CreatedAfter(2).Build(),
	)

	report, err := NewReprocessor(db.Storage, nil, 10, nil, nil).Run(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Scanned)
	assert.Equal(t, 1, report.ContactOnly)

	records := byID(db.MustFind("test.txt"))
	assert.Equal(t, "+20 101 234 5678", records["number"].Message)
	assert.Equal(t, "شقة للبيع", records["listing"].Message)
}

func TestReprocessor_Enrichment(t *testing.T) {
	db := testutil.SetupTestDB(t)
	db.Seed(testutil.NewRecord("r").WithMessage("عرض مميز جدا").Build())
	enricher := &fakeEnricher{ok: true, suggestion: classification.Result{Region: "Maadi"}}

	report, err := NewReprocessor(db.Storage, enricher, 10, nil, nil).Run(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Enriched)
	assert.Equal(t, 1, report.Updated)

	rec := db.MustFind("test.txt")[0]
	assert.True(t, rec.Enriched)
	assert.Equal(t, "Maadi", rec.Region)

	noEnrich := &fakeEnricher{ok: true, suggestion: classification.Result{Region: "Maadi"}}
	db2 := testutil.SetupTestDB(t)
	db2.Seed(testutil.NewRecord("r").WithMessage("عرض مميز جدا").Build())
	report, err = NewReprocessor(db2.Storage, noEnrich, 10, nil, nil).Run(context.Background(), true)
	require.NoError(t, err)
	assert.Zero(t, report.Updated)
	assert.Zero(t, noEnrich.calls.Load())
}

type failingUpdateSink struct {
	service.RecordSink
}

func (s *failingUpdateSink) UpdateClassification(context.Context, model.Record) error {
	return errors.New("database is locked")
}

func TestReprocessor_UpdateErrorsAreCounted(t *testing.T) {
	db := seedStale(t)
	rp := NewReprocessor(&failingUpdateSink{RecordSink: db.Storage}, nil, 10, nil, nil)

	report, err := rp.Run(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 4, report.Scanned)
	assert.Equal(t, 2, report.Errors)
	assert.Zero(t, report.Updated)
}

func TestReprocessor_Observer(t *testing.T) {
	db := seedStale(t)
	rp := NewReprocessor(db.Storage, nil, 3, nil, nil)
	obs := &recordingObserver{}
	rp.SetObserver(obs)

	_, err := rp.Run(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, []Stage{StageReprocessing, StageIdle}, obs.stages)
	assert.Equal(t, 4, obs.done)
}

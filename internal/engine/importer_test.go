package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-listings-must-flow/internal/classification"
	"github.com/Veraticus/the-listings-must-flow/internal/common"
	"github.com/Veraticus/the-listings-must-flow/internal/metrics"
	"github.com/Veraticus/the-listings-must-flow/internal/model"
	"github.com/Veraticus/the-listings-must-flow/internal/service"
	"github.com/Veraticus/the-listings-must-flow/internal/testutil"
)

const sampleExport = "1/1/24, 10:30 AM - Ahmed: شقة للبيع في الحي 12 - اتصل 01012345678\n" +
	"1/1/24, 10:31 AM - Mona +20 101 234 5679: مطلوب فيلا للإيجار بالشيخ زايد\n" +
	"1/1/24, 10:32 AM - Omar: 01012345670\n" +
	"1/1/24, 10:33 AM - Messages and calls are end-to-end encrypted. No one outside of this chat can read them.\n" +
	"1/1/24, 10:34 AM - Sara: محل متاح للبيع\n" +
	"الموقع: شارع التسعين\n"

type fakeEnricher struct {
	suggestion classification.Result
	texts      []string
	calls      atomic.Int32
	mu         sync.Mutex
	ok         bool
}

func (f *fakeEnricher) Enrich(_ context.Context, text string) (classification.Result, bool) {
	f.calls.Add(1)
	f.mu.Lock()
	f.texts = append(f.texts, text)
	f.mu.Unlock()
	return f.suggestion, f.ok
}

type recordingObserver struct {
	stages []Stage
	done   int
	mu     sync.Mutex
}

func (o *recordingObserver) Stage(_ string, s Stage, _ int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stages = append(o.stages, s)
}

func (o *recordingObserver) Advance(_ string, n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.done += n
}

// flakySink fails every bulk write and rejects single records whose message
// contains reject.
type flakySink struct {
	service.RecordSink
	reject string
}

func (s *flakySink) BulkInsert(context.Context, []model.Record) (service.InsertResult, error) {
	return service.InsertResult{}, errors.New("disk I/O error")
}

func (s *flakySink) Insert(ctx context.Context, r model.Record) error {
	if s.reject != "" && strings.Contains(r.Message, s.reject) {
		return errors.New("constraint failed")
	}
	return s.RecordSink.Insert(ctx, r)
}

func newTestImporter(t *testing.T, enricher Enricher) (*Importer, *testutil.TestDB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	cfg := DefaultConfig()
	cfg.Workers = 4
	im := NewImporter(db.Storage, db.Storage, enricher, cfg, metrics.New(), nil)
	return im, db
}

func TestImport_EndToEnd(t *testing.T) {
	im, db := newTestImporter(t, nil)

	report, err := im.Import(context.Background(), Source{Name: "group.txt", Text: sampleExport}, Options{})
	require.NoError(t, err)

	assert.Equal(t, model.ImportReport{
		SourceFile:     "group.txt",
		Parsed:         4,
		Imported:       3,
		Skipped:        1,
		SendersCreated: 2,
	}, report)

	records := db.MustFind("group.txt")
	require.Len(t, records, 3)

	ahmed := records[0]
	assert.NotContains(t, ahmed.Message, "01012345678")
	assert.Contains(t, ahmed.Message, "شقة للبيع في الحي 12")
	assert.Equal(t, "Ahmed", ahmed.SenderName)
	assert.Equal(t, "01012345678", ahmed.SenderMobile)
	assert.Positive(t, ahmed.SenderID)
	assert.Equal(t, "1/1/24, 10:30 AM", ahmed.Timestamp)
	require.NotNil(t, ahmed.PostedAt)
	assert.True(t, ahmed.PostedAt.Equal(time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC)))
	assert.Equal(t, model.CategoryOther, ahmed.Category)
	assert.Equal(t, model.PropertyApartment, ahmed.PropertyType)
	assert.Equal(t, model.PurposeSale, ahmed.Purpose)
	assert.Equal(t, "Block 12", ahmed.Region)
	assert.False(t, ahmed.Enriched)

	mona := records[1]
	assert.Equal(t, "01012345679", mona.SenderMobile)
	assert.Equal(t, model.CategoryWanted, mona.Category)
	assert.Equal(t, model.PropertyVilla, mona.PropertyType)
	assert.Equal(t, model.PurposeRent, mona.Purpose)
	assert.Equal(t, "Sheikh Zayed", mona.Region)

	sara := records[2]
	assert.Equal(t, "محل متاح للبيع\nالموقع: شارع التسعين", sara.Message)
	assert.Equal(t, model.MobileUnknown, sara.SenderMobile)
	assert.Zero(t, sara.SenderID)
	assert.Equal(t, model.CategoryOffered, sara.Category)
	assert.Equal(t, model.PropertyShop, sara.PropertyType)
	assert.Equal(t, "شارع التسعين", sara.Region)

	ids := map[string]bool{}
	for _, r := range records {
		ids[r.ID] = true
	}
	assert.Len(t, ids, 3)
}

func TestImport_Reimport(t *testing.T) {
	tests := []struct {
		name         string
		replace      bool
		wantTotal    int
		wantReplaced int
	}{
		{name: "replace keeps count", replace: true, wantTotal: 3, wantReplaced: 3},
		{name: "append duplicates", replace: false, wantTotal: 6, wantReplaced: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			im, db := newTestImporter(t, nil)
			ctx := context.Background()
			src := Source{Name: "group.txt", Text: sampleExport}

			_, err := im.Import(ctx, src, Options{Replace: tt.replace})
			require.NoError(t, err)
			report, err := im.Import(ctx, src, Options{Replace: tt.replace})
			require.NoError(t, err)

			assert.Equal(t, tt.wantTotal, db.MustCount())
			assert.Equal(t, tt.wantReplaced, report.Replaced)
			assert.Zero(t, report.SendersCreated)
		})
	}
}

func TestImport_Enrichment(t *testing.T) {
	enricher := &fakeEnricher{
		ok: true,
		suggestion: classification.Result{
			Category:     model.CategoryOffered,
			PropertyType: model.PropertyLand,
			Purpose:      model.PurposeRent,
			Region:       "Maadi",
		},
	}
	im, db := newTestImporter(t, enricher)

	report, err := im.Import(context.Background(), Source{Name: "group.txt", Text: sampleExport}, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Enriched)
	assert.EqualValues(t, 1, enricher.calls.Load())
	assert.Equal(t, []string{"شقة للبيع في الحي 12 - اتصل"}, enricher.texts)

	ahmed := db.MustFind("group.txt")[0]
	assert.True(t, ahmed.Enriched)
	assert.Equal(t, model.CategoryOffered, ahmed.Category)
	assert.Equal(t, model.PropertyApartment, ahmed.PropertyType)
	assert.Equal(t, model.PurposeSale, ahmed.Purpose)
	assert.Equal(t, "Block 12", ahmed.Region)
}

func TestImport_EnrichmentSkipped(t *testing.T) {
	tests := []struct {
		name     string
		enricher *fakeEnricher
		opts     Options
		calls    int32
	}{
		{name: "no-enrich option", enricher: &fakeEnricher{ok: true}, opts: Options{NoEnrich: true}, calls: 0},
		{name: "no suggestion", enricher: &fakeEnricher{ok: false}, calls: 1},
		{
			name: "suggestion fills nothing",
			enricher: &fakeEnricher{ok: true, suggestion: classification.Result{
				Category: model.CategoryOther, Region: model.RegionOther,
			}},
			calls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			im, db := newTestImporter(t, tt.enricher)
			report, err := im.Import(context.Background(), Source{Name: "g.txt", Text: sampleExport}, tt.opts)
			require.NoError(t, err)
			assert.Zero(t, report.Enriched)
			assert.Equal(t, tt.calls, tt.enricher.calls.Load())
			for _, r := range db.MustFind("g.txt") {
				assert.False(t, r.Enriched)
			}
		})
	}
}

func TestImport_FallsBackToSingleInserts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	sink := &flakySink{RecordSink: db.Storage, reject: "فيلا"}
	im := NewImporter(sink, db.Storage, nil, DefaultConfig(), nil, nil)

	report, err := im.Import(context.Background(), Source{Name: "group.txt", Text: sampleExport}, Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Imported)
	assert.Equal(t, 1, report.Errors)
	assert.Equal(t, 2, db.MustCount())
}

func TestImport_DuplicateIDsAreSkipped(t *testing.T) {
	tests := []struct {
		sink func(db *testutil.TestDB) service.RecordSink
		name string
	}{
		{name: "bulk", sink: func(db *testutil.TestDB) service.RecordSink { return db.Storage }},
		{name: "single", sink: func(db *testutil.TestDB) service.RecordSink { return &flakySink{RecordSink: db.Storage} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.SetupTestDB(t)
			im := NewImporter(tt.sink(db), db.Storage, nil, DefaultConfig(), nil, nil)
			im.newID = func() string { return "fixed" }

			report, err := im.Import(context.Background(), Source{Name: "group.txt", Text: sampleExport}, Options{})
			require.NoError(t, err)
			assert.Equal(t, 1, report.Imported)
			assert.Equal(t, 3, report.Skipped)
			assert.Zero(t, report.Errors)
			assert.Equal(t, 1, db.MustCount())
		})
	}
}

func TestImport_SmallBatches(t *testing.T) {
	db := testutil.SetupTestDB(t)
	im := NewImporter(db.Storage, db.Storage, nil, Config{Workers: 1, BatchSize: 1}, nil, nil)

	report, err := im.Import(context.Background(), Source{Name: "group.txt", Text: sampleExport}, Options{})
	require.NoError(t, err)
	assert.Equal(t, 3, report.Imported)

	records := db.MustFind("group.txt")
	require.Len(t, records, 3)
	assert.Equal(t, "Ahmed", records[0].SenderName)
	assert.Equal(t, "Sara", records[2].SenderName)
}

func TestImport_Observer(t *testing.T) {
	im, _ := newTestImporter(t, &fakeEnricher{ok: false})
	obs := &recordingObserver{}
	im.SetObserver(obs)

	_, err := im.Import(context.Background(), Source{Name: "group.txt", Text: sampleExport}, Options{})
	require.NoError(t, err)

	assert.Equal(t, []Stage{StageParsing, StageClassifying, StageEnriching, StagePersisting, StageIdle}, obs.stages)
	// 1 parse step, 4 messages classified, 1 enrichment, 3 records stored.
	assert.Equal(t, 9, obs.done)
}

func TestImport_InvalidInput(t *testing.T) {
	im, _ := newTestImporter(t, nil)

	_, err := im.Import(context.Background(), Source{Name: " ", Text: sampleExport}, Options{})
	require.ErrorIs(t, err, common.ErrInvalidInput)

	report, err := im.Import(context.Background(), Source{Name: "empty.txt", Text: "no headers here\n"}, Options{})
	require.NoError(t, err)
	assert.Zero(t, report.Parsed)
	assert.Zero(t, report.Imported)
}

func TestImport_Canceled(t *testing.T) {
	im, db := newTestImporter(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := im.Import(ctx, Source{Name: "group.txt", Text: sampleExport}, Options{})
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, db.MustCount())
}

func TestImportAll(t *testing.T) {
	im, db := newTestImporter(t, nil)

	report, err := im.ImportAll(context.Background(), []Source{
		{Name: "a.txt", Text: sampleExport},
		{Name: "b.txt", Text: sampleExport},
		{Name: "", Text: sampleExport},
	}, Options{Replace: true})
	require.ErrorIs(t, err, common.ErrInvalidInput)

	assert.Equal(t, 8, report.Parsed)
	assert.Equal(t, 6, report.Imported)
	assert.Equal(t, 6, db.MustCount())
	assert.Equal(t, 2, report.SendersCreated)
}

func TestImportAll_DuplicateSourceNames(t *testing.T) {
	im, db := newTestImporter(t, nil)

	report, err := im.ImportAll(context.Background(), []Source{
		{Name: "_chat.txt", Text: sampleExport},
		{Name: "_chat.txt ", Text: sampleExport},
	}, Options{Replace: true})
	require.ErrorIs(t, err, common.ErrInvalidInput)
	assert.Contains(t, err.Error(), "_chat.txt")

	assert.Zero(t, report.Imported)
	assert.Zero(t, report.Replaced)
	assert.Zero(t, db.MustCount())
}

package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/verte-zerg/koch/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func result(lessonID int, accuracy float64, ended time.Time, durationMs int64) model.PracticeResult {
	return model.PracticeResult{
		Lesson:     lessonID,
		StartedAt:  ended.Add(-time.Duration(durationMs) * time.Millisecond),
		EndedAt:    ended,
		Expected:   "KMKMK",
		Typed:      "KMKMK",
		Accuracy:   accuracy,
		DurationMs: durationMs,
	}
}

func sampleResults() []model.PracticeResult {
	base := time.Date(2025, 3, 10, 9, 15, 0, 0, time.UTC)
	return []model.PracticeResult{
		result(1, 80, base, 60_000),
		result(1, 90, base.Add(20*time.Minute), 30_000),
		result(2, 100, base.Add(2*time.Hour), 45_000),
		result(2, 70, base.AddDate(0, 0, 3), 90_000),
		result(3, 95, base.AddDate(0, 1, 0), 10_000),
	}
}

type flakyBackend struct {
	fail   bool
	stored []model.PracticeResult
	closed bool
}

func (b *flakyBackend) Load(context.Context) ([]model.PracticeResult, error) {
	return append([]model.PracticeResult(nil), b.stored...), nil
}

func (b *flakyBackend) Append(_ context.Context, results []model.PracticeResult) error {
	if b.fail {
		return errors.New("disk full")
	}
	b.stored = append(b.stored, results...)
	return nil
}

func (b *flakyBackend) Close() error {
	b.closed = true
	return nil
}

func openJSON(t *testing.T, path string) *Store {
	t.Helper()
	s, err := Open(context.Background(), NewJSONFile(path), discardLogger())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return s
}

func TestJSONRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "statistics.json")
	s := openJSON(t, path)
	for _, r := range sampleResults() {
		recorded, err := s.Record(ctx, r)
		if err != nil {
			t.Fatalf("record: %v", err)
		}
		if recorded.ID == "" {
			t.Fatalf("expected id to be assigned")
		}
	}
	if err := s.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), `"version": 1`) {
		t.Fatalf("expected versioned document, got %s", data)
	}

	reopened := openJSON(t, path)
	if reopened.Len() != len(sampleResults()) {
		t.Fatalf("expected %d results, got %d", len(sampleResults()), reopened.Len())
	}
	total := reopened.Totals(model.GlobalScope)
	if total.Count != 5 || total.DurationMs != 235_000 {
		t.Fatalf("unexpected totals: %+v", total)
	}
	if got := reopened.Lessons(); len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Fatalf("unexpected lessons: %v", got)
	}
}

func TestRecordsAreOrderIndependent(t *testing.T) {
	ctx := context.Background()
	forward, _ := Open(ctx, &flakyBackend{}, discardLogger())
	backward, _ := Open(ctx, &flakyBackend{}, discardLogger())
	results := sampleResults()
	for i := range results {
		if _, err := forward.Record(ctx, results[i]); err != nil {
			t.Fatalf("record: %v", err)
		}
		if _, err := backward.Record(ctx, results[len(results)-1-i]); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	for _, scope := range []int{model.GlobalScope, 1, 2, 3} {
		for _, g := range model.Granularities {
			a := forward.Records(scope, g)
			b := backward.Records(scope, g)
			if len(a) != len(b) {
				t.Fatalf("scope %d %s: %d vs %d buckets", scope, g, len(a), len(b))
			}
			for i := range a {
				if a[i].Key != b[i].Key || a[i].Count != b[i].Count || a[i].DurationMs != b[i].DurationMs || a[i].AccuracySum != b[i].AccuracySum {
					t.Fatalf("scope %d %s bucket %d differs: %+v vs %+v", scope, g, i, a[i], b[i])
				}
			}
		}
	}
}

func TestRecordsBuckets(t *testing.T) {
	ctx := context.Background()
	s, _ := Open(ctx, &flakyBackend{}, discardLogger())
	for _, r := range sampleResults() {
		if _, err := s.Record(ctx, r); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	hours := s.Records(model.GlobalScope, model.Hour)
	if len(hours) != 4 || hours[0].Key != "2025-03-10 09:00" || hours[0].Count != 2 {
		t.Fatalf("unexpected hour buckets: %+v", hours)
	}
	if avg := hours[0].AverageAccuracy(); avg != 85 {
		t.Fatalf("expected 85 average, got %v", avg)
	}
	days := s.Records(1, model.Day)
	if len(days) != 1 || days[0].Count != 2 || days[0].DurationMs != 90_000 {
		t.Fatalf("unexpected lesson day buckets: %+v", days)
	}
	months := s.Records(model.GlobalScope, model.Month)
	if len(months) != 2 || months[0].Key != "2025-03" || months[1].Key != "2025-04" {
		t.Fatalf("unexpected month buckets: %+v", months)
	}
	if got := s.Accuracies(2); len(got) != 2 || got[0] != 100 || got[1] != 70 {
		t.Fatalf("unexpected accuracies: %v", got)
	}
	if got := s.Recent(model.GlobalScope, 2); len(got) != 2 || got[1].Lesson != 3 {
		t.Fatalf("unexpected recent results: %+v", got)
	}
	if got := s.Records(9, model.Day); len(got) != 0 {
		t.Fatalf("expected no buckets for unpracticed lesson, got %+v", got)
	}
}

func TestRecordRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	s, _ := Open(ctx, &flakyBackend{}, discardLogger())
	now := time.Now()
	cases := []model.PracticeResult{
		result(0, 50, now, 1),
		result(41, 50, now, 1),
		result(1, 100.5, now, 1),
		result(1, -1, now, 1),
		result(1, 50, time.Time{}, 1),
	}
	for _, r := range cases {
		if _, err := s.Record(ctx, r); !errors.Is(err, ErrInvalidResult) {
			t.Fatalf("expected invalid result error for %+v, got %v", r, err)
		}
	}
	if s.Len() != 0 {
		t.Fatalf("expected nothing recorded, got %d", s.Len())
	}
}

func TestNaNAccuracyIsRejectedAndLaterResultsPersist(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "statistics.json")
	s := openJSON(t, path)

	_, err := s.Record(ctx, result(1, math.NaN(), time.Now(), 1000))
	if !errors.Is(err, ErrInvalidResult) || errors.Is(err, ErrPersistence) {
		t.Fatalf("expected NaN accuracy rejected as invalid, got %v", err)
	}
	if _, err := s.Record(ctx, result(1, 90, time.Now(), 1000)); err != nil {
		t.Fatalf("record valid result: %v", err)
	}
	if s.Len() != 1 || s.Pending() != 0 {
		t.Fatalf("expected one persisted result, len=%d pending=%d", s.Len(), s.Pending())
	}
	if got := openJSON(t, path).Len(); got != 1 {
		t.Fatalf("expected reopened store to hold 1 result, got %d", got)
	}
}

func TestPersistenceFailureIsRetried(t *testing.T) {
	ctx := context.Background()
	backend := &flakyBackend{fail: true}
	s, _ := Open(ctx, backend, discardLogger())

	_, err := s.Record(ctx, result(1, 90, time.Now(), 1000))
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	var perr *PersistenceError
	if !errors.As(err, &perr) || perr.Pending != 1 {
		t.Fatalf("expected pending count 1, got %v", err)
	}
	if s.Len() != 1 || s.Pending() != 1 {
		t.Fatalf("expected result kept in memory, len=%d pending=%d", s.Len(), s.Pending())
	}

	backend.fail = false
	if _, err := s.Record(ctx, result(1, 95, time.Now(), 1000)); err != nil {
		t.Fatalf("record after recovery: %v", err)
	}
	if len(backend.stored) != 2 || s.Pending() != 0 {
		t.Fatalf("expected both results persisted, stored=%d pending=%d", len(backend.stored), s.Pending())
	}

	backend.fail = true
	if _, err := s.Record(ctx, result(2, 95, time.Now(), 1000)); err == nil {
		t.Fatalf("expected failure")
	}
	backend.fail = false
	if err := s.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
	if len(backend.stored) != 3 || !backend.closed {
		t.Fatalf("expected close to flush, stored=%d", len(backend.stored))
	}
}

func TestMalformedFileStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "statistics.json")
	if err := os.WriteFile(path, []byte("{broken"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s := openJSON(t, path)
	if s.Len() != 0 {
		t.Fatalf("expected empty history, got %d", s.Len())
	}
	matches, err := filepath.Glob(path + ".corrupt-*")
	if err != nil || len(matches) != 1 {
		t.Fatalf("expected malformed file moved aside, got %v (%v)", matches, err)
	}
	if _, err := s.Record(context.Background(), result(1, 90, time.Now(), 1)); err != nil {
		t.Fatalf("record: %v", err)
	}
	if openJSON(t, path).Len() != 1 {
		t.Fatalf("expected fresh document after recovery")
	}
}

func TestUnsupportedVersionIsMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "statistics.json")
	if err := os.WriteFile(path, []byte(`{"version":7,"results":[]}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := NewJSONFile(path).Load(context.Background()); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected malformed error, got %v", err)
	}
}

func TestMissingFileStartsEmpty(t *testing.T) {
	s := openJSON(t, filepath.Join(t.TempDir(), "none", "statistics.json"))
	if s.Len() != 0 || len(s.Records(model.GlobalScope, model.Day)) != 0 {
		t.Fatalf("expected empty store")
	}
	if total := s.Totals(model.GlobalScope); total.Count != 0 || total.AverageAccuracy() != 0 {
		t.Fatalf("unexpected totals: %+v", total)
	}
}

func testBackendRoundTrip(t *testing.T, open func() Backend) {
	t.Helper()
	ctx := context.Background()
	s, err := Open(ctx, open(), discardLogger())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	results := sampleResults()
	for _, r := range results {
		if _, err := s.Record(ctx, r); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	if err := s.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(ctx, open(), discardLogger())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close(ctx) }()
	got := reopened.Results(model.GlobalScope)
	if len(got) != len(results) {
		t.Fatalf("expected %d results, got %d", len(results), len(got))
	}
	for i := range got {
		if !got[i].EndedAt.Equal(results[i].EndedAt) || got[i].Accuracy != results[i].Accuracy || got[i].Lesson != results[i].Lesson {
			t.Fatalf("result %d mismatch: %+v vs %+v", i, got[i], results[i])
		}
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "statistics.db")
	testBackendRoundTrip(t, func() Backend {
		db, err := OpenSQLite(path)
		if err != nil {
			t.Fatalf("open sqlite: %v", err)
		}
		return db
	})
}

func TestBadgerRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "statistics.badger")
	testBackendRoundTrip(t, func() Backend {
		db, err := OpenBadger(path)
		if err != nil {
			t.Fatalf("open badger: %v", err)
		}
		return db
	})
}

func TestSQLiteSkipsUnreadableRow(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "statistics.db")
	db, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	results := sampleResults()[:2]
	results[0].ID, results[1].ID = "first", "second"
	if err := db.Append(ctx, results); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := db.db.Exec(`UPDATE results SET ended_at = 'yesterday' WHERE accuracy = 80`); err != nil {
		t.Fatalf("corrupt row: %v", err)
	}

	s, err := Open(ctx, db, discardLogger())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer func() { _ = s.Close(ctx) }()
	if got := s.Results(model.GlobalScope); len(got) != 1 || got[0].Accuracy != 90 {
		t.Fatalf("expected the readable row kept, got %+v", got)
	}
}

func TestSQLiteLoadKeepsInsertionOrderAcrossOffsets(t *testing.T) {
	ctx := context.Background()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "statistics.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer func() { _ = db.Close() }()
	// 10:00+02:00 is earlier than 09:00Z but sorts after it as text.
	early := result(1, 70, time.Date(2025, 1, 1, 10, 0, 0, 0, time.FixedZone("EET", 2*3600)), 1000)
	late := result(1, 80, time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC), 1000)
	early.ID, late.ID = "early", "late"
	if err := db.Append(ctx, []model.PracticeResult{early, late}); err != nil {
		t.Fatalf("append: %v", err)
	}
	loaded, err := db.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 2 || loaded[0].ID != "early" || !loaded[0].EndedAt.Equal(early.EndedAt) {
		t.Fatalf("expected insertion order, got %+v", loaded)
	}
}

func TestBadgerSkipsUnreadableValue(t *testing.T) {
	ctx := context.Background()
	db, err := OpenBadger(filepath.Join(t.TempDir(), "statistics.badger"))
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	if err := db.Append(ctx, sampleResults()[:1]); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := db.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte("results/00000000000000000001/broken"), []byte("{not json"))
	}); err != nil {
		t.Fatalf("corrupt value: %v", err)
	}

	loaded, err := db.Load(ctx)
	if !errors.Is(err, ErrMalformed) || len(loaded) != 1 {
		t.Fatalf("expected one result and a malformed error, got %d (%v)", len(loaded), err)
	}
	s, err := Open(ctx, db, discardLogger())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer func() { _ = s.Close(ctx) }()
	if s.Len() != 1 {
		t.Fatalf("expected the readable result kept, got %d", s.Len())
	}
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{"": KindJSON, "SQLite": KindSQLite, "badger": KindBadger} {
		got, err := ParseKind(in)
		if err != nil || got != want {
			t.Fatalf("parse %q: expected %s, got %s (%v)", in, want, got, err)
		}
	}
	if _, err := ParseKind("mongo"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestParseLegacyAndImport(t *testing.T) {
	doc := `{
		"total_practice_time": 75.5,
		"total_practice_count": 2,
		"lessons": {
			"2": {"lesson_name": "02 - U", "accuracy_history": [
				{"timestamp": "2025-01-05T10:00:00.123456", "accuracy": 92.5, "practice_time": 45.5}
			]},
			"1": {"lesson_name": "01 - K, M", "accuracy_history": [
				{"timestamp": "2025-01-04T09:00:00", "accuracy": 80, "practice_time": 30}
			]}
		}
	}`
	results, err := ParseLegacy(strings.NewReader(doc), time.UTC)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(results) != 2 || results[0].Lesson != 1 || results[1].DurationMs != 45_500 {
		t.Fatalf("unexpected results: %+v", results)
	}

	ctx := context.Background()
	backend := &flakyBackend{}
	s, _ := Open(ctx, backend, discardLogger())
	added, err := s.Import(ctx, append(results, result(99, 50, time.Now(), 1)))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if added != 2 || len(backend.stored) != 2 {
		t.Fatalf("expected 2 imported, got %d (stored %d)", added, len(backend.stored))
	}

	if _, err := ParseLegacy(strings.NewReader(`{"lessons":{"x":{}}}`), time.UTC); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected malformed error, got %v", err)
	}
}

func TestImportSameLegacyFileTwice(t *testing.T) {
	doc := `{"lessons": {"3": {"accuracy_history": [
		{"timestamp": "2025-02-01T08:00:00", "accuracy": 85, "practice_time": 40},
		{"timestamp": "2025-02-02T08:00:00", "accuracy": 91, "practice_time": 42}
	]}}}`
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "statistics.json")
	s := openJSON(t, path)
	for i, want := range []int{2, 0} {
		results, err := ParseLegacy(strings.NewReader(doc), time.UTC)
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		added, err := s.Import(ctx, results)
		if err != nil {
			t.Fatalf("import %d: %v", i+1, err)
		}
		if added != want {
			t.Fatalf("import %d: expected %d added, got %d", i+1, want, added)
		}
	}
	if err := s.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened := openJSON(t, path)
	if reopened.Len() != 2 || reopened.Totals(3).Count != 2 {
		t.Fatalf("expected 2 results after reimport, got %d", reopened.Len())
	}
	results, _ := ParseLegacy(strings.NewReader(doc), time.UTC)
	if added, err := reopened.Import(ctx, results); err != nil || added != 0 {
		t.Fatalf("expected reopened store to recognise imported ids, added=%d err=%v", added, err)
	}
}
